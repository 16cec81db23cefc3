package server

import (
	"errors"
	"log/slog"
	"strconv"

	"blogrr/internal/middleware"
	"blogrr/internal/models"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

const postNotFoundMessage = "Post not found"

// parseID extracts the :id route parameter.
// A non-numeric id writes 400. A numeric id that no post can have (zero,
// negative or out of range) writes 404. Callers should check: if err != nil { return nil }
func (s *Server) parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := strconv.ParseInt(c.Params(param), 10, 64)
	if errors.Is(err, strconv.ErrRange) || (err == nil && id <= 0) {
		_ = models.RespondWithError(c, fiber.StatusNotFound,
			&models.AppError{Code: models.CodeNotFound, Message: postNotFoundMessage})
		return 0, errResponseWritten
	}
	if err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid ID"))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// respondPostError maps a service error to its HTTP status. Failures other
// than validation and not-found are logged and answered with failureMessage,
// never with their cause.
func (s *Server) respondPostError(c *fiber.Ctx, err error, failureMessage string) error {
	switch models.ErrorCode(err) {
	case models.CodeValidation:
		return models.RespondWithError(c, fiber.StatusBadRequest, err)
	case models.CodeNotFound:
		return models.RespondWithError(c, fiber.StatusNotFound,
			&models.AppError{Code: models.CodeNotFound, Message: postNotFoundMessage})
	}

	code := models.ErrorCode(err)
	if code == "" {
		code = models.CodeInternal
	}
	middleware.Logger.ErrorContext(c.UserContext(), failureMessage,
		slog.String("code", code),
		slog.String("error", err.Error()),
		slog.String("path", c.Path()),
	)
	return models.RespondWithError(c, fiber.StatusInternalServerError,
		&models.AppError{Code: code, Message: failureMessage})
}

// hasBody reports whether the request carries a non-empty body.
func hasBody(c *fiber.Ctx) bool {
	return len(c.Body()) > 0
}
