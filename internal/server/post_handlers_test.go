package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"blogrr/internal/models"
	"blogrr/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockPostRepository is a mock of the PostRepository interface
type MockPostRepository struct {
	mock.Mock
}

func (m *MockPostRepository) Initialize(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockPostRepository) List(ctx context.Context) ([]*models.Post, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Post), args.Error(1)
}

func (m *MockPostRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Post), args.Error(1)
}

func (m *MockPostRepository) Create(ctx context.Context, title, content, author string) (*models.Post, error) {
	args := m.Called(ctx, title, content, author)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Post), args.Error(1)
}

func (m *MockPostRepository) Update(ctx context.Context, id uint, fields models.PostFields) (*models.Post, error) {
	args := m.Called(ctx, id, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Post), args.Error(1)
}

func (m *MockPostRepository) Delete(ctx context.Context, id uint) (*models.Post, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Post), args.Error(1)
}

func (m *MockPostRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPostRepository) DeleteAll(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func setupHandlerApp(mockRepo *MockPostRepository) *fiber.App {
	app := fiber.New()
	s := &Server{postService: service.NewPostService(mockRepo, nil)}

	app.Get("/posts", s.GetPosts)
	app.Post("/posts", s.CreatePost)
	app.Get("/posts/:id", s.GetPost)
	app.Patch("/posts/:id", s.UpdatePost)
	app.Delete("/posts/:id", s.DeletePost)
	return app
}

func decodeError(t *testing.T, body io.Reader) models.ErrorResponse {
	t.Helper()
	var resp models.ErrorResponse
	require.NoError(t, json.NewDecoder(body).Decode(&resp))
	return resp
}

func TestGetPosts(t *testing.T) {
	t.Run("empty list is an empty array", func(t *testing.T) {
		mockRepo := new(MockPostRepository)
		mockRepo.On("List", mock.Anything).Return([]*models.Post{}, nil)
		app := setupHandlerApp(mockRepo)

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/posts", nil))
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		raw, _ := io.ReadAll(resp.Body)
		assert.Equal(t, "[]", strings.TrimSpace(string(raw)))
	})

	t.Run("store failure hides the cause", func(t *testing.T) {
		mockRepo := new(MockPostRepository)
		mockRepo.On("List", mock.Anything).
			Return(nil, models.NewStoreError("list", errors.New("dial tcp 10.0.0.5:5432: connection refused")))
		app := setupHandlerApp(mockRepo)

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/posts", nil))
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		body := decodeError(t, resp.Body)
		assert.Equal(t, "Error fetching posts", body.Message)
		assert.Equal(t, models.CodeStore, body.Code)
	})
}

func TestGetPost(t *testing.T) {
	tests := []struct {
		name           string
		path           string
		mockSetup      func(m *MockPostRepository)
		expectedStatus int
		expectedMsg    string
	}{
		{
			name: "Success",
			path: "/posts/1",
			mockSetup: func(m *MockPostRepository) {
				m.On("GetByID", mock.Anything, uint(1)).Return(&models.Post{ID: 1, Title: "Hello"}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "Not found",
			path: "/posts/42",
			mockSetup: func(m *MockPostRepository) {
				m.On("GetByID", mock.Anything, uint(42)).Return(nil, models.NewNotFoundError("Post", 42))
			},
			expectedStatus: http.StatusNotFound,
			expectedMsg:    "Post not found",
		},
		{
			name:           "Non-numeric id",
			path:           "/posts/abc",
			mockSetup:      func(_ *MockPostRepository) {},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "Invalid ID",
		},
		{
			name:           "Zero id cannot exist",
			path:           "/posts/0",
			mockSetup:      func(_ *MockPostRepository) {},
			expectedStatus: http.StatusNotFound,
			expectedMsg:    "Post not found",
		},
		{
			name:           "Negative id cannot exist",
			path:           "/posts/-3",
			mockSetup:      func(_ *MockPostRepository) {},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "Out of range id cannot exist",
			path:           "/posts/99999999999999999999999",
			mockSetup:      func(_ *MockPostRepository) {},
			expectedStatus: http.StatusNotFound,
		},
		{
			name: "Store failure",
			path: "/posts/7",
			mockSetup: func(m *MockPostRepository) {
				m.On("GetByID", mock.Anything, uint(7)).Return(nil, models.NewStoreError("get", errors.New("timeout")))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedMsg:    "Error fetching post",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockPostRepository)
			tt.mockSetup(mockRepo)
			app := setupHandlerApp(mockRepo)

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, tt.path, nil))
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
			if tt.expectedMsg != "" {
				assert.Equal(t, tt.expectedMsg, decodeError(t, resp.Body).Message)
			}
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestCreatePost(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		mockSetup      func(m *MockPostRepository)
		expectedStatus int
		expectedMsg    string
	}{
		{
			name: "Success",
			body: `{"title":"New Post","content":"Hello world","author":"Ann"}`,
			mockSetup: func(m *MockPostRepository) {
				m.On("Create", mock.Anything, "New Post", "Hello world", "Ann").
					Return(&models.Post{ID: 1, Title: "New Post", Content: "Hello world", Author: "Ann"}, nil)
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "Missing author",
			body:           `{"title":"New Post","content":"Hello world"}`,
			mockSetup:      func(_ *MockPostRepository) {},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "Author is required",
		},
		{
			name:           "Whitespace title",
			body:           `{"title":"   ","content":"Hello world","author":"Ann"}`,
			mockSetup:      func(_ *MockPostRepository) {},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "Title is required",
		},
		{
			name:           "Malformed JSON",
			body:           `{"title":`,
			mockSetup:      func(_ *MockPostRepository) {},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "Invalid request body",
		},
		{
			name: "Store failure",
			body: `{"title":"t","content":"c","author":"a"}`,
			mockSetup: func(m *MockPostRepository) {
				m.On("Create", mock.Anything, "t", "c", "a").
					Return(nil, models.NewStoreError("create", errors.New("disk full")))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedMsg:    "Error creating post",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockPostRepository)
			tt.mockSetup(mockRepo)
			app := setupHandlerApp(mockRepo)

			req := httptest.NewRequest(http.MethodPost, "/posts", bytes.NewReader([]byte(tt.body)))
			req.Header.Set("Content-Type", "application/json")

			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
			if tt.expectedMsg != "" {
				assert.Equal(t, tt.expectedMsg, decodeError(t, resp.Body).Message)
			}
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestUpdatePost(t *testing.T) {
	title := "Renamed"

	tests := []struct {
		name           string
		path           string
		body           string
		mockSetup      func(m *MockPostRepository)
		expectedStatus int
		expectedMsg    string
	}{
		{
			name: "Partial update",
			path: "/posts/3",
			body: `{"title":"Renamed"}`,
			mockSetup: func(m *MockPostRepository) {
				m.On("Update", mock.Anything, uint(3), models.PostFields{Title: &title}).
					Return(&models.Post{ID: 3, Title: title}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "Empty body refreshes only",
			path: "/posts/3",
			body: "",
			mockSetup: func(m *MockPostRepository) {
				m.On("Update", mock.Anything, uint(3), models.PostFields{}).
					Return(&models.Post{ID: 3}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Blank present field",
			path:           "/posts/3",
			body:           `{"content":"  "}`,
			mockSetup:      func(_ *MockPostRepository) {},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "Content cannot be empty",
		},
		{
			name:           "Wrong field type",
			path:           "/posts/3",
			body:           `{"title":12}`,
			mockSetup:      func(_ *MockPostRepository) {},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "Invalid request body",
		},
		{
			name: "Missing post",
			path: "/posts/9",
			body: `{"title":"Renamed"}`,
			mockSetup: func(m *MockPostRepository) {
				m.On("Update", mock.Anything, uint(9), mock.Anything).
					Return(nil, models.NewNotFoundError("Post", 9))
			},
			expectedStatus: http.StatusNotFound,
			expectedMsg:    "Post not found",
		},
		{
			name: "Store failure",
			path: "/posts/3",
			body: `{"title":"Renamed"}`,
			mockSetup: func(m *MockPostRepository) {
				m.On("Update", mock.Anything, uint(3), mock.Anything).
					Return(nil, models.NewStoreError("update", errors.New("deadlock detected")))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedMsg:    "Error updating post",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockPostRepository)
			tt.mockSetup(mockRepo)
			app := setupHandlerApp(mockRepo)

			req := httptest.NewRequest(http.MethodPatch, tt.path, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")

			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
			if tt.expectedMsg != "" {
				assert.Equal(t, tt.expectedMsg, decodeError(t, resp.Body).Message)
			}
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestDeletePost(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockRepo := new(MockPostRepository)
		mockRepo.On("Delete", mock.Anything, uint(5)).Return(&models.Post{ID: 5}, nil)
		app := setupHandlerApp(mockRepo)

		resp, err := app.Test(httptest.NewRequest(http.MethodDelete, "/posts/5", nil))
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var body models.MessageResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "Post deleted successfully", body.Message)
	})

	t.Run("Missing post", func(t *testing.T) {
		mockRepo := new(MockPostRepository)
		mockRepo.On("Delete", mock.Anything, uint(5)).Return(nil, models.NewNotFoundError("Post", 5))
		app := setupHandlerApp(mockRepo)

		resp, err := app.Test(httptest.NewRequest(http.MethodDelete, "/posts/5", nil))
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("Store failure", func(t *testing.T) {
		mockRepo := new(MockPostRepository)
		mockRepo.On("Delete", mock.Anything, uint(5)).
			Return(nil, models.NewStoreError("delete", errors.New("read-only transaction")))
		app := setupHandlerApp(mockRepo)

		resp, err := app.Test(httptest.NewRequest(http.MethodDelete, "/posts/5", nil))
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		body := decodeError(t, resp.Body)
		assert.Equal(t, "Error deleting post", body.Message)
		assert.NotContains(t, body.Message, "read-only")
	})
}
