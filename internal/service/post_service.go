// Package service holds the post business rules between the HTTP layer and the store.
package service

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"blogrr/internal/middleware"
	"blogrr/internal/models"
	"blogrr/internal/notifications"
	"blogrr/internal/repository"
)

// maxShortFieldLen matches the VARCHAR(255) title and author columns.
const maxShortFieldLen = 255

// EventPublisher receives post change events after they are committed.
type EventPublisher interface {
	PublishPostEvent(ctx context.Context, event notifications.PostEvent) error
}

type PostService struct {
	postRepo repository.PostRepository
	events   EventPublisher
}

type CreatePostInput struct {
	Title   string
	Content string
	Author  string
}

// UpdatePostInput carries the fields to overwrite. Nil fields are kept.
type UpdatePostInput struct {
	ID      uint
	Title   *string
	Content *string
	Author  *string
}

// NewPostService creates a PostService. events may be nil.
func NewPostService(postRepo repository.PostRepository, events EventPublisher) *PostService {
	return &PostService{
		postRepo: postRepo,
		events:   events,
	}
}

func (s *PostService) ListPosts(ctx context.Context) ([]*models.Post, error) {
	return s.postRepo.List(ctx)
}

func (s *PostService) GetPost(ctx context.Context, id uint) (*models.Post, error) {
	return s.postRepo.GetByID(ctx, id)
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	if err := validateRequired("Title", in.Title); err != nil {
		return nil, err
	}
	if err := validateRequired("Content", in.Content); err != nil {
		return nil, err
	}
	if err := validateRequired("Author", in.Author); err != nil {
		return nil, err
	}
	if err := validateLength("Title", in.Title); err != nil {
		return nil, err
	}
	if err := validateLength("Author", in.Author); err != nil {
		return nil, err
	}

	post, err := s.postRepo.Create(ctx, in.Title, in.Content, in.Author)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, notifications.EventPostCreated, post)
	return post, nil
}

// UpdatePost overwrites the supplied fields. An input with no fields still
// refreshes updated_at.
func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (*models.Post, error) {
	if in.Title != nil {
		if err := validatePresent("Title", *in.Title); err != nil {
			return nil, err
		}
		if err := validateLength("Title", *in.Title); err != nil {
			return nil, err
		}
	}
	if in.Content != nil {
		if err := validatePresent("Content", *in.Content); err != nil {
			return nil, err
		}
	}
	if in.Author != nil {
		if err := validatePresent("Author", *in.Author); err != nil {
			return nil, err
		}
		if err := validateLength("Author", *in.Author); err != nil {
			return nil, err
		}
	}

	post, err := s.postRepo.Update(ctx, in.ID, models.PostFields{
		Title:   in.Title,
		Content: in.Content,
		Author:  in.Author,
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, notifications.EventPostUpdated, post)
	return post, nil
}

func (s *PostService) DeletePost(ctx context.Context, id uint) (*models.Post, error) {
	post, err := s.postRepo.Delete(ctx, id)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, notifications.EventPostDeleted, post)
	return post, nil
}

// publish never fails the calling operation; the change is already committed.
func (s *PostService) publish(ctx context.Context, eventType string, post *models.Post) {
	if s.events == nil {
		return
	}
	event := notifications.NewPostEvent(eventType, post)
	if err := s.events.PublishPostEvent(ctx, event); err != nil {
		middleware.Logger.WarnContext(ctx, "Failed to publish post event",
			slog.String("event_type", eventType),
			slog.Uint64("post_id", uint64(post.ID)),
			slog.String("error", err.Error()),
		)
	}
}

func validateRequired(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return models.NewValidationError(field + " is required")
	}
	return nil
}

func validatePresent(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return models.NewValidationError(field + " cannot be empty")
	}
	return nil
}

func validateLength(field, value string) error {
	if utf8.RuneCountInString(value) > maxShortFieldLen {
		return models.NewValidationError(field + " too long (max 255 characters)")
	}
	return nil
}
