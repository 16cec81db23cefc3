// Package repository provides the data access layer for posts.
package repository

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"blogrr/internal/config"
	"blogrr/internal/database"
	"blogrr/internal/middleware"
	"blogrr/internal/models"
	"blogrr/internal/observability"

	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Initialize(ctx context.Context) error
	List(ctx context.Context) ([]*models.Post, error)
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	Create(ctx context.Context, title, content, author string) (*models.Post, error)
	Update(ctx context.Context, id uint, fields models.PostFields) (*models.Post, error)
	Delete(ctx context.Context, id uint) (*models.Post, error)
	Count(ctx context.Context) (int64, error)
	DeleteAll(ctx context.Context) (int64, error)
}

// Option configures a post repository.
type Option func(*postRepository)

// WithClock replaces the time source used for created_at and updated_at.
func WithClock(now func() time.Time) Option {
	return func(r *postRepository) {
		r.now = now
	}
}

// WithSchemaMode selects how Initialize creates the schema (config.SchemaModeAuto or config.SchemaModeSQL).
func WithSchemaMode(mode string) Option {
	return func(r *postRepository) {
		r.schemaMode = mode
	}
}

// postRepository implements PostRepository
type postRepository struct {
	db         *gorm.DB
	now        func() time.Time
	schemaMode string
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB, opts ...Option) PostRepository {
	r := &postRepository{
		db:         db,
		now:        time.Now,
		schemaMode: config.SchemaModeAuto,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// clock returns the current time at the precision PostgreSQL stores.
func (r *postRepository) clock() time.Time {
	return r.now().UTC().Truncate(time.Microsecond)
}

func (r *postRepository) Initialize(ctx context.Context) error {
	defer observability.TrackStoreOperation("initialize")()
	span, ctx := observability.StartSpan(ctx, "posts.initialize")
	defer span.End()

	if err := database.ApplySchema(ctx, r.db, r.schemaMode); err != nil {
		span.SetError(err)
		return r.fail(ctx, "initialize", 0, err)
	}
	return nil
}

func (r *postRepository) List(ctx context.Context) ([]*models.Post, error) {
	defer observability.TrackStoreOperation("list")()
	span, ctx := observability.StartSpan(ctx, "posts.list")
	defer span.End()

	posts := make([]*models.Post, 0)
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Find(&posts).Error
	if err != nil {
		span.SetError(err)
		return nil, r.fail(ctx, "list", 0, err)
	}
	return posts, nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	defer observability.TrackStoreOperation("get")()
	span, ctx := observability.StartSpan(ctx, "posts.get", attribute.Int64("post.id", int64(id)))
	defer span.End()

	var post models.Post
	if err := r.db.WithContext(ctx).First(&post, id).Error; err != nil {
		span.SetError(err)
		return nil, r.fail(ctx, "get", id, err)
	}
	return &post, nil
}

func (r *postRepository) Create(ctx context.Context, title, content, author string) (*models.Post, error) {
	defer observability.TrackStoreOperation("create")()
	span, ctx := observability.StartSpan(ctx, "posts.create")
	defer span.End()

	now := r.clock()
	post := &models.Post{
		Title:     title,
		Content:   content,
		Author:    author,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		span.SetError(err)
		return nil, r.fail(ctx, "create", 0, err)
	}
	return post, nil
}

// Update overwrites the supplied fields and always refreshes updated_at, even
// when fields is empty.
func (r *postRepository) Update(ctx context.Context, id uint, fields models.PostFields) (*models.Post, error) {
	defer observability.TrackStoreOperation("update")()
	span, ctx := observability.StartSpan(ctx, "posts.update", attribute.Int64("post.id", int64(id)))
	defer span.End()

	var post models.Post
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&post, id).Error; err != nil {
			return err
		}

		updates := make(map[string]interface{}, 4)
		if fields.Title != nil {
			updates["title"] = *fields.Title
			post.Title = *fields.Title
		}
		if fields.Content != nil {
			updates["content"] = *fields.Content
			post.Content = *fields.Content
		}
		if fields.Author != nil {
			updates["author"] = *fields.Author
			post.Author = *fields.Author
		}
		post.UpdatedAt = nextUpdatedAt(post.UpdatedAt, r.clock())
		updates["updated_at"] = post.UpdatedAt

		result := tx.Model(&models.Post{}).Where("id = ?", id).Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		span.SetError(err)
		return nil, r.fail(ctx, "update", id, err)
	}
	return &post, nil
}

// Delete removes the row and returns the record as it was before deletion.
func (r *postRepository) Delete(ctx context.Context, id uint) (*models.Post, error) {
	defer observability.TrackStoreOperation("delete")()
	span, ctx := observability.StartSpan(ctx, "posts.delete", attribute.Int64("post.id", int64(id)))
	defer span.End()

	var post models.Post
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&post, id).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.Post{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		span.SetError(err)
		return nil, r.fail(ctx, "delete", id, err)
	}
	return &post, nil
}

func (r *postRepository) Count(ctx context.Context) (int64, error) {
	defer observability.TrackStoreOperation("count")()

	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Post{}).Count(&count).Error; err != nil {
		return 0, r.fail(ctx, "count", 0, err)
	}
	return count, nil
}

// DeleteAll hard-deletes every post. Ids are not reset.
func (r *postRepository) DeleteAll(ctx context.Context) (int64, error) {
	defer observability.TrackStoreOperation("delete_all")()

	result := r.db.WithContext(ctx).Where("1 = 1").Delete(&models.Post{})
	if result.Error != nil {
		return 0, r.fail(ctx, "delete_all", 0, result.Error)
	}
	return result.RowsAffected, nil
}

// nextUpdatedAt returns now, or the smallest stored instant after prev when
// the clock has not moved past it.
func nextUpdatedAt(prev, now time.Time) time.Time {
	if now.After(prev) {
		return now
	}
	return prev.Add(time.Microsecond)
}

// fail maps gorm.ErrRecordNotFound to NOT_FOUND and everything else to a logged STORE_ERROR.
func (r *postRepository) fail(ctx context.Context, operation string, id uint, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError("Post", id)
	}

	observability.StoreErrors.WithLabelValues(operation).Inc()

	attrs := []any{
		slog.String("operation", operation),
		slog.String("error", err.Error()),
	}
	if id != 0 {
		attrs = append(attrs, slog.Uint64("post_id", uint64(id)))
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		attrs = append(attrs, slog.String("sqlstate", pgErr.Code))
	}
	middleware.Logger.ErrorContext(ctx, "post store operation failed", attrs...)

	return models.NewStoreError(operation, err)
}
