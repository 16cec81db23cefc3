package seed

import (
	"context"
	"fmt"
	"log/slog"

	"blogrr/internal/middleware"
	"blogrr/internal/models"
	"blogrr/internal/repository"

	"github.com/brianvoe/gofakeit/v6"
)

// Options configures a Factory run.
type Options struct {
	NumPosts    int
	ShouldClean bool
	// Seed makes the generated content reproducible. Zero picks a random seed.
	Seed int64
}

// Factory builds fake posts and persists them through the repository.
type Factory struct {
	repo  repository.PostRepository
	faker *gofakeit.Faker
	opts  Options
}

// NewFactory creates a new Factory bound to the provided repository.
func NewFactory(repo repository.PostRepository, opts Options) *Factory {
	return &Factory{
		repo:  repo,
		faker: gofakeit.New(opts.Seed),
		opts:  opts,
	}
}

// BuildPost returns a fake post that has not been persisted.
func (f *Factory) BuildPost() *models.Post {
	return &models.Post{
		Title:   f.faker.Sentence(5),
		Content: f.faker.Paragraph(1, 3, 12, "\n"),
		Author:  f.faker.Name(),
	}
}

// Run optionally clears the table and then inserts NumPosts fake posts.
func (f *Factory) Run(ctx context.Context) ([]*models.Post, error) {
	if f.opts.ShouldClean {
		removed, err := f.repo.DeleteAll(ctx)
		if err != nil {
			return nil, fmt.Errorf("cleanup failed: %w", err)
		}
		middleware.Logger.InfoContext(ctx, "Removed existing posts", slog.Int64("posts", removed))
	}

	created := make([]*models.Post, 0, f.opts.NumPosts)
	for i := 0; i < f.opts.NumPosts; i++ {
		p := f.BuildPost()
		post, err := f.repo.Create(ctx, p.Title, p.Content, p.Author)
		if err != nil {
			return created, fmt.Errorf("failed to create post %d: %w", i+1, err)
		}
		created = append(created, post)
	}

	middleware.Logger.InfoContext(ctx, "Seeded posts", slog.Int("posts", len(created)))
	return created, nil
}
