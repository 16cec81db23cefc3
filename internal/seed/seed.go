// Package seed provides database seeding utilities: the fixed sample posts
// inserted on first start and a fake-data factory for demos.
package seed

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"strings"

	"blogrr/internal/middleware"
	"blogrr/internal/repository"

	"gopkg.in/yaml.v3"
)

//go:embed fixtures.yaml
var fixturesYAML []byte

// Fixture is one sample post.
type Fixture struct {
	Title   string `yaml:"title"`
	Content string `yaml:"content"`
	Author  string `yaml:"author"`
}

type fixtureFile struct {
	Posts []Fixture `yaml:"posts"`
}

// ParseFixtures decodes a fixtures document and rejects entries with a blank field.
func ParseFixtures(data []byte) ([]Fixture, error) {
	var file fixtureFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to decode fixtures: %w", err)
	}
	for i, f := range file.Posts {
		if strings.TrimSpace(f.Title) == "" || strings.TrimSpace(f.Content) == "" || strings.TrimSpace(f.Author) == "" {
			return nil, fmt.Errorf("fixture %d: title, content and author are required", i)
		}
	}
	return file.Posts, nil
}

// SampleFixtures returns the embedded sample posts.
func SampleFixtures() ([]Fixture, error) {
	return ParseFixtures(fixturesYAML)
}

// Samples inserts the sample posts when the table is empty and reports how
// many rows were written. A non-empty table is left untouched.
func Samples(ctx context.Context, repo repository.PostRepository) (int, error) {
	count, err := repo.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count posts: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	fixtures, err := SampleFixtures()
	if err != nil {
		return 0, err
	}

	inserted := 0
	for _, f := range fixtures {
		if _, err := repo.Create(ctx, f.Title, f.Content, f.Author); err != nil {
			return inserted, fmt.Errorf("failed to insert sample post %q: %w", f.Title, err)
		}
		inserted++
	}

	middleware.Logger.InfoContext(ctx, "Sample data inserted", slog.Int("posts", inserted))
	return inserted, nil
}
