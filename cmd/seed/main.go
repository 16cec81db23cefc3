// Command seed fills the posts table with fake posts.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"blogrr/internal/config"
	"blogrr/internal/database"
	"blogrr/internal/repository"
	"blogrr/internal/seed"
)

func main() {
	numPosts := flag.Int("posts", 25, "Number of posts to create")
	shouldClean := flag.Bool("clean", false, "Delete all posts before seeding")
	fakerSeed := flag.Int64("seed", 0, "Faker seed (0 picks a random one)")
	samples := flag.Bool("samples", false, "Insert the sample posts if the table is empty")
	flag.Parse()

	log.Println("Database Seeder")
	log.Printf("Target: %d posts, clean=%v, samples=%v\n", *numPosts, *shouldClean, *samples)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() { _ = database.Close(db) }()

	ctx := context.Background()
	repo := repository.NewPostRepository(db, repository.WithSchemaMode(cfg.DBSchemaMode))
	if err := repo.Initialize(ctx); err != nil {
		log.Fatalf("Failed to initialize posts table: %v", err)
	}

	inserted, created, err := run(ctx, repo, *shouldClean, *samples, seed.Options{
		NumPosts: *numPosts,
		Seed:     *fakerSeed,
	})
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
	log.Printf("Inserted %d sample posts and %d fake posts", inserted, created)
}

// run cleans the table if asked, then inserts the sample posts (which only
// happens on an empty table) and finally the fake posts.
func run(ctx context.Context, repo repository.PostRepository, clean, samples bool, opts seed.Options) (int, int, error) {
	if clean {
		if _, err := repo.DeleteAll(ctx); err != nil {
			return 0, 0, fmt.Errorf("cleanup failed: %w", err)
		}
	}

	inserted := 0
	if samples {
		n, err := seed.Samples(ctx, repo)
		if err != nil {
			return 0, 0, fmt.Errorf("sample seeding failed: %w", err)
		}
		inserted = n
	}

	opts.ShouldClean = false
	posts, err := seed.NewFactory(repo, opts).Run(ctx)
	if err != nil {
		return inserted, 0, fmt.Errorf("post seeding failed: %w", err)
	}
	return inserted, len(posts), nil
}
