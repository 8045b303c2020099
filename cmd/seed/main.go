// Command seed populates the document store with fake posts.
package main

import (
	"context"
	"flag"
	"log"

	"ripple/internal/config"
	"ripple/internal/database"
	"ripple/internal/seed"
	"ripple/internal/store/gormstore"
)

func main() {
	authors := flag.Int("authors", 5, "number of fake authors")
	perAuthor := flag.Int("posts", 10, "posts per author")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	st := gormstore.New(db, nil)
	if err := seed.Posts(context.Background(), st, cfg.PostsCollection, *authors, *perAuthor); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Seeded %d posts across %d authors", *authors**perAuthor, *authors)
}
