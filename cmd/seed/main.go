package main

import (
	"context"
	"flag"
	"log"
	"os"

	"ai-shopping-assistant-be/internal/config"
	"ai-shopping-assistant-be/pkg/database"
	"ai-shopping-assistant-be/pkg/embedding"
	"ai-shopping-assistant-be/pkg/reviews"
)

// Seeds the review index from a JSON Lines dump of customer reviews.
func main() {
	path := flag.String("file", "data/reviews.jsonl", "JSON Lines file with one review per line")
	limit := flag.Int("limit", 0, "maximum number of reviews to index (0 = all)")
	flag.Parse()

	cfg := config.Load()
	if cfg.Database.Connection == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	store, err := reviews.NewStore(db)
	if err != nil {
		log.Fatalf("Error: %v (run cmd/migrate first)", err)
	}

	f, err := os.Open(*path)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
	defer f.Close()

	embedder := embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.EmbeddingModel)

	log.Printf("Seeding reviews from %s...", *path)
	n, err := reviews.Ingest(context.Background(), f, embedder, store, *limit)
	if err != nil {
		log.Fatalf("Error after %d reviews: %v", n, err)
	}
	log.Printf("✅ Indexed %d reviews", n)
}
