package main

import (
	"context"
	"flag"
	"log"
	"time"

	"ai-shopping-assistant-be/internal/config"
	"ai-shopping-assistant-be/internal/repository/implementation"
	"ai-shopping-assistant-be/internal/repository/specification"
	"ai-shopping-assistant-be/pkg/database"

	"github.com/fatih/color"
)

// Prints recent answered questions from the query_logs table.
func main() {
	session := flag.String("session", "", "only this session id")
	branch := flag.String("branch", "", "only this branch (image or text)")
	since := flag.Duration("since", 24*time.Hour, "how far back to look")
	limit := flag.Int("limit", 20, "maximum rows")
	flag.Parse()

	cfg := config.Load()
	if cfg.Database.Connection == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}
	db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}
	repo := implementation.NewQueryLogRepository(db)

	specs := []specification.Specification{specification.CreatedSince{Time: time.Now().Add(-*since)}}
	if *session != "" {
		specs = append(specs, specification.BySession{SessionID: *session})
	}
	if *branch != "" {
		specs = append(specs, specification.ByBranch{Branch: *branch})
	}

	ctx := context.Background()
	total, err := repo.Count(ctx, specs...)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
	logs, err := repo.FindAll(ctx, append(specs, specification.Latest(*limit)...)...)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}

	color.Cyan("%d of %d requests in the last %s", len(logs), total, *since)
	for _, l := range logs {
		color.HiBlack("\n%s  session=%s branch=%s asin=%s image=%t %dms",
			l.CreatedAt.Format(time.RFC3339), l.SessionId, l.Branch, l.ASIN, l.HasImage, l.LatencyMs)
		color.Yellow("Q: %s", l.Question)
		color.Green("A: %s", l.Answer)
	}
}
