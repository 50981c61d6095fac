package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"ai-shopping-assistant-be/internal/config"
	"ai-shopping-assistant-be/pkg/events"
	pktNats "ai-shopping-assistant-be/pkg/nats"

	"github.com/fatih/color"
)

// Tails QUERY_ANSWERED events from the NATS stream.
func main() {
	durable := flag.String("durable", "", "durable consumer name (empty = only new events)")
	flag.Parse()

	cfg := config.Load()
	if cfg.App.NatsURL == "" {
		log.Fatal("Error: NATS_URL is not set")
	}

	sub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
	defer sub.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	subject := pktNats.Subject(events.TypeQueryAnswered)
	err = sub.Subscribe(ctx, subject, *durable, func(_ context.Context, ev events.Event) error {
		p := ev.Payload()
		color.Cyan("[%s] session=%v branch=%v intents=%v latency=%vms",
			ev.Timestamp().Format("15:04:05"), p["session_id"], p["branch"], p["intents"], p["latency_ms"])
		color.Yellow("  Q: %v", p["question"])
		if fallback, _ := p["fallback"].(bool); fallback {
			color.Red("  A: %v", p["answer"])
		} else {
			color.Green("  A: %v", p["answer"])
		}
		return nil
	})
	if err != nil {
		log.Fatalf("Error: %v", err)
	}

	color.Cyan("Listening on %s...", subject)
	<-ctx.Done()
}
