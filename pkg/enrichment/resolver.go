package enrichment

import (
	"context"
	"fmt"
	"strings"

	"ai-shopping-assistant-be/internal/pkg/logger"
)

const logModule = "enrichment"

// Backend is the web side of enrichment: search-based ASIN discovery and
// product detail lookup.
type Backend interface {
	SearchASIN(ctx context.Context, query string) (string, error)
	ProductDetail(ctx context.Context, asin string) (*Meta, error)
}

// Resolver turns free text into product metadata. It is best-effort: every
// failure is logged and degrades to "no data for this step".
type Resolver struct {
	backend Backend
	logger  logger.ILogger
}

func NewResolver(backend Backend, log logger.ILogger) *Resolver {
	return &Resolver{backend: backend, logger: log}
}

// Resolve joins the non-empty texts and runs regex, then search, then detail
// lookup, stopping at the first identifier found. Never panics, never errors.
func (r *Resolver) Resolve(ctx context.Context, texts ...string) (meta Meta) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error(logModule, "Resolve panicked", map[string]interface{}{"error": fmt.Sprint(rec)})
			meta = Meta{}
		}
	}()

	joined := joinNonEmpty(texts)

	asin := ExtractASIN(joined)
	if asin == "" && strings.TrimSpace(joined) != "" {
		found, err := r.backend.SearchASIN(ctx, joined)
		if err != nil {
			r.logger.Warn(logModule, "ASIN search failed", map[string]interface{}{"error": err.Error()})
		}
		asin = found
	}
	if asin == "" {
		return Meta{}
	}

	detail, err := r.backend.ProductDetail(ctx, asin)
	if err != nil {
		r.logger.Warn(logModule, "Product detail scrape failed", map[string]interface{}{
			"asin":  asin,
			"error": err.Error(),
		})
		return Meta{ASIN: asin}
	}
	if detail == nil {
		return Meta{ASIN: asin}
	}

	meta = *detail
	if meta.ASIN == "" {
		meta.ASIN = asin
	}
	r.logger.Info(logModule, "Enriched product", map[string]interface{}{
		"asin":  meta.ASIN,
		"title": meta.Title,
		"price": meta.Price,
	})
	return meta
}

func joinNonEmpty(texts []string) string {
	parts := make([]string, 0, len(texts))
	for _, t := range texts {
		if t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}
