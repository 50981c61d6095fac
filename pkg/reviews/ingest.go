package reviews

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"ai-shopping-assistant-be/pkg/embedding"
)

// Record is one line of a review dump (Amazon Reviews 2023 field names).
type Record struct {
	ASIN        string   `json:"asin"`
	ParentASIN  string   `json:"parent_asin"`
	Rating      *float64 `json:"rating"`
	Overall     *float64 `json:"overall"`
	Title       string   `json:"title"`
	ReviewTitle string   `json:"review_title"`
	Text        string   `json:"text"`
	ReviewBody  string   `json:"review_body"`
}

type payload struct {
	Type   string   `json:"type"`
	ASIN   string   `json:"asin"`
	Rating *float64 `json:"rating"`
	Title  string   `json:"title"`
	Text   string   `json:"text"`
}

// Document renders the record as the indexed JSON payload. ok is false for
// records without review text.
func (r Record) Document() (asin, doc string, ok bool) {
	text := firstNonEmpty(r.Text, r.ReviewBody)
	if strings.TrimSpace(text) == "" {
		return "", "", false
	}

	asin = firstNonEmpty(r.ParentASIN, r.ASIN)
	rating := r.Rating
	if rating == nil {
		rating = r.Overall
	}

	data, err := json.Marshal(payload{
		Type:   "review",
		ASIN:   asin,
		Rating: rating,
		Title:  firstNonEmpty(r.Title, r.ReviewTitle),
		Text:   text,
	})
	if err != nil {
		return "", "", false
	}
	return asin, string(data), true
}

// Ingest reads JSON lines, embeds every review and writes it to the index.
// At most limit reviews are kept per call (0 means no limit).
func Ingest(ctx context.Context, r io.Reader, embedder embedding.EmbeddingProvider, w Writer, limit int) (int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	kept := 0
	line := 0
	for scanner.Scan() {
		line++
		if limit > 0 && kept >= limit {
			break
		}
		if err := ctx.Err(); err != nil {
			return kept, err
		}

		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}

		var rec Record
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return kept, fmt.Errorf("line %d: %w", line, err)
		}
		asin, doc, ok := rec.Document()
		if !ok {
			continue
		}

		resp, err := embedder.Generate(ctx, doc, embedding.TaskRetrievalDocument)
		if err != nil {
			return kept, fmt.Errorf("line %d: embedding: %w", line, err)
		}
		if err := w.Add(ctx, asin, doc, resp.Embedding.Values); err != nil {
			return kept, fmt.Errorf("line %d: storing: %w", line, err)
		}
		kept++
	}
	if err := scanner.Err(); err != nil {
		return kept, err
	}
	return kept, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
