package reviews

import (
	"context"
	"errors"
	"fmt"

	"ai-shopping-assistant-be/internal/model"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

var ErrIndexMissing = errors.New("review index table is missing, run cmd/migrate and cmd/seed first")

// Review is one retrieved review document with its cosine similarity.
type Review struct {
	ASIN       string
	Document   string
	Similarity float64
}

// Retriever finds the reviews closest to a query vector.
type Retriever interface {
	Search(ctx context.Context, vector []float32, limit int) ([]Review, error)
}

// Writer adds an embedded review to the index.
type Writer interface {
	Add(ctx context.Context, asin, document string, vector []float32) error
}

type GormStore struct {
	db *gorm.DB
}

// NewStore refuses to start without the review table so the server never
// answers from an empty index.
func NewStore(db *gorm.DB) (*GormStore, error) {
	if !db.Migrator().HasTable(&model.ReviewEmbedding{}) {
		return nil, ErrIndexMissing
	}
	return &GormStore{db: db}, nil
}

func (s *GormStore) Search(ctx context.Context, vector []float32, limit int) ([]Review, error) {
	if limit <= 0 {
		limit = 5
	}

	type result struct {
		model.ReviewEmbedding
		Similarity float64
	}
	var results []result

	queryVector := pgvector.NewVector(vector)
	err := s.db.WithContext(ctx).
		Table("review_embeddings").
		Select("review_embeddings.*, 1 - (embedding_value <=> ?) as similarity", queryVector).
		Order(gorm.Expr("embedding_value <=> ?", queryVector)).
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, fmt.Errorf("searching reviews: %w", err)
	}

	out := make([]Review, len(results))
	for i, r := range results {
		out[i] = Review{ASIN: r.ASIN, Document: r.Document, Similarity: r.Similarity}
	}
	return out, nil
}

func (s *GormStore) Add(ctx context.Context, asin, document string, vector []float32) error {
	return s.db.WithContext(ctx).Create(&model.ReviewEmbedding{
		ASIN:           asin,
		Document:       document,
		EmbeddingValue: pgvector.NewVector(vector),
	}).Error
}
