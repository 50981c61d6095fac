package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// ReviewEmbedding is one indexed customer review. Document holds the JSON
// payload (type, asin, rating, title, text) that is fed to the model as context.
type ReviewEmbedding struct {
	Id             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ASIN           string          `gorm:"column:asin;type:varchar(16);index"`
	Document       string          `gorm:"type:text"`
	EmbeddingValue pgvector.Vector `gorm:"type:vector(768)"` // nomic-embed-text dimensions
	CreatedAt      time.Time       `gorm:"autoCreateTime"`
}

func (ReviewEmbedding) TableName() string {
	return "review_embeddings"
}
