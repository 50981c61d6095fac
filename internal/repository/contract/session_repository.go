package contract

import (
	"context"
	"image"

	"ai-shopping-assistant-be/pkg/store"
)

// SessionRepository persists the advisory per-session fields.
// Get returns (nil, nil) for an unknown session.
type SessionRepository interface {
	Get(ctx context.Context, sessionID string) (*store.Session, error)
	Save(ctx context.Context, session *store.Session) error
	Delete(ctx context.Context, sessionID string) error
}

// ImageRepository holds the most recent upload of each session.
type ImageRepository interface {
	Put(ctx context.Context, sessionID string, img image.Image) error
	Get(ctx context.Context, sessionID string) (image.Image, bool)
	Delete(ctx context.Context, sessionID string) error
}
