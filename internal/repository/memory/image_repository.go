package memory

import (
	"context"
	"image"
	"time"

	"ai-shopping-assistant-be/internal/repository/contract"

	"github.com/patrickmn/go-cache"
)

// ImageRepository is the per-session "current image" slot. Decoded images
// stay in process memory even when sessions themselves live in Redis.
type ImageRepository struct {
	cache *cache.Cache
}

func NewImageRepository(ttl time.Duration) contract.ImageRepository {
	return &ImageRepository{
		cache: cache.New(ttl, 10*time.Minute),
	}
}

func (r *ImageRepository) Put(_ context.Context, sessionID string, img image.Image) error {
	r.cache.Set(sessionID, img, cache.DefaultExpiration)
	return nil
}

func (r *ImageRepository) Get(_ context.Context, sessionID string) (image.Image, bool) {
	x, found := r.cache.Get(sessionID)
	if !found {
		return nil, false
	}
	img, ok := x.(image.Image)
	return img, ok
}

func (r *ImageRepository) Delete(_ context.Context, sessionID string) error {
	r.cache.Delete(sessionID)
	return nil
}
