package memory

import (
	"context"
	"time"

	"ai-shopping-assistant-be/internal/repository/contract"
	"ai-shopping-assistant-be/pkg/store"

	"github.com/patrickmn/go-cache"
)

type SessionRepository struct {
	cache *cache.Cache
}

// NewSessionRepository keeps sessions for ttl after their last save and
// purges expired ones every 10 minutes.
func NewSessionRepository(ttl time.Duration) contract.SessionRepository {
	return &SessionRepository{
		cache: cache.New(ttl, 10*time.Minute),
	}
}

func (r *SessionRepository) Save(_ context.Context, session *store.Session) error {
	cp := *session
	r.cache.Set(session.ID, &cp, cache.DefaultExpiration)
	return nil
}

func (r *SessionRepository) Get(_ context.Context, sessionID string) (*store.Session, error) {
	if x, found := r.cache.Get(sessionID); found {
		cp := *x.(*store.Session)
		return &cp, nil
	}
	return nil, nil
}

func (r *SessionRepository) Delete(_ context.Context, sessionID string) error {
	r.cache.Delete(sessionID)
	return nil
}
