package redis

import (
	"context"
	"errors"
	"strconv"
	"time"

	"ai-shopping-assistant-be/internal/repository/contract"
	"ai-shopping-assistant-be/pkg/store"

	goredis "github.com/redis/go-redis/v9"
)

const keyPrefix = "assistant:session:"

// SessionRepository stores each session as a hash with a sliding TTL.
type SessionRepository struct {
	rdb *goredis.Client
	ttl time.Duration
}

func NewSessionRepository(rdb *goredis.Client, ttl time.Duration) contract.SessionRepository {
	return &SessionRepository{rdb: rdb, ttl: ttl}
}

func sessionKey(sessionID string) string {
	return keyPrefix + sessionID
}

func (r *SessionRepository) Save(ctx context.Context, session *store.Session) error {
	key := sessionKey(session.ID)
	pipe := r.rdb.TxPipeline()
	pipe.HSet(ctx, key, toHash(session))
	pipe.Expire(ctx, key, r.ttl)
	_, err := pipe.Exec(ctx)
	return err
}

func (r *SessionRepository) Get(ctx context.Context, sessionID string) (*store.Session, error) {
	fields, err := r.rdb.HGetAll(ctx, sessionKey(sessionID)).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	if len(fields) == 0 {
		return nil, nil
	}
	return fromHash(sessionID, fields), nil
}

func (r *SessionRepository) Delete(ctx context.Context, sessionID string) error {
	return r.rdb.Del(ctx, sessionKey(sessionID)).Err()
}

func toHash(s *store.Session) map[string]interface{} {
	return map[string]interface{}{
		store.FieldLastASIN:      s.LastASIN,
		store.FieldLastAgentText: s.LastAgentText,
		store.FieldHasImage:      strconv.FormatBool(s.HasImage),
		store.FieldUpdatedAt:     s.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func fromHash(id string, fields map[string]string) *store.Session {
	s := &store.Session{
		ID:            id,
		LastASIN:      fields[store.FieldLastASIN],
		LastAgentText: fields[store.FieldLastAgentText],
	}
	s.HasImage, _ = strconv.ParseBool(fields[store.FieldHasImage])
	if ts, err := time.Parse(time.RFC3339Nano, fields[store.FieldUpdatedAt]); err == nil {
		s.UpdatedAt = ts
	}
	return s
}
