package clarification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"prism-workers/internal/common/database"
	"prism-workers/internal/models"
)

const sessionKeyPrefix = "prism:session:"

var (
	ErrSessionNotFound    = errors.New("SESSION_NOT_FOUND")
	ErrSessionStoreFailed = errors.New("SESSION_STORE_FAILED")
)

// SessionStore keeps sessions in Redis. Every read and write is keyed by the
// session's own id.
type SessionStore struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewSessionStore(rdb redis.Cmdable, ttl time.Duration) *SessionStore {
	return &SessionStore{rdb: rdb, ttl: ttl}
}

func SessionKey(id string) string {
	return sessionKeyPrefix + id
}

func (s *SessionStore) Get(ctx context.Context, id string) (*models.Session, error) {
	var sess models.Session
	found, err := database.GetJSON(ctx, s.rdb, SessionKey(id), &sess)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionStoreFailed, err)
	}
	if !found {
		return nil, ErrSessionNotFound
	}
	return &sess, nil
}

// Save writes sess and refreshes its TTL.
func (s *SessionStore) Save(ctx context.Context, sess *models.Session) error {
	sess.Touch()
	if err := database.SetJSON(ctx, s.rdb, SessionKey(sess.ID), sess, s.ttl); err != nil {
		return fmt.Errorf("%w: %v", ErrSessionStoreFailed, err)
	}
	return nil
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	n, err := s.rdb.Del(ctx, SessionKey(id)).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSessionStoreFailed, err)
	}
	if n == 0 {
		return ErrSessionNotFound
	}
	return nil
}
