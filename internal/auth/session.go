package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lucasvital/todocomplete/internal/domain"

	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix = "session:"
	stateKeyPrefix   = "oauth_state:"
	sessionTTL       = 24 * time.Hour
	stateTTL         = 10 * time.Minute
)

// Sessions is what the HTTP layer needs from a session store.
type Sessions interface {
	Create(ctx context.Context, who domain.Identity) (string, error)
	Get(ctx context.Context, id string) (domain.Identity, bool)
	Delete(ctx context.Context, id string) error
}

// Store manages sessions in Redis. Each session holds the identity it was
// created for.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewStore returns a new session store.
func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = sessionTTL
	}
	return &Store{rdb: rdb, ttl: ttl}
}

// Create stores a new session for who and returns its ID.
func (s *Store) Create(ctx context.Context, who domain.Identity) (string, error) {
	id, err := newToken()
	if err != nil {
		return "", err
	}
	b, err := json.Marshal(who)
	if err != nil {
		return "", err
	}
	if err := s.rdb.Set(ctx, sessionKeyPrefix+id, b, s.ttl).Err(); err != nil {
		return "", err
	}
	return id, nil
}

// Get returns the identity of session id. Missing, expired and unreadable
// sessions all report false.
func (s *Store) Get(ctx context.Context, id string) (domain.Identity, bool) {
	b, err := s.rdb.Get(ctx, sessionKeyPrefix+id).Bytes()
	if err != nil {
		return domain.Identity{}, false
	}
	var who domain.Identity
	if err := json.Unmarshal(b, &who); err != nil || who.ID == "" {
		return domain.Identity{}, false
	}
	return who, true
}

// Delete removes a session by ID.
func (s *Store) Delete(ctx context.Context, id string) error {
	return s.rdb.Del(ctx, sessionKeyPrefix+id).Err()
}

// NewState issues a one-time OAuth state value.
func (s *Store) NewState(ctx context.Context) (string, error) {
	state, err := newToken()
	if err != nil {
		return "", err
	}
	if err := s.rdb.Set(ctx, stateKeyPrefix+state, "1", stateTTL).Err(); err != nil {
		return "", err
	}
	return state, nil
}

// ConsumeState reports whether state was issued and not used yet.
func (s *Store) ConsumeState(ctx context.Context, state string) (bool, error) {
	err := s.rdb.GetDel(ctx, stateKeyPrefix+state).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func newToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("rand: %w", err)
	}
	return hex.EncodeToString(b), nil
}
