package redis

// Package redis provides Redis-backed adapters for the FiberQ web gateway.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	domainauth "github.com/fiberq/fiberq-web/internal/domain/auth"
	"github.com/fiberq/fiberq-web/internal/ports"
)

const defaultKeyPrefix = "fiberq:session:"

var _ ports.SessionStore = (*SessionStore)(nil)

// SessionStore keeps session records in Redis.
// Keys expire with the session lifetime (SessionExpiresAt), not the access token;
// a stale access token stays in the store until the refresh protocol replaces it.
type SessionStore struct {
	client redis.UniversalClient
	prefix string
}

// NewSessionStore creates a Redis session store using the default key prefix.
func NewSessionStore(client redis.UniversalClient) *SessionStore {
	return NewSessionStoreWithPrefix(client, defaultKeyPrefix)
}

// NewSessionStoreWithPrefix creates a Redis session store with a custom key prefix.
func NewSessionStoreWithPrefix(client redis.UniversalClient, prefix string) *SessionStore {
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &SessionStore{
		client: client,
		prefix: prefix,
	}
}

func (s *SessionStore) Save(ctx context.Context, rec domainauth.SessionRecord) error {
	if rec.ID == "" {
		return errors.New("session ID cannot be empty")
	}
	if rec.SessionExpiresAt.IsZero() {
		return errors.New("session lifetime is not set")
	}

	ttl := time.Until(rec.SessionExpiresAt)
	if ttl <= 0 {
		return ErrExpired
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	// KeepTTL would keep a stale lifetime after sign-in, so TTL is always recomputed.
	return s.client.Set(ctx, s.prefix+rec.ID, data, ttl).Err()
}

func (s *SessionStore) Get(ctx context.Context, id string) (domainauth.SessionRecord, error) {
	if id == "" {
		return domainauth.SessionRecord{}, ErrNotFound
	}

	key := s.prefix + id
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domainauth.SessionRecord{}, ErrNotFound
		}
		return domainauth.SessionRecord{}, fmt.Errorf("redis get: %w", err)
	}

	var rec domainauth.SessionRecord
	if unmarshalErr := json.Unmarshal(data, &rec); unmarshalErr != nil {
		return domainauth.SessionRecord{}, fmt.Errorf("unmarshal session: %w", unmarshalErr)
	}

	if !rec.SessionExpiresAt.IsZero() && time.Now().After(rec.SessionExpiresAt) {
		if deleteErr := s.Delete(ctx, id); deleteErr != nil {
			return domainauth.SessionRecord{}, fmt.Errorf("cleanup expired session: %w", deleteErr)
		}
		return domainauth.SessionRecord{}, ErrNotFound
	}

	return rec, nil
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	return s.client.Del(ctx, s.prefix+id).Err()
}

type notFoundError struct{}

func (notFoundError) Error() string { return "session not found" }

func (notFoundError) Unwrap() error { return ports.ErrSessionNotFound }

// ErrNotFound is returned when a session is not found.
var ErrNotFound error = notFoundError{}

// ErrExpired is returned by Save when the session lifetime has already ended.
var ErrExpired = errors.New("session lifetime has ended")
