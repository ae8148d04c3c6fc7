package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/scorebug/scorebug-server/internal/config"
	"github.com/scorebug/scorebug-server/internal/model"
	redisclient "github.com/scorebug/scorebug-server/internal/redis"
)

// Key names are a wire contract shared with anything else that talks to
// the same store; treat them as versioned.
const (
	linkCodeKey    = "link-code"
	authKeyPrefix  = "code-"
	currentGameKey = "current-game-id"
)

// PairingStore is the single source of truth for pairing state. All
// coordination between the host display and linked phones happens
// through its per-key read/write/TTL primitives; there is no in-process
// locking on top.
type PairingStore interface {
	// LinkCode returns the live code, or "" when none exists.
	LinkCode(ctx context.Context) (string, error)
	// LinkCodeTTL returns the live code's remaining TTL. Non-positive
	// means the key is absent or carries no expiry.
	LinkCodeTTL(ctx context.Context) (time.Duration, error)
	SetLinkCode(ctx context.Context, code string) error
	DeleteLinkCode(ctx context.Context) error

	// Authorization returns the record claimed against code, or nil
	// when absent (including after TTL expiry).
	Authorization(ctx context.Context, code string) (*model.AuthorizationRecord, error)
	SaveAuthorization(ctx context.Context, code string, rec model.AuthorizationRecord) error

	// CurrentGameID returns the shared display pointer, or "" when no
	// game is selected.
	CurrentGameID(ctx context.Context) (string, error)
	SetCurrentGameID(ctx context.Context, gameID string) error
	ClearCurrentGameID(ctx context.Context) error
}

type redisPairingStore struct {
	client *redisclient.Client
}

func NewPairingStore(client *redisclient.Client) PairingStore {
	return &redisPairingStore{client: client}
}

func (s *redisPairingStore) LinkCode(ctx context.Context) (string, error) {
	code, err := s.client.Get(ctx, linkCodeKey).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get link code: %w", err)
	}
	return code, nil
}

func (s *redisPairingStore) LinkCodeTTL(ctx context.Context) (time.Duration, error) {
	ttl, err := s.client.TTL(ctx, linkCodeKey).Result()
	if err != nil {
		return 0, fmt.Errorf("ttl link code: %w", err)
	}
	return ttl, nil
}

func (s *redisPairingStore) SetLinkCode(ctx context.Context, code string) error {
	if err := s.client.Set(ctx, linkCodeKey, code, config.LinkCodeTTL).Err(); err != nil {
		return fmt.Errorf("set link code: %w", err)
	}
	return nil
}

func (s *redisPairingStore) DeleteLinkCode(ctx context.Context) error {
	if err := s.client.Del(ctx, linkCodeKey).Err(); err != nil {
		return fmt.Errorf("delete link code: %w", err)
	}
	return nil
}

func (s *redisPairingStore) Authorization(ctx context.Context, code string) (*model.AuthorizationRecord, error) {
	data, err := s.client.Get(ctx, authKeyPrefix+code).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get authorization: %w", err)
	}

	var rec model.AuthorizationRecord
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, fmt.Errorf("unmarshal authorization: %w", err)
	}
	return &rec, nil
}

func (s *redisPairingStore) SaveAuthorization(ctx context.Context, code string, rec model.AuthorizationRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal authorization: %w", err)
	}
	if err := s.client.Set(ctx, authKeyPrefix+code, data, config.AuthorizationTTL).Err(); err != nil {
		return fmt.Errorf("save authorization: %w", err)
	}
	return nil
}

func (s *redisPairingStore) CurrentGameID(ctx context.Context) (string, error) {
	id, err := s.client.Get(ctx, currentGameKey).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get current game: %w", err)
	}
	return id, nil
}

func (s *redisPairingStore) SetCurrentGameID(ctx context.Context, gameID string) error {
	if err := s.client.Set(ctx, currentGameKey, gameID, config.CurrentGameTTL).Err(); err != nil {
		return fmt.Errorf("set current game: %w", err)
	}
	return nil
}

func (s *redisPairingStore) ClearCurrentGameID(ctx context.Context) error {
	if err := s.client.Del(ctx, currentGameKey).Err(); err != nil {
		return fmt.Errorf("clear current game: %w", err)
	}
	return nil
}
