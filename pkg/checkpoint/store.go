package checkpoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultTTL is how long an untouched checkpoint is kept.
const DefaultTTL = 24 * time.Hour

var (
	// ErrNoCheckpoint indicates no checkpoint is stored for the key
	ErrNoCheckpoint = errors.New("no checkpoint")

	// ErrInvalidCheckpoint indicates the stored checkpoint is corrupted
	ErrInvalidCheckpoint = errors.New("invalid checkpoint")
)

// Backend is the storage used by Resume. *Store implements it.
type Backend interface {
	Get(ctx context.Context, key Key) (*Checkpoint, error)
	Save(ctx context.Context, key Key, cp *Checkpoint) error
	Delete(ctx context.Context, key Key) error
}

// Store keeps checkpoints in Redis.
type Store struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewStore creates a checkpoint store. A ttl <= 0 selects DefaultTTL.
func NewStore(redisClient *redis.Client, ttl time.Duration) *Store {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		redis: redisClient,
		ttl:   ttl,
	}
}

// TTL returns the expiry applied on every Save.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

// Get retrieves the checkpoint for key.
// Returns ErrNoCheckpoint if none is stored or it has expired.
func (s *Store) Get(ctx context.Context, key Key) (*Checkpoint, error) {
	data, err := s.redis.Get(ctx, key.String()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			CheckpointMisses.Inc()
			return nil, ErrNoCheckpoint
		}
		CheckpointErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		CheckpointErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("%w: %v", ErrInvalidCheckpoint, err)
	}

	CheckpointHits.Inc()
	return &cp, nil
}

// Save stores cp under key and refreshes its TTL.
func (s *Store) Save(ctx context.Context, key Key, cp *Checkpoint) error {
	if cp == nil {
		return fmt.Errorf("checkpoint cannot be nil")
	}

	data, err := json.Marshal(cp)
	if err != nil {
		CheckpointErrors.WithLabelValues("save").Inc()
		return fmt.Errorf("marshal checkpoint: %w", err)
	}

	if err := s.redis.Set(ctx, key.String(), data, s.ttl).Err(); err != nil {
		CheckpointErrors.WithLabelValues("save").Inc()
		return fmt.Errorf("redis set: %w", err)
	}

	CheckpointSaves.Inc()
	return nil
}

// Delete removes the checkpoint for key. Deleting a missing key is not an error.
func (s *Store) Delete(ctx context.Context, key Key) error {
	if err := s.redis.Del(ctx, key.String()).Err(); err != nil {
		CheckpointErrors.WithLabelValues("delete").Inc()
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
