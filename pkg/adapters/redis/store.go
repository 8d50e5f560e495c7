package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/nvencoder/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces every key the adapters write.
const DefaultPrefix = "nvencoder:"

// Store implements ports.ResultStore using Redis.
//
// Each result is a JSON string under <prefix>result:<id>. Two sorted sets
// scored by start time index them: <prefix>index for every result and
// <prefix>batch:<batch> per batch. Members whose value expired are pruned
// from the indexes when listed.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Store)

// WithTTL sets the expiration for results.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: DefaultPrefix,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

func (s *Store) key(id string) string {
	return s.prefix + "result:" + id
}

func (s *Store) indexKey() string {
	return s.prefix + "index"
}

func (s *Store) batchKey(batchID string) string {
	return s.prefix + "batch:" + batchID
}

func score(r domain.FileResult) float64 {
	return float64(r.StartedAt.UnixMilli())
}

// Save persists the result and indexes it.
func (s *Store) Save(ctx context.Context, result domain.FileResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.key(result.ID), data, s.ttl)
	z := backend.Z{Score: score(result), Member: result.ID}
	pipe.ZAdd(ctx, s.indexKey(), z)
	pipe.ZAdd(ctx, s.batchKey(result.BatchID), z)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Load retrieves a result from Redis.
func (s *Store) Load(ctx context.Context, id string) (domain.FileResult, error) {
	val, err := s.client.Get(ctx, s.key(id)).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return domain.FileResult{}, domain.ErrResultNotFound
		}
		return domain.FileResult{}, fmt.Errorf("failed to get from redis: %w", err)
	}

	var res domain.FileResult
	if err := json.Unmarshal([]byte(val), &res); err != nil {
		return domain.FileResult{}, fmt.Errorf("failed to unmarshal result: %w", err)
	}
	return res, nil
}

// Delete removes the result and its index entries.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.Load(ctx, id)
	if err != nil && !errors.Is(err, domain.ErrResultNotFound) {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.key(id))
	pipe.ZRem(ctx, s.indexKey(), id)
	if err == nil {
		pipe.ZRem(ctx, s.batchKey(res.BatchID), id)
	}
	_, err = pipe.Exec(ctx)
	return err
}

// List returns results ordered by start time. An empty batchID lists every batch.
func (s *Store) List(ctx context.Context, batchID string) ([]domain.FileResult, error) {
	index := s.indexKey()
	if batchID != "" {
		index = s.batchKey(batchID)
	}

	ids, err := s.client.ZRange(ctx, index, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}
	if len(ids) == 0 {
		return []domain.FileResult{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.key(id)
	}
	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load results: %w", err)
	}

	results := make([]domain.FileResult, 0, len(ids))
	var expired []any
	for i, v := range vals {
		raw, ok := v.(string)
		if !ok {
			expired = append(expired, ids[i])
			continue
		}
		var res domain.FileResult
		if err := json.Unmarshal([]byte(raw), &res); err != nil {
			return nil, fmt.Errorf("failed to unmarshal result %s: %w", ids[i], err)
		}
		if batchID != "" && res.BatchID != batchID {
			continue
		}
		results = append(results, res)
	}

	// Lazy cleanup of members whose value expired.
	if len(expired) > 0 {
		if err := s.client.ZRem(ctx, index, expired...).Err(); err != nil {
			return nil, fmt.Errorf("failed to prune expired results: %w", err)
		}
	}
	return results, nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
