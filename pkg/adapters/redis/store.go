package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aretw0/autofix/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces run keys.
const DefaultPrefix = "autofix:run:"

// Store implements ports.RunStore using Redis.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Store)

// WithTTL sets the expiration for stored runs.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix for stored runs.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		if prefix != "" {
			s.prefix = prefix
		}
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
		ttl:    0, // No expiration by default
	}

	for _, opt := range opts {
		opt(store)
	}

	return store
}

// Client exposes the underlying client so a Locker can share the connection pool.
func (s *Store) Client() *backend.Client {
	return s.client
}

func (s *Store) key(runID string) string {
	return s.prefix + runID
}

// indexKey lives outside the run key namespace when the prefix ends with a
// separator, e.g. "autofix:run.index" for "autofix:run:".
func (s *Store) indexKey() string {
	return strings.TrimRight(s.prefix, ":") + ".index"
}

// Save persists the report to Redis.
func (s *Store) Save(ctx context.Context, report *domain.WorkflowReport) error {
	if report == nil || report.RunID == "" {
		return &domain.ValidationError{Field: "run_id", Reason: "must not be empty"}
	}
	if s.key(report.RunID) == s.indexKey() {
		return &domain.ValidationError{Field: "run_id", Reason: "collides with the run index"}
	}

	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	pipe := s.client.TxPipeline()

	// 1. Save JSON with TTL
	pipe.Set(ctx, s.key(report.RunID), data, s.ttl)

	// 2. Add to Index (ZSET) scored by creation time.
	// NX keeps the original position when a run is overwritten.
	pipe.ZAddNX(ctx, s.indexKey(), backend.Z{
		Score:  float64(time.Now().UnixNano()),
		Member: report.RunID,
	})

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}

	return nil
}

// Load retrieves the report from Redis.
func (s *Store) Load(ctx context.Context, runID string) (*domain.WorkflowReport, error) {
	val, err := s.client.Get(ctx, s.key(runID)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, domain.ErrRunNotFound
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}

	var report domain.WorkflowReport
	if err := json.Unmarshal(val, &report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report: %w", err)
	}

	return &report, nil
}

// List returns stored run IDs, oldest first.
// Index members whose payload expired are pruned lazily.
func (s *Store) List(ctx context.Context) ([]string, error) {
	ids, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	if s.ttl == 0 || len(ids) == 0 {
		return ids, nil
	}

	pipe := s.client.Pipeline()
	exists := make([]*backend.IntCmd, len(ids))
	for i, id := range ids {
		exists[i] = pipe.Exists(ctx, s.key(id))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to check runs: %w", err)
	}

	live := make([]string, 0, len(ids))
	var stale []any
	for i, id := range ids {
		if exists[i].Val() > 0 {
			live = append(live, id)
		} else {
			stale = append(stale, id)
		}
	}
	if len(stale) > 0 {
		if err := s.client.ZRem(ctx, s.indexKey(), stale...).Err(); err != nil {
			return nil, fmt.Errorf("failed to prune expired runs: %w", err)
		}
	}
	return live, nil
}

// Healthy pings the server.
func (s *Store) Healthy(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
