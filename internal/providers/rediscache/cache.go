// Package rediscache wraps a selector.SubjectSource with a Redis-backed
// cache of the whole subject snapshot, adapted from the teacher's
// infrastructure/cache Redis wrapper (Get/Set/TTL over go-redis) onto the
// narrower job the specification calls for: caching the attribute
// population a source returns, never a filter/match result (that would
// violate the specification's Non-goals around result caching).
package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vitaliisemenov/selector-engine/internal/selector"
)

// ErrInvalidConfig is returned by New when required configuration is
// missing.
var ErrInvalidConfig = errors.New("rediscache: invalid configuration")

// Config configures the Redis connection and the cached snapshot's TTL.
type Config struct {
	Addr     string
	Password string
	DB       int

	PoolSize     int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Key is the Redis key the subject snapshot is stored under.
	Key string

	// TTL is how long a cached snapshot remains fresh.
	TTL time.Duration
}

// DefaultConfig returns sensible defaults; callers still must set Addr.
func DefaultConfig() *Config {
	return &Config{
		DB:           0,
		PoolSize:     10,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		Key:          "selector:subjects",
		TTL:          30 * time.Second,
	}
}

func (c *Config) validate() error {
	if c.Addr == "" || c.Key == "" || c.TTL <= 0 {
		return ErrInvalidConfig
	}
	return nil
}

// Source decorates a selector.SubjectSource with a Redis-backed cache of
// its most recent Subjects() result. A cache hit avoids calling the
// wrapped source at all; a miss (including any Redis error) falls back to
// the source and then best-effort refreshes the cache.
type Source struct {
	inner  selector.SubjectSource
	client *redis.Client
	config *Config
	logger *slog.Logger
}

// New builds a Source wrapping inner. It pings Redis once to fail fast on a
// bad address.
func New(inner selector.SubjectSource, config *Config, logger *slog.Logger) (*Source, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	client := redis.NewClient(&redis.Options{
		Addr:         config.Addr,
		Password:     config.Password,
		DB:           config.DB,
		PoolSize:     config.PoolSize,
		DialTimeout:  config.DialTimeout,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), config.DialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Error("failed to connect to Redis", "error", err, "addr", config.Addr)
		return nil, err
	}

	return &Source{inner: inner, client: client, config: config, logger: logger}, nil
}

// Subjects returns the cached snapshot if fresh, otherwise refreshes it
// from inner and writes the new snapshot back with the configured TTL.
// Satisfies selector.SubjectSource.
func (s *Source) Subjects(ctx context.Context) ([]*selector.Subject, error) {
	if subjects, ok := s.readCached(ctx); ok {
		s.logger.Debug("subject snapshot served from cache", "key", s.config.Key)
		return subjects, nil
	}

	subjects, err := s.inner.Subjects(ctx)
	if err != nil {
		return nil, err
	}

	s.writeCached(ctx, subjects)
	return subjects, nil
}

func (s *Source) readCached(ctx context.Context) ([]*selector.Subject, bool) {
	raw, err := s.client.Get(ctx, s.config.Key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("redis get failed, falling back to source", "key", s.config.Key, "error", err)
		}
		return nil, false
	}

	var subjects []*selector.Subject
	if err := json.Unmarshal(raw, &subjects); err != nil {
		s.logger.Warn("cached subject snapshot is corrupt, refreshing", "key", s.config.Key, "error", err)
		return nil, false
	}
	return subjects, true
}

func (s *Source) writeCached(ctx context.Context, subjects []*selector.Subject) {
	data, err := json.Marshal(subjects)
	if err != nil {
		s.logger.Warn("failed to marshal subject snapshot for caching", "error", err)
		return
	}
	if err := s.client.Set(ctx, s.config.Key, data, s.config.TTL).Err(); err != nil {
		s.logger.Warn("failed to write subject snapshot to cache", "key", s.config.Key, "error", err)
	}
}

// Invalidate drops the cached snapshot, forcing the next Subjects call to
// hit inner.
func (s *Source) Invalidate(ctx context.Context) error {
	return s.client.Del(ctx, s.config.Key).Err()
}

// Close releases the Redis connection.
func (s *Source) Close() error {
	return s.client.Close()
}
