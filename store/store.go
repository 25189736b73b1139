package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	goFlags "github.com/MrEthical07/goFlags"
)

var (
	// ErrNotFound is returned when no entry exists for an id.
	ErrNotFound = errors.New("flag set not found")
	// ErrRedisUnavailable wraps transport and server errors.
	ErrRedisUnavailable = errors.New("redis unavailable")
	// ErrFingerprintMismatch is returned when an entry was written through a
	// registry with different declarations.
	ErrFingerprintMismatch = errors.New("registry fingerprint mismatch")
	// ErrCorrupt is returned when a stored entry is malformed or its names do
	// not parse.
	ErrCorrupt = errors.New("stored flag set corrupt")
	// ErrInvalidID is returned for an empty id.
	ErrInvalidID = errors.New("invalid flag set id")
	// ErrConflict is returned when Grant or Revoke loses every optimistic
	// retry to concurrent writers.
	ErrConflict = errors.New("flag set update conflict")
)

const (
	fieldFingerprint = "fp"
	fieldFlags       = "flags"

	defaultPrefix     = "gf"
	defaultMaxRetries = 16
)

// Config controls key layout and expiry.
type Config struct {
	// Prefix is prepended to every key as "<prefix>:<id>".
	Prefix string
	// TTL expires entries after each write. Zero keeps them forever.
	TTL time.Duration
	// MaxRetries bounds optimistic retries in Grant and Revoke.
	MaxRetries int
}

// DefaultConfig returns the store defaults.
func DefaultConfig() Config {
	return Config{
		Prefix:     defaultPrefix,
		MaxRetries: defaultMaxRetries,
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Prefix) == "" {
		return errors.New("store: Prefix must not be empty")
	}
	if c.TTL < 0 {
		return errors.New("store: TTL must be >= 0")
	}
	if c.MaxRetries <= 0 {
		return errors.New("store: MaxRetries must be > 0")
	}
	return nil
}

// Options carries optional collaborators.
type Options struct {
	// Logger defaults to zap.NewNop().
	Logger *zap.Logger
	// Metrics defaults to the registry's metrics.
	Metrics *goFlags.Metrics
}

// Store reads and writes flag sets of one registry.
type Store struct {
	redis   redis.UniversalClient
	reg     *goFlags.Registry
	cfg     Config
	fp      string
	logger  *zap.Logger
	metrics *goFlags.Metrics
}

// NewStore returns a Store for reg backed by client.
func NewStore(client redis.UniversalClient, reg *goFlags.Registry, cfg Config, opts Options) (*Store, error) {
	if client == nil {
		return nil, errors.New("store: redis client is nil")
	}
	if reg == nil {
		return nil, goFlags.ErrNoRegistry
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = reg.Metrics()
	}

	return &Store{
		redis:   client,
		reg:     reg,
		cfg:     cfg,
		fp:      reg.Fingerprint().String(),
		logger:  logger.With(zap.String("prefix", cfg.Prefix)),
		metrics: metrics,
	}, nil
}

// Registry returns the registry the store reads and writes.
func (s *Store) Registry() *goFlags.Registry {
	return s.reg
}

func (s *Store) key(id string) string {
	return s.cfg.Prefix + ":" + id
}

func (s *Store) bind(v goFlags.Set) (goFlags.Set, error) {
	switch v.Registry() {
	case nil:
		return s.reg.Zero(), nil
	case s.reg:
		return v, nil
	default:
		return goFlags.Set{}, goFlags.ErrRegistryMismatch
	}
}

// Save writes v under id, replacing any previous entry.
func (s *Store) Save(ctx context.Context, id string, v goFlags.Set) error {
	if id == "" {
		return ErrInvalidID
	}
	v, err := s.bind(v)
	if err != nil {
		return err
	}

	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		s.write(ctx, pipe, s.key(id), v)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	s.metrics.Inc(goFlags.MetricStoreSave)
	return nil
}

func (s *Store) write(ctx context.Context, pipe redis.Pipeliner, key string, v goFlags.Set) {
	pipe.HSet(ctx, key, fieldFingerprint, s.fp, fieldFlags, v.String())
	if s.cfg.TTL > 0 {
		pipe.Expire(ctx, key, s.cfg.TTL)
	}
}

// Load reads the set stored under id.
func (s *Store) Load(ctx context.Context, id string) (goFlags.Set, error) {
	if id == "" {
		return s.reg.Zero(), ErrInvalidID
	}
	v, err := s.read(ctx, s.redis, s.key(id))
	if err != nil {
		return s.reg.Zero(), err
	}
	s.metrics.Inc(goFlags.MetricStoreLoad)
	return v, nil
}

// hashReader is satisfied by clients and by *redis.Tx inside Watch.
type hashReader interface {
	HMGet(ctx context.Context, key string, fields ...string) *redis.SliceCmd
}

func (s *Store) read(ctx context.Context, c hashReader, key string) (goFlags.Set, error) {
	vals, err := c.HMGet(ctx, key, fieldFingerprint, fieldFlags).Result()
	if err != nil {
		return s.reg.Zero(), fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if vals[0] == nil && vals[1] == nil {
		s.metrics.Inc(goFlags.MetricStoreMiss)
		return s.reg.Zero(), ErrNotFound
	}

	fp, okFP := vals[0].(string)
	text, okFlags := vals[1].(string)
	if !okFP || !okFlags {
		s.metrics.Inc(goFlags.MetricStoreCorrupt)
		s.logger.Warn("flag set entry incomplete", zap.String("key", key))
		return s.reg.Zero(), ErrCorrupt
	}
	if fp != s.fp {
		s.metrics.Inc(goFlags.MetricStoreCorrupt)
		s.logger.Warn("flag set written by another registry",
			zap.String("key", key),
			zap.String("stored_fingerprint", fp),
			zap.String("fingerprint", s.fp),
		)
		return s.reg.Zero(), ErrFingerprintMismatch
	}

	v, err := s.reg.TryParse(text)
	if err != nil {
		s.metrics.Inc(goFlags.MetricStoreCorrupt)
		s.logger.Warn("flag set entry does not parse", zap.String("key", key), zap.Error(err))
		return s.reg.Zero(), fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	return v, nil
}

// Delete removes the entry for id. Deleting a missing entry is not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrInvalidID
	}
	if err := s.redis.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Grant adds add to the set stored under id and returns the result. A missing
// entry starts from the empty set.
func (s *Store) Grant(ctx context.Context, id string, add goFlags.Set) (goFlags.Set, error) {
	add, err := s.bind(add)
	if err != nil {
		return s.reg.Zero(), err
	}
	return s.update(ctx, id, func(cur goFlags.Set) goFlags.Set { return cur.Or(add) })
}

// Revoke removes remove from the set stored under id and returns the result.
func (s *Store) Revoke(ctx context.Context, id string, remove goFlags.Set) (goFlags.Set, error) {
	remove, err := s.bind(remove)
	if err != nil {
		return s.reg.Zero(), err
	}
	return s.update(ctx, id, func(cur goFlags.Set) goFlags.Set { return cur.AndNot(remove) })
}

func (s *Store) update(ctx context.Context, id string, fn func(goFlags.Set) goFlags.Set) (goFlags.Set, error) {
	if id == "" {
		return s.reg.Zero(), ErrInvalidID
	}
	key := s.key(id)

	var out goFlags.Set
	txf := func(tx *redis.Tx) error {
		cur, err := s.read(ctx, tx, key)
		if errors.Is(err, ErrNotFound) {
			cur = s.reg.Zero()
		} else if err != nil {
			return err
		}

		out = fn(cur)
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			s.write(ctx, pipe, key, out)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < s.cfg.MaxRetries; attempt++ {
		err := s.redis.Watch(ctx, txf, key)
		switch {
		case err == nil:
			s.metrics.Inc(goFlags.MetricStoreSave)
			return out, nil
		case errors.Is(err, redis.TxFailedErr):
			s.logger.Debug("flag set update retry", zap.String("key", key), zap.Int("attempt", attempt+1))
			continue
		case errors.Is(err, ErrFingerprintMismatch),
			errors.Is(err, ErrCorrupt),
			errors.Is(err, ErrRedisUnavailable):
			return s.reg.Zero(), err
		default:
			return s.reg.Zero(), fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}

	s.logger.Warn("flag set update gave up", zap.String("key", key), zap.Int("retries", s.cfg.MaxRetries))
	return s.reg.Zero(), ErrConflict
}

// IDs returns the ids of all entries under the configured prefix, in no
// particular order.
func (s *Store) IDs(ctx context.Context) ([]string, error) {
	var ids []string
	prefix := s.cfg.Prefix + ":"
	iter := s.redis.Scan(ctx, 0, prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		ids = append(ids, strings.TrimPrefix(iter.Val(), prefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return ids, nil
}

// Ping measures a round trip to Redis.
func (s *Store) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return time.Since(start), nil
}
