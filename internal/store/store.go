package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"builders-pos/internal/apperr"
	"builders-pos/internal/logger"
	"builders-pos/internal/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultMaxUpdateAttempts bounds the optimistic retry loop in Update.
const DefaultMaxUpdateAttempts = 5

// Store is one execution context's handle on the shared backend. Dashboards
// each open their own so that Subscribe can skip their own writes.
type Store struct {
	backend     Backend
	origin      string
	maxAttempts int
	metrics     *metrics.Collectors

	mu sync.Mutex
}

type Option func(*Store)

func WithOrigin(origin string) Option {
	return func(s *Store) { s.origin = origin }
}

func WithMetrics(m *metrics.Collectors) Option {
	return func(s *Store) { s.metrics = m }
}

func WithMaxUpdateAttempts(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

func New(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend:     backend,
		origin:      uuid.NewString(),
		maxAttempts: DefaultMaxUpdateAttempts,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Origin() string {
	return s.origin
}

func (s *Store) Backend() Backend {
	return s.backend
}

// Read decodes the collection under key into dst. It reports false, leaving
// dst untouched, when the key has never been written.
func (s *Store) Read(ctx context.Context, key string, dst any) (bool, error) {
	entry, err := s.backend.Get(key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, apperr.Persistence("store.Read "+key, err)
	}
	if len(entry.Data) == 0 || string(entry.Data) == "null" {
		return false, nil
	}
	if err := json.Unmarshal(entry.Data, dst); err != nil {
		logger.FromCtx(ctx).Warn("stored collection is corrupt",
			zap.String("layer", "store"),
			zap.String("key", key),
			zap.Error(err),
		)
		return false, apperr.Persistence("store.Read "+key, fmt.Errorf("%w: %v", ErrDecode, err))
	}
	return true, nil
}

// Write replaces the whole collection regardless of its current revision.
func (s *Store) Write(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.backend.Set(key, data, s.origin, AnyRevision); err != nil {
		return s.writeFailed(ctx, "store.Write", key, err)
	}
	s.countWrite(key)
	return nil
}

// Update runs read, mutate, compare-and-set on key. fn receives the freshly
// decoded collection in dst and may run more than once when another writer
// wins the race, so it must derive its result from dst alone. An error from
// fn aborts without writing and is returned unchanged.
func (s *Store) Update(ctx context.Context, key string, dst any, fn func(found bool) error) error {
	log := logger.FromCtx(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		// 1. Read current revision
		var revision int64
		found := false
		entry, err := s.backend.Get(key)
		switch {
		case errors.Is(err, ErrNotFound):
		case err != nil:
			return apperr.Persistence("store.Update "+key, err)
		default:
			revision = entry.Revision
			if len(entry.Data) > 0 && string(entry.Data) != "null" {
				if err := json.Unmarshal(entry.Data, dst); err != nil {
					return apperr.Persistence("store.Update "+key, fmt.Errorf("%w: %v", ErrDecode, err))
				}
				found = true
			}
		}

		// 2. Mutate
		if err := fn(found); err != nil {
			return err
		}

		data, err := json.Marshal(dst)
		if err != nil {
			return fmt.Errorf("encode %s: %w", key, err)
		}

		// 3. Compare and set
		_, err = s.backend.Set(key, data, s.origin, revision)
		if errors.Is(err, ErrConflict) {
			if s.metrics != nil {
				s.metrics.StoreConflicts.WithLabelValues(key).Inc()
			}
			log.Debug("revision conflict, retrying",
				zap.String("layer", "store"),
				zap.String("key", key),
				zap.Int("attempt", attempt),
			)
			resetValue(dst)
			continue
		}
		if err != nil {
			return s.writeFailed(ctx, "store.Update", key, err)
		}

		s.countWrite(key)
		return nil
	}

	return s.writeFailed(ctx, "store.Update", key, ErrConflict)
}

func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.backend.Delete(key, s.origin); err != nil {
		return s.writeFailed(ctx, "store.Delete", key, err)
	}
	return nil
}

// Subscribe streams changes written by other handles. The channel closes
// when ctx is done.
func (s *Store) Subscribe(ctx context.Context) (<-chan Change, error) {
	in, err := s.backend.Watch(ctx)
	if err != nil {
		return nil, apperr.Persistence("store.Subscribe", err)
	}

	out := make(chan Change, eventBuffer)
	go func() {
		defer close(out)
		for c := range in {
			if c.Origin == s.origin {
				continue
			}
			select {
			case out <- c:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// writeFailed logs and wraps a rejected write. Nothing is retried; the
// caller keeps its in-memory state so the save can be re-attempted.
func (s *Store) writeFailed(ctx context.Context, op, key string, err error) error {
	if s.metrics != nil {
		s.metrics.StoreWriteFailures.WithLabelValues(key).Inc()
	}
	logger.FromCtx(ctx).Warn("store write rejected",
		zap.String("layer", "store"),
		zap.String("method", op),
		zap.String("key", key),
		zap.Error(err),
	)
	return apperr.Persistence(op+" "+key, err)
}

func (s *Store) countWrite(key string) {
	if s.metrics != nil {
		s.metrics.StoreWrites.WithLabelValues(key).Inc()
	}
}
