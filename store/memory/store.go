// Package memory provides an in-memory Store implementation for testing.
// This store is not suitable for production use - data is not persisted.
package memory

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/JuanKhanjar/inbox/store"
)

// Store implements store.Store with in-memory storage.
// Thread-safe for concurrent use. Not suitable for production.
type Store struct {
	mu        sync.RWMutex
	messages  map[int64]*store.Record
	nextID    int64
	connected int32
	nowFn     func() time.Time
}

var _ store.Store = (*Store)(nil)

// Option configures the store.
type Option func(*Store)

// WithClock overrides the time source. Used in tests to make GetRecent,
// GetUrgent, and DeleteOlderThan deterministic.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.nowFn = now
		}
	}
}

// New creates a new in-memory store.
func New(opts ...Option) *Store {
	s := &Store{
		messages: make(map[int64]*store.Record),
		nowFn:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Connect marks the store as connected.
func (s *Store) Connect(_ context.Context) error {
	if !atomic.CompareAndSwapInt32(&s.connected, 0, 1) {
		return store.ErrAlreadyConnected
	}
	return nil
}

// Close marks the store as disconnected.
func (s *Store) Close(_ context.Context) error {
	atomic.StoreInt32(&s.connected, 0)
	return nil
}

func (s *Store) checkConnected() error {
	if atomic.LoadInt32(&s.connected) == 0 {
		return store.ErrNotConnected
	}
	return nil
}

// collect returns detached snapshots of messages matching pred, sorted by
// sent time. Ties break on ID in the same direction so orderings are stable.
func (s *Store) collect(pred func(*store.Record) bool, asc bool) []store.Message {
	s.mu.RLock()
	out := make([]*store.Record, 0, len(s.messages))
	for _, r := range s.messages {
		if pred == nil || pred(r) {
			out = append(out, store.Snapshot(r))
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.SentAt.Equal(b.SentAt) {
			if asc {
				return a.SentAt.Before(b.SentAt)
			}
			return a.SentAt.After(b.SentAt)
		}
		if asc {
			return a.ID < b.ID
		}
		return a.ID > b.ID
	})

	msgs := make([]store.Message, len(out))
	for i, r := range out {
		msgs[i] = r
	}
	return msgs
}
