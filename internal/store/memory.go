package store

import (
	"context"
	"sort"
	"sync"
)

// MemoryBackend keeps every collection in process memory. It models the
// browser's localStorage: a byte quota and change fan-out to every open
// context sharing it.
type MemoryBackend struct {
	mu      sync.Mutex
	entries map[string]Entry
	quota   int
	used    int
	subs    map[int]chan Change
	nextSub int
	closed  bool
	onDrop  func()
}

type MemoryOption func(*MemoryBackend)

// WithQuota rejects writes that would push total key+value bytes past n.
// Zero disables the limit.
func WithQuota(n int) MemoryOption {
	return func(b *MemoryBackend) { b.quota = n }
}

// WithDropHook is called whenever a change could not be delivered to a full
// subscriber.
func WithDropHook(fn func()) MemoryOption {
	return func(b *MemoryBackend) { b.onDrop = fn }
}

func NewMemoryBackend(opts ...MemoryOption) *MemoryBackend {
	b := &MemoryBackend{
		entries: make(map[string]Entry),
		subs:    make(map[int]chan Change),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *MemoryBackend) Get(key string) (Entry, error) {
	if err := validateKey(key); err != nil {
		return Entry{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	e, ok := b.entries[key]
	if !ok {
		return Entry{}, ErrNotFound
	}
	e.Data = append([]byte(nil), e.Data...)
	return e, nil
}

func (b *MemoryBackend) Set(key string, data []byte, origin string, expected int64) (int64, error) {
	if err := validateKey(key); err != nil {
		return 0, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return 0, ErrClosed
	}

	current, exists := b.entries[key]
	if expected != AnyRevision && current.Revision != expected {
		return 0, ErrConflict
	}

	used := b.used + len(data)
	if exists {
		used -= len(current.Data)
	} else {
		used += len(key)
	}
	if b.quota > 0 && used > b.quota {
		return 0, ErrQuotaExceeded
	}

	next := Entry{
		Data:     append([]byte(nil), data...),
		Revision: current.Revision + 1,
		Origin:   origin,
	}
	b.entries[key] = next
	b.used = used

	b.broadcast(Change{Key: key, Origin: origin, Revision: next.Revision})
	return next.Revision, nil
}

func (b *MemoryBackend) Delete(key string, origin string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	current, ok := b.entries[key]
	if !ok {
		return nil
	}
	delete(b.entries, key)
	b.used -= len(key) + len(current.Data)

	b.broadcast(Change{Key: key, Origin: origin, Revision: current.Revision, Deleted: true})
	return nil
}

func (b *MemoryBackend) Keys() ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	keys := make([]string, 0, len(b.entries))
	for k := range b.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Used reports the bytes counted against the quota.
func (b *MemoryBackend) Used() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.used
}

func (b *MemoryBackend) Watch(ctx context.Context) (<-chan Change, error) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, ErrClosed
	}
	id := b.nextSub
	b.nextSub++
	ch := make(chan Change, eventBuffer)
	b.subs[id] = ch
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}()

	return ch, nil
}

func (b *MemoryBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
	return nil
}

// broadcast must be called with b.mu held.
func (b *MemoryBackend) broadcast(c Change) {
	for _, ch := range b.subs {
		select {
		case ch <- c:
		default:
			if b.onDrop != nil {
				b.onDrop()
			}
		}
	}
}
