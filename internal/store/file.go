package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const fileExt = ".json"

type envelope struct {
	Revision int64           `json:"revision"`
	Origin   string          `json:"origin"`
	Data     json.RawMessage `json:"data"`
}

// FileBackend stores one envelope file per key under dir. Several processes
// may share the directory; Watch reports writes made by any of them.
//
// Compare-and-set is serialized inside one process only. Two processes
// racing on the same key within one rename can still both succeed.
type FileBackend struct {
	dir           string
	maxValueBytes int
	logger        *zap.Logger
	onDrop        func()

	mu       sync.Mutex
	watchers []*fsnotify.Watcher
}

type FileOption func(*FileBackend)

// WithMaxValueBytes rejects single values larger than n with
// ErrQuotaExceeded. Zero disables the limit.
func WithMaxValueBytes(n int) FileOption {
	return func(b *FileBackend) { b.maxValueBytes = n }
}

func WithFileLogger(l *zap.Logger) FileOption {
	return func(b *FileBackend) { b.logger = l }
}

func WithFileDropHook(fn func()) FileOption {
	return func(b *FileBackend) { b.onDrop = fn }
}

func NewFileBackend(dir string, opts ...FileOption) (*FileBackend, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	b := &FileBackend{dir: dir, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

func (b *FileBackend) Dir() string {
	return b.dir
}

func (b *FileBackend) path(key string) string {
	return filepath.Join(b.dir, key+fileExt)
}

func (b *FileBackend) read(key string) (envelope, error) {
	raw, err := os.ReadFile(b.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return envelope{}, ErrNotFound
	}
	if err != nil {
		return envelope{}, err
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return envelope{}, fmt.Errorf("decode %s: %w", key, err)
	}
	return env, nil
}

func (b *FileBackend) Get(key string) (Entry, error) {
	if err := validateKey(key); err != nil {
		return Entry{}, err
	}
	env, err := b.read(key)
	if err != nil {
		return Entry{}, err
	}
	return Entry{Data: []byte(env.Data), Revision: env.Revision, Origin: env.Origin}, nil
}

func (b *FileBackend) Set(key string, data []byte, origin string, expected int64) (int64, error) {
	if err := validateKey(key); err != nil {
		return 0, err
	}
	if b.maxValueBytes > 0 && len(data) > b.maxValueBytes {
		return 0, ErrQuotaExceeded
	}
	if !json.Valid(data) {
		return 0, fmt.Errorf("value for %s is not valid JSON", key)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	var current int64
	env, err := b.read(key)
	switch {
	case err == nil:
		current = env.Revision
	case errors.Is(err, ErrNotFound):
	default:
		return 0, err
	}
	if expected != AnyRevision && current != expected {
		return 0, ErrConflict
	}

	next := envelope{Revision: current + 1, Origin: origin, Data: json.RawMessage(data)}
	raw, err := json.Marshal(next)
	if err != nil {
		return 0, err
	}
	if err := b.writeAtomic(key, raw); err != nil {
		return 0, err
	}
	return next.Revision, nil
}

// writeAtomic writes via a hidden temp file and rename so readers never see
// a half-written envelope.
func (b *FileBackend) writeAtomic(key string, raw []byte) error {
	tmp, err := os.CreateTemp(b.dir, "."+key+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, b.path(key)); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

func (b *FileBackend) Delete(key string, origin string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	err := os.Remove(b.path(key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (b *FileBackend) Keys() ([]string, error) {
	entries, err := os.ReadDir(b.dir)
	if err != nil {
		return nil, err
	}
	var keys []string
	for _, e := range entries {
		if key, ok := keyFromName(e.Name()); ok && !e.IsDir() {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func keyFromName(name string) (string, bool) {
	if strings.HasPrefix(name, ".") || !strings.HasSuffix(name, fileExt) {
		return "", false
	}
	key := strings.TrimSuffix(name, fileExt)
	if validateKey(key) != nil {
		return "", false
	}
	return key, true
}

// Watch starts an fsnotify watcher on the data directory. The returned
// channel closes when ctx is done or the backend is closed.
func (b *FileBackend) Watch(ctx context.Context) (<-chan Change, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(b.dir); err != nil {
		w.Close()
		return nil, fmt.Errorf("watch %s: %w", b.dir, err)
	}

	b.mu.Lock()
	b.watchers = append(b.watchers, w)
	b.mu.Unlock()

	out := make(chan Change, eventBuffer)
	go b.processEvents(ctx, w, out)
	return out, nil
}

func (b *FileBackend) processEvents(ctx context.Context, w *fsnotify.Watcher, out chan<- Change) {
	defer close(out)
	defer b.forget(w)

	// Create and Write often both fire for one rename; emit each revision once.
	seen := make(map[string]int64)

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.Events:
			if !ok {
				return
			}
			key, ok := keyFromName(filepath.Base(event.Name))
			if !ok {
				continue
			}

			var change Change
			if event.Has(fsnotify.Remove) {
				change = Change{Key: key, Deleted: true}
				delete(seen, key)
			} else if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) {
				env, err := b.read(key)
				if err != nil {
					// Removed again or mid-replace; the next event will carry it.
					continue
				}
				if seen[key] == env.Revision {
					continue
				}
				seen[key] = env.Revision
				change = Change{Key: key, Origin: env.Origin, Revision: env.Revision}
			} else {
				continue
			}

			select {
			case out <- change:
			default:
				b.logger.Warn("change event dropped, subscriber full", zap.String("key", key))
				if b.onDrop != nil {
					b.onDrop()
				}
			}

		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			b.logger.Warn("file watcher error", zap.Error(err))
		}
	}
}

func (b *FileBackend) forget(w *fsnotify.Watcher) {
	w.Close()
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, cur := range b.watchers {
		if cur == w {
			b.watchers = append(b.watchers[:i], b.watchers[i+1:]...)
			break
		}
	}
}

// Close stops every watcher started by Watch.
func (b *FileBackend) Close() error {
	b.mu.Lock()
	watchers := b.watchers
	b.watchers = nil
	b.mu.Unlock()

	var errs []error
	for _, w := range watchers {
		if err := w.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
