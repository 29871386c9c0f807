package dataset

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/okian/transformdiag/internal/domain/record"
)

// Store provides read access to the current dataset.
type Store interface {
	// Records returns the rows matching every predicate, in table order.
	Records(ctx context.Context, preds ...record.Predicate) ([]record.Record, error)
	// Columns returns the metric columns: those whose non-empty cells all
	// parse as numbers and that are not categorical keys.
	Columns(ctx context.Context) ([]string, error)
	// Distinct returns the distinct values of field in first-seen order.
	Distinct(ctx context.Context, field string) ([]string, error)
	// Count returns the number of rows.
	Count(ctx context.Context) int
}

// MemoryStore keeps one Dataset in memory and swaps it atomically on reload.
type MemoryStore struct {
	mu          sync.RWMutex
	ds          *Dataset
	path        string
	loadedAt    time.Time
	categorical map[string]bool
}

// Option applies a configuration option to the MemoryStore.
type Option func(*MemoryStore)

// WithCategorical marks fields that are never offered as metric columns,
// even when their values are numeric (e.g. chain).
func WithCategorical(fields ...string) Option {
	return func(s *MemoryStore) {
		for _, f := range fields {
			s.categorical[f] = true
		}
	}
}

// WithDataset seeds the store.
func WithDataset(ds *Dataset) Option {
	return func(s *MemoryStore) {
		s.ds = ds
		s.loadedAt = time.Now()
	}
}

// DefaultCategorical lists the key fields of a diagnostics table.
func DefaultCategorical() []string {
	return []string{"target", "target_config", "transform", "chain", "estimate", "log_scale", "run_id"}
}

// NewMemoryStore creates an empty store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{categorical: make(map[string]bool)}
	for _, f := range DefaultCategorical() {
		s.categorical[f] = true
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load reads a CSV file and replaces the current dataset. On failure the
// previous dataset stays in place.
func (s *MemoryStore) Load(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLoad, err)
	}
	defer func() { _ = f.Close() }()

	ds, err := LoadCSV(ctx, f)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	s.Set(ds)

	s.mu.Lock()
	s.path = path
	s.mu.Unlock()
	return nil
}

// Set replaces the current dataset.
func (s *MemoryStore) Set(ds *Dataset) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ds = ds
	s.loadedAt = time.Now()
}

// Path returns the file the dataset was loaded from, if any.
func (s *MemoryStore) Path() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.path
}

// LoadedAt returns when the current dataset was installed.
func (s *MemoryStore) LoadedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadedAt
}

func (s *MemoryStore) current() (*Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.ds == nil {
		return nil, ErrNotLoaded
	}
	return s.ds, nil
}

// Records implements Store. The returned slice is fresh; records are shared
// and must be treated as immutable.
func (s *MemoryStore) Records(ctx context.Context, preds ...record.Predicate) ([]record.Record, error) {
	ds, err := s.current()
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return record.Filter(ds.Records, preds...), nil
}

// Header returns the column order of the current dataset.
func (s *MemoryStore) Header(_ context.Context) ([]string, error) {
	ds, err := s.current()
	if err != nil {
		return nil, err
	}
	return append([]string(nil), ds.Header...), nil
}

// Columns implements Store.
func (s *MemoryStore) Columns(_ context.Context) ([]string, error) {
	ds, err := s.current()
	if err != nil {
		return nil, err
	}
	var out []string
	for _, h := range ds.Header {
		if s.categorical[h] {
			continue
		}
		if numericColumn(ds.Records, h) {
			out = append(out, h)
		}
	}
	return out, nil
}

func numericColumn(records []record.Record, field string) bool {
	found := false
	for _, r := range records {
		v, ok := r[field]
		if !ok || v.IsEmpty() {
			continue
		}
		if _, err := r.Float(field); err != nil {
			return false
		}
		found = true
	}
	return found
}

// Distinct implements Store.
func (s *MemoryStore) Distinct(_ context.Context, field string) ([]string, error) {
	ds, err := s.current()
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var out []string
	for _, r := range ds.Records {
		v, ok := r[field]
		if !ok {
			continue
		}
		if str := v.String(); !seen[str] {
			seen[str] = true
			out = append(out, str)
		}
	}
	return out, nil
}

// Count implements Store.
func (s *MemoryStore) Count(_ context.Context) int {
	ds, err := s.current()
	if err != nil {
		return 0
	}
	return len(ds.Records)
}
