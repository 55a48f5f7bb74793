package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"shopledger/internal/core"
)

// MemoryBackend keeps every table in process memory. Nothing survives Close.
type MemoryBackend struct {
	mu     sync.Mutex
	tables map[string]*memoryStore
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{tables: make(map[string]*memoryStore)}
}

// OpenStore returns the table's store, creating it on first use. Opening the
// same table twice yields the same rows.
func (b *MemoryBackend) OpenStore(_ context.Context, schema Schema) (Store, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.tables == nil {
		return nil, storageErr("open", schema.Table, fmt.Errorf("backend is closed"))
	}
	if st, ok := b.tables[schema.Table]; ok {
		return st, nil
	}
	st := &memoryStore{schema: schema, rows: make(map[int64]Record)}
	b.tables[schema.Table] = st
	return st, nil
}

func (b *MemoryBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, st := range b.tables {
		st.close()
	}
	b.tables = nil
	return nil
}

type memoryStore struct {
	mu     sync.RWMutex
	schema Schema
	rows   map[int64]Record
	lastID int64
	closed bool
}

var _ Store = (*memoryStore)(nil)

func (s *memoryStore) Schema() Schema { return s.schema }

func (s *memoryStore) close() {
	s.mu.Lock()
	s.closed = true
	s.rows = nil
	s.mu.Unlock()
}

func (s *memoryStore) checkOpen() error {
	if s.closed {
		return storageErr("access", s.schema.Table, fmt.Errorf("store is closed"))
	}
	return nil
}

// Create implements Store. Ids are never reused, even after a delete.
func (s *memoryStore) Create(_ context.Context, rec Record) (int64, error) {
	row, err := s.schema.normalize(rec, false)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return 0, err
	}
	s.lastID++
	row[core.ColID] = s.lastID
	s.rows[s.lastID] = row
	return s.lastID, nil
}

// Update implements Store.
func (s *memoryStore) Update(ctx context.Context, id int64, changes Record) error {
	return s.Modify(ctx, id, func(Record) (Record, error) {
		return changes, nil
	})
}

// Modify implements Store. The lock is held across fn.
func (s *memoryStore) Modify(_ context.Context, id int64, fn func(current Record) (Record, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	current, ok := s.rows[id]
	if !ok {
		return notFound(s.schema.Table, id)
	}
	changes, err := fn(current.clone())
	if err != nil {
		return err
	}
	row, err := s.schema.normalize(changes, true)
	if err != nil {
		return err
	}
	next := current.clone()
	for k, v := range row {
		next[k] = v
	}
	s.rows[id] = next
	return nil
}

// Delete implements Store.
func (s *memoryStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	if _, ok := s.rows[id]; !ok {
		return notFound(s.schema.Table, id)
	}
	delete(s.rows, id)
	return nil
}

// Get implements Store.
func (s *memoryStore) Get(_ context.Context, id int64) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	row, ok := s.rows[id]
	if !ok {
		return nil, notFound(s.schema.Table, id)
	}
	return row.clone(), nil
}

// List implements Store.
func (s *memoryStore) List(_ context.Context, q Query) ([]Record, error) {
	match, err := s.matcher(q)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	var out []Record
	for _, row := range s.rows {
		if match(row) {
			out = append(out, row.clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		di, dj := out[i].Text(core.ColDate), out[j].Text(core.ColDate)
		if di != dj {
			if q.Order == DateDesc {
				return di > dj
			}
			return di < dj
		}
		return out[i].ID() < out[j].ID()
	})
	return out, nil
}

// Sum implements Store.
func (s *memoryStore) Sum(_ context.Context, column string, q Query) (decimal.Decimal, error) {
	if _, err := s.schema.numericColumn(column); err != nil {
		return decimal.Zero, err
	}
	match, err := s.matcher(q)
	if err != nil {
		return decimal.Zero, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for _, row := range s.rows {
		if match(row) {
			total = total.Add(row.Decimal(column))
		}
	}
	return total, nil
}

// matcher compiles a query into a row predicate. Canonical dates compare
// correctly as strings.
func (s *memoryStore) matcher(q Query) (func(Record) bool, error) {
	if err := s.schema.checkWhere(q.Where); err != nil {
		return nil, err
	}
	want := make(Record, len(q.Where))
	for name, v := range q.Where {
		col, _ := s.schema.Column(name)
		cv, err := col.convert(v)
		if err != nil {
			return nil, err
		}
		want[name] = cv
	}
	return func(row Record) bool {
		date := row.Text(core.ColDate)
		if q.From != "" && date < q.From {
			return false
		}
		if q.To != "" && date > q.To {
			return false
		}
		for name, v := range want {
			switch w := v.(type) {
			case decimal.Decimal:
				if !row.Decimal(name).Equal(w) {
					return false
				}
			default:
				if row[name] != v {
					return false
				}
			}
		}
		return true
	}, nil
}
