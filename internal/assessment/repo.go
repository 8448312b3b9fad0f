package assessment

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

type Store interface {
	// Upsert inserts the record or overwrites the row with the same
	// subject and evaluation date. created reports which happened.
	Upsert(ctx context.Context, r Record) (rec Record, created bool, err error)
	// UpsertMany saves all records or none of them.
	UpsertMany(ctx context.Context, rs []Record) (created, updated int, err error)
	Get(ctx context.Context, subjectID string, date time.Time) (Record, error)
	ListBySubject(ctx context.Context, subjectID string) ([]Record, error)
	List(ctx context.Context, opts ListOpts) ([]Record, error)
	All(ctx context.Context) ([]Record, error)
	// Peers returns every record sharing the sex and age band.
	Peers(ctx context.Context, sex Sex, band int) ([]Record, error)
	Delete(ctx context.Context, subjectID string, date time.Time) error
	// Reset removes all records and returns how many were deleted.
	Reset(ctx context.Context) (int, error)
}

type memoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

func NewMemoryStore() Store {
	return &memoryStore{records: map[string]Record{}}
}

func (m *memoryStore) Upsert(_ context.Context, r Record) (Record, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, created := m.put(r)
	return r, created, nil
}

func (m *memoryStore) UpsertMany(_ context.Context, rs []Record) (created, updated int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range rs {
		if _, isNew := m.put(r); isNew {
			created++
		} else {
			updated++
		}
	}
	return created, updated, nil
}

// put stores r; the caller holds the write lock.
func (m *memoryStore) put(r Record) (Record, bool) {
	now := time.Now().Unix()
	prev, exists := m.records[r.Key()]
	if exists {
		r.CreatedAt = prev.CreatedAt
	} else {
		r.CreatedAt = now
	}
	r.UpdatedAt = now
	m.records[r.Key()] = r
	return r, !exists
}

func (m *memoryStore) Get(_ context.Context, subjectID string, date time.Time) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.records[subjectID+"|"+date.Format(DateLayout)]
	if !ok {
		return Record{}, ErrNotFound
	}
	return r, nil
}

func (m *memoryStore) ListBySubject(ctx context.Context, subjectID string) ([]Record, error) {
	return m.List(ctx, ListOpts{SubjectID: subjectID})
}

func (m *memoryStore) List(_ context.Context, opts ListOpts) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q := strings.TrimSpace(opts.Q)
	out := make([]Record, 0, len(m.records))
	for _, r := range m.records {
		if opts.SubjectID != "" && r.SubjectID != opts.SubjectID {
			continue
		}
		if opts.Sex != "" && r.Sex != opts.Sex {
			continue
		}
		if opts.AgeBand != nil && r.AgeBand != *opts.AgeBand {
			continue
		}
		if q != "" && !strings.Contains(r.FirstName, q) && !strings.Contains(r.LastName, q) {
			continue
		}
		out = append(out, r)
	}
	sortRecords(out)
	if opts.Offset > 0 {
		if opts.Offset >= len(out) {
			return []Record{}, nil
		}
		out = out[opts.Offset:]
	}
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (m *memoryStore) All(ctx context.Context) ([]Record, error) {
	return m.List(ctx, ListOpts{})
}

func (m *memoryStore) Peers(ctx context.Context, sex Sex, band int) ([]Record, error) {
	return m.List(ctx, ListOpts{Sex: sex, AgeBand: &band})
}

func (m *memoryStore) Delete(_ context.Context, subjectID string, date time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := subjectID + "|" + date.Format(DateLayout)
	if _, ok := m.records[k]; !ok {
		return ErrNotFound
	}
	delete(m.records, k)
	return nil
}

func (m *memoryStore) Reset(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.records)
	m.records = map[string]Record{}
	return n, nil
}

// sortRecords orders by last name, first name, then evaluation date,
// matching the SQL store.
func sortRecords(rs []Record) {
	sort.Slice(rs, func(i, j int) bool {
		a, b := rs[i], rs[j]
		if a.LastName != b.LastName {
			return a.LastName < b.LastName
		}
		if a.FirstName != b.FirstName {
			return a.FirstName < b.FirstName
		}
		if !a.EvaluatedOn.Equal(b.EvaluatedOn) {
			return a.EvaluatedOn.Before(b.EvaluatedOn)
		}
		return a.SubjectID < b.SubjectID
	})
}
