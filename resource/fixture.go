package resource

import (
	"encoding/json"
	"strings"
	"sync"
)

// Provider supplies rows when the backend is unavailable.
type Provider[T Entity] interface {
	List(q Query) (rows []T, total int)
	Remove(id int64) bool
}

// Fixture is an in-memory Provider. Each Fixture owns a copy of its seed,
// so deleting from one never affects another.
type Fixture[T Entity] struct {
	mu     sync.RWMutex
	rows   []T
	search []string
	field  func(T, string) string
}

// NewFixture copies seed. search names the fields matched by Query.Search.
func NewFixture[T Entity](seed []T, search ...string) *Fixture[T] {
	rows := make([]T, len(seed))
	copy(rows, seed)
	return &Fixture[T]{rows: rows, search: search, field: jsonField[T]}
}

// WithField replaces the default field accessor, which goes through JSON.
func (f *Fixture[T]) WithField(get func(T, string) string) *Fixture[T] {
	f.field = get
	return f
}

// List filters by case-insensitive substring search and exact filters, then
// pages the result.
func (f *Fixture[T]) List(q Query) ([]T, int) {
	q = q.normalized()
	needle := strings.ToLower(strings.TrimSpace(q.Search))

	f.mu.RLock()
	defer f.mu.RUnlock()
	var matched []T
	for _, row := range f.rows {
		if needle != "" && !f.matches(row, needle) {
			continue
		}
		if !f.filtered(row, q.Filter) {
			continue
		}
		matched = append(matched, row)
	}
	total := len(matched)
	start := (q.Page - 1) * q.PerPage
	if start >= total {
		return []T{}, total
	}
	end := start + q.PerPage
	if end > total {
		end = total
	}
	page := make([]T, end-start)
	copy(page, matched[start:end])
	return page, total
}

func (f *Fixture[T]) matches(row T, needle string) bool {
	for _, name := range f.search {
		if strings.Contains(strings.ToLower(f.field(row, name)), needle) {
			return true
		}
	}
	return false
}

func (f *Fixture[T]) filtered(row T, filter map[string]string) bool {
	for k, v := range filter {
		if v != "" && f.field(row, k) != v {
			return false
		}
	}
	return true
}

// Remove deletes the row with id.
func (f *Fixture[T]) Remove(id int64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, row := range f.rows {
		if row.EntityID() == id {
			f.rows = append(f.rows[:i:i], f.rows[i+1:]...)
			return true
		}
	}
	return false
}

func (f *Fixture[T]) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.rows)
}

func jsonField[T Entity](v T, name string) string {
	if r, ok := any(v).(Record); ok {
		return r.String(name)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	var m Record
	if json.Unmarshal(b, &m) != nil {
		return ""
	}
	return m.String(name)
}
