package querycache

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Memory кеш в памяти процесса.
type Memory struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.RWMutex
	entries map[string]Entry
	byType  map[string]map[string]struct{}
	seq     Marks

	notifier
}

// NewMemory создаёт кеш в памяти. Записи старше ttl считаются отсутствующими;
// нулевой ttl отключает вытеснение по времени.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]Entry),
		byType:  make(map[string]map[string]struct{}),
		seq:     make(Marks),
	}
}

// Get возвращает запись по ключу.
func (m *Memory) Get(_ context.Context, key string) (Entry, bool, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return Entry{}, false, nil
	}
	if m.ttl > 0 && m.now().Sub(e.UpdatedAt) > m.ttl {
		m.mu.Lock()
		if cur, ok := m.entries[key]; ok && cur.UpdatedAt.Equal(e.UpdatedAt) {
			m.remove(key)
		}
		m.mu.Unlock()
		return Entry{}, false, nil
	}
	return e, true, nil
}

// Marks возвращает копию счётчиков инвалидаций.
func (m *Memory) Marks(_ context.Context) (Marks, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap := make(Marks, len(m.seq))
	for typ, n := range m.seq {
		snap[typ] = n
	}
	return snap, nil
}

// Provide сохраняет результат запроса.
func (m *Memory) Provide(_ context.Context, key string, tags []Tag, value []byte, seen Marks) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.remove(key)
	m.entries[key] = Entry{
		Value:     append([]byte(nil), value...),
		Tags:      append([]Tag(nil), tags...),
		Stale:     m.seq.movedFor(seen, tags),
		UpdatedAt: m.now(),
	}
	for _, t := range tags {
		keys, ok := m.byType[t.Type]
		if !ok {
			keys = make(map[string]struct{})
			m.byType[t.Type] = keys
		}
		keys[key] = struct{}{}
	}
	return nil
}

// Invalidate помечает устаревшими записи, задетые тегами.
func (m *Memory) Invalidate(_ context.Context, tags []Tag) ([]string, error) {
	m.mu.Lock()
	affected := make(map[string]struct{})
	bumped := make(map[string]struct{})
	for _, t := range tags {
		if _, ok := bumped[t.Type]; !ok {
			bumped[t.Type] = struct{}{}
			m.seq[t.Type]++
		}
		for key := range m.byType[t.Type] {
			e := m.entries[key]
			if !e.matches([]Tag{t}) {
				continue
			}
			e.Stale = true
			m.entries[key] = e
			affected[key] = struct{}{}
		}
	}
	m.mu.Unlock()

	keys := sortedKeys(affected)
	m.notify(keys)
	return keys, nil
}

// Subscribe подписывает на ключи, ставшие устаревшими.
func (m *Memory) Subscribe(fn func(keys []string)) func() {
	return m.subscribe(fn)
}

// Len количество записей.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// remove вызывается под m.mu.
func (m *Memory) remove(key string) {
	old, ok := m.entries[key]
	if !ok {
		return
	}
	for _, t := range old.Tags {
		if keys, ok := m.byType[t.Type]; ok {
			delete(keys, key)
			if len(keys) == 0 {
				delete(m.byType, t.Type)
			}
		}
	}
	delete(m.entries, key)
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
