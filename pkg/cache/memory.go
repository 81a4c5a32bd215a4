package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// Memory is a size-bounded LRU with optional per-entry TTL.
type Memory struct {
	mu      sync.Mutex
	entries map[string]*list.Element
	lru     *list.List
	maxSize int
	ttl     time.Duration
	now     func() time.Time
}

type memoryEntry struct {
	key     string
	value   []byte
	expires time.Time
}

var _ Backend = (*Memory)(nil)

func NewMemory(maxSize int, ttl time.Duration) *Memory {
	return &Memory{
		entries: map[string]*list.Element{},
		lru:     list.New(),
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
	}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	elem, ok := m.entries[key]
	if !ok {
		return nil, ErrMiss
	}
	e := elem.Value.(*memoryEntry)
	if !e.expires.IsZero() && !m.now().Before(e.expires) {
		m.remove(elem)
		return nil, ErrMiss
	}
	m.lru.MoveToFront(elem)
	return e.value, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var expires time.Time
	if m.ttl > 0 {
		expires = m.now().Add(m.ttl)
	}
	if elem, ok := m.entries[key]; ok {
		e := elem.Value.(*memoryEntry)
		e.value, e.expires = value, expires
		m.lru.MoveToFront(elem)
		return nil
	}
	m.entries[key] = m.lru.PushFront(&memoryEntry{key: key, value: value, expires: expires})
	if m.lru.Len() > m.maxSize {
		m.remove(m.lru.Back())
	}
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if elem, ok := m.entries[key]; ok {
		m.remove(elem)
	}
	return nil
}

func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lru.Len()
}

func (m *Memory) remove(elem *list.Element) {
	if elem == nil {
		return
	}
	m.lru.Remove(elem)
	delete(m.entries, elem.Value.(*memoryEntry).key)
}
