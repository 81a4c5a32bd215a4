package users

import (
	"context"
	"sync"
	"time"
)

type memRepo struct {
	mu      sync.Mutex
	byEmail map[string]Record
	nextID  int64
}

func NewMemoryRepository() Repository {
	return &memRepo{byEmail: map[string]Record{}}
}

func (m *memRepo) Insert(_ context.Context, r Record) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byEmail[r.Email]; ok {
		return Record{}, ErrDuplicateUser
	}
	m.nextID++
	r.ID = m.nextID
	r.CreatedAt = time.Now().UTC()
	m.byEmail[r.Email] = r
	return r, nil
}

func (m *memRepo) FindByEmail(_ context.Context, email string) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.byEmail[email]
	if !ok {
		return Record{}, ErrNotFound
	}
	return r, nil
}
