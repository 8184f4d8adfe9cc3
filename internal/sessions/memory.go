package sessions

import (
	"sync"
)

// MemoryStore is a TokenStore that does not survive a restart.
type MemoryStore struct {
	lock  sync.RWMutex
	token string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Set(token string) error {
	if len(token) == 0 {
		return ErrInvalidToken
	}

	m.lock.Lock()
	defer m.lock.Unlock()

	m.token = token
	return nil
}

func (m *MemoryStore) Get() (string, bool) {
	m.lock.RLock()
	defer m.lock.RUnlock()

	return m.token, len(m.token) > 0
}

func (m *MemoryStore) Clear() error {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.token = ""
	return nil
}
