package repo

import (
	"context"
	"sync"

	"github.com/azure-sidekick/server/internal/agent/model"
)

// MemoryHistoryStore is the in-process HistoryStore used when Redis is not configured.
type MemoryHistoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]model.ChatTurn
}

func NewMemoryHistoryStore() *MemoryHistoryStore {
	return &MemoryHistoryStore{sessions: make(map[string][]model.ChatTurn)}
}

func (m *MemoryHistoryStore) List(_ context.Context, sessionKey string) ([]model.ChatTurn, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	turns := m.sessions[sessionKey]
	out := make([]model.ChatTurn, len(turns))
	copy(out, turns)
	return out, nil
}

func (m *MemoryHistoryStore) Add(_ context.Context, sessionKey string, turn model.ChatTurn) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sessionKey] = append(m.sessions[sessionKey], turn)
	return nil
}

func (m *MemoryHistoryStore) Clear(_ context.Context, sessionKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionKey)
	return nil
}

var _ model.HistoryStore = (*MemoryHistoryStore)(nil)
