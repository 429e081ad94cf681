package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/cureworks/pandemic-server-go/internal/game"
)

// MemoryStore keeps encoded snapshots in a map. Nothing survives a restart.
type MemoryStore struct {
	mu    sync.RWMutex
	games map[string][]byte
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{games: make(map[string][]byte)}
}

// Load decodes a fresh copy of the stored snapshot.
func (m *MemoryStore) Load(_ context.Context, gameID string) (*game.Snapshot, error) {
	m.mu.RLock()
	data, ok := m.games[gameID]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", game.ErrGameNotFound, gameID)
	}
	return game.UnmarshalSnapshot(data)
}

// Save stores an encoded copy of s, so later changes to s are not seen.
func (m *MemoryStore) Save(_ context.Context, gameID string, s *game.Snapshot) error {
	data, err := game.MarshalSnapshot(s)
	if err != nil {
		return fmt.Errorf("failed to encode game %s: %w", gameID, err)
	}
	m.mu.Lock()
	m.games[gameID] = data
	m.mu.Unlock()
	return nil
}

// Delete removes a game.
func (m *MemoryStore) Delete(_ context.Context, gameID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.games[gameID]; !ok {
		return fmt.Errorf("%w: %s", game.ErrGameNotFound, gameID)
	}
	delete(m.games, gameID)
	return nil
}

// List returns the stored game ids in order.
func (m *MemoryStore) List(_ context.Context) ([]string, error) {
	m.mu.RLock()
	ids := make([]string, 0, len(m.games))
	for id := range m.games {
		ids = append(ids, id)
	}
	m.mu.RUnlock()
	sort.Strings(ids)
	return ids, nil
}

// Close is a no-op.
func (m *MemoryStore) Close() {}
