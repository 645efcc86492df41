package session

import "sync"

// Factory builds the per-session dependency stack (credential store,
// upstream client, auth facade) and returns the store that owns it.
type Factory func(sessionID string) *Store

// Manager maps gateway session IDs to their stores, constructing lazily.
// Stores are cheap: the persisted state lives in the credential mirror, so a
// session recreated after a restart simply re-verifies on bootstrap.
type Manager struct {
	mu      sync.Mutex
	stores  map[string]*Store
	factory Factory
}

func NewManager(factory Factory) *Manager {
	return &Manager{
		stores:  make(map[string]*Store),
		factory: factory,
	}
}

// Get returns the store for the session, creating it on first use.
func (m *Manager) Get(sessionID string) *Store {
	m.mu.Lock()
	defer m.mu.Unlock()
	store, ok := m.stores[sessionID]
	if !ok {
		store = m.factory(sessionID)
		m.stores[sessionID] = store
	}
	return store
}

// Evict drops the in-memory store, typically after logout.
func (m *Manager) Evict(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.stores, sessionID)
}

// Len reports the number of live in-memory sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.stores)
}
