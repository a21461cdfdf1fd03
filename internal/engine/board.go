package engine

import (
	"sync"

	"jobmate/workflow-service/internal/model"
)

// Board is the engine's local view of applications, keyed by id.
// It is only ever written from server responses.
type Board struct {
	mu   sync.RWMutex
	apps map[string]model.Application
}

// NewBoard returns an empty Board.
func NewBoard() *Board {
	return &Board{apps: make(map[string]model.Application)}
}

// Get returns a copy of the snapshot for id.
func (b *Board) Get(id string) (model.Application, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	a, ok := b.apps[id]
	if !ok {
		return model.Application{}, false
	}
	return a.Clone(), true
}

// Put replaces the snapshot for a.ID.
func (b *Board) Put(a model.Application) {
	b.mu.Lock()
	b.apps[a.ID] = a.Clone()
	b.mu.Unlock()
}

// Load replaces the snapshots of every application in apps.
func (b *Board) Load(apps []model.Application) {
	b.mu.Lock()
	for _, a := range apps {
		b.apps[a.ID] = a.Clone()
	}
	b.mu.Unlock()
}

// List returns copies of every snapshot.
func (b *Board) List() []model.Application {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]model.Application, 0, len(b.apps))
	for _, a := range b.apps {
		out = append(out, a.Clone())
	}
	return out
}

// Len returns the number of snapshots.
func (b *Board) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.apps)
}
