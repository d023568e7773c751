package store

import (
	"context"
	"encoding/json"
	"sync"
)

// MemStore is an in-memory implementation of Store[S].
//
// Designed for:
//   - Testing and development
//   - Single-process workflows
//   - Short-lived workflows where durability isn't required
//
// MemStore is thread-safe and supports concurrent access across thread IDs.
// Snapshots are stored as JSON so that Load returns an independent copy,
// matching the isolation behavior of the database-backed stores.
//
// Limitations:
//   - Data is lost when the process terminates
//   - Not suitable for distributed deployments
//
// Type parameter S is the snapshot type to persist.
type MemStore[S any] struct {
	mu        sync.RWMutex
	snapshots map[string][]byte // threadID -> JSON snapshot
}

// NewMemStore creates a new in-memory store.
//
// Example:
//
//	st := store.NewMemStore[workflow.ThreadState]()
//	engine := workflow.New(g, st, emitter, workflow.Options{})
func NewMemStore[S any]() *MemStore[S] {
	return &MemStore[S]{
		snapshots: make(map[string][]byte),
	}
}

// Load retrieves the latest snapshot for a thread.
//
// Returns ErrNotFound if the thread ID has never been saved.
func (m *MemStore[S]) Load(_ context.Context, threadID string) (S, error) {
	m.mu.RLock()
	data, exists := m.snapshots[threadID]
	m.mu.RUnlock()

	var snapshot S
	if !exists {
		return snapshot, ErrNotFound
	}
	if err := json.Unmarshal(data, &snapshot); err != nil {
		var zero S
		return zero, err
	}
	return snapshot, nil
}

// Save writes the snapshot for a thread, replacing any previous one.
func (m *MemStore[S]) Save(_ context.Context, threadID string, snapshot S) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots[threadID] = data
	return nil
}

// Delete removes a thread's snapshot. Absent IDs are a no-op.
func (m *MemStore[S]) Delete(_ context.Context, threadID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.snapshots, threadID)
	return nil
}

// Len returns the number of stored threads. Useful in tests.
func (m *MemStore[S]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.snapshots)
}
