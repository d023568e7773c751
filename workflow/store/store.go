// Package store provides checkpoint persistence backends for workflow threads.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a requested thread ID does not exist.
var ErrNotFound = errors.New("not found")

// Store provides durable persistence for thread snapshots.
//
// The engine writes one snapshot per thread ID after every node transition;
// Load of the same ID returns the most recently saved snapshot. The engine
// guarantees it never issues concurrent Saves for one thread ID, but
// implementations must support concurrent use across distinct IDs.
//
// Implementations can use:
//   - In-memory storage (testing, single-process, see memory.go)
//   - Embedded databases (SQLite, see sqlite.go)
//   - Relational databases (MySQL, see mysql.go)
//   - Key-value stores (Redis, see redis.go)
//
// Type parameter S is the snapshot type to persist; it must be
// JSON-serializable for the database-backed implementations.
type Store[S any] interface {
	// Load retrieves the latest snapshot for a thread.
	//
	// Returns ErrNotFound if the thread ID has never been saved,
	// or another error on persistence failure.
	Load(ctx context.Context, threadID string) (S, error)

	// Save durably writes the snapshot for a thread, replacing any
	// previous snapshot for the same ID.
	//
	// Returns error if persistence fails; the engine treats a failed
	// Save as fatal for the current traversal step.
	Save(ctx context.Context, threadID string, snapshot S) error

	// Delete removes a thread's snapshot.
	//
	// The engine never deletes snapshots itself; this exists so external
	// callers can purge finished threads. Deleting an absent ID is a no-op.
	Delete(ctx context.Context, threadID string) error
}
