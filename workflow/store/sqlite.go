package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"
)

// SQLiteStore is a SQLite implementation of Store[S].
//
// It persists thread snapshots in a single-file database. Designed for:
//   - Development and testing with zero setup
//   - Single-process deployments that must survive restarts
//   - Prototyping before migrating to a networked store
//
// SQLiteStore uses WAL mode for concurrent reads and a single writer
// connection, which matches the engine's single-writer-per-thread discipline.
//
// Schema:
//   - workflow_threads: one row per thread ID holding the latest snapshot
//
// Type parameter S is the snapshot type to persist (must be JSON-serializable).
type SQLiteStore[S any] struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
	path   string
}

// NewSQLiteStore creates a new SQLite-backed store.
//
// The path parameter specifies the database file location:
//   - "./threads.db" - file in current directory
//   - ":memory:" - in-memory database (data lost on close)
//
// The store automatically creates the database file and schema, enables WAL
// mode for concurrent reads, and sets a busy timeout for lock contention.
//
// Example:
//
//	st, err := store.NewSQLiteStore[workflow.ThreadState]("./threads.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer st.Close()
func NewSQLiteStore[S any](path string) (*SQLiteStore[S], error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite connection: %w", err)
	}

	// SQLite supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx := context.Background()
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	s := &SQLiteStore[S]{
		db:   db,
		path: path,
	}
	if err := s.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

// createTables creates the required database schema if it doesn't exist.
func (s *SQLiteStore[S]) createTables(ctx context.Context) error {
	threadsTable := `
		CREATE TABLE IF NOT EXISTS workflow_threads (
			thread_id TEXT NOT NULL PRIMARY KEY,
			snapshot TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`
	if _, err := s.db.ExecContext(ctx, threadsTable); err != nil {
		return fmt.Errorf("failed to create workflow_threads table: %w", err)
	}
	return nil
}

// Load retrieves the latest snapshot for a thread.
//
// Returns ErrNotFound if the thread ID has never been saved.
func (s *SQLiteStore[S]) Load(ctx context.Context, threadID string) (S, error) {
	var zero S
	if err := s.checkOpen(); err != nil {
		return zero, err
	}

	query := `SELECT snapshot FROM workflow_threads WHERE thread_id = ?`

	var snapshotJSON string
	err := s.db.QueryRowContext(ctx, query, threadID).Scan(&snapshotJSON)
	if err == sql.ErrNoRows {
		return zero, ErrNotFound
	}
	if err != nil {
		return zero, fmt.Errorf("failed to load thread: %w", err)
	}

	var snapshot S
	if err := json.Unmarshal([]byte(snapshotJSON), &snapshot); err != nil {
		return zero, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return snapshot, nil
}

// Save durably writes the snapshot for a thread, replacing any previous one.
func (s *SQLiteStore[S]) Save(ctx context.Context, threadID string, snapshot S) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	snapshotJSON, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	query := `
		INSERT INTO workflow_threads (thread_id, snapshot)
		VALUES (?, ?)
		ON CONFLICT(thread_id) DO UPDATE SET
			snapshot = excluded.snapshot,
			updated_at = CURRENT_TIMESTAMP
	`
	if _, err := s.db.ExecContext(ctx, query, threadID, string(snapshotJSON)); err != nil {
		return fmt.Errorf("failed to save thread: %w", err)
	}
	return nil
}

// Delete removes a thread's snapshot. Absent IDs are a no-op.
func (s *SQLiteStore[S]) Delete(ctx context.Context, threadID string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	query := `DELETE FROM workflow_threads WHERE thread_id = ?`
	if _, err := s.db.ExecContext(ctx, query, threadID); err != nil {
		return fmt.Errorf("failed to delete thread: %w", err)
	}
	return nil
}

// Close closes the database connection.
//
// After Close, all operations return an error. Calling Close multiple times
// is safe (subsequent calls are no-ops).
func (s *SQLiteStore[S]) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// Ping verifies the database connection is alive.
func (s *SQLiteStore[S]) Ping(ctx context.Context) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	return s.db.PingContext(ctx)
}

// Path returns the database file path.
func (s *SQLiteStore[S]) Path() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.path
}

func (s *SQLiteStore[S]) checkOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return fmt.Errorf("store is closed")
	}
	return nil
}
