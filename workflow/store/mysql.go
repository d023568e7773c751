package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLStore is a MySQL/MariaDB implementation of Store[S].
//
// Designed for:
//   - Production deployments requiring durable checkpoints
//   - Threads that survive process restarts
//   - Multiple engine processes sharing one store (distinct thread IDs)
//
// MySQLStore uses connection pooling; writes for a single thread ID are
// serialized by the engine, so no row-level locking is needed here.
//
// Schema:
//   - workflow_threads: one row per thread ID holding the latest snapshot
//
// Type parameter S is the snapshot type to persist (must be JSON-serializable).
type MySQLStore[S any] struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// NewMySQLStore creates a new MySQL-backed store.
//
// The DSN (Data Source Name) format is:
//
//	[username[:password]@][protocol[(address)]]/dbname[?param1=value1&...]
//
// Example DSNs:
//
//	user:password@tcp(localhost:3306)/workflows
//	user:password@tcp(127.0.0.1:3306)/workflows?parseTime=true
//
// Security Warning:
//
//	NEVER hardcode credentials in your source code. Use environment variables:
//	    dsn := os.Getenv("MYSQL_DSN")
//	    if dsn == "" {
//	        log.Fatal("MYSQL_DSN environment variable not set")
//	    }
//	    st, err := store.NewMySQLStore[workflow.ThreadState](dsn)
//
// The store automatically creates the required table, configures connection
// pooling, and verifies the connection with a ping.
func NewMySQLStore[S any](dsn string) (*MySQLStore[S], error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL connection: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping MySQL: %w", err)
	}

	s := &MySQLStore[S]{db: db}
	if err := s.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

// createTables creates the required database schema if it doesn't exist.
func (m *MySQLStore[S]) createTables(ctx context.Context) error {
	threadsTable := `
		CREATE TABLE IF NOT EXISTS workflow_threads (
			thread_id VARCHAR(255) NOT NULL PRIMARY KEY,
			snapshot JSON NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci
	`
	if _, err := m.db.ExecContext(ctx, threadsTable); err != nil {
		return fmt.Errorf("failed to create workflow_threads table: %w", err)
	}
	return nil
}

// Load retrieves the latest snapshot for a thread.
//
// Returns ErrNotFound if the thread ID has never been saved.
func (m *MySQLStore[S]) Load(ctx context.Context, threadID string) (S, error) {
	var zero S
	if err := m.checkOpen(); err != nil {
		return zero, err
	}

	query := `SELECT snapshot FROM workflow_threads WHERE thread_id = ?`

	var snapshotJSON string
	err := m.db.QueryRowContext(ctx, query, threadID).Scan(&snapshotJSON)
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
func (m *MySQLStore[S]) Save(ctx context.Context, threadID string, snapshot S) error {
	if err := m.checkOpen(); err != nil {
		return err
	}

	snapshotJSON, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	query := `
		INSERT INTO workflow_threads (thread_id, snapshot)
		VALUES (?, ?)
		ON DUPLICATE KEY UPDATE snapshot = VALUES(snapshot)
	`
	if _, err := m.db.ExecContext(ctx, query, threadID, string(snapshotJSON)); err != nil {
		return fmt.Errorf("failed to save thread: %w", err)
	}
	return nil
}

// Delete removes a thread's snapshot. Absent IDs are a no-op.
func (m *MySQLStore[S]) Delete(ctx context.Context, threadID string) error {
	if err := m.checkOpen(); err != nil {
		return err
	}

	query := `DELETE FROM workflow_threads WHERE thread_id = ?`
	if _, err := m.db.ExecContext(ctx, query, threadID); err != nil {
		return fmt.Errorf("failed to delete thread: %w", err)
	}
	return nil
}

// Close closes the database connection pool.
//
// After Close, all operations return an error. Calling Close multiple times
// is safe (subsequent calls are no-ops).
func (m *MySQLStore[S]) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	return m.db.Close()
}

// Ping verifies the database connection is alive.
func (m *MySQLStore[S]) Ping(ctx context.Context) error {
	if err := m.checkOpen(); err != nil {
		return err
	}
	return m.db.PingContext(ctx)
}

func (m *MySQLStore[S]) checkOpen() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return fmt.Errorf("store is closed")
	}
	return nil
}
