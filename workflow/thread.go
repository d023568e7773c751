package workflow

import (
	"time"

	"github.com/threadflow/threadflow/workflow/emit"
)

// Status is the lifecycle state of a workflow thread.
type Status string

const (
	// StatusIdle is the status of a thread that has been created but not run.
	StatusIdle Status = "idle"

	// StatusRunning means a traversal is in progress (or a crash left a
	// mid-traversal checkpoint; see Engine.Recover).
	StatusRunning Status = "running"

	// StatusInterrupted means a node suspended awaiting a Resume value.
	StatusInterrupted Status = "interrupted"

	// StatusCompleted means traversal reached the terminal sentinel.
	StatusCompleted Status = "completed"

	// StatusFailed means a node or routing error terminated the thread.
	StatusFailed Status = "failed"
)

// ThreadState is the durable snapshot of one workflow thread.
//
// It is owned by the checkpoint store and mutated only by the engine, which
// writes it after every node transition. The snapshot contains everything
// needed to continue traversal after a process restart: the position
// (CurrentNode), the variables, the lifecycle status, and any pending
// interrupt awaiting a resume value.
//
// The whole struct serializes as JSON for the database-backed stores.
type ThreadState struct {
	// ThreadID is the caller-supplied opaque identifier.
	ThreadID string `json:"thread_id"`

	// CurrentNode is the node to execute next, or the End sentinel.
	CurrentNode string `json:"current_node"`

	// Variables is the evolving workflow state, merged node by node.
	Variables State `json:"variables"`

	// Status is the thread's lifecycle state.
	Status Status `json:"status"`

	// PendingInterrupt is set while Status is StatusInterrupted and
	// cleared on resume.
	PendingInterrupt *Interrupt `json:"pending_interrupt,omitempty"`

	// History is the append-only sequence of events emitted for this
	// thread, in emission order. Never truncated by the engine; observers
	// that missed live events reconstruct the stream from here.
	History []emit.Event `json:"history"`

	// Step counts completed node invocations across the thread's lifetime.
	Step int `json:"step"`

	// Version increments on every checkpoint save, totally ordering the
	// thread's snapshots.
	Version int `json:"version"`

	// LastError holds the terminal error message when Status is StatusFailed.
	LastError string `json:"last_error,omitempty"`

	// UpdatedAt records when the snapshot was last written.
	UpdatedAt time.Time `json:"updated_at"`
}
