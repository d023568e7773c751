package workflow

import (
	"errors"
	"fmt"
)

// ErrAlreadyRunning is returned by Start and Resume when a traversal for the
// thread ID is already in flight in this process, or the stored status is
// running. The caller's concurrent call wins; no retry is performed.
var ErrAlreadyRunning = errors.New("thread is already running")

// ErrNotInterrupted is returned by Resume when the stored thread status is
// anything other than interrupted. In particular, resuming an already
// completed thread fails with this error rather than re-running the workflow.
var ErrNotInterrupted = errors.New("thread is not interrupted")

// ErrUnknownThread is returned by Resume and Recover when the thread ID is
// absent from the checkpoint store. An unknown ID is never silently treated
// as a fresh start.
var ErrUnknownThread = errors.New("unknown thread")

// ErrNotRunning is returned by Recover when the stored thread status is not
// running, meaning there is no crashed mid-traversal checkpoint to continue.
var ErrNotRunning = errors.New("thread is not running")

// ErrMaxStepsExceeded terminates a thread whose traversal exceeded the
// configured step limit. This is the guard against graphs whose routing
// cycles indefinitely; see Options.MaxSteps.
var ErrMaxStepsExceeded = errors.New("execution exceeded maximum steps limit")

// DefinitionError reports a fault in the graph definition detected at
// Compile time: a dangling edge target, a missing entry node, a node with no
// outgoing edge. Definition errors are fatal and never recovered.
type DefinitionError struct {
	Message string
	Code    string
}

func (e *DefinitionError) Error() string {
	if e.Code != "" {
		return e.Code + ": " + e.Message
	}
	return e.Message
}

// PersistenceError reports a checkpoint store read or write failure.
//
// The failure is fatal for the current Start/Resume call and the thread is
// left at its last durably saved state; no unpersisted transition is ever
// reported as success, so the caller may safely retry the same call.
type PersistenceError struct {
	// Op is the store operation that failed ("load" or "save").
	Op string

	// Err is the underlying store error.
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("checkpoint %s failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// RoutingError reports that the graph could not resolve a successor:
// either the routing function returned a label absent from the successor
// table, or a node has no outgoing edge at traversal time.
//
// Routing errors terminate the thread like node errors do; there is never a
// silent default branch.
type RoutingError struct {
	// Node is the node whose successor could not be resolved.
	Node string

	// Label is the routing function's return value, when one was involved.
	Label string
}

func (e *RoutingError) Error() string {
	if e.Label != "" {
		return fmt.Sprintf("no route for label %q from node %q", e.Label, e.Node)
	}
	return fmt.Sprintf("no route from node %q", e.Node)
}

// NodeError wraps an error returned by a node invocation, attributing it to
// the node that produced it. The engine never swallows or retries node
// errors; it persists the failed status and reports the error structurally.
type NodeError struct {
	// Node is the node whose invocation failed.
	Node string

	// Err is the error the node returned.
	Err error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("node %q failed: %v", e.Node, e.Err)
}

func (e *NodeError) Unwrap() error {
	return e.Err
}
