package emit

import "time"

// Kind classifies an execution event.
//
// Every transition the engine makes produces exactly one event. The kinds
// mirror the thread lifecycle:
//   - KindStarted: a thread began (or restarted via a fresh Start)
//   - KindNodeCompleted: a node returned a state update and the delta was merged
//   - KindCustom: a node emitted an application-defined event mid-execution
//   - KindInterrupted: a node suspended awaiting external input
//   - KindCompleted: traversal reached the terminal sentinel
//   - KindFailed: a node or routing error terminated the thread
type Kind string

const (
	KindStarted       Kind = "started"
	KindNodeCompleted Kind = "node_completed"
	KindCustom        Kind = "custom"
	KindInterrupted   Kind = "interrupted"
	KindCompleted     Kind = "completed"
	KindFailed        Kind = "failed"
)

// Event is a single entry in a thread's execution stream.
//
// Events are emitted in strict traversal order for a given thread ID and are
// also appended to the thread's persisted history, so an observer that was
// not subscribed at emission time can reconstruct the stream from the
// checkpoint snapshot.
type Event struct {
	// Kind classifies the transition that produced this event.
	Kind Kind `json:"kind"`

	// ThreadID identifies the thread this event belongs to.
	ThreadID string `json:"thread_id"`

	// Node is the node name the event relates to.
	// Empty for thread-level events (started, completed).
	Node string `json:"node,omitempty"`

	// Timestamp records when the transition happened.
	Timestamp time.Time `json:"timestamp"`

	// Payload carries kind-specific data:
	//   - node_completed: the merged state delta
	//   - interrupted: the interrupt payload
	//   - completed: the final variables
	//   - failed: the error message
	//   - custom: whatever the node supplied
	Payload any `json:"payload,omitempty"`
}
