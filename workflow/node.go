package workflow

import "context"

// Node is a unit of work in the workflow graph.
//
// A node receives a copy of the current thread variables and, when the
// invocation is the first one after a Resume call, the caller-supplied
// resume value (nil otherwise). It returns exactly one of:
//   - a partial state update to merge and proceed
//   - an interrupt requesting external input before it can complete
//   - an error that terminates the thread
//
// Node code that needs to know "is this a resume" must branch only on a
// non-nil resume argument, never on thread history: every invocation other
// than the first after Resume receives nil.
//
// Nodes may perform blocking or asynchronous work internally (network calls,
// timers) before returning; the engine only requires that the invocation
// eventually returns a NodeResult. Side effects of a node must be idempotent
// or safe to re-run, because the node re-executes if the process restarts
// while it is in flight, and an interrupting node re-executes on every
// Resume.
type Node func(ctx context.Context, state State, resume any) NodeResult

// Interrupt is a cooperative suspension request carrying a payload for an
// external collaborator (a question, a draft value, a set of options).
//
// Kind is an explicit tag the collaborator dispatches on; consumers must
// never sniff the payload's structure to decide how to render it.
// The engine itself never interprets either field.
type Interrupt struct {
	// Kind tags the interrupt for consumer-side dispatch,
	// e.g. "choice", "edit", "approval".
	Kind string `json:"kind"`

	// Payload is arbitrary, caller-defined data describing what input is
	// needed. Must be JSON-serializable (it is persisted in the checkpoint).
	Payload any `json:"payload,omitempty"`
}

// CustomEvent is an application-defined event a node surfaces mid-execution,
// delivered to observers as a "custom" event on the thread's stream.
type CustomEvent struct {
	// Name identifies the event for consumers.
	Name string `json:"name"`

	// Payload is arbitrary event data.
	Payload any `json:"payload,omitempty"`
}

// NodeResult is the outcome of one node invocation.
//
// Exactly one of Update, Interrupt, or Err is meaningful; the engine checks
// them in the order Err, Interrupt, Update. Use the constructors rather than
// building the struct by hand.
type NodeResult struct {
	// Update is a partial state update to merge into the thread variables.
	Update State

	// Interrupt, when non-nil, suspends the whole traversal until Resume.
	Interrupt *Interrupt

	// Err, when non-nil, terminates the thread with status failed.
	Err error

	// Events are custom events to publish on the thread's stream,
	// regardless of which outcome the result carries.
	Events []CustomEvent
}

// UpdateResult returns a NodeResult that merges the update and proceeds.
//
// A nil update is valid and means "no state change".
func UpdateResult(update State) NodeResult {
	return NodeResult{Update: update}
}

// InterruptResult returns a NodeResult that suspends the thread.
//
// kind tags the interrupt for consumer dispatch; payload describes the
// required input.
func InterruptResult(kind string, payload any) NodeResult {
	return NodeResult{Interrupt: &Interrupt{Kind: kind, Payload: payload}}
}

// ErrorResult returns a NodeResult that terminates the thread with err.
func ErrorResult(err error) NodeResult {
	return NodeResult{Err: err}
}

// WithEvents attaches custom events to the result.
func (r NodeResult) WithEvents(events ...CustomEvent) NodeResult {
	r.Events = append(r.Events, events...)
	return r
}
