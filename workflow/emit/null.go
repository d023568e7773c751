package emit

// NullEmitter implements Emitter by discarding all events.
//
// Use cases:
//   - Deployments where observability overhead is unwanted
//   - Tests that don't inspect events
//   - Disabling event emission without changing engine wiring
type NullEmitter struct{}

// NewNullEmitter creates a new NullEmitter.
//
// The returned emitter is safe for concurrent use and has zero overhead.
func NewNullEmitter() *NullEmitter {
	return &NullEmitter{}
}

// Emit discards the event without any processing.
func (n *NullEmitter) Emit(event Event) {
	// No-op: discard the event
}
