package emit

// Emitter receives execution events from the engine.
//
// Emitters enable pluggable observability backends:
//   - Logging: stdout, files, structured slog
//   - Distributed tracing: OpenTelemetry
//   - In-memory capture for tests and dashboards
//   - Per-thread subscriptions via Broker
//
// Implementations must be:
//   - Non-blocking: the engine never waits on a slow observer
//   - Thread-safe: distinct threads emit concurrently
//   - Resilient: Emit must not panic; failures are handled internally
type Emitter interface {
	// Emit delivers one event. Delivery is fire-and-forget relative to
	// traversal progress; implementations that cannot keep up must buffer
	// or drop rather than block.
	Emit(event Event)
}

// Multi fans an event out to several emitters in order.
//
// Useful for combining, say, a LogEmitter for humans with a Broker for
// programmatic subscribers:
//
//	emitter := emit.Multi{emit.NewLogEmitter(os.Stdout, false), broker}
type Multi []Emitter

// Emit delivers the event to every wrapped emitter in slice order.
func (m Multi) Emit(event Event) {
	for _, e := range m {
		if e != nil {
			e.Emit(event)
		}
	}
}
