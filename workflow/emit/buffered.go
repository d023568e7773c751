package emit

import "sync"

// BufferedEmitter implements Emitter by storing events in memory.
//
// Events are organized by thread ID for efficient retrieval and filtering.
// This is the emitter of choice for tests and for post-execution analysis
// of a thread's event stream.
//
// Warning: all events are retained until cleared. For long-running
// deployments with many threads, clear finished threads periodically.
//
// Example usage:
//
//	emitter := emit.NewBufferedEmitter()
//	engine := workflow.New(g, st, emitter, workflow.Options{})
//
//	engine.Start(ctx, "order-42", initial)
//
//	events := emitter.History("order-42")
//	interrupts := emitter.HistoryWithFilter("order-42", emit.HistoryFilter{Kind: emit.KindInterrupted})
type BufferedEmitter struct {
	mu     sync.RWMutex
	events map[string][]Event // threadID -> events in emission order
}

// HistoryFilter specifies criteria for filtering a thread's event history.
//
// All fields are optional; set fields combine with AND logic.
type HistoryFilter struct {
	Kind Kind   // Filter by event kind (empty = no filter)
	Node string // Filter by node name (empty = no filter)
}

// NewBufferedEmitter creates a new BufferedEmitter.
func NewBufferedEmitter() *BufferedEmitter {
	return &BufferedEmitter{
		events: make(map[string][]Event),
	}
}

// Emit stores the event in the thread's in-memory history.
func (b *BufferedEmitter) Emit(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events[event.ThreadID] = append(b.events[event.ThreadID], event)
}

// History returns all captured events for a thread in emission order.
//
// Returns a copy; callers may modify the slice freely.
func (b *BufferedEmitter) History(threadID string) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	events := b.events[threadID]
	out := make([]Event, len(events))
	copy(out, events)
	return out
}

// HistoryWithFilter returns the thread's events matching the filter,
// in emission order.
func (b *BufferedEmitter) HistoryWithFilter(threadID string, filter HistoryFilter) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var out []Event
	for _, ev := range b.events[threadID] {
		if filter.Kind != "" && ev.Kind != filter.Kind {
			continue
		}
		if filter.Node != "" && ev.Node != filter.Node {
			continue
		}
		out = append(out, ev)
	}
	return out
}

// Threads returns the IDs of all threads with captured events.
func (b *BufferedEmitter) Threads() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	ids := make([]string, 0, len(b.events))
	for id := range b.events {
		ids = append(ids, id)
	}
	return ids
}

// Clear removes all captured events for a thread.
func (b *BufferedEmitter) Clear(threadID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.events, threadID)
}

// ClearAll removes all captured events for every thread.
func (b *BufferedEmitter) ClearAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = make(map[string][]Event)
}
