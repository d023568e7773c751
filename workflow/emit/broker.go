package emit

import "sync"

// DefaultSubscriberBuffer is the channel capacity for new subscriptions.
const DefaultSubscriberBuffer = 64

// Broker implements Emitter and fans events out to per-thread subscribers.
//
// A subscriber receives every event for its thread ID, in emission order,
// through a buffered channel. Delivery is fire-and-forget: if a subscriber's
// buffer is full the event is dropped for that subscriber rather than
// blocking the engine. A dropped subscriber can still reconstruct the full
// stream from the thread's persisted history.
//
// Example:
//
//	broker := emit.NewBroker(0)
//	engine := workflow.New(g, st, broker, workflow.Options{})
//
//	ch, cancel := broker.Subscribe("order-42")
//	defer cancel()
//	go func() {
//	    for ev := range ch {
//	        fmt.Println(ev.Kind, ev.Node)
//	    }
//	}()
type Broker struct {
	mu     sync.RWMutex
	buffer int
	subs   map[string][]chan Event // threadID -> subscriber channels
	closed bool
}

// NewBroker creates a Broker.
//
// buffer is the per-subscriber channel capacity; values <= 0 use
// DefaultSubscriberBuffer.
func NewBroker(buffer int) *Broker {
	if buffer <= 0 {
		buffer = DefaultSubscriberBuffer
	}
	return &Broker{
		buffer: buffer,
		subs:   make(map[string][]chan Event),
	}
}

// Subscribe registers a new subscriber for the thread ID.
//
// Returns the event channel and a cancel function. Cancel is idempotent and
// closes the channel; always call it when done to release the subscription.
func (b *Broker) Subscribe(threadID string) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, b.buffer)
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	b.subs[threadID] = append(b.subs[threadID], ch)

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.unsubscribe(threadID, ch)
		})
	}
	return ch, cancel
}

// unsubscribe removes the channel from the thread's subscriber list and closes it.
func (b *Broker) unsubscribe(threadID string, ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	channels := b.subs[threadID]
	for i, c := range channels {
		if c == ch {
			b.subs[threadID] = append(channels[:i], channels[i+1:]...)
			close(ch)
			break
		}
	}
	if len(b.subs[threadID]) == 0 {
		delete(b.subs, threadID)
	}
}

// Emit delivers the event to every current subscriber of its thread ID.
//
// Never blocks: subscribers whose buffers are full miss the event.
func (b *Broker) Emit(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}
	for _, ch := range b.subs[event.ThreadID] {
		select {
		case ch <- event:
		default:
			// Subscriber too slow; drop rather than stall traversal.
		}
	}
}

// Close shuts down the broker and closes all subscriber channels.
//
// Subsequent Emit calls are no-ops and Subscribe returns a closed channel.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for id, channels := range b.subs {
		for _, ch := range channels {
			close(ch)
		}
		delete(b.subs, id)
	}
}
