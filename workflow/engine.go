package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/threadflow/threadflow/workflow/emit"
	"github.com/threadflow/threadflow/workflow/store"
)

// OutcomeKind classifies the result of a Start, Resume, or Recover call.
type OutcomeKind string

const (
	// OutcomeCompleted means traversal reached the terminal sentinel.
	OutcomeCompleted OutcomeKind = "completed"

	// OutcomeInterrupted means a node suspended awaiting external input.
	OutcomeInterrupted OutcomeKind = "interrupted"

	// OutcomeFailed means a node or routing error terminated the thread.
	OutcomeFailed OutcomeKind = "failed"
)

// RunOutcome is the result of one traversal.
//
// Exactly one of State, Interrupt, or Err is set, matching Kind:
//   - OutcomeCompleted: State holds the final variables
//   - OutcomeInterrupted: Interrupt holds the suspension payload
//   - OutcomeFailed: Err holds the terminal error
//
// Protocol misuse (ErrAlreadyRunning, ErrNotInterrupted, ErrUnknownThread)
// and persistence failures are returned as ordinary Go errors alongside a
// zero RunOutcome, not as an outcome: the thread made no transition.
type RunOutcome struct {
	Kind      OutcomeKind
	State     State
	Interrupt *Interrupt
	Err       error
}

// Engine drives thread traversals of a compiled workflow graph.
//
// The Engine:
//   - Loads a thread's checkpoint (or creates one) and walks the graph
//   - Invokes nodes with by-value state copies
//   - Persists the thread snapshot after every transition, before any
//     outcome is reported
//   - Suspends on interrupts and re-enters the same node on Resume
//   - Emits events for every transition, in traversal order per thread
//   - Serializes Start/Resume/Recover per thread ID; distinct IDs run
//     fully in parallel
//
// Example:
//
//	g, _ := workflow.NewBuilder().
//	    AddNode("draft", draftNode).
//	    AddNode("review", reviewNode).
//	    AddEdge("draft", "review").
//	    AddEdge("review", workflow.End).
//	    SetEntry("draft").
//	    Compile()
//
//	st := store.NewMemStore[workflow.ThreadState]()
//	engine := workflow.New(g, st, emit.NewLogEmitter(os.Stdout, false), workflow.Options{})
//
//	outcome, err := engine.Start(ctx, "thread-001", workflow.State{"topic": "cats"})
//	if err == nil && outcome.Kind == workflow.OutcomeInterrupted {
//	    // ...collect input...
//	    outcome, err = engine.Resume(ctx, "thread-001", answer)
//	}
type Engine struct {
	graph   *Graph
	store   store.Store[ThreadState]
	emitter emit.Emitter
	broker  *emit.Broker
	opts    Options

	mu    sync.Mutex
	locks map[string]*threadLock
}

// New creates an Engine for a compiled graph.
//
// Parameters:
//   - g: the graph definition (required)
//   - st: checkpoint persistence backend (required)
//   - emitter: observability event receiver (optional, can be nil; the
//     per-thread Subscribe stream works either way)
//   - opts: execution configuration
func New(g *Graph, st store.Store[ThreadState], emitter emit.Emitter, opts Options) *Engine {
	return &Engine{
		graph:   g,
		store:   st,
		emitter: emitter,
		broker:  emit.NewBroker(opts.SubscriberBuffer),
		opts:    opts,
		locks:   make(map[string]*threadLock),
	}
}

// Start begins a new traversal for a thread ID.
//
// Fails with ErrAlreadyRunning if a traversal for the ID is in flight or the
// stored status is running. Otherwise the thread is created (or reset, when a
// finished thread with the same ID exists) with the initial variables and
// traversal begins at the entry node.
func (e *Engine) Start(ctx context.Context, threadID string, initial State) (RunOutcome, error) {
	var zero RunOutcome
	if threadID == "" {
		return zero, fmt.Errorf("thread ID cannot be empty")
	}

	unlock, err := e.lockThread(threadID)
	if err != nil {
		return zero, err
	}
	defer unlock()

	existing, err := e.store.Load(ctx, threadID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return zero, &PersistenceError{Op: "load", Err: err}
	}
	if err == nil && existing.Status == StatusRunning {
		return zero, ErrAlreadyRunning
	}

	vars, err := initial.Clone()
	if err != nil {
		return zero, fmt.Errorf("initial state is not serializable: %w", err)
	}

	tr := &traversal{ts: &ThreadState{
		ThreadID:    threadID,
		CurrentNode: e.graph.Entry(),
		Variables:   vars,
		Status:      StatusRunning,
	}}
	tr.record(emit.Event{
		Kind:      emit.KindStarted,
		ThreadID:  threadID,
		Timestamp: time.Now(),
		Payload:   vars,
	})

	// Persist the running snapshot before the first node so a crash during
	// it leaves a recoverable checkpoint at the entry position.
	if err := e.save(ctx, tr); err != nil {
		return zero, err
	}

	return e.run(ctx, tr, nil)
}

// Resume continues an interrupted thread with a caller-supplied value.
//
// Fails with ErrUnknownThread if the ID is absent from the store and with
// ErrNotInterrupted unless the stored status is interrupted. Otherwise the
// pending interrupt is cleared and the node that raised it is re-invoked
// with the resume value; only that first invocation sees the value.
func (e *Engine) Resume(ctx context.Context, threadID string, resume any) (RunOutcome, error) {
	var zero RunOutcome

	unlock, err := e.lockThread(threadID)
	if err != nil {
		return zero, err
	}
	defer unlock()

	ts, err := e.store.Load(ctx, threadID)
	if errors.Is(err, store.ErrNotFound) {
		return zero, ErrUnknownThread
	}
	if err != nil {
		return zero, &PersistenceError{Op: "load", Err: err}
	}
	if ts.Status != StatusInterrupted {
		return zero, ErrNotInterrupted
	}

	// The cleared interrupt is not persisted until the node produces its
	// next transition; a crash mid-node leaves the thread interrupted and
	// the same Resume call can be retried.
	ts.Status = StatusRunning
	ts.PendingInterrupt = nil
	e.opts.Metrics.resumed()

	return e.run(ctx, &traversal{ts: &ts}, resume)
}

// Recover continues a thread whose stored status is running: a process
// crash left a mid-traversal checkpoint. Traversal resumes at the
// checkpointed CurrentNode with no resume value, so that node re-executes;
// its side effects must be idempotent or safe to re-run.
//
// Fails with ErrUnknownThread if the ID is absent and with ErrNotRunning if
// the stored status is anything else (an interrupted thread is continued
// with Resume, not Recover).
func (e *Engine) Recover(ctx context.Context, threadID string) (RunOutcome, error) {
	var zero RunOutcome

	unlock, err := e.lockThread(threadID)
	if err != nil {
		return zero, err
	}
	defer unlock()

	ts, err := e.store.Load(ctx, threadID)
	if errors.Is(err, store.ErrNotFound) {
		return zero, ErrUnknownThread
	}
	if err != nil {
		return zero, &PersistenceError{Op: "load", Err: err}
	}
	if ts.Status != StatusRunning {
		return zero, ErrNotRunning
	}

	return e.run(ctx, &traversal{ts: &ts}, nil)
}

// Thread returns the stored snapshot for a thread ID.
//
// Useful for inspecting variables, status, or reconstructing the event
// stream from History. Fails with ErrUnknownThread for absent IDs.
func (e *Engine) Thread(ctx context.Context, threadID string) (ThreadState, error) {
	ts, err := e.store.Load(ctx, threadID)
	if errors.Is(err, store.ErrNotFound) {
		return ThreadState{}, ErrUnknownThread
	}
	if err != nil {
		return ThreadState{}, &PersistenceError{Op: "load", Err: err}
	}
	return ts, nil
}

// Subscribe registers an observer for a thread's event stream.
//
// Events arrive in traversal order. Delivery is fire-and-forget: a
// subscriber whose buffer fills misses events but can reconstruct the full
// stream from ThreadState.History. Always call the returned cancel function.
func (e *Engine) Subscribe(threadID string) (<-chan emit.Event, func()) {
	return e.broker.Subscribe(threadID)
}

// Close shuts down the engine's subscription broker, closing all subscriber
// channels. In-flight traversals are not interrupted.
func (e *Engine) Close() {
	e.broker.Close()
}

// traversal carries one in-flight traversal: the mutable snapshot plus the
// events recorded since the last successful checkpoint save. Events are
// emitted only after the snapshot holding them is durable, so observers
// never see a transition that was not persisted.
type traversal struct {
	ts      *ThreadState
	pending []emit.Event
}

// record appends an event to the thread history and the pending batch.
func (t *traversal) record(ev emit.Event) {
	t.ts.History = append(t.ts.History, ev)
	t.pending = append(t.pending, ev)
}

// run executes the traversal loop from the snapshot's CurrentNode.
//
// The resume value is passed to the first node invocation only; every
// subsequent invocation in the same traversal receives nil.
func (e *Engine) run(ctx context.Context, tr *traversal, resume any) (RunOutcome, error) {
	var zero RunOutcome

	e.opts.Metrics.traversalStarted()
	defer e.opts.Metrics.traversalFinished()

	ts := tr.ts
	limit := e.opts.maxSteps()
	steps := 0

	for {
		steps++
		if limit > 0 && steps > limit {
			return e.fail(ctx, tr, ts.CurrentNode, ErrMaxStepsExceeded)
		}

		select {
		case <-ctx.Done():
			// No transition is persisted for a canceled call; the thread
			// stays at its last checkpoint.
			return zero, ctx.Err()
		default:
		}

		nodeName := ts.CurrentNode
		node, ok := e.graph.node(nodeName)
		if !ok {
			return e.fail(ctx, tr, nodeName, &RoutingError{Node: nodeName})
		}

		vars, err := ts.Variables.Clone()
		if err != nil {
			return e.fail(ctx, tr, nodeName, &NodeError{Node: nodeName, Err: err})
		}

		started := time.Now()
		result := node(ctx, vars, resume)
		resume = nil // one-shot: later invocations in this traversal get nil

		for _, ce := range result.Events {
			tr.record(emit.Event{
				Kind:      emit.KindCustom,
				ThreadID:  ts.ThreadID,
				Node:      nodeName,
				Timestamp: time.Now(),
				Payload:   ce,
			})
		}

		if result.Err != nil {
			e.opts.Metrics.observeNode(nodeName, "error", time.Since(started))
			return e.fail(ctx, tr, nodeName, &NodeError{Node: nodeName, Err: result.Err})
		}

		if result.Interrupt != nil {
			e.opts.Metrics.observeNode(nodeName, "interrupt", time.Since(started))
			e.opts.Metrics.interrupted(result.Interrupt.Kind)

			ts.Status = StatusInterrupted
			ts.PendingInterrupt = result.Interrupt
			tr.record(emit.Event{
				Kind:      emit.KindInterrupted,
				ThreadID:  ts.ThreadID,
				Node:      nodeName,
				Timestamp: time.Now(),
				Payload:   result.Interrupt,
			})
			if err := e.save(ctx, tr); err != nil {
				return zero, err
			}
			return RunOutcome{Kind: OutcomeInterrupted, Interrupt: result.Interrupt}, nil
		}

		e.opts.Metrics.observeNode(nodeName, "update", time.Since(started))
		ts.Variables = ts.Variables.Merge(result.Update)
		ts.Step++
		tr.record(emit.Event{
			Kind:      emit.KindNodeCompleted,
			ThreadID:  ts.ThreadID,
			Node:      nodeName,
			Timestamp: time.Now(),
			Payload:   result.Update,
		})

		// Conditional edges route on the post-merge state.
		next, err := e.graph.next(nodeName, ts.Variables)
		if err != nil {
			return e.fail(ctx, tr, nodeName, err)
		}

		if next == End {
			ts.Status = StatusCompleted
			ts.CurrentNode = End
			final, cerr := ts.Variables.Clone()
			if cerr != nil {
				return e.fail(ctx, tr, nodeName, &NodeError{Node: nodeName, Err: cerr})
			}
			tr.record(emit.Event{
				Kind:      emit.KindCompleted,
				ThreadID:  ts.ThreadID,
				Timestamp: time.Now(),
				Payload:   final,
			})
			if err := e.save(ctx, tr); err != nil {
				return zero, err
			}
			e.opts.Metrics.completed()
			return RunOutcome{Kind: OutcomeCompleted, State: final}, nil
		}

		ts.CurrentNode = next
		if err := e.save(ctx, tr); err != nil {
			return zero, err
		}
	}
}

// fail persists the terminal failed status and reports the cause as an
// outcome. Node and routing errors are captured, never swallowed and never
// retried by the engine.
func (e *Engine) fail(ctx context.Context, tr *traversal, node string, cause error) (RunOutcome, error) {
	ts := tr.ts
	ts.Status = StatusFailed
	ts.PendingInterrupt = nil
	ts.LastError = cause.Error()
	tr.record(emit.Event{
		Kind:      emit.KindFailed,
		ThreadID:  ts.ThreadID,
		Node:      node,
		Timestamp: time.Now(),
		Payload:   cause.Error(),
	})
	if err := e.save(ctx, tr); err != nil {
		return RunOutcome{}, err
	}
	e.opts.Metrics.failed()
	return RunOutcome{Kind: OutcomeFailed, Err: cause}, nil
}

// save durably writes the snapshot, then flushes the events recorded since
// the previous save. A write failure surfaces as *PersistenceError and the
// pending events are not emitted: no unpersisted transition is observable.
func (e *Engine) save(ctx context.Context, tr *traversal) error {
	ts := tr.ts
	ts.Version++
	ts.UpdatedAt = time.Now()

	if err := e.store.Save(ctx, ts.ThreadID, *ts); err != nil {
		e.opts.Metrics.saveFailed()
		return &PersistenceError{Op: "save", Err: err}
	}

	for _, ev := range tr.pending {
		e.emit(ev)
	}
	tr.pending = tr.pending[:0]
	return nil
}

// emit fans one event out to the configured emitter and the broker.
func (e *Engine) emit(ev emit.Event) {
	if e.emitter != nil {
		e.emitter.Emit(ev)
	}
	e.broker.Emit(ev)
}

// threadLock is one entry in the engine's per-thread lock registry. The
// reference count tracks goroutines that looked the entry up, so the entry
// can be pruned once the last of them releases it.
type threadLock struct {
	mu   sync.Mutex
	refs int
}

// lockThread acquires the per-thread mutex without blocking.
//
// A held lock means another Start/Resume/Recover for the same ID is in
// flight in this process; the caller gets ErrAlreadyRunning immediately
// rather than queueing behind it. Registry entries are removed when the last
// referencing call returns, so the map does not grow with the number of
// thread IDs ever seen.
func (e *Engine) lockThread(threadID string) (func(), error) {
	e.mu.Lock()
	l, ok := e.locks[threadID]
	if !ok {
		l = &threadLock{}
		e.locks[threadID] = l
	}
	l.refs++
	e.mu.Unlock()

	if !l.mu.TryLock() {
		e.releaseThread(threadID, l)
		return nil, ErrAlreadyRunning
	}
	return func() {
		l.mu.Unlock()
		e.releaseThread(threadID, l)
	}, nil
}

// releaseThread drops one reference to a registry entry, pruning the entry
// when no other goroutine holds it.
func (e *Engine) releaseThread(threadID string, l *threadLock) {
	e.mu.Lock()
	l.refs--
	if l.refs == 0 {
		delete(e.locks, threadID)
	}
	e.mu.Unlock()
}
