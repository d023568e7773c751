package workflow

// DefaultMaxSteps bounds a single traversal when Options.MaxSteps is zero.
//
// The graph definition does not reject cycles structurally (a routing table
// may legitimately point back at an earlier node), so the engine enforces a
// step budget instead: a traversal that exceeds it fails the thread with
// ErrMaxStepsExceeded.
const DefaultMaxSteps = 1000

// Options configures Engine execution behavior.
//
// The zero value is valid: DefaultMaxSteps applies, metrics are disabled,
// and subscriber channels use the emit package default buffer.
type Options struct {
	// MaxSteps limits node invocations per Start/Resume/Recover call.
	// 0 applies DefaultMaxSteps; a negative value disables the guard
	// entirely (use with caution on cyclic graphs).
	MaxSteps int

	// Metrics, when non-nil, records Prometheus metrics for every
	// traversal. See NewMetrics.
	Metrics *Metrics

	// SubscriberBuffer is the channel capacity handed to Subscribe
	// callers. Values <= 0 use emit.DefaultSubscriberBuffer.
	SubscriberBuffer int
}

// maxSteps resolves the effective step limit: 0 means no limit.
func (o Options) maxSteps() int {
	switch {
	case o.MaxSteps < 0:
		return 0
	case o.MaxSteps == 0:
		return DefaultMaxSteps
	default:
		return o.MaxSteps
	}
}
