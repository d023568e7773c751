package workflow

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/threadflow/threadflow/workflow/store"
)

func TestMetricsRecording(t *testing.T) {
	ctx := context.Background()
	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)

	st := store.NewMemStore[ThreadState]()
	engine := New(askGraph(t), st, nil, Options{Metrics: metrics})
	defer engine.Close()

	if _, err := engine.Start(ctx, "t1", nil); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if _, err := engine.Resume(ctx, "t1", "42"); err != nil {
		t.Fatalf("Resume failed: %v", err)
	}

	t.Run("interrupts counted by kind", func(t *testing.T) {
		if got := testutil.ToFloat64(metrics.interrupts.WithLabelValues("question")); got != 1 {
			t.Errorf("interrupts_total{kind=question} = %v, want 1", got)
		}
	})

	t.Run("resumes and completions counted", func(t *testing.T) {
		if got := testutil.ToFloat64(metrics.resumes); got != 1 {
			t.Errorf("resumes_total = %v, want 1", got)
		}
		if got := testutil.ToFloat64(metrics.threadsCompleted); got != 1 {
			t.Errorf("threads_completed_total = %v, want 1", got)
		}
	})

	t.Run("node durations observed per node and outcome", func(t *testing.T) {
		// prepare/update, ask/interrupt, ask/update, finish/update.
		if got := testutil.CollectAndCount(metrics.nodeDuration); got != 4 {
			t.Errorf("node_duration_seconds series = %d, want 4", got)
		}
	})

	t.Run("no traversals left active", func(t *testing.T) {
		if got := testutil.ToFloat64(metrics.threadsActive); got != 0 {
			t.Errorf("threads_active = %v, want 0", got)
		}
	})
}

func TestMetricsFailures(t *testing.T) {
	ctx := context.Background()
	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)

	g := mustCompile(t, NewBuilder().
		AddNode("explode", func(_ context.Context, _ State, _ any) NodeResult {
			return ErrorResult(errors.New("always fails"))
		}).
		AddEdge("explode", End).
		SetEntry("explode"))

	st := store.NewMemStore[ThreadState]()
	engine := New(g, st, nil, Options{Metrics: metrics})
	defer engine.Close()

	if _, err := engine.Start(ctx, "t1", nil); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	if got := testutil.ToFloat64(metrics.threadsFailed); got != 1 {
		t.Errorf("threads_failed_total = %v, want 1", got)
	}
}

// TestMetricsDisabled verifies a nil Metrics pointer is safe everywhere.
func TestMetricsDisabled(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemStore[ThreadState]()
	engine := New(askGraph(t), st, nil, Options{})
	defer engine.Close()

	if _, err := engine.Start(ctx, "t1", nil); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if _, err := engine.Resume(ctx, "t1", "v"); err != nil {
		t.Fatalf("Resume failed: %v", err)
	}
}

func TestOptionsMaxSteps(t *testing.T) {
	cases := []struct {
		name string
		in   int
		want int
	}{
		{"zero applies default", 0, DefaultMaxSteps},
		{"negative disables", -1, 0},
		{"positive passes through", 25, 25},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := (Options{MaxSteps: tc.in}).maxSteps(); got != tc.want {
				t.Errorf("maxSteps() = %d, want %d", got, tc.want)
			}
		})
	}
}

// All metric names stay in the threadflow namespace.
func TestMetricsNamespace(t *testing.T) {
	registry := prometheus.NewRegistry()
	_ = NewMetrics(registry)

	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	for _, mf := range families {
		if !strings.HasPrefix(mf.GetName(), "threadflow_") {
			t.Errorf("metric %q outside threadflow namespace", mf.GetName())
		}
	}
}
