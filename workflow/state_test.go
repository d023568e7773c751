package workflow

import "testing"

func TestStateClone(t *testing.T) {
	t.Run("deep copies nested structures", func(t *testing.T) {
		original := State{
			"name": "alice",
			"nested": map[string]any{
				"count": 1,
			},
			"list": []any{"a", "b"},
		}

		copied, err := original.Clone()
		if err != nil {
			t.Fatalf("Clone failed: %v", err)
		}

		copied["name"] = "bob"
		copied["nested"].(map[string]any)["count"] = 99

		if original["name"] != "alice" {
			t.Error("top-level key mutated through clone")
		}
		if original["nested"].(map[string]any)["count"] != 1 {
			t.Error("nested map mutated through clone")
		}
	})

	t.Run("normalizes numbers like a store reload", func(t *testing.T) {
		copied, err := State{"n": 42}.Clone()
		if err != nil {
			t.Fatalf("Clone failed: %v", err)
		}
		if _, ok := copied["n"].(float64); !ok {
			t.Errorf("expected float64 after round-trip, got %T", copied["n"])
		}
	})

	t.Run("nil state clones to empty", func(t *testing.T) {
		var s State
		copied, err := s.Clone()
		if err != nil {
			t.Fatalf("Clone failed: %v", err)
		}
		if copied == nil || len(copied) != 0 {
			t.Errorf("expected empty non-nil state, got %v", copied)
		}
	})

	t.Run("unserializable value fails", func(t *testing.T) {
		s := State{"ch": make(chan int)}
		if _, err := s.Clone(); err == nil {
			t.Error("expected error cloning a channel value")
		}
	})
}

func TestStateMerge(t *testing.T) {
	t.Run("update keys overwrite, others preserved", func(t *testing.T) {
		base := State{"a": 1, "b": 2}
		merged := base.Merge(State{"b": 20, "c": 3})

		if merged["a"] != 1 || merged["b"] != 20 || merged["c"] != 3 {
			t.Errorf("unexpected merge result: %v", merged)
		}
	})

	t.Run("inputs are not modified", func(t *testing.T) {
		base := State{"a": 1}
		update := State{"a": 2}
		_ = base.Merge(update)

		if base["a"] != 1 {
			t.Error("receiver was modified by Merge")
		}
	})

	t.Run("nil update is a no-op copy", func(t *testing.T) {
		base := State{"a": 1}
		merged := base.Merge(nil)
		if len(merged) != 1 || merged["a"] != 1 {
			t.Errorf("unexpected merge result: %v", merged)
		}
	})
}

func TestStateGetString(t *testing.T) {
	s := State{"name": "alice", "count": 3}

	if got := s.GetString("name"); got != "alice" {
		t.Errorf("GetString(name) = %q", got)
	}
	if got := s.GetString("count"); got != "" {
		t.Errorf("GetString on non-string should be empty, got %q", got)
	}
	if got := s.GetString("missing"); got != "" {
		t.Errorf("GetString on absent key should be empty, got %q", got)
	}
}
