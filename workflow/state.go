package workflow

import (
	"encoding/json"
	"fmt"
)

// State is the evolving variable mapping of a workflow thread.
//
// Nodes receive a copy of the state and return partial updates; the engine
// merges updates key-by-key, so keys absent from an update are preserved.
// Values must be JSON-serializable: state is checkpointed as JSON after
// every node transition, and copies handed to nodes are made by JSON
// round-trip, so numeric values are normalized to float64 the same way a
// reload from the store would normalize them.
type State map[string]any

// Clone creates a deep copy of the state using JSON round-trip serialization.
//
// This works for any JSON-serializable value, including nested maps and
// slices. Values that don't marshal to JSON (channels, functions) fail.
//
// The engine clones state before every node invocation so nodes can never
// retain a mutable reference to the canonical thread variables.
func (s State) Clone() (State, error) {
	if s == nil {
		return State{}, nil
	}

	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal state: %w", err)
	}

	var copied State
	if err := json.Unmarshal(data, &copied); err != nil {
		return nil, fmt.Errorf("failed to unmarshal state: %w", err)
	}
	if copied == nil {
		copied = State{}
	}
	return copied, nil
}

// Merge returns a new State combining the receiver with an update.
//
// Keys in the update overwrite existing keys; keys not present in the update
// are preserved. Neither input is modified.
func (s State) Merge(update State) State {
	merged := make(State, len(s)+len(update))
	for k, v := range s {
		merged[k] = v
	}
	for k, v := range update {
		merged[k] = v
	}
	return merged
}

// GetString returns the string value for a key, or "" when the key is absent
// or holds a non-string. A convenience for routing functions.
func (s State) GetString(key string) string {
	v, _ := s[key].(string)
	return v
}
