package emit

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// LogEmitter implements Emitter by writing structured log output to a writer.
//
// Supports two output modes:
//   - Text mode (default): Human-readable format with key=value pairs
//   - JSON mode: Machine-readable JSON format, one event per line
//
// Example text output:
//
//	[node_completed] thread=order-42 node=validate
//
// Example JSON output:
//
//	{"kind":"node_completed","thread_id":"order-42","node":"validate",...}
//
// Usage:
//
//	// Text output to stdout
//	emitter := emit.NewLogEmitter(os.Stdout, false)
//
//	// JSON output to file
//	f, _ := os.Create("events.jsonl")
//	defer f.Close()
//	emitter := emit.NewLogEmitter(f, true)
type LogEmitter struct {
	writer   io.Writer
	jsonMode bool
}

// NewLogEmitter creates a new LogEmitter.
//
// Parameters:
//   - writer: Where to write the log output (nil defaults to os.Stdout)
//   - jsonMode: If true, emit JSON lines; if false, emit text format
func NewLogEmitter(writer io.Writer, jsonMode bool) *LogEmitter {
	if writer == nil {
		writer = os.Stdout
	}
	return &LogEmitter{
		writer:   writer,
		jsonMode: jsonMode,
	}
}

// Emit writes an event to the configured writer.
func (l *LogEmitter) Emit(event Event) {
	if l.jsonMode {
		l.emitJSON(event)
	} else {
		l.emitText(event)
	}
}

// emitJSON writes the event as a single JSON line (JSONL format).
func (l *LogEmitter) emitJSON(event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		// Fallback to error message if marshal fails
		fmt.Fprintf(l.writer, "{\"error\":\"failed to marshal event: %v\"}\n", err)
		return
	}
	fmt.Fprintf(l.writer, "%s\n", data)
}

// emitText writes the event as human-readable text.
func (l *LogEmitter) emitText(event Event) {
	// Format: [kind] thread=xxx [node=yyy] [payload=...]
	fmt.Fprintf(l.writer, "[%s] thread=%s", event.Kind, event.ThreadID)

	if event.Node != "" {
		fmt.Fprintf(l.writer, " node=%s", event.Node)
	}

	if event.Payload != nil {
		// Try to marshal payload as JSON for readability
		payloadJSON, err := json.Marshal(event.Payload)
		if err == nil {
			fmt.Fprintf(l.writer, " payload=%s", payloadJSON)
		} else {
			fmt.Fprintf(l.writer, " payload=%v", event.Payload)
		}
	}

	fmt.Fprint(l.writer, "\n")
}
