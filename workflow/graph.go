// Package workflow provides a resumable, checkpointed workflow graph engine.
//
// A Graph describes nodes and edges; an Engine drives one thread's traversal
// of the graph, checkpointing after every node so that a thread can suspend
// on an interrupt (or survive a process restart) and continue exactly where
// it left off.
package workflow

import "fmt"

// End is the terminal sentinel. An edge targeting End completes the thread.
const End = "__end__"

// Router computes the successor label for a conditional edge from the
// post-merge state. The returned label is looked up in the edge's successor
// table; a label absent from the table is a routing error, never a silent
// fallthrough.
//
// Routers should be pure functions of the state.
type Router func(state State) string

// edgeDef is the outgoing edge of one node: either a static target or a
// routing function with a label-to-node table.
type edgeDef struct {
	to      string
	router  Router
	targets map[string]string
}

// Graph is an immutable workflow definition: nodes, edges, and the entry
// node. Built via Builder.Compile, after which it is safe to share across
// concurrently executing threads.
type Graph struct {
	nodes map[string]Node
	edges map[string]edgeDef
	entry string
}

// Entry returns the name of the entry node.
func (g *Graph) Entry() string {
	return g.entry
}

// Nodes returns the names of all registered nodes.
func (g *Graph) Nodes() []string {
	names := make([]string, 0, len(g.nodes))
	for name := range g.nodes {
		names = append(names, name)
	}
	return names
}

// node looks up a node implementation by name.
func (g *Graph) node(name string) (Node, bool) {
	n, ok := g.nodes[name]
	return n, ok
}

// next resolves the successor of a node against the post-merge state.
//
// A static edge yields its fixed target. A conditional edge invokes the
// routing function and looks the returned label up in the successor table.
// Returns a *RoutingError when no edge exists or the label is unmapped.
func (g *Graph) next(from string, state State) (string, error) {
	edge, ok := g.edges[from]
	if !ok {
		return "", &RoutingError{Node: from}
	}

	if edge.router == nil {
		return edge.to, nil
	}

	label := edge.router(state)
	target, ok := edge.targets[label]
	if !ok {
		return "", &RoutingError{Node: from, Label: label}
	}
	return target, nil
}

// Builder accumulates nodes and edges and validates the whole definition at
// Compile time. Builder methods are chainable and collect faults rather than
// failing fast, so Compile reports the first problem with full context.
//
// Example:
//
//	g, err := workflow.NewBuilder().
//	    AddNode("generate", generateNode).
//	    AddNode("review", reviewNode).
//	    AddEdge("generate", "review").
//	    AddEdge("review", workflow.End).
//	    SetEntry("generate").
//	    Compile()
type Builder struct {
	nodes map[string]Node
	edges map[string]edgeDef
	order []string // node names in registration order, for deterministic validation
	entry string
	errs  []*DefinitionError
}

// NewBuilder creates an empty graph builder.
func NewBuilder() *Builder {
	return &Builder{
		nodes: make(map[string]Node),
		edges: make(map[string]edgeDef),
	}
}

// AddNode registers a node under a unique name.
func (b *Builder) AddNode(name string, fn Node) *Builder {
	if name == "" || name == End {
		b.fail("INVALID_NODE", fmt.Sprintf("invalid node name %q", name))
		return b
	}
	if fn == nil {
		b.fail("INVALID_NODE", "node function cannot be nil: "+name)
		return b
	}
	if _, exists := b.nodes[name]; exists {
		b.fail("DUPLICATE_NODE", "duplicate node name: "+name)
		return b
	}
	b.nodes[name] = fn
	b.order = append(b.order, name)
	return b
}

// AddEdge creates a static edge. The target may be the End sentinel.
//
// A node has exactly one outgoing edge definition; adding a second edge for
// the same source is a definition error.
func (b *Builder) AddEdge(from, to string) *Builder {
	if b.checkEdgeSource(from) {
		b.edges[from] = edgeDef{to: to}
	}
	return b
}

// AddConditionalEdge creates a conditional edge: at traversal time the
// router is invoked against the post-merge state and its returned label is
// looked up in targets. Table values may be the End sentinel.
func (b *Builder) AddConditionalEdge(from string, router Router, targets map[string]string) *Builder {
	if router == nil {
		b.fail("INVALID_EDGE", "conditional edge from "+from+" requires a router")
		return b
	}
	if len(targets) == 0 {
		b.fail("INVALID_EDGE", "conditional edge from "+from+" requires a successor table")
		return b
	}
	if b.checkEdgeSource(from) {
		copied := make(map[string]string, len(targets))
		for label, target := range targets {
			copied[label] = target
		}
		b.edges[from] = edgeDef{router: router, targets: copied}
	}
	return b
}

// SetEntry names the node traversal starts at.
func (b *Builder) SetEntry(name string) *Builder {
	b.entry = name
	return b
}

// Compile validates the accumulated definition and returns an immutable
// Graph.
//
// Validation rules:
//   - the entry node is set and registered
//   - every edge source and target is a registered node (targets may be End)
//   - every node has an outgoing edge (terminal nodes point at End)
//
// Returns a *DefinitionError describing the first violation. The returned
// Graph shares no mutable structure with the builder.
func (b *Builder) Compile() (*Graph, error) {
	if len(b.errs) > 0 {
		return nil, b.errs[0]
	}

	if b.entry == "" {
		return nil, &DefinitionError{Code: "NO_ENTRY", Message: "entry node not set"}
	}
	if _, ok := b.nodes[b.entry]; !ok {
		return nil, &DefinitionError{Code: "NODE_NOT_FOUND", Message: "entry node does not exist: " + b.entry}
	}

	for _, name := range b.order {
		edge, ok := b.edges[name]
		if !ok {
			return nil, &DefinitionError{Code: "NO_ROUTE", Message: "node has no outgoing edge: " + name}
		}
		if edge.router == nil {
			if err := b.checkTarget(name, edge.to); err != nil {
				return nil, err
			}
			continue
		}
		for label, target := range edge.targets {
			if err := b.checkTarget(name+"/"+label, target); err != nil {
				return nil, err
			}
		}
	}

	nodes := make(map[string]Node, len(b.nodes))
	for name, fn := range b.nodes {
		nodes[name] = fn
	}
	edges := make(map[string]edgeDef, len(b.edges))
	for from, edge := range b.edges {
		edges[from] = edge
	}

	return &Graph{nodes: nodes, edges: edges, entry: b.entry}, nil
}

// checkEdgeSource validates the edge source and rejects duplicates.
// Returns true when the edge may be recorded.
func (b *Builder) checkEdgeSource(from string) bool {
	if from == "" || from == End {
		b.fail("INVALID_EDGE", fmt.Sprintf("invalid edge source %q", from))
		return false
	}
	if _, exists := b.edges[from]; exists {
		b.fail("DUPLICATE_EDGE", "node already has an outgoing edge: "+from)
		return false
	}
	return true
}

// checkTarget validates that an edge target is a registered node or End.
func (b *Builder) checkTarget(source, target string) *DefinitionError {
	if target == End {
		return nil
	}
	if _, ok := b.nodes[target]; !ok {
		return &DefinitionError{
			Code:    "DANGLING_EDGE",
			Message: fmt.Sprintf("edge from %s targets unknown node %q", source, target),
		}
	}
	return nil
}

func (b *Builder) fail(code, message string) {
	b.errs = append(b.errs, &DefinitionError{Code: code, Message: message})
}
