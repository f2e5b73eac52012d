package graph

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/KaelanRichards/artemisia/internal/log"
)

// DefaultMaxDepth bounds evaluation recursion. Evaluation recurses to the
// length of the longest producer chain, so pathologically deep graphs would
// otherwise risk stack exhaustion.
const DefaultMaxDepth = 256

// Graph owns a set of nodes plus a producer-to-consumer edge set. The edge
// set is acyclic after every committed mutation; failed mutations leave the
// graph untouched.
type Graph struct {
	mu       sync.RWMutex
	nodes    map[NodeID]*Node
	edges    map[NodeID]map[NodeID]struct{} // producer -> consumers
	maxDepth int
}

// New creates an empty graph with the default evaluation depth limit.
func New() *Graph {
	return NewWithDepthLimit(DefaultMaxDepth)
}

// NewWithDepthLimit creates an empty graph with a custom depth limit.
// Limits below 1 fall back to the default.
func NewWithDepthLimit(maxDepth int) *Graph {
	if maxDepth < 1 {
		maxDepth = DefaultMaxDepth
	}
	return &Graph{
		nodes:    make(map[NodeID]*Node),
		edges:    make(map[NodeID]map[NodeID]struct{}),
		maxDepth: maxDepth,
	}
}

// AddNode takes ownership of the node and returns its id.
func (g *Graph) AddNode(n *Node) (NodeID, error) {
	if n == nil {
		return "", ErrNilNode
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.nodes[n.id]; exists {
		return "", fmt.Errorf("%w: %s", ErrDuplicateNode, n.id)
	}
	g.nodes[n.id] = n
	log.Debug(log.CatGraph, "node added", "id", n.id, "type", n.typeName)
	return n.id, nil
}

// RemoveNode deletes the node, both directions of its edges, and any input
// bindings in consumers that referenced it.
func (g *Graph) RemoveNode(id NodeID) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.nodes[id]; !ok {
		return &NodeNotFoundError{ID: id}
	}

	// Edges where id is the producer: unbind in each consumer.
	for consumer := range g.edges[id] {
		if c, ok := g.nodes[consumer]; ok {
			c.unbindProducer(id)
		}
	}
	delete(g.edges, id)

	// Edges where id is the consumer.
	for producer, consumers := range g.edges {
		delete(consumers, id)
		if len(consumers) == 0 {
			delete(g.edges, producer)
		}
	}

	delete(g.nodes, id)
	log.Debug(log.CatGraph, "node removed", "id", id)
	return nil
}

// Node returns the node with the given id.
func (g *Graph) Node(id NodeID) (*Node, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns all nodes sorted by id for deterministic iteration.
func (g *Graph) Nodes() []*Node {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// Consumers returns the ids of nodes consuming the given producer, sorted.
func (g *Graph) Consumers(producer NodeID) []NodeID {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]NodeID, 0, len(g.edges[producer]))
	for id := range g.edges[producer] {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Connect binds the named input of the consumer to the producer.
//
// The call is transactional: when it fails, every node's input map and the
// edge set are identical to the pre-call state. A tentative edge is inserted
// first; if the graph becomes cyclic the edge is rolled back and a
// CycleError is returned. On success, rebinding an input removes the edge of
// the superseded producer unless another input of the same consumer still
// references it.
func (g *Graph) Connect(from, to NodeID, inputName string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.nodes[from]; !ok {
		return &NodeNotFoundError{ID: from}
	}
	consumer, ok := g.nodes[to]
	if !ok {
		return &NodeNotFoundError{ID: to}
	}
	if from == to {
		return &CycleError{From: from, To: to}
	}

	// Tentative edge insert, then cycle check, then rollback on failure.
	added := g.addEdge(from, to)
	if g.hasPath(to, from) {
		if added {
			g.removeEdge(from, to)
		}
		log.Warn(log.CatGraph, "connect rejected", "from", from, "to", to, "input", inputName)
		return &CycleError{From: from, To: to}
	}

	prev, had := consumer.bindInput(inputName, from)
	if had && prev != from && !consumer.references(prev) {
		g.removeEdge(prev, to)
	}
	log.Debug(log.CatGraph, "connected", "from", from, "to", to, "input", inputName)
	return nil
}

// Disconnect clears the named input of the consumer. The edge to the former
// producer is dropped unless another input of the same consumer still
// references it. Disconnecting an unbound input is a no-op.
func (g *Graph) Disconnect(to NodeID, inputName string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	consumer, ok := g.nodes[to]
	if !ok {
		return &NodeNotFoundError{ID: to}
	}
	prev, had := consumer.unbindInput(inputName)
	if had && !consumer.references(prev) {
		g.removeEdge(prev, to)
	}
	log.Debug(log.CatGraph, "disconnected", "to", to, "input", inputName)
	return nil
}

// addEdge inserts producer->consumer, reporting whether it was new.
func (g *Graph) addEdge(producer, consumer NodeID) bool {
	set, ok := g.edges[producer]
	if !ok {
		set = make(map[NodeID]struct{})
		g.edges[producer] = set
	}
	if _, exists := set[consumer]; exists {
		return false
	}
	set[consumer] = struct{}{}
	return true
}

func (g *Graph) removeEdge(producer, consumer NodeID) {
	set, ok := g.edges[producer]
	if !ok {
		return
	}
	delete(set, consumer)
	if len(set) == 0 {
		delete(g.edges, producer)
	}
}

// hasPath reports whether target is reachable from start along
// producer-to-consumer edges. Caller holds at least a read lock.
func (g *Graph) hasPath(start, target NodeID) bool {
	if start == target {
		return true
	}
	visited := map[NodeID]bool{start: true}
	stack := []NodeID{start}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for next := range g.edges[id] {
			if next == target {
				return true
			}
			if !visited[next] {
				visited[next] = true
				stack = append(stack, next)
			}
		}
	}
	return false
}

// Validate walks every node's declared inputs and confirms each referenced
// producer exists, returning the first violation.
func (g *Graph) Validate() error {
	g.mu.RLock()
	defer g.mu.RUnlock()

	for _, n := range g.nodes {
		for _, name := range n.inputNames() {
			producer := n.inputs[name]
			if _, ok := g.nodes[producer]; !ok {
				return &NodeNotFoundError{ID: producer}
			}
		}
	}
	return nil
}

// Evaluate computes the artifact of the given node by unmemoized depth-first
// recursion. A node with no declared inputs computes immediately; otherwise
// each input is evaluated in sorted input-name order and the results are
// passed to the capability as an ordered list. Any failure propagates
// unchanged; no partial artifact is returned.
func (g *Graph) Evaluate(ctx context.Context, id NodeID) (Artifact, error) {
	ctx, span := otel.Tracer("artemisia/graph").Start(ctx, "graph.evaluate")
	span.SetAttributes(attribute.String("node.id", string(id)))
	defer span.End()

	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.evaluate(ctx, id, 0)
}

func (g *Graph) evaluate(ctx context.Context, id NodeID, depth int) (Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if depth > g.maxDepth {
		return nil, fmt.Errorf("node %s at depth %d: %w", id, depth, ErrDepthExceeded)
	}
	n, ok := g.nodes[id]
	if !ok {
		return nil, &NodeNotFoundError{ID: id}
	}

	names := n.inputNames()
	if len(names) == 0 {
		return n.capability.Compute(nil)
	}

	inputs := make([]Artifact, 0, len(names))
	for _, name := range names {
		producer := n.inputs[name]
		artifact, err := g.evaluate(ctx, producer, depth+1)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, artifact)
	}
	return n.capability.Compute(inputs)
}
