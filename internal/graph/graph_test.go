package graph

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"
)

// constCapability produces a fixed value and counts its computations.
type constCapability struct {
	value    string
	computed int
}

func (c *constCapability) Compute(inputs []Artifact) (Artifact, error) {
	c.computed++
	return c.value, nil
}

// joinCapability concatenates its string inputs in the order received.
type joinCapability struct{}

func (joinCapability) Compute(inputs []Artifact) (Artifact, error) {
	out := ""
	for _, in := range inputs {
		s, ok := in.(string)
		if !ok {
			return nil, &InputTypeError{Input: "any", Want: "string", Got: fmt.Sprintf("%T", in)}
		}
		out += s
	}
	return out, nil
}

// failCapability always fails with a fixed error.
type failCapability struct{ err error }

func (f failCapability) Compute(inputs []Artifact) (Artifact, error) {
	return nil, f.err
}

func addTestNode(t *testing.T, g *Graph, c Capability) NodeID {
	t.Helper()
	n := newNode("test", c, nil)
	id, err := g.AddNode(n)
	require.NoError(t, err)
	return id
}

func TestAddNode_NilNode(t *testing.T) {
	g := New()
	_, err := g.AddNode(nil)
	require.ErrorIs(t, err, ErrNilNode)
}

func TestAddNode_Duplicate(t *testing.T) {
	g := New()
	n := newNode("test", &constCapability{value: "a"}, nil)
	_, err := g.AddNode(n)
	require.NoError(t, err)
	_, err = g.AddNode(n)
	require.ErrorIs(t, err, ErrDuplicateNode)
}

func TestConnect_NodeNotFound(t *testing.T) {
	g := New()
	a := addTestNode(t, g, &constCapability{value: "a"})

	err := g.Connect(a, "missing", "in")
	require.ErrorIs(t, err, ErrNodeNotFound)

	err = g.Connect("missing", a, "in")
	var nf *NodeNotFoundError
	require.ErrorAs(t, err, &nf)
	require.Equal(t, NodeID("missing"), nf.ID)
}

func TestConnect_SelfLoop(t *testing.T) {
	g := New()
	a := addTestNode(t, g, &constCapability{value: "a"})
	err := g.Connect(a, a, "in")
	require.ErrorIs(t, err, ErrCycleDetected)
}

func TestConnect_UpdatesInputMap(t *testing.T) {
	g := New()
	a := addTestNode(t, g, &constCapability{value: "a"})
	b := addTestNode(t, g, joinCapability{})

	require.NoError(t, g.Connect(a, b, "left"))

	n, ok := g.Node(b)
	require.True(t, ok)
	producer, bound := n.Input("left")
	require.True(t, bound)
	require.Equal(t, a, producer)
	require.Equal(t, []NodeID{b}, g.Consumers(a))
}

func TestConnect_CycleLeavesGraphUnchanged(t *testing.T) {
	g := New()
	a := addTestNode(t, g, joinCapability{})
	b := addTestNode(t, g, joinCapability{})
	c := addTestNode(t, g, joinCapability{})

	require.NoError(t, g.Connect(a, b, "in"))
	require.NoError(t, g.Connect(b, c, "in"))

	// Snapshot observable state before the failing call.
	beforeInputs := map[NodeID]map[string]NodeID{
		a: mustNode(t, g, a).Inputs(),
		b: mustNode(t, g, b).Inputs(),
		c: mustNode(t, g, c).Inputs(),
	}
	beforeConsumers := map[NodeID][]NodeID{
		a: g.Consumers(a), b: g.Consumers(b), c: g.Consumers(c),
	}

	err := g.Connect(c, a, "in")
	var ce *CycleError
	require.ErrorAs(t, err, &ce)
	require.Equal(t, c, ce.From)
	require.Equal(t, a, ce.To)

	for id, want := range beforeInputs {
		require.True(t, reflect.DeepEqual(want, mustNode(t, g, id).Inputs()),
			"input map of %s changed after rejected connect", id)
	}
	for id, want := range beforeConsumers {
		require.Equal(t, want, g.Consumers(id),
			"edge set of %s changed after rejected connect", id)
	}
}

func TestConnect_RebindRemovesSupersededEdge(t *testing.T) {
	g := New()
	a := addTestNode(t, g, &constCapability{value: "a"})
	b := addTestNode(t, g, &constCapability{value: "b"})
	c := addTestNode(t, g, joinCapability{})

	require.NoError(t, g.Connect(a, c, "in"))
	require.NoError(t, g.Connect(b, c, "in"))

	require.Empty(t, g.Consumers(a), "superseded producer should lose its edge")
	require.Equal(t, []NodeID{c}, g.Consumers(b))
}

func TestConnect_RebindKeepsEdgeStillReferenced(t *testing.T) {
	g := New()
	a := addTestNode(t, g, &constCapability{value: "a"})
	b := addTestNode(t, g, &constCapability{value: "b"})
	c := addTestNode(t, g, joinCapability{})

	// a feeds two inputs; rebinding one must keep the edge alive.
	require.NoError(t, g.Connect(a, c, "left"))
	require.NoError(t, g.Connect(a, c, "right"))
	require.NoError(t, g.Connect(b, c, "right"))

	require.Equal(t, []NodeID{c}, g.Consumers(a))
	require.Equal(t, []NodeID{c}, g.Consumers(b))
}

func TestRemoveNode_CleansEdgesAndBindings(t *testing.T) {
	g := New()
	a := addTestNode(t, g, &constCapability{value: "a"})
	b := addTestNode(t, g, joinCapability{})
	require.NoError(t, g.Connect(a, b, "in"))

	require.NoError(t, g.RemoveNode(a))

	require.Equal(t, 1, g.NodeCount())
	require.Empty(t, g.Consumers(a))
	require.Zero(t, mustNode(t, g, b).InputCount())
	require.NoError(t, g.Validate())
}

func TestRemoveNode_NotFound(t *testing.T) {
	g := New()
	err := g.RemoveNode("missing")
	require.ErrorIs(t, err, ErrNodeNotFound)
}

func TestEvaluate_LeafNeverRecurses(t *testing.T) {
	g := NewWithDepthLimit(1)
	a := addTestNode(t, g, &constCapability{value: "leaf"})

	// Depth limit of 1 would trip on any recursion.
	out, err := g.Evaluate(context.Background(), a)
	require.NoError(t, err)
	require.Equal(t, "leaf", out)
}

func TestEvaluate_ChainsInputsInSortedNameOrder(t *testing.T) {
	g := New()
	a := addTestNode(t, g, &constCapability{value: "A"})
	b := addTestNode(t, g, &constCapability{value: "B"})
	j := addTestNode(t, g, joinCapability{})

	// Bind so that sorted name order (1:a, 2:b) determines the result.
	require.NoError(t, g.Connect(b, j, "2-second"))
	require.NoError(t, g.Connect(a, j, "1-first"))

	out, err := g.Evaluate(context.Background(), j)
	require.NoError(t, err)
	require.Equal(t, "AB", out)
}

func TestEvaluate_RecomputesSharedProducerPerConsumer(t *testing.T) {
	g := New()
	shared := &constCapability{value: "x"}
	s := addTestNode(t, g, shared)
	j := addTestNode(t, g, joinCapability{})

	require.NoError(t, g.Connect(s, j, "left"))
	require.NoError(t, g.Connect(s, j, "right"))

	out, err := g.Evaluate(context.Background(), j)
	require.NoError(t, err)
	require.Equal(t, "xx", out)
	require.Equal(t, 2, shared.computed, "no per-pass cache: shared producer recomputes per consumer")
}

func TestEvaluate_PropagatesComputeFailureUnchanged(t *testing.T) {
	g := New()
	boom := errors.New("boom")
	f := addTestNode(t, g, failCapability{err: boom})
	j := addTestNode(t, g, joinCapability{})
	require.NoError(t, g.Connect(f, j, "in"))

	_, err := g.Evaluate(context.Background(), j)
	require.ErrorIs(t, err, boom)
}

func TestEvaluate_NodeNotFound(t *testing.T) {
	g := New()
	_, err := g.Evaluate(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNodeNotFound)
}

func TestEvaluate_DepthLimit(t *testing.T) {
	g := NewWithDepthLimit(3)
	prev := addTestNode(t, g, &constCapability{value: "0"})
	for i := 0; i < 5; i++ {
		next := addTestNode(t, g, joinCapability{})
		require.NoError(t, g.Connect(prev, next, "in"))
		prev = next
	}

	_, err := g.Evaluate(context.Background(), prev)
	require.ErrorIs(t, err, ErrDepthExceeded)
}

func TestEvaluate_CancelledContext(t *testing.T) {
	g := New()
	a := addTestNode(t, g, &constCapability{value: "a"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.Evaluate(ctx, a)
	require.ErrorIs(t, err, context.Canceled)
}

func TestValidate_DanglingProducer(t *testing.T) {
	g := New()
	a := addTestNode(t, g, &constCapability{value: "a"})
	b := addTestNode(t, g, joinCapability{})
	require.NoError(t, g.Connect(a, b, "in"))
	require.NoError(t, g.Validate())

	// Force a dangling reference by removing behind the back of the binding.
	n := mustNode(t, g, b)
	n.mu.Lock()
	n.inputs["in"] = "gone"
	n.mu.Unlock()

	err := g.Validate()
	var nf *NodeNotFoundError
	require.ErrorAs(t, err, &nf)
	require.Equal(t, NodeID("gone"), nf.ID)
}

func TestDisconnect(t *testing.T) {
	g := New()
	a := addTestNode(t, g, &constCapability{value: "a"})
	b := addTestNode(t, g, joinCapability{})
	require.NoError(t, g.Connect(a, b, "1-in"))
	require.NoError(t, g.Connect(a, b, "2-in"))

	require.NoError(t, g.Disconnect(b, "1-in"))
	_, ok := mustNode(t, g, b).Input("1-in")
	require.False(t, ok)
	require.Equal(t, []NodeID{b}, g.Consumers(a),
		"the edge survives while another input still references the producer")

	require.NoError(t, g.Disconnect(b, "2-in"))
	require.Empty(t, g.Consumers(a), "unbinding the last reference drops the edge")

	require.NoError(t, g.Disconnect(b, "2-in"), "disconnecting an unbound input is a no-op")
	require.ErrorIs(t, g.Disconnect("missing", "in"), ErrNodeNotFound)
}

func mustNode(t *testing.T, g *Graph, id NodeID) *Node {
	t.Helper()
	n, ok := g.Node(id)
	require.True(t, ok)
	return n
}
