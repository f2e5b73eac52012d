// Package graph implements the typed dataflow graph at the core of an
// Artemisia document: identity-keyed nodes with named input bindings, a
// producer-to-consumer edge set that is kept acyclic across every committed
// mutation, and depth-first recursive evaluation.
package graph

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// NodeID uniquely identifies a node for its lifetime.
type NodeID string

// NewNodeID returns a fresh unique id.
func NewNodeID() NodeID {
	return NodeID(uuid.NewString())
}

// Artifact is the product of a node computation. The graph engine never
// inspects artifacts; only capabilities and the compositing layer do.
type Artifact = any

// Capability is the polymorphic compute contract a node payload implements.
// Inputs arrive ordered by the sorted input-binding names of the node.
type Capability interface {
	Compute(inputs []Artifact) (Artifact, error)
}

// Validator is an optional capability extension; when implemented it is run
// as the final stage of node construction.
type Validator interface {
	Validate() error
}

// Node wraps a capability instance with a stable identity and its declared
// input bindings (input name to producer id). Nodes are owned exclusively by
// their Graph and are created only through a Registry.
type Node struct {
	mu         sync.RWMutex
	id         NodeID
	typeName   string
	capability Capability
	params     Params
	inputs     map[string]NodeID
}

func newNode(typeName string, capability Capability, params Params) *Node {
	return &Node{
		id:         NewNodeID(),
		typeName:   typeName,
		capability: capability,
		params:     params,
		inputs:     make(map[string]NodeID),
	}
}

// ID returns the node's stable identity.
func (n *Node) ID() NodeID {
	return n.id
}

// TypeName returns the registered type name this node was created from.
func (n *Node) TypeName() string {
	return n.typeName
}

// Capability returns the compute payload the node wraps.
func (n *Node) Capability() Capability {
	return n.capability
}

// Params returns a copy of the parameters the node was constructed with.
func (n *Node) Params() Params {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.params.Clone()
}

// Inputs returns a copy of the input-name to producer-id map.
func (n *Node) Inputs() map[string]NodeID {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make(map[string]NodeID, len(n.inputs))
	for k, v := range n.inputs {
		out[k] = v
	}
	return out
}

// Input returns the producer bound to the named input.
func (n *Node) Input(name string) (NodeID, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	id, ok := n.inputs[name]
	return id, ok
}

// InputCount returns the number of declared inputs.
func (n *Node) InputCount() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.inputs)
}

// Validate runs the node's self-validation: the capability must be present,
// and if it implements Validator that check must pass.
func (n *Node) Validate() error {
	if n.capability == nil {
		return ErrNilCapability
	}
	if v, ok := n.capability.(Validator); ok {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("node %s (%s): %w", n.id, n.typeName, err)
		}
	}
	return nil
}

// inputNames returns the declared input names in sorted order. Evaluation
// iterates this order so the artifact list a capability receives is
// deterministic.
func (n *Node) inputNames() []string {
	names := make([]string, 0, len(n.inputs))
	for name := range n.inputs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// bindInput points the named input at a producer, returning the previously
// bound producer id, if any. Caller holds the graph lock.
func (n *Node) bindInput(name string, producer NodeID) (NodeID, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	prev, had := n.inputs[name]
	n.inputs[name] = producer
	return prev, had
}

// unbindInput clears the named input binding, returning the producer it was
// bound to. Caller holds the graph lock.
func (n *Node) unbindInput(name string) (NodeID, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	prev, had := n.inputs[name]
	if had {
		delete(n.inputs, name)
	}
	return prev, had
}

// references reports whether any input is bound to the given producer.
func (n *Node) references(producer NodeID) bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	for _, id := range n.inputs {
		if id == producer {
			return true
		}
	}
	return false
}

// unbindProducer removes every input binding that references the producer.
// Caller holds the graph lock.
func (n *Node) unbindProducer(producer NodeID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for name, id := range n.inputs {
		if id == producer {
			delete(n.inputs, name)
		}
	}
}
