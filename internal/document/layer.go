// Package document implements the multi-layer document model: layers that
// own node graphs, ordered blend-mode compositing, a bounded undo/redo
// history, and document serialization.
package document

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/KaelanRichards/artemisia/internal/graph"
)

// LayerID uniquely identifies a layer for its lifetime.
type LayerID string

// NewLayerID returns a fresh unique id.
func NewLayerID() LayerID {
	return LayerID(uuid.NewString())
}

// Layer owns one node graph plus compositing attributes. It contributes one
// visual element to a document; the designated output node is what gets
// evaluated during a render pass.
type Layer struct {
	mu        sync.RWMutex
	id        LayerID
	name      string
	visible   bool
	opacity   float64
	mode      BlendMode
	graph     *graph.Graph
	output    graph.NodeID
	hasOutput bool
}

// NewLayer creates a visible layer with full opacity, Normal blend mode,
// and an empty graph with the default evaluation depth limit.
func NewLayer(name string) *Layer {
	return newLayerWithID(NewLayerID(), name, 0)
}

func newLayerWithID(id LayerID, name string, maxDepth int) *Layer {
	return &Layer{
		id:      id,
		name:    name,
		visible: true,
		opacity: 1.0,
		mode:    BlendNormal,
		graph:   graph.NewWithDepthLimit(maxDepth),
	}
}

// ID returns the layer's stable identity.
func (l *Layer) ID() LayerID {
	return l.id
}

// Name returns the layer's display name.
func (l *Layer) Name() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.name
}

// SetName sets the layer's display name.
func (l *Layer) SetName(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.name = name
}

// Visible reports whether the layer contributes to compositing.
func (l *Layer) Visible() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.visible
}

// SetVisible toggles the layer's compositing contribution.
func (l *Layer) SetVisible(visible bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.visible = visible
}

// Opacity returns the layer opacity in [0,1].
func (l *Layer) Opacity() float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.opacity
}

// SetOpacity sets the layer opacity, clamped to [0,1].
func (l *Layer) SetOpacity(opacity float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.opacity = clampUnit(opacity)
}

// BlendMode returns the layer's blend mode.
func (l *Layer) BlendMode() BlendMode {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.mode
}

// SetBlendMode sets the layer's blend mode.
func (l *Layer) SetBlendMode(mode BlendMode) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.mode = mode
}

// Graph returns the node graph the layer owns for its full lifetime.
func (l *Layer) Graph() *graph.Graph {
	return l.graph
}

// OutputNode returns the designated output node, if set.
func (l *Layer) OutputNode() (graph.NodeID, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.output, l.hasOutput
}

// SetOutputNode designates the node evaluated during render passes.
func (l *Layer) SetOutputNode(id graph.NodeID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.output = id
	l.hasOutput = true
}

// ClearOutputNode removes the output designation.
func (l *Layer) ClearOutputNode() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.output = ""
	l.hasOutput = false
}

// Evaluate computes the layer's artifact via its output node. Fails with
// ErrNoOutputNode when no output is designated.
func (l *Layer) Evaluate(ctx context.Context) (graph.Artifact, error) {
	output, ok := l.OutputNode()
	if !ok {
		return nil, ErrNoOutputNode
	}
	return l.graph.Evaluate(ctx, output)
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
