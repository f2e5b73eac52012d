package document

import (
	"context"
	"fmt"
	"image"
	"sort"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/KaelanRichards/artemisia/internal/graph"
	"github.com/KaelanRichards/artemisia/internal/log"
	"github.com/KaelanRichards/artemisia/internal/pubsub"
	"github.com/KaelanRichards/artemisia/internal/rendercache"
)

// ChangeKind names what part of a document a change event touched.
type ChangeKind string

const (
	ChangeLayerAdded   ChangeKind = "layer_added"
	ChangeLayerRemoved ChangeKind = "layer_removed"
	ChangeLayerMoved   ChangeKind = "layer_moved"
	ChangeLayerEdited  ChangeKind = "layer_edited"
	ChangeGraphEdited  ChangeKind = "graph_edited"
	ChangeHistory      ChangeKind = "history"
)

// Change is the payload published on every committed document mutation.
type Change struct {
	Kind     ChangeKind
	LayerID  LayerID
	Revision uint64
}

// Document is an ordered stack of layers plus the command history that edits
// them. The layer order slice is always a permutation of the layer map keys;
// index 0 is the bottom of the stack.
type Document struct {
	mu       sync.RWMutex
	name     string
	layers   map[LayerID]*Layer
	order    []LayerID
	history  *History
	revision uint64
	broker   *pubsub.Broker[Change]
	cache    *rendercache.Cache[graph.Artifact]
}

// New creates an empty document with a default-capacity history.
func New(name string) *Document {
	return &Document{
		name:    name,
		layers:  make(map[LayerID]*Layer),
		history: NewHistory(DefaultMaxSteps),
		broker:  pubsub.NewBroker[Change](),
	}
}

// NewWithHistory creates an empty document with a custom history capacity.
func NewWithHistory(name string, maxSteps int) *Document {
	d := New(name)
	d.history = NewHistory(maxSteps)
	return d
}

// SetRenderCache attaches a cache used by Render to memoize layer artifacts
// across passes. Without one every Render re-evaluates from scratch.
func (d *Document) SetRenderCache(c *rendercache.Cache[graph.Artifact]) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cache = c
}

// Name returns the document name.
func (d *Document) Name() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.name
}

// SetName renames the document.
func (d *Document) SetName(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.name = name
}

// Revision returns the monotonic edit counter. It advances on every committed
// mutation and never goes backwards, undo included.
func (d *Document) Revision() uint64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.revision
}

// Subscribe registers for change events until ctx is done.
func (d *Document) Subscribe(ctx context.Context) <-chan pubsub.Event[Change] {
	return d.broker.Subscribe(ctx)
}

// Close releases the change broker.
func (d *Document) Close() {
	d.broker.Close()
}

// touch bumps the revision and publishes a change event. Caller holds the
// write lock.
func (d *Document) touch(kind ChangeKind, layerID LayerID) {
	d.revision++
	d.broker.Publish(pubsub.UpdatedEvent, Change{
		Kind:     kind,
		LayerID:  layerID,
		Revision: d.revision,
	})
}

// LayerCount returns the number of layers.
func (d *Document) LayerCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.layers)
}

// Layer returns the layer with the given id.
func (d *Document) Layer(id LayerID) (*Layer, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	l, ok := d.layers[id]
	return l, ok
}

// Layers returns the layers in stack order, bottom first.
func (d *Document) Layers() []*Layer {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]*Layer, 0, len(d.order))
	for _, id := range d.order {
		out = append(out, d.layers[id])
	}
	return out
}

// LayerOrder returns a copy of the stack order, bottom first.
func (d *Document) LayerOrder() []LayerID {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]LayerID, len(d.order))
	copy(out, d.order)
	return out
}

// IndexOf returns the stack position of the layer.
func (d *Document) IndexOf(id LayerID) (int, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.indexOf(id)
}

func (d *Document) indexOf(id LayerID) (int, bool) {
	for i, lid := range d.order {
		if lid == id {
			return i, true
		}
	}
	return 0, false
}

// AddLayer appends the layer to the top of the stack.
func (d *Document) AddLayer(l *Layer) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.addLayerAt(l, len(d.order))
}

// InsertLayer places the layer at the given stack index, shifting the layers
// above it up. Index len(order) appends on top.
func (d *Document) InsertLayer(l *Layer, index int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.addLayerAt(l, index)
}

func (d *Document) addLayerAt(l *Layer, index int) error {
	if l == nil {
		return ErrNilLayer
	}
	if _, exists := d.layers[l.ID()]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateLayer, l.ID())
	}
	if index < 0 || index > len(d.order) {
		return fmt.Errorf("%w: %d with %d layers", ErrInvalidIndex, index, len(d.order))
	}
	d.layers[l.ID()] = l
	d.order = append(d.order, "")
	copy(d.order[index+1:], d.order[index:])
	d.order[index] = l.ID()
	d.touch(ChangeLayerAdded, l.ID())
	log.Info(log.CatDoc, "layer added", "id", l.ID(), "name", l.Name(), "index", index)
	return nil
}

// RemoveLayer deletes the layer, returning it and the stack index it held.
func (d *Document) RemoveLayer(id LayerID) (*Layer, int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	l, ok := d.layers[id]
	if !ok {
		return nil, 0, &LayerNotFoundError{ID: id}
	}
	index, _ := d.indexOf(id)
	d.order = append(d.order[:index], d.order[index+1:]...)
	delete(d.layers, id)
	d.touch(ChangeLayerRemoved, id)
	log.Info(log.CatDoc, "layer removed", "id", id, "index", index)
	return l, index, nil
}

// MoveLayer repositions the layer to the given stack index.
func (d *Document) MoveLayer(id LayerID, index int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.layers[id]; !ok {
		return &LayerNotFoundError{ID: id}
	}
	if index < 0 || index >= len(d.order) {
		return fmt.Errorf("%w: %d with %d layers", ErrInvalidIndex, index, len(d.order))
	}
	cur, _ := d.indexOf(id)
	if cur == index {
		return nil
	}
	d.order = append(d.order[:cur], d.order[cur+1:]...)
	d.order = append(d.order, "")
	copy(d.order[index+1:], d.order[index:])
	d.order[index] = id
	d.touch(ChangeLayerMoved, id)
	log.Debug(log.CatDoc, "layer moved", "id", id, "from", cur, "to", index)
	return nil
}

// NotifyLayerEdited records a committed edit to a layer's own fields.
func (d *Document) NotifyLayerEdited(id LayerID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.touch(ChangeLayerEdited, id)
}

// NotifyGraphEdited records a committed edit inside a layer's node graph.
func (d *Document) NotifyGraphEdited(id LayerID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.touch(ChangeGraphEdited, id)
}

// ExecuteCommand runs the command through the document's history.
func (d *Document) ExecuteCommand(cmd Command) error {
	if err := d.history.Execute(cmd); err != nil {
		return err
	}
	d.mu.Lock()
	d.touch(ChangeHistory, "")
	d.mu.Unlock()
	return nil
}

// Undo reverts the most recent committed command.
func (d *Document) Undo() error {
	if err := d.history.Undo(); err != nil {
		return err
	}
	d.mu.Lock()
	d.touch(ChangeHistory, "")
	d.mu.Unlock()
	return nil
}

// Redo re-applies the most recently undone command.
func (d *Document) Redo() error {
	if err := d.history.Redo(); err != nil {
		return err
	}
	d.mu.Lock()
	d.touch(ChangeHistory, "")
	d.mu.Unlock()
	return nil
}

// CanUndo reports whether Undo would succeed.
func (d *Document) CanUndo() bool { return d.history.CanUndo() }

// CanRedo reports whether Redo would succeed.
func (d *Document) CanRedo() bool { return d.history.CanRedo() }

// History exposes the underlying command history.
func (d *Document) History() *History { return d.history }

// EvaluateAll evaluates every visible layer bottom to top and returns the
// artifacts keyed by layer id. Layers that are hidden, have no output node,
// or fail to evaluate are skipped with a warning; the pass itself only fails
// when the context is cancelled.
func (d *Document) EvaluateAll(ctx context.Context) (map[LayerID]graph.Artifact, error) {
	out := make(map[LayerID]graph.Artifact)
	for _, l := range d.Layers() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !l.Visible() {
			continue
		}
		artifact, err := d.evaluateLayer(ctx, l)
		if err != nil {
			log.Warn(log.CatRender, "layer skipped", "id", l.ID(), "name", l.Name(), "error", err)
			continue
		}
		out[l.ID()] = artifact
	}
	return out, nil
}

// Render composites every visible layer bottom to top into a single image.
//
// The accumulator is seeded from the first visible layer that evaluates to an
// image; every subsequent layer is folded in with its blend mode and opacity.
// Layers that are hidden, unevaluable, or produce a non-image artifact are
// skipped with a warning. Rendering an empty or fully-skipped document yields
// nil with no error.
func (d *Document) Render(ctx context.Context) (*image.NRGBA, error) {
	ctx, span := otel.Tracer("artemisia/document").Start(ctx, "document.render")
	span.SetAttributes(
		attribute.String("document.name", d.Name()),
		attribute.Int("document.layers", d.LayerCount()),
	)
	defer span.End()

	var acc *image.NRGBA
	for _, l := range d.Layers() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !l.Visible() {
			continue
		}
		artifact, err := d.evaluateLayer(ctx, l)
		if err != nil {
			log.Warn(log.CatRender, "layer skipped", "id", l.ID(), "name", l.Name(), "error", err)
			continue
		}
		img, ok := artifact.(*image.NRGBA)
		if !ok {
			log.Warn(log.CatRender, "layer artifact is not an image", "id", l.ID(), "type", fmt.Sprintf("%T", artifact))
			continue
		}
		if acc == nil {
			acc = cloneImage(img)
			continue
		}
		acc = Blend(acc, img, l.BlendMode(), l.Opacity())
	}
	return acc, nil
}

// Export is the strict variant of Render: the first hidden-layer-excluded
// failure aborts the pass instead of being skipped.
func (d *Document) Export(ctx context.Context) (*image.NRGBA, error) {
	ctx, span := otel.Tracer("artemisia/document").Start(ctx, "document.export")
	span.SetAttributes(attribute.String("document.name", d.Name()))
	defer span.End()

	var acc *image.NRGBA
	for _, l := range d.Layers() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !l.Visible() {
			continue
		}
		artifact, err := d.evaluateLayer(ctx, l)
		if err != nil {
			return nil, fmt.Errorf("layer %s (%s): %w", l.ID(), l.Name(), err)
		}
		img, ok := artifact.(*image.NRGBA)
		if !ok {
			return nil, fmt.Errorf("layer %s (%s): artifact is %T, not an image", l.ID(), l.Name(), artifact)
		}
		if acc == nil {
			acc = cloneImage(img)
			continue
		}
		acc = Blend(acc, img, l.BlendMode(), l.Opacity())
	}
	return acc, nil
}

// evaluateLayer evaluates a layer's output node, consulting the render cache
// when one is attached. Cache keys carry the document revision so committed
// edits never serve stale artifacts.
func (d *Document) evaluateLayer(ctx context.Context, l *Layer) (graph.Artifact, error) {
	output, ok := l.OutputNode()
	if !ok {
		return nil, ErrNoOutputNode
	}

	d.mu.RLock()
	cache := d.cache
	revision := d.revision
	d.mu.RUnlock()

	if cache == nil {
		return l.Evaluate(ctx)
	}

	key := rendercache.Key(string(output), revision)
	if artifact, hit := cache.Get(ctx, key); hit {
		return artifact, nil
	}
	artifact, err := l.Evaluate(ctx)
	if err != nil {
		return nil, err
	}
	cache.Set(ctx, key, artifact, 0)
	return artifact, nil
}

// SortedLayerIDs returns every layer id in lexical order, independent of the
// stack order. Serialization uses it for deterministic output.
func (d *Document) SortedLayerIDs() []LayerID {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]LayerID, 0, len(d.layers))
	for id := range d.layers {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func cloneImage(src *image.NRGBA) *image.NRGBA {
	dst := image.NewNRGBA(src.Rect)
	copy(dst.Pix, src.Pix)
	return dst
}
