package document

import (
	"fmt"

	"github.com/KaelanRichards/artemisia/internal/graph"
)

// AddLayerCommand appends a layer to the top of the stack. Redo re-inserts
// the same layer at the position it first landed in.
type AddLayerCommand struct {
	doc   *Document
	layer *Layer
	index int
	ran   bool
}

func NewAddLayerCommand(doc *Document, layer *Layer) *AddLayerCommand {
	return &AddLayerCommand{doc: doc, layer: layer}
}

func (c *AddLayerCommand) Name() string { return "add layer" }

func (c *AddLayerCommand) Execute() error {
	if !c.ran {
		c.index = c.doc.LayerCount()
		c.ran = true
	}
	return c.doc.InsertLayer(c.layer, c.index)
}

func (c *AddLayerCommand) Undo() error {
	_, _, err := c.doc.RemoveLayer(c.layer.ID())
	return err
}

// RemoveLayerCommand deletes a layer; undo restores it at its old position.
type RemoveLayerCommand struct {
	doc     *Document
	layerID LayerID
	removed *Layer
	index   int
}

func NewRemoveLayerCommand(doc *Document, layerID LayerID) *RemoveLayerCommand {
	return &RemoveLayerCommand{doc: doc, layerID: layerID}
}

func (c *RemoveLayerCommand) Name() string { return "remove layer" }

func (c *RemoveLayerCommand) Execute() error {
	removed, index, err := c.doc.RemoveLayer(c.layerID)
	if err != nil {
		return err
	}
	c.removed = removed
	c.index = index
	return nil
}

func (c *RemoveLayerCommand) Undo() error {
	return c.doc.InsertLayer(c.removed, c.index)
}

// MoveLayerCommand repositions a layer within the stack.
type MoveLayerCommand struct {
	doc     *Document
	layerID LayerID
	index   int
	prev    int
}

func NewMoveLayerCommand(doc *Document, layerID LayerID, index int) *MoveLayerCommand {
	return &MoveLayerCommand{doc: doc, layerID: layerID, index: index}
}

func (c *MoveLayerCommand) Name() string { return "move layer" }

func (c *MoveLayerCommand) Execute() error {
	prev, ok := c.doc.IndexOf(c.layerID)
	if !ok {
		return &LayerNotFoundError{ID: c.layerID}
	}
	if err := c.doc.MoveLayer(c.layerID, c.index); err != nil {
		return err
	}
	c.prev = prev
	return nil
}

func (c *MoveLayerCommand) Undo() error {
	return c.doc.MoveLayer(c.layerID, c.prev)
}

// layerCommand looks up the target layer for the per-layer field commands.
func layerCommand(doc *Document, id LayerID) (*Layer, error) {
	l, ok := doc.Layer(id)
	if !ok {
		return nil, &LayerNotFoundError{ID: id}
	}
	return l, nil
}

// SetLayerVisibilityCommand toggles a layer's visibility flag.
type SetLayerVisibilityCommand struct {
	doc     *Document
	layerID LayerID
	visible bool
	prev    bool
}

func NewSetLayerVisibilityCommand(doc *Document, layerID LayerID, visible bool) *SetLayerVisibilityCommand {
	return &SetLayerVisibilityCommand{doc: doc, layerID: layerID, visible: visible}
}

func (c *SetLayerVisibilityCommand) Name() string { return "set layer visibility" }

func (c *SetLayerVisibilityCommand) Execute() error {
	l, err := layerCommand(c.doc, c.layerID)
	if err != nil {
		return err
	}
	c.prev = l.Visible()
	l.SetVisible(c.visible)
	c.doc.NotifyLayerEdited(c.layerID)
	return nil
}

func (c *SetLayerVisibilityCommand) Undo() error {
	l, err := layerCommand(c.doc, c.layerID)
	if err != nil {
		return err
	}
	l.SetVisible(c.prev)
	c.doc.NotifyLayerEdited(c.layerID)
	return nil
}

// SetLayerOpacityCommand changes a layer's opacity.
type SetLayerOpacityCommand struct {
	doc     *Document
	layerID LayerID
	opacity float64
	prev    float64
}

func NewSetLayerOpacityCommand(doc *Document, layerID LayerID, opacity float64) *SetLayerOpacityCommand {
	return &SetLayerOpacityCommand{doc: doc, layerID: layerID, opacity: opacity}
}

func (c *SetLayerOpacityCommand) Name() string { return "set layer opacity" }

func (c *SetLayerOpacityCommand) Execute() error {
	l, err := layerCommand(c.doc, c.layerID)
	if err != nil {
		return err
	}
	c.prev = l.Opacity()
	l.SetOpacity(c.opacity)
	c.doc.NotifyLayerEdited(c.layerID)
	return nil
}

func (c *SetLayerOpacityCommand) Undo() error {
	l, err := layerCommand(c.doc, c.layerID)
	if err != nil {
		return err
	}
	l.SetOpacity(c.prev)
	c.doc.NotifyLayerEdited(c.layerID)
	return nil
}

// SetLayerBlendModeCommand changes a layer's blend mode.
type SetLayerBlendModeCommand struct {
	doc     *Document
	layerID LayerID
	mode    BlendMode
	prev    BlendMode
}

func NewSetLayerBlendModeCommand(doc *Document, layerID LayerID, mode BlendMode) *SetLayerBlendModeCommand {
	return &SetLayerBlendModeCommand{doc: doc, layerID: layerID, mode: mode}
}

func (c *SetLayerBlendModeCommand) Name() string { return "set layer blend mode" }

func (c *SetLayerBlendModeCommand) Execute() error {
	l, err := layerCommand(c.doc, c.layerID)
	if err != nil {
		return err
	}
	c.prev = l.BlendMode()
	l.SetBlendMode(c.mode)
	c.doc.NotifyLayerEdited(c.layerID)
	return nil
}

func (c *SetLayerBlendModeCommand) Undo() error {
	l, err := layerCommand(c.doc, c.layerID)
	if err != nil {
		return err
	}
	l.SetBlendMode(c.prev)
	c.doc.NotifyLayerEdited(c.layerID)
	return nil
}

// RenameLayerCommand changes a layer's display name.
type RenameLayerCommand struct {
	doc     *Document
	layerID LayerID
	name    string
	prev    string
}

func NewRenameLayerCommand(doc *Document, layerID LayerID, name string) *RenameLayerCommand {
	return &RenameLayerCommand{doc: doc, layerID: layerID, name: name}
}

func (c *RenameLayerCommand) Name() string { return "rename layer" }

func (c *RenameLayerCommand) Execute() error {
	l, err := layerCommand(c.doc, c.layerID)
	if err != nil {
		return err
	}
	c.prev = l.Name()
	l.SetName(c.name)
	c.doc.NotifyLayerEdited(c.layerID)
	return nil
}

func (c *RenameLayerCommand) Undo() error {
	l, err := layerCommand(c.doc, c.layerID)
	if err != nil {
		return err
	}
	l.SetName(c.prev)
	c.doc.NotifyLayerEdited(c.layerID)
	return nil
}

// SetLayerOutputCommand designates which node a layer evaluates.
type SetLayerOutputCommand struct {
	doc     *Document
	layerID LayerID
	node    graph.NodeID
	prev    graph.NodeID
	hadPrev bool
}

func NewSetLayerOutputCommand(doc *Document, layerID LayerID, node graph.NodeID) *SetLayerOutputCommand {
	return &SetLayerOutputCommand{doc: doc, layerID: layerID, node: node}
}

func (c *SetLayerOutputCommand) Name() string { return "set layer output" }

func (c *SetLayerOutputCommand) Execute() error {
	l, err := layerCommand(c.doc, c.layerID)
	if err != nil {
		return err
	}
	c.prev, c.hadPrev = l.OutputNode()
	l.SetOutputNode(c.node)
	c.doc.NotifyLayerEdited(c.layerID)
	return nil
}

func (c *SetLayerOutputCommand) Undo() error {
	l, err := layerCommand(c.doc, c.layerID)
	if err != nil {
		return err
	}
	if c.hadPrev {
		l.SetOutputNode(c.prev)
	} else {
		l.ClearOutputNode()
	}
	c.doc.NotifyLayerEdited(c.layerID)
	return nil
}

// AddNodeCommand creates a node through the registry and adds it to a
// layer's graph. The node is built once on the first Execute so redo keeps
// the same node identity, which later commands may already reference.
type AddNodeCommand struct {
	doc      *Document
	layerID  LayerID
	registry *graph.Registry
	typeName string
	params   graph.Params
	node     *graph.Node
}

func NewAddNodeCommand(doc *Document, layerID LayerID, registry *graph.Registry, typeName string, params graph.Params) *AddNodeCommand {
	return &AddNodeCommand{doc: doc, layerID: layerID, registry: registry, typeName: typeName, params: params}
}

func (c *AddNodeCommand) Name() string { return fmt.Sprintf("add %s node", c.typeName) }

// NodeID returns the id of the created node. Only valid after Execute.
func (c *AddNodeCommand) NodeID() graph.NodeID {
	if c.node == nil {
		return ""
	}
	return c.node.ID()
}

func (c *AddNodeCommand) Execute() error {
	l, err := layerCommand(c.doc, c.layerID)
	if err != nil {
		return err
	}
	if c.node == nil {
		node, err := c.registry.CreateNode(c.typeName, c.params)
		if err != nil {
			return err
		}
		c.node = node
	}
	if _, err := l.Graph().AddNode(c.node); err != nil {
		return err
	}
	c.doc.NotifyGraphEdited(c.layerID)
	return nil
}

func (c *AddNodeCommand) Undo() error {
	l, err := layerCommand(c.doc, c.layerID)
	if err != nil {
		return err
	}
	if err := l.Graph().RemoveNode(c.node.ID()); err != nil {
		return err
	}
	c.doc.NotifyGraphEdited(c.layerID)
	return nil
}

// ConnectNodesCommand binds a named input inside a layer's graph. Undo
// restores the input's previous producer, or clears the binding when the
// input was previously unbound.
type ConnectNodesCommand struct {
	doc     *Document
	layerID LayerID
	from    graph.NodeID
	to      graph.NodeID
	input   string
	prev    graph.NodeID
	hadPrev bool
}

func NewConnectNodesCommand(doc *Document, layerID LayerID, from, to graph.NodeID, input string) *ConnectNodesCommand {
	return &ConnectNodesCommand{doc: doc, layerID: layerID, from: from, to: to, input: input}
}

func (c *ConnectNodesCommand) Name() string { return "connect nodes" }

func (c *ConnectNodesCommand) Execute() error {
	l, err := layerCommand(c.doc, c.layerID)
	if err != nil {
		return err
	}
	g := l.Graph()
	if consumer, ok := g.Node(c.to); ok {
		c.prev, c.hadPrev = consumer.Input(c.input)
	}
	if err := g.Connect(c.from, c.to, c.input); err != nil {
		return err
	}
	c.doc.NotifyGraphEdited(c.layerID)
	return nil
}

func (c *ConnectNodesCommand) Undo() error {
	l, err := layerCommand(c.doc, c.layerID)
	if err != nil {
		return err
	}
	g := l.Graph()
	if c.hadPrev {
		if err := g.Connect(c.prev, c.to, c.input); err != nil {
			return err
		}
	} else if err := g.Disconnect(c.to, c.input); err != nil {
		return err
	}
	c.doc.NotifyGraphEdited(c.layerID)
	return nil
}
