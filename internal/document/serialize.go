package document

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/KaelanRichards/artemisia/internal/graph"
	"github.com/KaelanRichards/artemisia/internal/log"
)

// FormatVersion is written into every snapshot so future readers can detect
// older files.
const FormatVersion = 1

// DocumentFile is the on-disk shape of a document. Node and layer behavior
// round-trips; node ids are regenerated on load, with connectivity preserved
// through remapping.
type DocumentFile struct {
	Version    int         `json:"version" yaml:"version"`
	Name       string      `json:"name" yaml:"name"`
	Layers     []LayerFile `json:"layers" yaml:"layers"`
	LayerOrder []string    `json:"layer_order" yaml:"layer_order"`
}

// LayerFile is the on-disk shape of a single layer.
type LayerFile struct {
	ID         string    `json:"id" yaml:"id"`
	Name       string    `json:"name" yaml:"name"`
	Visible    bool      `json:"visible" yaml:"visible"`
	Opacity    float64   `json:"opacity" yaml:"opacity"`
	BlendMode  string    `json:"blend_mode" yaml:"blend_mode"`
	Graph      GraphFile `json:"graph" yaml:"graph"`
	OutputNode string    `json:"output_node,omitempty" yaml:"output_node,omitempty"`
}

// GraphFile is the on-disk shape of a layer's node graph.
type GraphFile struct {
	Nodes       []NodeFile       `json:"nodes" yaml:"nodes"`
	Connections []ConnectionFile `json:"connections" yaml:"connections"`
}

// NodeFile records a node's registered type and construction parameters.
// Runtime capability state is never serialized; nodes are rebuilt through
// the registry on load.
type NodeFile struct {
	ID     string         `json:"id" yaml:"id"`
	Type   string         `json:"type" yaml:"type"`
	Params map[string]any `json:"params,omitempty" yaml:"params,omitempty"`
}

// ConnectionFile records one input binding as a slot pair. Producers expose
// a single "out" slot; the destination slot is the consumer's input name.
type ConnectionFile struct {
	FromNode string `json:"from_node" yaml:"from_node"`
	FromSlot string `json:"from_slot" yaml:"from_slot"`
	ToNode   string `json:"to_node" yaml:"to_node"`
	ToSlot   string `json:"to_slot" yaml:"to_slot"`
}

// OutputSlot is the sole producer-side slot name.
const OutputSlot = "out"

// Snapshot captures the document as a serializable file. Layers appear in
// stack order; nodes and connections are sorted so equal documents produce
// byte-equal snapshots.
func Snapshot(d *Document) *DocumentFile {
	file := &DocumentFile{
		Version: FormatVersion,
		Name:    d.Name(),
	}
	for _, l := range d.Layers() {
		file.Layers = append(file.Layers, snapshotLayer(l))
		file.LayerOrder = append(file.LayerOrder, string(l.ID()))
	}
	return file
}

func snapshotLayer(l *Layer) LayerFile {
	lf := LayerFile{
		ID:        string(l.ID()),
		Name:      l.Name(),
		Visible:   l.Visible(),
		Opacity:   l.Opacity(),
		BlendMode: l.BlendMode().String(),
	}
	if output, ok := l.OutputNode(); ok {
		lf.OutputNode = string(output)
	}

	for _, n := range l.Graph().Nodes() {
		lf.Graph.Nodes = append(lf.Graph.Nodes, NodeFile{
			ID:     string(n.ID()),
			Type:   n.TypeName(),
			Params: n.Params(),
		})
		inputs := n.Inputs()
		names := make([]string, 0, len(inputs))
		for name := range inputs {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			lf.Graph.Connections = append(lf.Graph.Connections, ConnectionFile{
				FromNode: string(inputs[name]),
				FromSlot: OutputSlot,
				ToNode:   string(n.ID()),
				ToSlot:   name,
			})
		}
	}
	sort.Slice(lf.Graph.Connections, func(i, j int) bool {
		a, b := lf.Graph.Connections[i], lf.Graph.Connections[j]
		if a.ToNode != b.ToNode {
			return a.ToNode < b.ToNode
		}
		return a.ToSlot < b.ToSlot
	})
	return lf
}

// LoadOptions carries the tunables a document is reconstructed with.
// Zero values fall back to the package defaults.
type LoadOptions struct {
	// MaxHistorySteps bounds the loaded document's undo/redo stack.
	MaxHistorySteps int

	// MaxGraphDepth bounds evaluation recursion in every layer graph.
	MaxGraphDepth int
}

// Load reconstructs a document from a snapshot with default tunables.
func Load(file *DocumentFile, registry *graph.Registry) (*Document, error) {
	return LoadWithOptions(file, registry, LoadOptions{})
}

// LoadWithOptions reconstructs a document from a snapshot. Every node is
// rebuilt through the registry, so loaded nodes get fresh ids; output
// designations and connections are remapped accordingly. Connections
// replay through the graph's own connect path, which rejects files
// describing a cycle.
func LoadWithOptions(file *DocumentFile, registry *graph.Registry, opts LoadOptions) (*Document, error) {
	if file.Version > FormatVersion {
		return nil, fmt.Errorf("document format version %d is newer than supported version %d", file.Version, FormatVersion)
	}
	if err := validateLayerOrder(file); err != nil {
		return nil, err
	}

	d := NewWithHistory(file.Name, opts.MaxHistorySteps)
	byID := make(map[string]LayerFile, len(file.Layers))
	for _, lf := range file.Layers {
		byID[lf.ID] = lf
	}
	for _, id := range file.LayerOrder {
		l, err := loadLayer(byID[id], registry, opts.MaxGraphDepth)
		if err != nil {
			return nil, fmt.Errorf("layer %q: %w", id, err)
		}
		if err := d.AddLayer(l); err != nil {
			return nil, err
		}
	}
	log.Info(log.CatSerialize, "document loaded", "name", file.Name, "layers", len(file.Layers))
	return d, nil
}

func loadLayer(lf LayerFile, registry *graph.Registry, maxDepth int) (*Layer, error) {
	mode, err := ParseBlendMode(lf.BlendMode)
	if err != nil {
		return nil, err
	}
	l := newLayerWithID(LayerID(lf.ID), lf.Name, maxDepth)
	l.SetVisible(lf.Visible)
	l.SetOpacity(lf.Opacity)
	l.SetBlendMode(mode)

	// Rebuild nodes through the registry, mapping file ids to fresh ids.
	idMap := make(map[string]graph.NodeID, len(lf.Graph.Nodes))
	for _, nf := range lf.Graph.Nodes {
		node, err := registry.CreateNode(nf.Type, graph.Params(nf.Params))
		if err != nil {
			return nil, err
		}
		if _, err := l.Graph().AddNode(node); err != nil {
			return nil, err
		}
		idMap[nf.ID] = node.ID()
	}

	for _, cf := range lf.Graph.Connections {
		from, ok := idMap[cf.FromNode]
		if !ok {
			return nil, fmt.Errorf("connection source %q: %w", cf.FromNode, graph.ErrNodeNotFound)
		}
		to, ok := idMap[cf.ToNode]
		if !ok {
			return nil, fmt.Errorf("connection target %q: %w", cf.ToNode, graph.ErrNodeNotFound)
		}
		if err := l.Graph().Connect(from, to, cf.ToSlot); err != nil {
			return nil, err
		}
	}

	if lf.OutputNode != "" {
		output, ok := idMap[lf.OutputNode]
		if !ok {
			return nil, fmt.Errorf("output node %q: %w", lf.OutputNode, graph.ErrNodeNotFound)
		}
		l.SetOutputNode(output)
	}
	return l, nil
}

// validateLayerOrder confirms layer_order is a permutation of the layer ids.
func validateLayerOrder(file *DocumentFile) error {
	if len(file.LayerOrder) != len(file.Layers) {
		return fmt.Errorf("%w: %d entries for %d layers", ErrBadLayerOrder, len(file.LayerOrder), len(file.Layers))
	}
	seen := make(map[string]bool, len(file.Layers))
	for _, lf := range file.Layers {
		if seen[lf.ID] {
			return fmt.Errorf("%w: duplicate layer id %q", ErrBadLayerOrder, lf.ID)
		}
		seen[lf.ID] = true
	}
	for _, id := range file.LayerOrder {
		if !seen[id] {
			return fmt.Errorf("%w: unknown layer id %q", ErrBadLayerOrder, id)
		}
		seen[id] = false
	}
	return nil
}

// EncodeJSON writes the snapshot as indented JSON.
func EncodeJSON(w io.Writer, file *DocumentFile) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(file)
}

// DecodeJSON reads a snapshot from JSON.
func DecodeJSON(r io.Reader) (*DocumentFile, error) {
	var file DocumentFile
	if err := json.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("decoding document json: %w", err)
	}
	return &file, nil
}

// EncodeYAML writes the snapshot as YAML.
func EncodeYAML(w io.Writer, file *DocumentFile) error {
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(file)
}

// DecodeYAML reads a snapshot from YAML.
func DecodeYAML(r io.Reader) (*DocumentFile, error) {
	var file DocumentFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("decoding document yaml: %w", err)
	}
	return &file, nil
}
