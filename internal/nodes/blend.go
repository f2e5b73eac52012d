package nodes

import (
	"github.com/KaelanRichards/artemisia/internal/document"
	"github.com/KaelanRichards/artemisia/internal/graph"
)

// BlendCapability composites two graph branches inside a single layer. Its
// inputs are named "bottom" and "top"; input names sort alphabetically, so
// bottom arrives first in the artifact list.
type BlendCapability struct {
	mode    document.BlendMode
	opacity float64
}

func (c *BlendCapability) Compute(inputs []graph.Artifact) (graph.Artifact, error) {
	bottom, err := imageInput(inputs, 0, "bottom")
	if err != nil {
		return nil, err
	}
	top, err := imageInput(inputs, 1, "top")
	if err != nil {
		return nil, err
	}
	return document.Blend(bottom, top, c.mode, c.opacity), nil
}

// BlendFactory builds blend nodes. Parameters: "mode" is a blend mode name
// (default "normal"), "opacity" in [0,1] (default 1).
type BlendFactory struct{}

func (BlendFactory) TypeName() string { return TypeBlend }

func (BlendFactory) ValidateParameters(params graph.Params) error {
	_, err := document.ParseBlendMode(params.String("mode", "normal"))
	return err
}

func (BlendFactory) Create(params graph.Params) (graph.Capability, error) {
	mode, err := document.ParseBlendMode(params.String("mode", "normal"))
	if err != nil {
		return nil, err
	}
	return &BlendCapability{
		mode:    mode,
		opacity: clampF(params.Float("opacity", 1.0), 0, 1),
	}, nil
}
