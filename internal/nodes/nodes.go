// Package nodes provides the standard node capabilities and their
// factories: image sources, color adjustments, convolution filters, and an
// in-graph blend. Type names are the stable identifiers documents persist,
// so they never change once released.
package nodes

import (
	"fmt"
	"image"

	"github.com/KaelanRichards/artemisia/internal/graph"
)

// Standard type names.
const (
	TypeSource             = "source"
	TypeBrightnessContrast = "brightness-contrast"
	TypeHSL                = "hsl"
	TypeGaussianBlur       = "gaussian-blur"
	TypeSharpen            = "sharpen"
	TypeBlend              = "blend"
)

// RegisterStandard registers every standard factory with the registry.
func RegisterStandard(reg *graph.Registry) {
	reg.Register(SourceFactory{})
	reg.Register(BrightnessContrastFactory{})
	reg.Register(HSLFactory{})
	reg.Register(GaussianBlurFactory{})
	reg.Register(SharpenFactory{})
	reg.Register(BlendFactory{})
}

// imageInput pulls the image at position idx out of the ordered input list.
func imageInput(inputs []graph.Artifact, idx int, name string) (*image.NRGBA, error) {
	if idx >= len(inputs) {
		return nil, fmt.Errorf("input %q: %w", name, graph.ErrMissingInput)
	}
	img, ok := inputs[idx].(*image.NRGBA)
	if !ok {
		return nil, &graph.InputTypeError{
			Input: name,
			Want:  "*image.NRGBA",
			Got:   fmt.Sprintf("%T", inputs[idx]),
		}
	}
	return img, nil
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampByte(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
