package document

import (
	"errors"
	"fmt"
	"image"
	"math"
	"strings"

	"github.com/KaelanRichards/artemisia/internal/log"
)

// BlendMode is the per-pixel RGB combination function applied before alpha
// compositing two layers.
type BlendMode int

const (
	BlendNormal BlendMode = iota
	BlendMultiply
	BlendScreen
	BlendOverlay
	BlendDarken
	BlendLighten
	BlendColorDodge
	BlendColorBurn
	BlendHardLight
	BlendSoftLight
	BlendDifference
	BlendExclusion
)

// ErrUnknownBlendMode is returned when parsing an unrecognized mode name.
var ErrUnknownBlendMode = errors.New("unknown blend mode")

var blendModeNames = map[BlendMode]string{
	BlendNormal:     "normal",
	BlendMultiply:   "multiply",
	BlendScreen:     "screen",
	BlendOverlay:    "overlay",
	BlendDarken:     "darken",
	BlendLighten:    "lighten",
	BlendColorDodge: "color-dodge",
	BlendColorBurn:  "color-burn",
	BlendHardLight:  "hard-light",
	BlendSoftLight:  "soft-light",
	BlendDifference: "difference",
	BlendExclusion:  "exclusion",
}

// String returns the persisted name of the mode.
func (m BlendMode) String() string {
	if name, ok := blendModeNames[m]; ok {
		return name
	}
	return "normal"
}

// ParseBlendMode resolves a persisted mode name, case-insensitively.
func ParseBlendMode(name string) (BlendMode, error) {
	needle := strings.ToLower(strings.TrimSpace(name))
	for mode, n := range blendModeNames {
		if n == needle {
			return mode, nil
		}
	}
	return BlendNormal, fmt.Errorf("%w: %q", ErrUnknownBlendMode, name)
}

// BlendModes returns every mode in declaration order.
func BlendModes() []BlendMode {
	return []BlendMode{
		BlendNormal, BlendMultiply, BlendScreen, BlendOverlay,
		BlendDarken, BlendLighten, BlendColorDodge, BlendColorBurn,
		BlendHardLight, BlendSoftLight, BlendDifference, BlendExclusion,
	}
}

// Blend composites top over bottom using the given mode and opacity.
// Both images use straight (non-premultiplied) 8-bit RGBA; the output is
// clipped to the intersection of the two sizes. Neither input is mutated.
func Blend(bottom, top *image.NRGBA, mode BlendMode, opacity float64) *image.NRGBA {
	bw, bh := bottom.Rect.Dx(), bottom.Rect.Dy()
	tw, th := top.Rect.Dx(), top.Rect.Dy()
	w, h := bw, bh
	if tw < w {
		w = tw
	}
	if th < h {
		h = th
	}

	if w != bw || h != bh || w != tw || h != th {
		log.Debug(log.CatBlend, "size mismatch, clipping to intersection",
			"mode", mode.String(),
			"bottom", fmt.Sprintf("%dx%d", bw, bh),
			"top", fmt.Sprintf("%dx%d", tw, th))
	}

	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			b := pixelAt(bottom, x, y)
			t := pixelAt(top, x, y)
			setPixel(out, x, y, blendPixel(b, t, mode, opacity))
		}
	}
	return out
}

// blendPixel implements the exact blend algebra: mode-specific RGB, result
// alpha = top alpha scaled by opacity, then straight-alpha over-composite.
func blendPixel(b, t [4]float64, mode BlendMode, opacity float64) [4]float64 {
	var result [4]float64
	for i := 0; i < 3; i++ {
		result[i] = blendChannel(mode, b[i], t[i])
	}
	result[3] = t[3] * opacity

	alpha := result[3] + b[3]*(1.0-result[3])
	var out [4]float64
	if alpha > 0 {
		for i := 0; i < 3; i++ {
			out[i] = (result[i]*result[3] + b[i]*b[3]*(1.0-result[3])) / alpha
		}
	}
	out[3] = alpha
	return out
}

func blendChannel(mode BlendMode, b, t float64) float64 {
	switch mode {
	case BlendNormal:
		return t
	case BlendMultiply:
		return b * t
	case BlendScreen:
		return 1.0 - (1.0-b)*(1.0-t)
	case BlendOverlay:
		if b < 0.5 {
			return 2.0 * b * t
		}
		return 1.0 - 2.0*(1.0-b)*(1.0-t)
	case BlendDarken:
		return math.Min(b, t)
	case BlendLighten:
		return math.Max(b, t)
	case BlendColorDodge:
		if t == 1.0 {
			return 1.0
		}
		return math.Min(b/(1.0-t), 1.0)
	case BlendColorBurn:
		if t == 0.0 {
			return 0.0
		}
		return 1.0 - math.Min((1.0-b)/t, 1.0)
	case BlendHardLight:
		if t < 0.5 {
			return 2.0 * b * t
		}
		return 1.0 - 2.0*(1.0-b)*(1.0-t)
	case BlendSoftLight:
		if t < 0.5 {
			return b - (1.0-2.0*t)*b*(1.0-b)
		}
		return b + (2.0*t-1.0)*(softLightD(b)-b)
	case BlendDifference:
		return math.Abs(b - t)
	case BlendExclusion:
		return b + t - 2.0*b*t
	default:
		return t
	}
}

// softLightD is the piecewise D(x) of the soft-light definition.
func softLightD(x float64) float64 {
	if x <= 0.25 {
		return ((16.0*x-12.0)*x + 4.0) * x
	}
	return math.Sqrt(x)
}

func pixelAt(img *image.NRGBA, x, y int) [4]float64 {
	off := img.PixOffset(img.Rect.Min.X+x, img.Rect.Min.Y+y)
	return [4]float64{
		float64(img.Pix[off]) / 255.0,
		float64(img.Pix[off+1]) / 255.0,
		float64(img.Pix[off+2]) / 255.0,
		float64(img.Pix[off+3]) / 255.0,
	}
}

func setPixel(img *image.NRGBA, x, y int, p [4]float64) {
	off := img.PixOffset(x, y)
	for i := 0; i < 4; i++ {
		img.Pix[off+i] = clamp8(p[i] * 255.0)
	}
}

// clamp8 rounds to the nearest 8-bit value, so a channel that survives the
// float round trip unchanged maps back to its original byte.
func clamp8(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
