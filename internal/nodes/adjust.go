package nodes

import (
	"image"
	"math"

	"github.com/KaelanRichards/artemisia/internal/graph"
)

// BrightnessContrastCapability scales brightness and stretches contrast
// around the 0.5 midpoint. Both parameters live in [-1,1]; zero is identity.
// Alpha passes through untouched.
type BrightnessContrastCapability struct {
	brightness float64
	contrast   float64
}

func (c *BrightnessContrastCapability) Compute(inputs []graph.Artifact) (graph.Artifact, error) {
	src, err := imageInput(inputs, 0, "in")
	if err != nil {
		return nil, err
	}

	brightnessFactor := 1.0 + c.brightness
	contrastFactor := 1.0 + c.contrast

	dst := image.NewNRGBA(src.Rect)
	for i := 0; i < len(src.Pix); i += 4 {
		for ch := 0; ch < 3; ch++ {
			v := float64(src.Pix[i+ch]) / 255.0
			v *= brightnessFactor
			v = (v-0.5)*contrastFactor + 0.5
			dst.Pix[i+ch] = clampByte(v * 255.0)
		}
		dst.Pix[i+3] = src.Pix[i+3]
	}
	return dst, nil
}

// BrightnessContrastFactory builds brightness-contrast nodes. Parameters
// "brightness" and "contrast" default to 0 and clamp to [-1,1].
type BrightnessContrastFactory struct{}

func (BrightnessContrastFactory) TypeName() string { return TypeBrightnessContrast }

func (BrightnessContrastFactory) Create(params graph.Params) (graph.Capability, error) {
	return &BrightnessContrastCapability{
		brightness: clampF(params.Float("brightness", 0), -1, 1),
		contrast:   clampF(params.Float("contrast", 0), -1, 1),
	}, nil
}

// HSLCapability shifts hue and scales saturation and lightness in HSL
// space. Hue is a shift in degrees; saturation and lightness are relative
// adjustments in [-1,1]. Alpha passes through untouched.
type HSLCapability struct {
	hue        float64
	saturation float64
	lightness  float64
}

func (c *HSLCapability) Compute(inputs []graph.Artifact) (graph.Artifact, error) {
	src, err := imageInput(inputs, 0, "in")
	if err != nil {
		return nil, err
	}

	dst := image.NewNRGBA(src.Rect)
	for i := 0; i < len(src.Pix); i += 4 {
		r := float64(src.Pix[i]) / 255.0
		g := float64(src.Pix[i+1]) / 255.0
		b := float64(src.Pix[i+2]) / 255.0

		h, s, l := rgbToHSL(r, g, b)
		h = math.Mod(math.Mod(h+c.hue, 360.0)+360.0, 360.0)
		s = clampF(s*(1.0+c.saturation), 0, 1)
		l = clampF(l*(1.0+c.lightness), 0, 1)
		r, g, b = hslToRGB(h, s, l)

		dst.Pix[i] = clampByte(r * 255.0)
		dst.Pix[i+1] = clampByte(g * 255.0)
		dst.Pix[i+2] = clampByte(b * 255.0)
		dst.Pix[i+3] = src.Pix[i+3]
	}
	return dst, nil
}

func rgbToHSL(r, g, b float64) (h, s, l float64) {
	max := math.Max(r, math.Max(g, b))
	min := math.Min(r, math.Min(g, b))
	l = (max + min) / 2.0

	if max == min {
		return 0, 0, l
	}

	d := max - min
	if l > 0.5 {
		s = d / (2.0 - max - min)
	} else {
		s = d / (max + min)
	}

	switch max {
	case r:
		h = (g - b) / d
	case g:
		h = 2.0 + (b-r)/d
	default:
		h = 4.0 + (r-g)/d
	}
	h *= 60.0
	if h < 0 {
		h += 360.0
	}
	return h, s, l
}

func hslToRGB(h, s, l float64) (r, g, b float64) {
	if s == 0 {
		return l, l, l
	}

	var q float64
	if l < 0.5 {
		q = l * (1.0 + s)
	} else {
		q = l + s - l*s
	}
	p := 2.0*l - q

	h /= 360.0
	return hueToRGB(p, q, h+1.0/3.0), hueToRGB(p, q, h), hueToRGB(p, q, h-1.0/3.0)
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t += 1.0
	} else if t > 1 {
		t -= 1.0
	}
	switch {
	case t < 1.0/6.0:
		return p + (q-p)*6.0*t
	case t < 1.0/2.0:
		return q
	case t < 2.0/3.0:
		return p + (q-p)*(2.0/3.0-t)*6.0
	default:
		return p
	}
}

// HSLFactory builds hsl nodes. Parameters: "hue" in [-180,180] degrees,
// "saturation" and "lightness" in [-1,1], all defaulting to 0.
type HSLFactory struct{}

func (HSLFactory) TypeName() string { return TypeHSL }

func (HSLFactory) Create(params graph.Params) (graph.Capability, error) {
	return &HSLCapability{
		hue:        clampF(params.Float("hue", 0), -180, 180),
		saturation: clampF(params.Float("saturation", 0), -1, 1),
		lightness:  clampF(params.Float("lightness", 0), -1, 1),
	}, nil
}
