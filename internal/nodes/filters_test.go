package nodes

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/KaelanRichards/artemisia/internal/graph"
)

func TestBrightnessContrastIdentity(t *testing.T) {
	cap, err := BrightnessContrastFactory{}.Create(nil)
	require.NoError(t, err)

	src := solidImage(2, 2, 64, 128, 192, 200)
	out := computeImage(t, cap, src)
	require.Equal(t, src.Pix, out.Pix, "zero brightness and contrast is identity")
}

func TestBrightnessDoubles(t *testing.T) {
	cap, err := BrightnessContrastFactory{}.Create(graph.Params{"brightness": 1.0})
	require.NoError(t, err)

	out := computeImage(t, cap, solidImage(1, 1, 100, 128, 200, 255))
	require.Equal(t, uint8(200), out.Pix[0])
	require.Equal(t, uint8(255), out.Pix[1], "doubling 128 clamps to white")
	require.Equal(t, uint8(255), out.Pix[2])
	require.Equal(t, uint8(255), out.Pix[3], "alpha passes through")
}

func TestContrastCollapsesToMidpoint(t *testing.T) {
	cap, err := BrightnessContrastFactory{}.Create(graph.Params{"contrast": -1.0})
	require.NoError(t, err)

	out := computeImage(t, cap, solidImage(1, 1, 10, 250, 128, 90))
	require.Equal(t, uint8(128), out.Pix[0], "full negative contrast flattens to the pivot")
	require.Equal(t, uint8(128), out.Pix[1])
	require.Equal(t, uint8(128), out.Pix[2])
	require.Equal(t, uint8(90), out.Pix[3])
}

func TestBrightnessContrastClampsParameters(t *testing.T) {
	cap, err := BrightnessContrastFactory{}.Create(graph.Params{"brightness": 99.0})
	require.NoError(t, err)
	bc := cap.(*BrightnessContrastCapability)
	require.Equal(t, 1.0, bc.brightness)
}

func TestHSLIdentity(t *testing.T) {
	cap, err := HSLFactory{}.Create(nil)
	require.NoError(t, err)

	src := solidImage(1, 1, 200, 60, 30, 255)
	out := computeImage(t, cap, src)
	require.InDelta(t, float64(src.Pix[0]), float64(out.Pix[0]), 1)
	require.InDelta(t, float64(src.Pix[1]), float64(out.Pix[1]), 1)
	require.InDelta(t, float64(src.Pix[2]), float64(out.Pix[2]), 1)
}

func TestHSLFullNegativeLightness(t *testing.T) {
	cap, err := HSLFactory{}.Create(graph.Params{"lightness": -1.0})
	require.NoError(t, err)

	out := computeImage(t, cap, solidImage(1, 1, 200, 100, 50, 255))
	require.Equal(t, uint8(0), out.Pix[0], "zero lightness is black")
	require.Equal(t, uint8(0), out.Pix[1])
	require.Equal(t, uint8(0), out.Pix[2])
}

func TestHSLRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		r := float64(rapid.Uint8().Draw(t, "r")) / 255.0
		g := float64(rapid.Uint8().Draw(t, "g")) / 255.0
		b := float64(rapid.Uint8().Draw(t, "b")) / 255.0

		h, s, l := rgbToHSL(r, g, b)
		r2, g2, b2 := hslToRGB(h, s, l)

		require.InDelta(t, r, r2, 0.01)
		require.InDelta(t, g, g2, 0.01)
		require.InDelta(t, b, b2, 0.01)
	})
}

func TestGaussianBlurFlatImageUnchanged(t *testing.T) {
	cap, err := GaussianBlurFactory{}.Create(graph.Params{"sigma": 2.0})
	require.NoError(t, err)

	src := solidImage(8, 8, 77, 77, 77, 255)
	out := computeImage(t, cap, src)
	require.Equal(t, src.Pix, out.Pix, "a normalized kernel leaves flat regions alone")
}

func TestGaussianBlurSmooths(t *testing.T) {
	cap, err := GaussianBlurFactory{}.Create(graph.Params{"sigma": 1.0})
	require.NoError(t, err)

	src := solidImage(9, 9, 0, 0, 0, 255)
	center := src.PixOffset(4, 4)
	src.Pix[center] = 255

	out := computeImage(t, cap, src)
	require.Less(t, out.Pix[out.PixOffset(4, 4)], uint8(255), "the spike spreads out")
	require.Greater(t, out.Pix[out.PixOffset(5, 4)], uint8(0), "neighbors pick up energy")
}

func TestGaussianBlurRejectsNonPositiveSigma(t *testing.T) {
	reg := standardRegistry(t)
	_, err := reg.CreateNode(TypeGaussianBlur, graph.Params{"sigma": 0.0})
	require.ErrorIs(t, err, graph.ErrInvalidParameter)
	_, err = reg.CreateNode(TypeGaussianBlur, graph.Params{"sigma": -3.0})
	require.ErrorIs(t, err, graph.ErrInvalidParameter)
}

func TestSharpenZeroAmountIdentity(t *testing.T) {
	cap, err := SharpenFactory{}.Create(graph.Params{"amount": 0.0})
	require.NoError(t, err)

	src := solidImage(4, 4, 12, 34, 56, 255)
	src.Pix[src.PixOffset(1, 1)] = 200
	out := computeImage(t, cap, src)
	require.Equal(t, src.Pix, out.Pix, "amount zero is the identity kernel")
}

func TestSharpenFlatImageUnchanged(t *testing.T) {
	cap, err := SharpenFactory{}.Create(graph.Params{"amount": 5.0})
	require.NoError(t, err)

	src := solidImage(4, 4, 90, 90, 90, 255)
	out := computeImage(t, cap, src)
	require.Equal(t, src.Pix, out.Pix, "the kernel sums to one")
}

func TestSharpenBoostsEdges(t *testing.T) {
	cap, err := SharpenFactory{}.Create(graph.Params{"amount": 1.0})
	require.NoError(t, err)

	src := solidImage(5, 5, 100, 100, 100, 255)
	center := src.PixOffset(2, 2)
	src.Pix[center] = 150

	out := computeImage(t, cap, src)
	require.Equal(t, uint8(255), out.Pix[out.PixOffset(2, 2)],
		"a bump against a flat field overshoots and clamps")
}

func TestFiltersRequireInput(t *testing.T) {
	for _, factory := range []graph.Factory{
		BrightnessContrastFactory{}, HSLFactory{},
		GaussianBlurFactory{}, SharpenFactory{},
	} {
		cap, err := factory.Create(nil)
		require.NoError(t, err)
		_, err = cap.Compute(nil)
		require.ErrorIs(t, err, graph.ErrMissingInput, "type %s", factory.TypeName())
	}
}
