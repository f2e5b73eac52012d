package nodes

import (
	"image"

	"github.com/KaelanRichards/artemisia/internal/graph"
)

// SharpenCapability convolves with the 3x3 kernel whose center is 8a+1 and
// whose neighbors are -a. The kernel sums to 1, so amount 0 is identity and
// flat regions pass through at any amount. Edges clamp to the nearest pixel.
type SharpenCapability struct {
	amount float64
}

func (c *SharpenCapability) Compute(inputs []graph.Artifact) (graph.Artifact, error) {
	src, err := imageInput(inputs, 0, "in")
	if err != nil {
		return nil, err
	}

	a := c.amount
	kernel := [9]float64{
		-a, -a, -a,
		-a, 8.0*a + 1.0, -a,
		-a, -a, -a,
	}

	w, h := src.Rect.Dx(), src.Rect.Dy()
	dst := image.NewNRGBA(src.Rect)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var acc [4]float64
			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					sx := clampInt(x+kx, 0, w-1)
					sy := clampInt(y+ky, 0, h-1)
					weight := kernel[(ky+1)*3+(kx+1)]
					off := src.PixOffset(src.Rect.Min.X+sx, src.Rect.Min.Y+sy)
					for ch := 0; ch < 4; ch++ {
						acc[ch] += weight * float64(src.Pix[off+ch])
					}
				}
			}
			off := dst.PixOffset(src.Rect.Min.X+x, src.Rect.Min.Y+y)
			for ch := 0; ch < 4; ch++ {
				dst.Pix[off+ch] = clampByte(acc[ch])
			}
		}
	}
	return dst, nil
}

// SharpenFactory builds sharpen nodes. Parameter "amount" defaults to 1 and
// clamps to [0,10].
type SharpenFactory struct{}

func (SharpenFactory) TypeName() string { return TypeSharpen }

func (SharpenFactory) Create(params graph.Params) (graph.Capability, error) {
	return &SharpenCapability{amount: clampF(params.Float("amount", 1.0), 0, 10)}, nil
}
