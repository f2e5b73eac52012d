package nodes

import (
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"os"

	"github.com/KaelanRichards/artemisia/internal/graph"
	"github.com/KaelanRichards/artemisia/internal/log"
)

// SourceCapability produces an image from nothing: either a solid color of
// the configured size or the contents of a PNG file. It takes no inputs and
// sits at the leaves of a graph.
type SourceCapability struct {
	path       string
	r, g, b, a uint8
	width      int
	height     int
}

func (c *SourceCapability) Compute(inputs []graph.Artifact) (graph.Artifact, error) {
	if c.path != "" {
		return c.loadPNG()
	}
	img := image.NewNRGBA(image.Rect(0, 0, c.width, c.height))
	for y := 0; y < c.height; y++ {
		for x := 0; x < c.width; x++ {
			off := img.PixOffset(x, y)
			img.Pix[off] = c.r
			img.Pix[off+1] = c.g
			img.Pix[off+2] = c.b
			img.Pix[off+3] = c.a
		}
	}
	return img, nil
}

func (c *SourceCapability) loadPNG() (*image.NRGBA, error) {
	f, err := os.Open(c.path)
	if err != nil {
		return nil, fmt.Errorf("opening source image: %w", err)
	}
	defer f.Close()

	decoded, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", c.path, err)
	}
	img := image.NewNRGBA(decoded.Bounds())
	draw.Draw(img, img.Rect, decoded, decoded.Bounds().Min, draw.Src)
	log.Debug(log.CatRender, "source image loaded", "path", c.path,
		"width", img.Rect.Dx(), "height", img.Rect.Dy())
	return img, nil
}

// SourceFactory builds source nodes. Parameters: either "path" (PNG file)
// or "r","g","b","a" with "width","height" for a solid fill.
type SourceFactory struct{}

func (SourceFactory) TypeName() string { return TypeSource }

func (SourceFactory) ValidateParameters(params graph.Params) error {
	if params.String("path", "") != "" {
		return nil
	}
	if w := params.Int("width", 1); w < 1 {
		return fmt.Errorf("%w: width must be at least 1, got %d", graph.ErrInvalidParameter, w)
	}
	if h := params.Int("height", 1); h < 1 {
		return fmt.Errorf("%w: height must be at least 1, got %d", graph.ErrInvalidParameter, h)
	}
	return nil
}

func (SourceFactory) Create(params graph.Params) (graph.Capability, error) {
	return &SourceCapability{
		path:   params.String("path", ""),
		r:      uint8(params.Int("r", 0)),
		g:      uint8(params.Int("g", 0)),
		b:      uint8(params.Int("b", 0)),
		a:      uint8(params.Int("a", 255)),
		width:  params.Int("width", 1),
		height: params.Int("height", 1),
	}, nil
}
