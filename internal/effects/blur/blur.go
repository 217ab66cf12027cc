package blureffect

import (
	"image"
	"math"

	vecmath "github.com/cwbudde/algo-vecmath"

	"github.com/alexisbeaulieu97/framefx/internal/catalog"
	"github.com/alexisbeaulieu97/framefx/internal/effect"
	"github.com/alexisbeaulieu97/framefx/internal/effects/raster"
)

// Module is the catalog name plugin manifests refer to.
const Module = "framefx/blur"

// Blur methods.
const (
	Gaussian = "Gaussian"
	Box      = "Box"
)

type blurEffect struct {
	*effect.Base
}

// New creates a separable blur effect.
func New() effect.Effect {
	return &blurEffect{Base: effect.NewBase(effect.Metadata{
		Name:        "Soft Blur",
		Category:    "filters",
		Description: "Gaussian or box blur with a separable kernel.",
		Version:     "1.0.0",
		Tags:        []string{"blur", "soft", "smooth"},
	},
		effect.Choice("method", Gaussian, Gaussian, Box),
		effect.Int("radius", 3, 1, 25),
		effect.Float("sigma", 1.5, 0.5, 10, 0.1),
	)}
}

var _ effect.Effect = (*blurEffect)(nil)

func init() {
	catalog.MustRegister(Module, catalog.Symbols{
		"NewEffect": New,
	})
}

// Apply blurs rows, then columns, clamping samples at the frame edges.
func (e *blurEffect) Apply(frame *image.RGBA, params effect.Values) *image.RGBA {
	if frame == nil {
		return nil
	}
	kernel := Kernel(params.String("method", Gaussian), params.Int("radius", 3), params.Float("sigma", 1.5))

	p := raster.Split(frame)
	c := newConvolver(kernel)
	for _, plane := range p.Channels() {
		tmp := make([]float64, len(plane))
		for y := 0; y < p.H; y++ {
			for x := 0; x < p.W; x++ {
				tmp[y*p.W+x] = c.at(func(k int) float64 { return p.At(plane, x+k, y) })
			}
		}
		for y := 0; y < p.H; y++ {
			for x := 0; x < p.W; x++ {
				plane[y*p.W+x] = c.at(func(k int) float64 { return p.At(tmp, x, y+k) })
			}
		}
	}
	return p.RGBA()
}

// Kernel returns normalised taps for offsets -radius..radius.
func Kernel(method string, radius int, sigma float64) []float64 {
	if radius < 1 {
		radius = 1
	}
	taps := make([]float64, 2*radius+1)
	var sum float64
	for i := range taps {
		w := 1.0
		if method != Box {
			d := float64(i - radius)
			w = math.Exp(-(d * d) / (2 * sigma * sigma))
		}
		taps[i] = w
		sum += w
	}
	for i := range taps {
		taps[i] /= sum
	}
	return taps
}

// convolver weights a window of samples by the kernel taps.
type convolver struct {
	kernel  []float64
	radius  int
	window  []float64
	product []float64
}

func newConvolver(kernel []float64) *convolver {
	return &convolver{
		kernel:  kernel,
		radius:  len(kernel) / 2,
		window:  make([]float64, len(kernel)),
		product: make([]float64, len(kernel)),
	}
}

func (c *convolver) at(sample func(offset int) float64) float64 {
	for i := range c.window {
		c.window[i] = sample(i - c.radius)
	}
	vecmath.MulBlock(c.product, c.window, c.kernel)
	var sum float64
	for _, v := range c.product {
		sum += v
	}
	return sum
}
