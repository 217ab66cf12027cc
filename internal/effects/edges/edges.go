package edgeseffect

import (
	"image"
	"math"

	vecmath "github.com/cwbudde/algo-vecmath"

	"github.com/alexisbeaulieu97/framefx/internal/catalog"
	"github.com/alexisbeaulieu97/framefx/internal/dependency"
	"github.com/alexisbeaulieu97/framefx/internal/effect"
	"github.com/alexisbeaulieu97/framefx/internal/effects/raster"
)

// Module is the catalog name plugin manifests refer to.
const Module = "framefx/edges"

// Detection methods.
const (
	Sobel     = "Sobel"
	Laplacian = "Laplacian"
)

type edgesEffect struct {
	*effect.Base
	ui *effect.StaticUI
}

// New creates an edge detection effect.
func New() effect.Effect {
	return &edgesEffect{
		Base: effect.NewBase(effect.Metadata{
			Name:        "Edge Detect",
			Category:    "artistic",
			Description: "Outlines the frame with Sobel or Laplacian edges.",
			Version:     "1.0.0",
			Tags:        []string{"edge", "outline", "sketch"},
		},
			effect.Choice("method", Sobel, Sobel, Laplacian).WithCategory("Detection"),
			effect.Int("threshold", 64, 0, 255).WithCategory("Detection"),
			effect.Float("strength", 1, 0.1, 5, 0.1).WithCategory("Detection"),
			effect.Bool("invert", false).WithCategory("Style"),
			effect.Bool("colorize", false).WithCategory("Style"),
			effect.ColorParam("edge_color", "#ffffff").WithCategory("Style").WithLabel("Edge color"),
		),
		ui: &effect.StaticUI{
			GroupList: []effect.Group{
				{Title: "Detection", Parameters: []string{"method", "threshold", "strength"}},
				{Title: "Style", Parameters: []string{"invert", "colorize", "edge_color"}},
			},
			Rules: []dependency.Rule{
				{Controlling: "method", Dependent: "threshold", Condition: dependency.Equals{Value: Sobel}},
				{Controlling: "method", Dependent: "strength", Condition: dependency.Equals{Value: Laplacian}},
				{Controlling: "colorize", Dependent: "edge_color", Condition: dependency.IsTrue{}},
			},
		},
	}
}

var (
	_ effect.Effect     = (*edgesEffect)(nil)
	_ effect.UIProvider = (*edgesEffect)(nil)
)

func init() {
	catalog.MustRegister(Module, catalog.Symbols{
		"Register": Register,
	})
}

// Register is the module entry point.
func Register(reg effect.Registrar) error {
	e := New()
	_, err := reg.Register(e, e.(effect.UIProvider).UI())
	return err
}

// UI implements effect.UIProvider.
func (e *edgesEffect) UI() effect.UIDescriptor {
	return e.ui
}

// Apply renders edges over black, or dark edges over white when inverted.
func (e *edgesEffect) Apply(frame *image.RGBA, params effect.Values) *image.RGBA {
	if frame == nil {
		return nil
	}
	p := raster.Split(frame)
	luma := p.Luma()

	var mag []float64
	if params.String("method", Sobel) == Laplacian {
		mag = laplacian(p, luma, params.Float("strength", 1))
	} else {
		mag = sobel(p, luma)
		threshold := float64(params.Int("threshold", 64))
		for i, v := range mag {
			if v >= threshold {
				mag[i] = 255
			} else {
				mag[i] = 0
			}
		}
	}

	fg, bg := effect.Color{R: 255, G: 255, B: 255}, effect.Color{}
	if params.Bool("invert", false) {
		fg, bg = bg, fg
	}
	if params.Bool("colorize", false) {
		fg = params.Color("edge_color", fg)
	}
	for i, v := range mag {
		a := math.Min(v, 255) / 255
		p.R[i] = blend(bg.R, fg.R, a)
		p.G[i] = blend(bg.G, fg.G, a)
		p.B[i] = blend(bg.B, fg.B, a)
	}
	return p.RGBA()
}

// sobel returns the gradient magnitude of luma.
func sobel(p *raster.Planes, luma []float64) []float64 {
	gx := make([]float64, len(luma))
	gy := make([]float64, len(luma))
	for y := 0; y < p.H; y++ {
		for x := 0; x < p.W; x++ {
			at := func(dx, dy int) float64 { return p.At(luma, x+dx, y+dy) }
			i := y*p.W + x
			gx[i] = at(1, -1) + 2*at(1, 0) + at(1, 1) - at(-1, -1) - 2*at(-1, 0) - at(-1, 1)
			gy[i] = at(-1, 1) + 2*at(0, 1) + at(1, 1) - at(-1, -1) - 2*at(0, -1) - at(1, -1)
		}
	}
	mag := make([]float64, len(luma))
	vecmath.Magnitude(mag, gx, gy)
	return mag
}

// laplacian returns the absolute 4-neighbour Laplacian of luma scaled by
// strength.
func laplacian(p *raster.Planes, luma []float64, strength float64) []float64 {
	out := make([]float64, len(luma))
	for y := 0; y < p.H; y++ {
		for x := 0; x < p.W; x++ {
			v := 4*p.At(luma, x, y) - p.At(luma, x-1, y) - p.At(luma, x+1, y) - p.At(luma, x, y-1) - p.At(luma, x, y+1)
			out[y*p.W+x] = math.Abs(v) * strength
		}
	}
	return out
}

func blend(bg, fg uint8, a float64) float64 {
	return float64(bg) + a*(float64(fg)-float64(bg))
}
