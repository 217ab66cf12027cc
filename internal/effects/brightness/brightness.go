package brightnesseffect

import (
	"image"

	vecmath "github.com/cwbudde/algo-vecmath"

	"github.com/alexisbeaulieu97/framefx/internal/catalog"
	"github.com/alexisbeaulieu97/framefx/internal/effect"
	"github.com/alexisbeaulieu97/framefx/internal/effects/raster"
)

// Module is the catalog name plugin manifests refer to.
const Module = "framefx/brightness"

const mid = 127.5

type brightnessEffect struct {
	*effect.Base
}

// New creates a brightness/contrast effect.
func New() effect.Effect {
	return &brightnessEffect{Base: effect.NewBase(effect.Metadata{
		Name:        "Brightness Contrast",
		Category:    "adjustments",
		Description: "Adjusts brightness and contrast of the frame.",
		Version:     "1.0.0",
		Tags:        []string{"brightness", "contrast", "exposure"},
	},
		effect.Int("brightness", 0, -100, 100).WithLabel("Brightness"),
		effect.Float("contrast", 1, 0, 3, 0.05).WithLabel("Contrast"),
		effect.Choice("channel", "All", "All", "Red", "Green", "Blue").WithCategory("Advanced"),
	)}
}

var _ effect.Effect = (*brightnessEffect)(nil)

func init() {
	catalog.MustRegister(Module, catalog.Symbols{
		"NewEffect": New,
	})
}

// Apply scales every channel around mid-grey by contrast, then shifts it by
// brightness percent of the full range.
func (e *brightnessEffect) Apply(frame *image.RGBA, params effect.Values) *image.RGBA {
	if frame == nil {
		return nil
	}
	brightness := float64(params.Int("brightness", 0)) * 2.55
	contrast := params.Float("contrast", 1)

	p := raster.Split(frame)
	gain := make([]float64, len(p.R))
	for i := range gain {
		gain[i] = contrast
	}

	for i, plane := range p.Channels() {
		if !selected(params.String("channel", "All"), i) {
			continue
		}
		for j := range plane {
			plane[j] -= mid
		}
		vecmath.MulBlockInPlace(plane, gain)
		for j := range plane {
			plane[j] += mid + brightness
		}
	}
	return p.RGBA()
}

func selected(channel string, index int) bool {
	switch channel {
	case "Red":
		return index == 0
	case "Green":
		return index == 1
	case "Blue":
		return index == 2
	}
	return true
}
