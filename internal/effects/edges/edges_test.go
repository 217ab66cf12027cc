package edgeseffect

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/framefx/internal/catalog"
	"github.com/alexisbeaulieu97/framefx/internal/dependency"
	"github.com/alexisbeaulieu97/framefx/internal/effect"
	"github.com/alexisbeaulieu97/framefx/internal/effect/effecttest"
)

type registrarFunc func(effect.Effect, effect.UIDescriptor) (string, error)

func (f registrarFunc) Register(e effect.Effect, ui effect.UIDescriptor) (string, error) {
	return f(e, ui)
}

// splitFrame is black on the left half and white on the right half.
func splitFrame() *image.RGBA {
	img := effecttest.Frame(4, 3, effect.Color{})
	for y := 0; y < 3; y++ {
		for x := 2; x < 4; x++ {
			i := img.PixOffset(x, y)
			img.Pix[i], img.Pix[i+1], img.Pix[i+2] = 255, 255, 255
		}
	}
	return img
}

func row(img *image.RGBA, y int) []uint8 {
	out := make([]uint8, 0, img.Bounds().Dx())
	for x := 0; x < img.Bounds().Dx(); x++ {
		out = append(out, img.Pix[img.PixOffset(x, y)])
	}
	return out
}

func defaults() effect.Values {
	return effect.Defaults(New().ParameterSpecs())
}

func TestEdgesEntryPointRegistersWithUI(t *testing.T) {
	t.Parallel()

	mod, ok := catalog.Get(Module)
	require.True(t, ok)
	sym, ok := mod.Lookup("Register")
	require.True(t, ok)

	var got effect.UIDescriptor
	err := sym.(func(effect.Registrar) error)(registrarFunc(func(e effect.Effect, ui effect.UIDescriptor) (string, error) {
		require.NoError(t, effect.Validate(e))
		got = ui
		return "edge_detect_1.0.0", nil
	}))
	require.NoError(t, err)
	require.NotNil(t, got)

	rules := dependency.NewRules(got.Dependencies()...)
	vis := rules.Map([]string{"threshold", "strength", "edge_color"}, defaults())
	assert.Equal(t, map[string]bool{"threshold": true, "strength": false, "edge_color": false}, vis)
	assert.Len(t, got.Groups(), 2)
}

func TestSobelEdges(t *testing.T) {
	t.Parallel()

	out := New().Apply(splitFrame(), defaults())
	for y := 0; y < 3; y++ {
		assert.Equal(t, []uint8{0, 255, 255, 0}, row(out, y), "row %d", y)
	}
}

func TestSobelThreshold(t *testing.T) {
	t.Parallel()

	params := defaults()
	params["threshold"] = 255
	frame := effecttest.Frame(4, 3, effect.Color{})
	frame.Pix[frame.PixOffset(3, 1)] = 40

	out := New().Apply(frame, params)
	for y := 0; y < 3; y++ {
		assert.Equal(t, []uint8{0, 0, 0, 0}, row(out, y))
	}
}

func TestEdgesInvertAndColorize(t *testing.T) {
	t.Parallel()

	params := defaults()
	params["invert"] = true
	out := New().Apply(splitFrame(), params)
	assert.Equal(t, []uint8{255, 0, 0, 255}, row(out, 1))

	params = defaults()
	params["colorize"] = true
	params["edge_color"] = effect.MustColor("#ff0000")
	out = New().Apply(splitFrame(), params)
	i := out.PixOffset(1, 0)
	assert.Equal(t, []uint8{255, 0, 0, 255}, out.Pix[i:i+4])
}

func TestLaplacianEdges(t *testing.T) {
	t.Parallel()

	params := defaults()
	params["method"] = Laplacian
	out := New().Apply(splitFrame(), params)
	assert.Equal(t, []uint8{0, 255, 255, 0}, row(out, 1))

	flat := effecttest.Frame(3, 3, effect.Color{R: 80, G: 80, B: 80})
	out = New().Apply(flat, params)
	assert.Equal(t, []uint8{0, 0, 0}, row(out, 0))
}
