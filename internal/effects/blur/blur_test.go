package blureffect

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/framefx/internal/catalog"
	"github.com/alexisbeaulieu97/framefx/internal/effect"
	"github.com/alexisbeaulieu97/framefx/internal/effect/effecttest"
)

func TestBlurContractIsValid(t *testing.T) {
	t.Parallel()

	require.NoError(t, effect.Validate(New()))
	_, ok := catalog.Get(Module)
	assert.True(t, ok)
}

func TestKernelIsNormalised(t *testing.T) {
	t.Parallel()

	for _, method := range []string{Gaussian, Box} {
		k := Kernel(method, 4, 2)
		require.Len(t, k, 9)
		var sum float64
		for _, w := range k {
			sum += w
		}
		assert.InDelta(t, 1, sum, 1e-9, method)
		assert.InDelta(t, k[0], k[8], 1e-12, "symmetric")
	}

	box := Kernel(Box, 1, 1)
	assert.InDeltaSlice(t, []float64{1.0 / 3, 1.0 / 3, 1.0 / 3}, box, 1e-12)

	gauss := Kernel(Gaussian, 2, 1)
	assert.Greater(t, gauss[2], gauss[1])
	assert.Greater(t, gauss[1], gauss[0])

	assert.Len(t, Kernel(Box, 0, 1), 3, "radius is at least one")
}

func TestBlurKeepsFlatFrames(t *testing.T) {
	t.Parallel()

	frame := effecttest.Frame(5, 4, effect.Color{R: 90, G: 120, B: 30})
	out := New().Apply(frame, effect.Values{"method": Gaussian, "radius": 3, "sigma": 1.5})
	require.Equal(t, frame.Bounds(), out.Bounds())
	assert.Equal(t, frame.Pix, out.Pix)
}

func TestBoxBlurSpreadsAPoint(t *testing.T) {
	t.Parallel()

	frame := image.NewRGBA(image.Rect(0, 0, 3, 3))
	for i := 3; i < len(frame.Pix); i += 4 {
		frame.Pix[i] = 255
	}
	frame.Pix[frame.PixOffset(1, 1)] = 255

	out := New().Apply(frame, effect.Values{"method": Box, "radius": 1, "sigma": 1.0})

	// 255 / 9 at every pixel of the 3x3 neighbourhood.
	for y := 0; y < 3; y++ {
		for x := 0; x < 3; x++ {
			assert.Equal(t, uint8(28), out.Pix[out.PixOffset(x, y)], "pixel %d,%d", x, y)
		}
	}
	assert.Equal(t, uint8(255), frame.Pix[frame.PixOffset(1, 1)])
}
