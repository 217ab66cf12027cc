package manager_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/framefx/internal/effect"
	"github.com/alexisbeaulieu97/framefx/internal/effect/effecttest"
	_ "github.com/alexisbeaulieu97/framefx/internal/effects/blur"
	_ "github.com/alexisbeaulieu97/framefx/internal/effects/brightness"
	_ "github.com/alexisbeaulieu97/framefx/internal/effects/edges"
	"github.com/alexisbeaulieu97/framefx/internal/logger"
	"github.com/alexisbeaulieu97/framefx/internal/manager"
)

func TestBundledPlugins(t *testing.T) {
	t.Parallel()

	m := manager.New(manager.Options{Logger: logger.Nop()})
	t.Cleanup(m.Cleanup)

	summary := m.Initialize(filepath.Join("..", "..", "plugins", "effects"))
	require.Equal(t, map[string]bool{
		"brightness": true,
		"invert":     true,
		"edges":      true,
		"blur":       true,
	}, summary.Results)
	assert.ElementsMatch(t, []string{"adjustments", "artistic", "filters"}, m.Categories())

	d, ok := m.EffectMetadata("invert_1.0.0")
	require.True(t, ok)
	assert.Equal(t, "Inverts the colors of the frame, optionally per channel.", d.Description)

	require.True(t, m.SetCurrentEffect("soft_blur_1.0.0"))
	assert.True(t, m.Visibility()["sigma"])
	m.SetParameter("method", "Box")
	assert.False(t, m.Visibility()["sigma"])

	require.True(t, m.SetCurrentEffect("invert_1.0.0"))
	assert.False(t, m.Visibility()["red"])
	m.SetParameter("channels", "Custom")
	m.SetParameter("green", false)
	m.SetParameter("blue", false)
	assert.True(t, m.Visibility()["red"])

	out := m.ApplyEffect(effecttest.Frame(1, 1, effect.Color{R: 10, G: 20, B: 30}))
	assert.Equal(t, []uint8{245, 20, 30, 255}, out.Pix)

	assert.Len(t, m.SearchEffects("edge"), 1)
	assert.Len(t, m.SearchEffects("soft"), 1)
}
