package effect

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/alexisbeaulieu97/framefx/internal/dependency"
)

// Color is an 8-bit RGB triple.
type Color struct {
	R, G, B uint8
}

// ToRGBA converts c to an opaque color.RGBA.
func (c Color) ToRGBA() color.RGBA {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xff}
}

// Hex renders c as #rrggbb.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func (c Color) String() string { return c.Hex() }

// ParseColor accepts a Color, "#rrggbb" or "rrggbb" strings, maps with r/g/b
// keys and three element lists.
func ParseColor(value any) (Color, error) {
	switch v := value.(type) {
	case Color:
		return v, nil
	case *Color:
		if v == nil {
			return Color{}, fmt.Errorf("nil color")
		}
		return *v, nil
	case color.RGBA:
		return Color{R: v.R, G: v.G, B: v.B}, nil
	case string:
		return parseHex(v)
	case map[string]any:
		return parseChannels(v["r"], v["g"], v["b"])
	case []any:
		if len(v) != 3 {
			return Color{}, fmt.Errorf("color list needs 3 channels, got %d", len(v))
		}
		return parseChannels(v[0], v[1], v[2])
	case []int:
		if len(v) != 3 {
			return Color{}, fmt.Errorf("color list needs 3 channels, got %d", len(v))
		}
		return parseChannels(v[0], v[1], v[2])
	}
	return Color{}, fmt.Errorf("cannot parse color from %T", value)
}

// MustColor parses s and panics on failure. Intended for literals.
func MustColor(s string) Color {
	c, err := parseHex(s)
	if err != nil {
		panic(err)
	}
	return c
}

func parseHex(s string) (Color, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 {
		return Color{}, fmt.Errorf("color %q is not #rrggbb", s)
	}
	n, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("color %q is not #rrggbb", s)
	}
	return Color{R: uint8(n >> 16), G: uint8(n >> 8), B: uint8(n)}, nil
}

func parseChannels(r, g, b any) (Color, error) {
	var out [3]uint8
	for i, ch := range []any{r, g, b} {
		n, ok := dependency.Number(ch)
		if !ok || n < 0 || n > 255 {
			return Color{}, fmt.Errorf("color channel %v out of range", ch)
		}
		out[i] = uint8(n)
	}
	return Color{R: out[0], G: out[1], B: out[2]}, nil
}
