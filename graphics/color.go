package graphics

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// Color is a straight-alpha colour that reads and writes as a hex string
// ("#rgb", "#rrggbb" or "#rrggbbaa") in configuration files.
type Color color.NRGBA

// Hex builds a Color from a hex literal and panics on a malformed one.
// Only meant for compile-time palette constants.
func Hex(s string) Color {
	c, err := ParseHex(s)
	if err != nil {
		panic(err)
	}
	return c
}

// ParseHex parses "#rgb", "#rrggbb" or "#rrggbbaa"; the leading '#' is optional
func ParseHex(s string) (Color, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	switch len(h) {
	case 3:
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]}) + "ff"
	case 6:
		h += "ff"
	case 8:
	default:
		return Color{}, fmt.Errorf("invalid hex colour %q", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("invalid hex colour %q: %w", s, err)
	}
	return Color{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

// String returns the colour as "#rrggbb", or "#rrggbbaa" when not opaque
func (c Color) String() string {
	if c.A == 0xff {
		return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	}
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}

func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Color) UnmarshalText(text []byte) error {
	v, err := ParseHex(string(text))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// RGBA implements color.Color
func (c Color) RGBA() (r, g, b, a uint32) {
	return color.NRGBA(c).RGBA()
}

// rgba is a premultiplied colour with channels in [0, 1]
type rgba struct {
	r, g, b, a float64
}

// withAlpha premultiplies c by an extra alpha multiplier, the way a canvas
// "rgba(r,g,b,a)" string built from a hex colour behaves.
func (c Color) withAlpha(alpha float64) rgba {
	a := clamp(float64(c.A)/255*alpha, 0, 1)
	return rgba{
		r: float64(c.R) / 255 * a,
		g: float64(c.G) / 255 * a,
		b: float64(c.B) / 255 * a,
		a: a,
	}
}

func (c rgba) scale(k float64) rgba {
	return rgba{c.r * k, c.g * k, c.b * k, c.a * k}
}

func lerpRGBA(a, b rgba, t float64) rgba {
	return rgba{
		r: a.r + (b.r-a.r)*t,
		g: a.g + (b.g-a.g)*t,
		b: a.b + (b.b-a.b)*t,
		a: a.a + (b.a-a.a)*t,
	}
}

var transparent = rgba{}
