package captions

import (
	"fmt"
	"strconv"
	"strings"
)

// Color is a 24-bit RGB caption colour.
type Color struct {
	R, G, B uint8
}

// ParseColor accepts "RRGGBB", "#RRGGBB", or "0xRRGGBB".
func ParseColor(value string) (Color, error) {
	v := strings.TrimSpace(value)
	v = strings.TrimPrefix(v, "#")
	v = strings.TrimPrefix(strings.TrimPrefix(v, "0x"), "0X")
	if len(v) != 6 {
		return Color{}, fmt.Errorf("invalid colour %q: want RRGGBB", value)
	}
	n, err := strconv.ParseUint(v, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("invalid colour %q: %w", value, err)
	}
	return Color{R: uint8(n >> 16), G: uint8(n >> 8), B: uint8(n)}, nil
}

// MustParseColor is ParseColor for compile-time constants.
func MustParseColor(value string) Color {
	c, err := ParseColor(value)
	if err != nil {
		panic(err)
	}
	return c
}

// Hex renders the colour as RRGGBB.
func (c Color) Hex() string {
	return fmt.Sprintf("%02X%02X%02X", c.R, c.G, c.B)
}

// Drawtext renders the colour in ffmpeg's 0xRRGGBB notation.
func (c Color) Drawtext() string {
	return "0x" + c.Hex()
}

// ASSStyle renders the colour for a style definition (&HAABBGGRR).
func (c Color) ASSStyle() string {
	return fmt.Sprintf("&H00%02X%02X%02X", c.B, c.G, c.R)
}

// ASSOverride renders the colour for an inline \c override (&HBBGGRR&).
func (c Color) ASSOverride() string {
	return fmt.Sprintf("&H%02X%02X%02X&", c.B, c.G, c.R)
}
