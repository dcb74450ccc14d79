package config

import (
	"fmt"

	"reelforge/internal/captions"
)

// CaptionAppearance converts the captions section into the caption look used
// by the encoders and the drawtext chain.
func (c *Config) CaptionAppearance() (captions.Appearance, error) {
	look := captions.DefaultAppearance()
	look.FontName = c.Captions.FontName
	look.FontFile = c.Captions.FontFile
	if c.Captions.FontSize > 0 {
		look.FontSize = c.Captions.FontSize
	}
	for _, field := range []struct {
		key   string
		value string
		dst   *captions.Color
	}{
		{"captions.neutral_color", c.Captions.NeutralColor, &look.Neutral},
		{"captions.highlight_color", c.Captions.HighlightColor, &look.Highlight},
		{"captions.dim_color", c.Captions.DimColor, &look.Dim},
		{"captions.outline_color", c.Captions.OutlineColor, &look.Outline},
	} {
		color, err := captions.ParseColor(field.value)
		if err != nil {
			return captions.Appearance{}, fmt.Errorf("%s: %w", field.key, err)
		}
		*field.dst = color
	}
	return look, nil
}
