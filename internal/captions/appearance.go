package captions

// Appearance holds the font and palette shared by every caption style.
type Appearance struct {
	FontName  string
	FontFile  string
	FontSize  int
	Neutral   Color
	Highlight Color
	Dim       Color
	Outline   Color
	// Frame dimensions the captions are laid out against.
	Width  int
	Height int
}

// DefaultAppearance mirrors the stock look: white words, yellow highlight,
// grey upcoming words on a 1080x1920 frame.
func DefaultAppearance() Appearance {
	return Appearance{
		FontName:  "Roboto",
		FontSize:  96,
		Neutral:   MustParseColor("FFFFFF"),
		Highlight: MustParseColor("FFFF00"),
		Dim:       MustParseColor("9E9E9E"),
		Outline:   MustParseColor("000000"),
		Width:     1080,
		Height:    1920,
	}
}

func (a Appearance) tone(t Tone) Color {
	switch t {
	case Highlight:
		return a.Highlight
	case Dim:
		return a.Dim
	default:
		return a.Neutral
	}
}
