package captions

import (
	"fmt"
	"strings"
)

// EncodeASS serializes events as an Advanced SubStation Alpha script with one
// Default style. Each run carries an inline colour override for its tone.
func EncodeASS(events []Event, look Appearance) []byte {
	var b strings.Builder
	b.WriteString(assHeader(look))
	b.WriteString("\n[Events]\n")
	b.WriteString("Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n")
	for _, ev := range events {
		b.WriteString("Dialogue: 0,")
		b.WriteString(FormatASSTime(ev.Start))
		b.WriteByte(',')
		b.WriteString(FormatASSTime(ev.End))
		b.WriteString(",Default,,0,0,0,,")
		b.WriteString(assMarkup(ev.Runs, look))
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

func assMarkup(runs []Run, look Appearance) string {
	var b strings.Builder
	for i, r := range runs {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(`{\c`)
		b.WriteString(look.tone(r.Tone).ASSOverride())
		b.WriteByte('}')
		b.WriteString(sanitizeASS(r.Text))
	}
	return b.String()
}

func assHeader(look Appearance) string {
	fontName := strings.TrimSpace(look.FontName)
	if fontName == "" {
		fontName = "Arial"
	}
	var b strings.Builder
	b.WriteString("[Script Info]\n")
	b.WriteString("ScriptType: v4.00+\n")
	fmt.Fprintf(&b, "PlayResX: %d\n", look.Width)
	fmt.Fprintf(&b, "PlayResY: %d\n", look.Height)
	b.WriteString("WrapStyle: 0\n")
	b.WriteString("ScaledBorderAndShadow: yes\n")
	b.WriteString("\n[V4+ Styles]\n")
	b.WriteString("Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding\n")
	fmt.Fprintf(&b, "Style: Default,%s,%d,%s,%s,%s,&H80000000,-1,0,0,0,100,100,0,0,1,4,2,5,60,60,0,1\n",
		fontName, look.FontSize,
		look.Neutral.ASSStyle(), look.Highlight.ASSStyle(), look.Outline.ASSStyle())
	return b.String()
}
