package captions

import (
	"strconv"
	"strings"
)

// EncodeSRT serializes events as a sequential-index SubRip track.
func EncodeSRT(events []Event) []byte {
	var b strings.Builder
	for i, ev := range events {
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteByte('\n')
		b.WriteString(FormatSRTTime(ev.Start))
		b.WriteString(" --> ")
		b.WriteString(FormatSRTTime(ev.End))
		b.WriteByte('\n')
		b.WriteString(singleLine(ev.Text()))
		b.WriteString("\n\n")
	}
	return []byte(b.String())
}
