package captions

import (
	"fmt"
	"math"
)

// FormatSRTTime renders seconds as HH:MM:SS,mmm rounded to the nearest
// millisecond.
func FormatSRTTime(seconds float64) string {
	ms := roundUnits(seconds, 1000)
	return fmt.Sprintf("%02d:%02d:%02d,%03d",
		ms/3_600_000, (ms/60_000)%60, (ms/1000)%60, ms%1000)
}

// FormatASSTime renders seconds as H:MM:SS.CC rounded to the nearest
// centisecond.
func FormatASSTime(seconds float64) string {
	cs := roundUnits(seconds, 100)
	return fmt.Sprintf("%d:%02d:%02d.%02d",
		cs/360_000, (cs/6000)%60, (cs/100)%60, cs%100)
}

func roundUnits(seconds float64, perSecond float64) int64 {
	if seconds <= 0 || math.IsNaN(seconds) {
		return 0
	}
	return int64(math.Round(seconds * perSecond))
}
