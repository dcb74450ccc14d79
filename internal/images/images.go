package images

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"reelforge/internal/transcript"
)

// DefaultPrefix is the file name prefix that marks slideshow images.
const DefaultPrefix = "image_"

// Asset is one discovered image file and its parsed ordinal.
type Asset struct {
	Ordinal int
	Path    string
}

// Slot is an image placed on the timeline: the Segment of one sentence.
type Slot struct {
	Index    int
	Ordinal  int
	Path     string
	Duration float64
}

// Discover lists regular files in dir whose names start with prefix and parses
// their ordinals. The result is unsorted; call Sequence to order it.
func Discover(dir, prefix string) ([]Asset, error) {
	if strings.TrimSpace(prefix) == "" {
		prefix = DefaultPrefix
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &AssetError{Kind: Discovery, Path: dir, Err: err}
	}
	assets := make([]Asset, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() || !strings.HasPrefix(entry.Name(), prefix) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		ordinal, err := ParseOrdinal(entry.Name())
		if err != nil {
			return nil, &AssetError{Kind: UnparsableOrdinal, Path: path, Err: err}
		}
		assets = append(assets, Asset{Ordinal: ordinal, Path: path})
	}
	return assets, nil
}

// ParseOrdinal extracts the numeric suffix following the last underscore of
// the file stem: "image_12.png" -> 12.
func ParseOrdinal(name string) (int, error) {
	base := filepath.Base(name)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	idx := strings.LastIndex(stem, "_")
	if idx < 0 || idx == len(stem)-1 {
		return 0, fmt.Errorf("no numeric suffix in %q", base)
	}
	suffix := stem[idx+1:]
	for _, r := range suffix {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("invalid numeric suffix in %q", base)
		}
	}
	n, err := strconv.Atoi(suffix)
	if err != nil {
		return 0, fmt.Errorf("invalid numeric suffix in %q", base)
	}
	return n, nil
}

// Sequence orders assets by ordinal and assigns each the duration of the
// sentence at the same position. The first slot starts at zero; every later
// slot starts where the previous sentence ended, so gaps between sentences
// are absorbed by the following image and the durations sum to the
// transcript's total duration.
func Sequence(assets []Asset, sentences []transcript.Sentence) ([]Slot, error) {
	if len(assets) != len(sentences) {
		return nil, &CountMismatchError{Images: len(assets), Sentences: len(sentences)}
	}
	sorted := make([]Asset, len(assets))
	copy(sorted, assets)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Ordinal < sorted[j].Ordinal })

	for i := 1; i < len(sorted); i++ {
		if sorted[i].Ordinal == sorted[i-1].Ordinal {
			return nil, &AssetError{
				Kind: DuplicateOrdinal,
				Path: sorted[i].Path,
				Err:  fmt.Errorf("ordinal %d also used by %s", sorted[i].Ordinal, sorted[i-1].Path),
			}
		}
	}

	slots := make([]Slot, len(sorted))
	prevEnd := 0.0
	for i, asset := range sorted {
		duration := sentences[i].End - prevEnd
		if duration <= 0 {
			return nil, &SegmentError{Index: i, Duration: duration}
		}
		slots[i] = Slot{
			Index:    i,
			Ordinal:  asset.Ordinal,
			Path:     asset.Path,
			Duration: duration,
		}
		prevEnd = sentences[i].End
	}
	return slots, nil
}

// TotalDuration sums the slot durations.
func TotalDuration(slots []Slot) float64 {
	var total float64
	for _, s := range slots {
		total += s.Duration
	}
	return total
}
