package images

import (
	"fmt"

	"reelforge/internal/services"
)

// AssetErrorKind classifies image discovery failures.
type AssetErrorKind int

const (
	Discovery AssetErrorKind = iota
	UnparsableOrdinal
	DuplicateOrdinal
)

func (k AssetErrorKind) String() string {
	switch k {
	case UnparsableOrdinal:
		return "unparsable ordinal"
	case DuplicateOrdinal:
		return "duplicate ordinal"
	default:
		return "unreadable asset source"
	}
}

// AssetError reports an image source that cannot be turned into an ordered
// sequence.
type AssetError struct {
	Kind AssetErrorKind
	Path string
	Err  error
}

func (e *AssetError) Error() string {
	msg := fmt.Sprintf("image asset %s: %s", e.Kind, e.Path)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *AssetError) Unwrap() []error {
	if e.Err == nil {
		return []error{services.ErrAssetDiscovery}
	}
	return []error{services.ErrAssetDiscovery, e.Err}
}

// ErrorKind implements services.ErrorClassifier.
func (e *AssetError) ErrorKind() string { return "asset_discovery" }

// CountMismatchError reports that the number of images does not match the
// number of sentences.
type CountMismatchError struct {
	Images    int
	Sentences int
}

func (e *CountMismatchError) Error() string {
	return fmt.Sprintf("found %d images for %d sentences; counts must match", e.Images, e.Sentences)
}

func (e *CountMismatchError) Unwrap() error { return services.ErrCountMismatch }

// ErrorKind implements services.ErrorClassifier.
func (e *CountMismatchError) ErrorKind() string { return "count_mismatch" }

// SegmentError reports a sentence whose end does not advance past the
// previous sentence's end, which would give its image no screen time.
type SegmentError struct {
	Index    int
	Duration float64
}

func (e *SegmentError) Error() string {
	return fmt.Sprintf("segment %d has non-positive duration %g; sentence ends must strictly increase", e.Index, e.Duration)
}

func (e *SegmentError) Unwrap() error { return services.ErrValidation }

// ErrorKind implements services.ErrorClassifier.
func (e *SegmentError) ErrorKind() string { return "validation" }
