package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrParse          = errors.New("transcript parse error")
	ErrAssetDiscovery = errors.New("asset discovery error")
	ErrCountMismatch  = errors.New("count mismatch")
	ErrConfiguration  = errors.New("configuration error")
	ErrCompositor     = errors.New("compositor execution error")
	ErrUpload         = errors.New("upload error")
	ErrValidation     = errors.New("validation error")
)

// ErrorClassifier allows errors to declare their classification for status
// mapping and API responses.
type ErrorClassifier interface {
	ErrorKind() string
}

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later status classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrValidation
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Kind reports a stable classification string for err. Typed errors that
// implement ErrorClassifier win; otherwise the sentinel markers are consulted.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	var classifier ErrorClassifier
	if errors.As(err, &classifier) {
		return classifier.ErrorKind()
	}
	switch {
	case errors.Is(err, ErrParse):
		return "parse"
	case errors.Is(err, ErrAssetDiscovery):
		return "asset_discovery"
	case errors.Is(err, ErrCountMismatch):
		return "count_mismatch"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrCompositor):
		return "compositor"
	case errors.Is(err, ErrUpload):
		return "upload"
	case errors.Is(err, ErrValidation):
		return "validation"
	default:
		return "internal"
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
