package transcript

import (
	"errors"
	"fmt"

	"reelforge/internal/services"
)

// ParseErrorKind distinguishes undecodable documents from incomplete ones.
type ParseErrorKind int

const (
	Malformed ParseErrorKind = iota
	MissingField
)

func (k ParseErrorKind) String() string {
	if k == MissingField {
		return "missing field"
	}
	return "malformed"
}

var errEmptySentences = errors.New("at least one sentence is required")

// ParseError reports a transcript that cannot be used for composition.
type ParseError struct {
	Kind  ParseErrorKind
	Field string
	Err   error
}

func (e *ParseError) Error() string {
	msg := "transcript " + e.Kind.String()
	if e.Field != "" {
		msg += fmt.Sprintf(" (%s)", e.Field)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the parse marker and the underlying cause.
func (e *ParseError) Unwrap() []error {
	if e.Err == nil {
		return []error{services.ErrParse}
	}
	return []error{services.ErrParse, e.Err}
}

// ErrorKind implements services.ErrorClassifier.
func (e *ParseError) ErrorKind() string { return "parse" }
