package storage

import (
	"fmt"

	"reelforge/internal/services"
)

// UploadError reports a failed blob upload.
type UploadError struct {
	Bucket string
	Object string
	Op     string
	Err    error
}

func (e *UploadError) Error() string {
	msg := fmt.Sprintf("upload gs://%s/%s: %s", e.Bucket, e.Object, e.Op)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *UploadError) Unwrap() []error {
	if e.Err == nil {
		return []error{services.ErrUpload}
	}
	return []error{services.ErrUpload, e.Err}
}

// ErrorKind implements services.ErrorClassifier.
func (e *UploadError) ErrorKind() string { return "upload" }
