// Package ingesterr defines the sentinel error kinds shared across the
// ingestion service, following the teacher's fmt.Errorf("...: %w", err)
// wrapping convention rather than a custom error-code type.
package ingesterr

import "errors"

var (
	ErrConfig     = errors.New("config error")
	ErrAuth       = errors.New("auth error")
	ErrTransport  = errors.New("transport error")
	ErrNotFound   = errors.New("not found")
	ErrExtraction = errors.New("extraction error")
	ErrValidation = errors.New("validation error")
	ErrTransform  = errors.New("transform error")
	ErrPack       = errors.New("pack error")
	ErrControl    = errors.New("control error")
	ErrUpload     = errors.New("upload error")
	ErrCancelled  = errors.New("cancelled")
	ErrInternal   = errors.New("internal error")
)
