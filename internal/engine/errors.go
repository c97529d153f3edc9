package engine

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors for the analysis taxonomy. Collaborators wrap these with
// fmt.Errorf("...: %w", ErrX) so callers can classify with errors.Is.
var (
	ErrInvalidIdentifier = errors.New("invalid video identifier")
	ErrNotFound          = errors.New("video not found")
	ErrQuotaExceeded     = errors.New("quota exceeded")
	ErrTransient         = errors.New("transient error")
	ErrFetch             = errors.New("page content fetch failed")
)

// ErrorKind is the stable, wire-visible classification of a failed analysis.
type ErrorKind string

const (
	KindInvalidIdentifier ErrorKind = "invalid_identifier"
	KindNotFound          ErrorKind = "not_found"
	KindQuotaExceeded     ErrorKind = "quota_exceeded"
	KindTransient         ErrorKind = "transient"
	KindFetch             ErrorKind = "fetch"
	KindTimeout           ErrorKind = "timeout"
	KindCanceled          ErrorKind = "canceled"
)

// KindOf classifies err. Unknown errors count as transient: the caller may
// retry the whole analysis.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidIdentifier):
		return KindInvalidIdentifier
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrQuotaExceeded):
		return KindQuotaExceeded
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(err, context.Canceled):
		return KindCanceled
	case errors.Is(err, ErrFetch):
		return KindFetch
	default:
		return KindTransient
	}
}

// AnalysisError is one failed item: the input it was given, the error kind
// and a human-readable message.
type AnalysisError struct {
	VideoID string    `json:"video_id"`
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`

	err error
}

// NewAnalysisError wraps err for the given input.
func NewAnalysisError(videoID string, err error) *AnalysisError {
	return &AnalysisError{
		VideoID: videoID,
		Kind:    KindOf(err),
		Message: err.Error(),
		err:     err,
	}
}

func (e *AnalysisError) Error() string {
	if e == nil {
		return "analysis error"
	}
	return fmt.Sprintf("%s: %s (%s)", e.VideoID, e.Message, e.Kind)
}

func (e *AnalysisError) Unwrap() error { return e.err }
