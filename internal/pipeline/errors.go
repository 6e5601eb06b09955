package pipeline

import (
	"errors"
	"fmt"

	"github.com/ironsheep/tooltip-ocr/internal/imaging"
)

// ErrorCode classifies pipeline failures.
type ErrorCode string

const (
	ErrorImageUnreadable ErrorCode = "IMAGE_UNREADABLE"
	ErrorNoTooltip       ErrorCode = "NO_TOOLTIP"
	ErrorOCRFailed       ErrorCode = "OCR_FAILED"
)

var (
	// ErrUnreadableImage matches files that exist but cannot be decoded.
	ErrUnreadableImage = imaging.ErrUnreadable

	// ErrNoTooltip is returned when the screenshot is too small to hold the
	// tooltip region.
	ErrNoTooltip = errors.New("no tooltip region")
)

// ProcessingError is the error type returned by Pipeline methods.
type ProcessingError struct {
	Code    ErrorCode
	Message string
	Path    string // empty for in-memory images
	Cause   error
}

func (e *ProcessingError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Path != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Path)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s (caused by: %v)", msg, e.Cause)
	}
	return msg
}

func (e *ProcessingError) Unwrap() error {
	return e.Cause
}

func newUnreadableError(path string, cause error) *ProcessingError {
	return &ProcessingError{
		Code:    ErrorImageUnreadable,
		Message: "failed to read image",
		Path:    path,
		Cause:   cause,
	}
}

func newNoTooltipError(width, height int) *ProcessingError {
	return &ProcessingError{
		Code:    ErrorNoTooltip,
		Message: fmt.Sprintf("image %dx%d has no room for the tooltip region", width, height),
		Cause:   ErrNoTooltip,
	}
}

func newOCRFailedError(cause error) *ProcessingError {
	return &ProcessingError{
		Code:    ErrorOCRFailed,
		Message: "text recognition failed",
		Cause:   cause,
	}
}

// CodeOf returns the ErrorCode of the first ProcessingError in err's chain,
// or "" when there is none.
func CodeOf(err error) ErrorCode {
	var pe *ProcessingError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}
