package services

import (
	"errors"
	"fmt"
	"strings"

	"tuneshelf/internal/queue"
)

// Error markers classify failures across the ingest pipeline. They are matched
// with errors.Is after being attached through Wrap.
var (
	// ErrParse marks an intake name that does not follow the title###channel shape.
	ErrParse = errors.New("parse error")
	// ErrInference marks an unavailable or unparseable inference service.
	ErrInference = errors.New("inference error")
	// ErrWrite marks a codec write or round-trip verification mismatch.
	ErrWrite = errors.New("write error")
	// ErrMove marks an unwritable destination or a failed rename.
	ErrMove = errors.New("move error")
	// ErrValidation marks human input that fails the required-field rules.
	ErrValidation = errors.New("validation error")
	// ErrConfiguration marks missing or invalid configuration.
	ErrConfiguration = errors.New("configuration error")
	// ErrNotFound marks a missing record or file.
	ErrNotFound = errors.New("not found")
)

// Wrap builds an error message that includes component context while tagging it
// with the provided marker for later status classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrWrite
	}
	if err != nil {
		return &ServiceError{marker: marker, detail: detail, cause: err}
	}
	return &ServiceError{marker: marker, detail: detail}
}

// ServiceError carries a taxonomy marker, a human-readable detail and the
// underlying cause.
type ServiceError struct {
	marker error
	detail string
	cause  error
}

func (e *ServiceError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.marker, e.detail, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.marker, e.detail)
}

// Unwrap exposes both the marker and the cause to errors.Is / errors.As.
func (e *ServiceError) Unwrap() []error {
	if e.cause != nil {
		return []error{e.marker, e.cause}
	}
	return []error{e.marker}
}

// Kind returns the taxonomy marker.
func (e *ServiceError) Kind() error { return e.marker }

// Detail returns the message without the marker prefix or cause.
func (e *ServiceError) Detail() string { return e.detail }

// Message returns the user-facing text for err. Internal causes contribute their
// message text only.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		if svcErr.cause != nil {
			return svcErr.detail + ": " + svcErr.cause.Error()
		}
		return svcErr.detail
	}
	return err.Error()
}

// KindName returns a short machine-friendly label for the error's marker.
func KindName(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrParse):
		return "parse"
	case errors.Is(err, ErrInference):
		return "inference"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrMove):
		return "move"
	case errors.Is(err, ErrNotFound), errors.Is(err, queue.ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	default:
		return "write"
	}
}

// Details returns the kind label and user-facing message for err.
func Details(err error) (kind, message string) {
	return KindName(err), Message(err)
}

// FailureStatus maps a pipeline error to the item status that should be
// persisted after the failure.
func FailureStatus(err error) queue.Status {
	switch {
	case errors.Is(err, ErrParse), errors.Is(err, ErrInference):
		return queue.StatusNeedsManual
	default:
		return queue.StatusError
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
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
