// Package errdefs defines the error taxonomy shared by the conversion
// engine: validation failures (always terminal), conversion failures
// (transient or permanent, driving the retry policy) and scheduler failures
// (fatal to a whole run).
package errdefs

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// ValidationKind distinguishes input validation failures.
type ValidationKind string

const (
	FileNotFound     ValidationKind = "file_not_found"
	NotAFile         ValidationKind = "not_a_file"
	UnsupportedInput ValidationKind = "unsupported_input"
)

// ValidationError reports an input that never reaches a converter. It is
// terminal: the retry policy never retries a validation failure.
type ValidationError struct {
	Kind      ValidationKind
	Input     string
	Extension string // set for UnsupportedInput when the input had one
}

func (e *ValidationError) Error() string {
	switch e.Kind {
	case FileNotFound:
		return fmt.Sprintf("file not found: %s", e.Input)
	case NotAFile:
		return fmt.Sprintf("path is not a regular file: %s", e.Input)
	case UnsupportedInput:
		if e.Extension != "" {
			return fmt.Sprintf("unsupported input type %q: %s", e.Extension, e.Input)
		}
		return fmt.Sprintf("unsupported input: %s", e.Input)
	}
	return fmt.Sprintf("invalid input: %s", e.Input)
}

func NewFileNotFound(input string) *ValidationError {
	return &ValidationError{Kind: FileNotFound, Input: input}
}

func NewNotAFile(input string) *ValidationError {
	return &ValidationError{Kind: NotAFile, Input: input}
}

func NewUnsupportedInput(input, ext string) *ValidationError {
	return &ValidationError{Kind: UnsupportedInput, Input: input, Extension: ext}
}

// ErrorClass splits conversion failures into retryable and not.
type ErrorClass string

const (
	ClassTransient ErrorClass = "transient"
	ClassPermanent ErrorClass = "permanent"
)

// ConversionError wraps a converter failure with its retry class.
type ConversionError struct {
	Class ErrorClass
	Input string
	Err   error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("convert %s: %v (%s)", e.Input, e.Err, e.Class)
}

func (e *ConversionError) Unwrap() error { return e.Err }

// Transient wraps err as a retryable conversion failure.
func Transient(input string, err error) *ConversionError {
	return &ConversionError{Class: ClassTransient, Input: input, Err: err}
}

// Permanent wraps err as a conversion failure that retrying cannot fix.
func Permanent(input string, err error) *ConversionError {
	return &ConversionError{Class: ClassPermanent, Input: input, Err: err}
}

// Transientf is Transient with a formatted cause.
func Transientf(input, format string, args ...any) *ConversionError {
	return Transient(input, fmt.Errorf(format, args...))
}

// Permanentf is Permanent with a formatted cause.
func Permanentf(input, format string, args ...any) *ConversionError {
	return Permanent(input, fmt.Errorf(format, args...))
}

// IsTransient reports whether err is worth retrying. Anything that is not an
// explicitly transient ConversionError is treated as permanent, including
// validation errors.
func IsTransient(err error) bool {
	var ce *ConversionError
	if errors.As(err, &ce) {
		return ce.Class == ClassTransient
	}
	return false
}

// FromHTTPStatus maps a remote status code onto the taxonomy: 429 and 5xx
// are transient, every other 4xx is permanent.
func FromHTTPStatus(input string, status int) *ConversionError {
	if status == 429 || (status >= 500 && status < 600) {
		return Transientf(input, "http status %d", status)
	}
	return Permanentf(input, "http status %d", status)
}

// FromTransportError classifies a failed HTTP round trip. Timeouts, DNS
// failures and connection resets resolve themselves often enough to retry.
func FromTransportError(input string, err error) *ConversionError {
	if errors.Is(err, context.DeadlineExceeded) {
		return Transient(input, err)
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return Transient(input, err)
	}
	msg := strings.ToLower(err.Error())
	for _, pat := range []string{
		"timeout", "deadline exceeded", "connection refused",
		"connection reset", "no such host", "tls handshake", "eof",
	} {
		if strings.Contains(msg, pat) {
			return Transient(input, err)
		}
	}
	return Permanent(input, err)
}

// SchedulerError is an internal failure preparing or running the worker pool
// itself. It fails the whole run and is never embedded in a summary.
type SchedulerError struct {
	Reason string
	Err    error
}

func (e *SchedulerError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("scheduler: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("scheduler: %s", e.Reason)
}

func (e *SchedulerError) Unwrap() error { return e.Err }
