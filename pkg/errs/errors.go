// Package errs defines the error kinds reported by the CSV writer packages.
// Both kinds match their sentinel with errors.Is, so callers can branch on the
// kind without inspecting messages.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration indicates an invalid writer configuration: bad header,
	// unsupported encoding, bad delimiter or missing path.
	ErrConfiguration = errors.New("invalid configuration")

	// ErrIO indicates the target file could not be created, opened or written.
	ErrIO = errors.New("i/o failure")
)

// ConfigurationError describes which option was rejected and why.
type ConfigurationError struct {
	Field  string
	Reason string
}

// Configuration builds a ConfigurationError with a formatted reason.
func Configuration(field string, format string, args ...interface{}) *ConfigurationError {
	return &ConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", ErrConfiguration, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", ErrConfiguration, e.Field, e.Reason)
}

// Is reports whether target is ErrConfiguration.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// IOError wraps a file-system failure with the operation and path involved.
type IOError struct {
	Op   string
	Path string
	Err  error
}

// IO wraps err as an IOError. A nil err yields nil.
func IO(op, path string, err error) error {
	if err == nil {
		return nil
	}
	return &IOError{Op: op, Path: path, Err: err}
}

func (e *IOError) Error() string {
	return fmt.Sprintf("failed to %s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying cause.
func (e *IOError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrIO.
func (e *IOError) Is(target error) bool {
	return target == ErrIO
}
