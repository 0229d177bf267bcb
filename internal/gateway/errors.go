package gateway

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// ErrNotFound marks a module that does not exist at the probed location.
var ErrNotFound = errors.New("module not found")

// ErrUnsupportedFormat marks a module file with no registered loader.
var ErrUnsupportedFormat = errors.New("unsupported module format")

// Error codes carried by GatewayError.
const (
	CodeNotFound          = "NOT_FOUND"
	CodeUnloadable        = "UNLOADABLE"
	CodeTransformFailed   = "TRANSFORM_FAILED"
	CodeUnsupportedFormat = "UNSUPPORTED_FORMAT"
)

// GatewayError describes a failed resolution, load or override.
type GatewayError struct {
	Code       string
	Identifier string
	Path       string
	Err        error
}

func (e *GatewayError) Error() string {
	if e.Path != "" && e.Path != e.Identifier {
		return fmt.Sprintf("%s: module %q (%s): %v", e.Code, e.Identifier, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: module %q: %v", e.Code, e.Identifier, e.Err)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is or wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// classify wraps err in a GatewayError with a code derived from its cause.
func classify(id, path string, err error) error {
	var gwErr *GatewayError
	if errors.As(err, &gwErr) {
		return err
	}
	code := CodeUnloadable
	switch {
	case errors.Is(err, ErrNotFound):
		code = CodeNotFound
	case errors.Is(err, ErrUnsupportedFormat):
		code = CodeUnsupportedFormat
	}
	return &GatewayError{Code: code, Identifier: id, Path: path, Err: err}
}
