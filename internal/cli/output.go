package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/roach88/graft/internal/gateway"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // The documents or modules given are bad (invalid definition, unloadable module, failed transform)
	ExitCommandError = 2 // The invocation is bad (missing path or module, unreadable journal, bad flags)
)

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int    // ExitFailure or ExitCommandError
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// gatewayFailure is how a gateway error code is reported.
type gatewayFailure struct {
	code string
	exit int
}

// gatewayFailures maps gateway.GatewayError codes to CLI codes. A missing
// module is the caller's mistake; everything else is the module's.
var gatewayFailures = map[string]gatewayFailure{
	gateway.CodeNotFound:          {ErrCodeNotFound, ExitCommandError},
	gateway.CodeUnloadable:        {ErrCodeUnloadable, ExitFailure},
	gateway.CodeUnsupportedFormat: {ErrCodeUnloadable, ExitFailure},
	gateway.CodeTransformFailed:   {ErrCodeTransform, ExitFailure},
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // verbose diagnostics; defaults to Writer
	Verbose   bool
}

// CLIResponse is the envelope of every JSON response.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // "E001", "E002", etc.
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// Render outputs data in the JSON envelope, or calls text to write the
// human-readable form.
func (f *OutputFormatter) Render(data any, text func(w io.Writer) error) error {
	if f.Format == "json" {
		return f.encode(CLIResponse{Status: "ok", Data: data})
	}
	return text(f.Writer)
}

// Exports and paths are printed verbatim, so HTML escaping is off.
func (f *OutputFormatter) encode(resp CLIResponse) error {
	enc := json.NewEncoder(f.Writer)
	enc.SetEscapeHTML(false)
	return enc.Encode(resp)
}

// Error outputs an error in the configured format. In text form, details
// are listed only in verbose mode.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		return f.encode(CLIResponse{
			Status: "error",
			Error:  &CLIError{Code: code, Message: message, Details: details},
		})
	}

	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintln(f.Writer, "Details:")
		for _, line := range detailLines(details) {
			fmt.Fprintf(f.Writer, "  %s\n", line)
		}
	}
	return nil
}

// GatewayError reports a gateway failure under its CLI code and returns the
// matching ExitError. Errors that are not *gateway.GatewayError are generic
// failures.
func (f *OutputFormatter) GatewayError(err error) error {
	var gwErr *gateway.GatewayError
	if !errors.As(err, &gwErr) {
		_ = f.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitFailure, "gateway", err)
	}

	failure, ok := gatewayFailures[gwErr.Code]
	if !ok {
		failure = gatewayFailure{ErrCodeUnloadable, ExitFailure}
	}
	details := map[string]string{"identifier": gwErr.Identifier, "gateway_code": gwErr.Code}
	if gwErr.Path != "" {
		details["path"] = gwErr.Path
	}
	_ = f.Error(failure.code, gwErr.Error(), details)
	return WrapExitError(failure.exit, failure.code, err)
}

// detailLines renders string-keyed details as sorted "key: value" lines.
func detailLines(details any) []string {
	var lines []string
	switch d := details.(type) {
	case map[string]string:
		for k, v := range d {
			lines = append(lines, k+": "+v)
		}
	case map[string]any:
		for k, v := range d {
			lines = append(lines, fmt.Sprintf("%s: %v", k, v))
		}
	default:
		return []string{fmt.Sprint(details)}
	}
	slices.Sort(lines)
	return lines
}

// VerboseLog writes a diagnostic line when verbose mode is on. Diagnostics
// go to ErrWriter so JSON on Writer stays parseable.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	w := f.ErrWriter
	if w == nil {
		w = f.Writer
	}
	fmt.Fprintf(w, strings.TrimSuffix(format, "\n")+"\n", args...)
}
