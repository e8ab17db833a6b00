package errors

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorCategory represents different categories of errors
type ErrorCategory string

const (
	CategoryFormat        ErrorCategory = "format"
	CategoryInput         ErrorCategory = "input"
	CategoryParse         ErrorCategory = "parse"
	CategoryConfiguration ErrorCategory = "configuration"
	CategoryInternal      ErrorCategory = "internal"
)

// ErrorCode represents specific error codes within categories
type ErrorCode string

const (
	// Format errors
	CodeUnsupportedFormat ErrorCode = "unsupported_format"

	// Input errors
	CodeEmptyInput      ErrorCode = "empty_input"
	CodeUnreadableInput ErrorCode = "unreadable_input"
	CodeUnknownColumn   ErrorCode = "unknown_column"

	// Parse errors
	CodeMalformedQuoting ErrorCode = "malformed_quoting"
	CodeCorruptWorkbook  ErrorCode = "corrupt_workbook"
	CodeEncodingError    ErrorCode = "encoding_error"

	// Configuration errors
	CodeMissingSelection ErrorCode = "missing_selection"
	CodeInvalidConfig    ErrorCode = "invalid_config"
	CodeMissingConfig    ErrorCode = "missing_config"

	// Internal errors
	CodeCancelled       ErrorCode = "cancelled"
	CodeUnexpectedError ErrorCode = "unexpected_error"
)

// PipelineError is the base error type for all application errors
type PipelineError struct {
	Category   ErrorCategory     `json:"category"`
	Code       ErrorCode         `json:"code"`
	Message    string            `json:"message"`
	Suggestion string            `json:"suggestion,omitempty"`
	Context    Context           `json:"context,omitempty"`
	Cause      error             `json:"-"`
	StackTrace errors.StackTrace `json:"-"`
}

// Context provides additional information about the error
type Context map[string]interface{}

// Error implements the error interface. The underlying cause is part of the
// message so callers see the parse failure verbatim.
func (e *PipelineError) Error() string {
	msg := e.Message
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	if e.Suggestion != "" {
		return fmt.Sprintf("%s (suggestion: %s)", msg, e.Suggestion)
	}
	return msg
}

// Unwrap returns the underlying cause error
func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// GetExitCode returns an appropriate exit code for the error
func (e *PipelineError) GetExitCode() int {
	switch e.Category {
	case CategoryFormat, CategoryInput:
		return 2
	case CategoryParse:
		return 3
	case CategoryConfiguration:
		return 4
	case CategoryInternal:
		return 5
	default:
		return 1
	}
}

// WithContext adds context information to the error
func (e *PipelineError) WithContext(key string, value interface{}) *PipelineError {
	if e.Context == nil {
		e.Context = make(Context)
	}
	e.Context[key] = value
	return e
}

// WithSuggestion adds a suggestion for fixing the error
func (e *PipelineError) WithSuggestion(suggestion string) *PipelineError {
	e.Suggestion = suggestion
	return e
}

// New creates a new PipelineError
func New(category ErrorCategory, code ErrorCode, message string) *PipelineError {
	return &PipelineError{
		Category:   category,
		Code:       code,
		Message:    message,
		StackTrace: errors.New("").(stackTracer).StackTrace(),
	}
}

// Wrap wraps an existing error with PipelineError context
func Wrap(err error, category ErrorCategory, code ErrorCode, message string) *PipelineError {
	if err == nil {
		return nil
	}

	return &PipelineError{
		Category:   category,
		Code:       code,
		Message:    message,
		Cause:      err,
		StackTrace: errors.WithStack(err).(stackTracer).StackTrace(),
	}
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}

func newOrWrap(err error, category ErrorCategory, code ErrorCode, message string) *PipelineError {
	if err != nil {
		return Wrap(err, category, code, message)
	}
	return New(category, code, message)
}

// UnsupportedFormatError is returned when a MIME hint names neither a
// delimited text nor a spreadsheet format.
func UnsupportedFormatError(mimeHint string) *PipelineError {
	return New(CategoryFormat, CodeUnsupportedFormat,
		fmt.Sprintf("unsupported file format: %q", mimeHint)).
		WithSuggestion("upload a CSV, XLSX or XLS file").
		WithContext("mime_hint", mimeHint)
}

// EmptyInputError is returned when a source yields no usable lines or rows.
func EmptyInputError(source string) *PipelineError {
	return New(CategoryInput, CodeEmptyInput,
		fmt.Sprintf("no data rows found in %s input", source)).
		WithSuggestion("check that the file is not empty and the first sheet holds the data").
		WithContext("source", source)
}

// ParseError creates a parsing-related error
func ParseError(code ErrorCode, line int, detail string, err error) *PipelineError {
	var message string
	var suggestion string

	switch code {
	case CodeMalformedQuoting:
		message = fmt.Sprintf("malformed quoting at line %d", line)
		suggestion = "close every quoted field and escape embedded quotes as \"\""
	case CodeCorruptWorkbook:
		message = "spreadsheet structure could not be read"
		suggestion = "re-save the workbook from a spreadsheet application and try again"
	case CodeEncodingError:
		message = fmt.Sprintf("encoding error at line %d", line)
		suggestion = "save the file in UTF-8 encoding"
	default:
		message = fmt.Sprintf("parse error at line %d", line)
		suggestion = "check the file format and data integrity"
	}

	result := newOrWrap(err, CategoryParse, code, message).WithSuggestion(suggestion)
	if line > 0 {
		result.WithContext("line", line)
	}
	if detail != "" {
		result.WithContext("detail", detail)
	}
	return result
}

// ConfigurationError creates a configuration-related error
func ConfigurationError(code ErrorCode, setting string, value interface{}, err error) *PipelineError {
	var message string
	var suggestion string

	switch code {
	case CodeMissingSelection:
		message = fmt.Sprintf("required selection missing: %s", setting)
		suggestion = "select the RRN, UPI and amount columns plus a merchant column or an invoice prefix"
	case CodeInvalidConfig:
		message = fmt.Sprintf("invalid configuration for '%s': %v", setting, value)
		suggestion = "check the configuration documentation for valid values"
	case CodeMissingConfig:
		message = fmt.Sprintf("missing required configuration: %s", setting)
		suggestion = "provide this configuration setting or use a config file"
	default:
		message = fmt.Sprintf("configuration error: %s", setting)
		suggestion = "check your configuration and try again"
	}

	return newOrWrap(err, CategoryConfiguration, code, message).
		WithSuggestion(suggestion).
		WithContext("setting", setting).
		WithContext("value", value)
}

// InternalError creates an internal error
func InternalError(code ErrorCode, operation string, err error) *PipelineError {
	var message string
	var suggestion string

	switch code {
	case CodeCancelled:
		message = fmt.Sprintf("%s cancelled", operation)
		suggestion = "run the operation again if it was stopped unintentionally"
	case CodeUnexpectedError:
		message = fmt.Sprintf("unexpected error during %s", operation)
		suggestion = "this is likely a bug - please report it with the error details"
	default:
		message = fmt.Sprintf("internal error during %s", operation)
		suggestion = "try again or contact support if the problem persists"
	}

	return newOrWrap(err, CategoryInternal, code, message).
		WithSuggestion(suggestion).
		WithContext("operation", operation)
}

// AsPipelineError extracts a PipelineError from an error chain
func AsPipelineError(err error) (*PipelineError, bool) {
	var pipelineErr *PipelineError
	if errors.As(err, &pipelineErr) {
		return pipelineErr, true
	}
	return nil, false
}

// IsCategory reports whether err carries a PipelineError of the given category.
func IsCategory(err error, category ErrorCategory) bool {
	if pipelineErr, ok := AsPipelineError(err); ok {
		return pipelineErr.Category == category
	}
	return false
}

// WrapIfNeeded wraps an error if it's not already a PipelineError
func WrapIfNeeded(err error, category ErrorCategory, code ErrorCode, message string) *PipelineError {
	if err == nil {
		return nil
	}
	if pipelineErr, ok := AsPipelineError(err); ok {
		return pipelineErr
	}
	return Wrap(err, category, code, message)
}
