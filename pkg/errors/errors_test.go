package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestPipelineError(t *testing.T) {
	tests := []struct {
		name       string
		category   ErrorCategory
		code       ErrorCode
		message    string
		cause      error
		expectCode int
		expectText string
	}{
		{
			name:       "format error",
			category:   CategoryFormat,
			code:       CodeUnsupportedFormat,
			message:    "unsupported",
			expectCode: 2,
			expectText: "unsupported",
		},
		{
			name:       "parse error with cause",
			category:   CategoryParse,
			code:       CodeCorruptWorkbook,
			message:    "corrupt",
			cause:      errors.New("zip: not a valid zip file"),
			expectCode: 3,
			expectText: "corrupt: zip: not a valid zip file",
		},
		{
			name:       "configuration error",
			category:   CategoryConfiguration,
			code:       CodeMissingSelection,
			message:    "missing rrn",
			expectCode: 4,
			expectText: "missing rrn",
		},
		{
			name:       "internal error",
			category:   CategoryInternal,
			code:       CodeCancelled,
			message:    "cancelled",
			cause:      errors.New("context canceled"),
			expectCode: 5,
			expectText: "cancelled: context canceled",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var err *PipelineError
			if tt.cause != nil {
				err = Wrap(tt.cause, tt.category, tt.code, tt.message)
			} else {
				err = New(tt.category, tt.code, tt.message)
			}

			if err.Category != tt.category {
				t.Errorf("expected category %s, got %s", tt.category, err.Category)
			}
			if err.Code != tt.code {
				t.Errorf("expected code %s, got %s", tt.code, err.Code)
			}
			if err.GetExitCode() != tt.expectCode {
				t.Errorf("expected exit code %d, got %d", tt.expectCode, err.GetExitCode())
			}
			if err.Error() != tt.expectText {
				t.Errorf("expected error string %q, got %q", tt.expectText, err.Error())
			}
			if tt.cause != nil && err.Unwrap() != tt.cause {
				t.Errorf("expected to unwrap to %v, got %v", tt.cause, err.Unwrap())
			}
			if len(err.StackTrace) == 0 {
				t.Error("expected stack trace to be captured")
			}
		})
	}
}

func TestPipelineErrorWithContext(t *testing.T) {
	err := New(CategoryInput, CodeEmptyInput, "test error").
		WithContext("source", "csv").
		WithContext("line", 42).
		WithSuggestion("check the file")

	if err.Context["source"] != "csv" {
		t.Errorf("expected source context 'csv', got %v", err.Context["source"])
	}
	if err.Context["line"] != 42 {
		t.Errorf("expected line context 42, got %v", err.Context["line"])
	}

	expected := "test error (suggestion: check the file)"
	if err.Error() != expected {
		t.Errorf("expected error string '%s', got '%s'", expected, err.Error())
	}
}

func TestSpecificErrorConstructors(t *testing.T) {
	t.Run("UnsupportedFormatError", func(t *testing.T) {
		err := UnsupportedFormatError("application/pdf")

		if err.Category != CategoryFormat {
			t.Errorf("expected format category, got %s", err.Category)
		}
		if err.Context["mime_hint"] != "application/pdf" {
			t.Errorf("expected mime_hint context, got %v", err.Context["mime_hint"])
		}
		if !strings.Contains(err.Message, "application/pdf") {
			t.Errorf("expected message to name the hint, got %s", err.Message)
		}
	})

	t.Run("EmptyInputError", func(t *testing.T) {
		err := EmptyInputError("csv")

		if err.Category != CategoryInput || err.Code != CodeEmptyInput {
			t.Errorf("expected input/empty_input, got %s/%s", err.Category, err.Code)
		}
		if err.Suggestion == "" {
			t.Error("expected suggestion to be set")
		}
	})

	t.Run("ParseError", func(t *testing.T) {
		cause := errors.New("unterminated quote")
		err := ParseError(CodeMalformedQuoting, 10, `"abc,def`, cause)

		if err.Category != CategoryParse {
			t.Errorf("expected parse category, got %s", err.Category)
		}
		if err.Context["line"] != 10 {
			t.Errorf("expected line context, got %v", err.Context["line"])
		}
		if err.Context["detail"] != `"abc,def` {
			t.Errorf("expected detail context, got %v", err.Context["detail"])
		}
		if err.Cause != cause {
			t.Errorf("expected cause to be %v, got %v", cause, err.Cause)
		}
		if !strings.Contains(err.Error(), "unterminated quote") {
			t.Errorf("expected underlying failure in message, got %s", err.Error())
		}
	})

	t.Run("ParseError without line", func(t *testing.T) {
		err := ParseError(CodeCorruptWorkbook, 0, "", nil)
		if _, ok := err.Context["line"]; ok {
			t.Error("expected no line context for workbook errors")
		}
	})

	t.Run("ConfigurationError", func(t *testing.T) {
		err := ConfigurationError(CodeMissingSelection, "rrn column", "", nil)

		if err.Category != CategoryConfiguration {
			t.Errorf("expected configuration category, got %s", err.Category)
		}
		if err.Context["setting"] != "rrn column" {
			t.Errorf("expected setting context, got %v", err.Context["setting"])
		}
	})

	t.Run("InternalError", func(t *testing.T) {
		err := InternalError(CodeCancelled, "batch generation", errors.New("context canceled"))
		if err.GetExitCode() != 5 {
			t.Errorf("expected exit code 5, got %d", err.GetExitCode())
		}
		if err.Context["operation"] != "batch generation" {
			t.Errorf("expected operation context, got %v", err.Context["operation"])
		}
	})
}

func TestAsPipelineError(t *testing.T) {
	pipelineErr := New(CategoryInput, CodeEmptyInput, "test")
	genericErr := errors.New("generic error")

	if extracted, ok := AsPipelineError(pipelineErr); !ok || extracted != pipelineErr {
		t.Error("expected AsPipelineError to extract PipelineError")
	}
	if _, ok := AsPipelineError(genericErr); ok {
		t.Error("expected AsPipelineError to return false for generic error")
	}
	if _, ok := AsPipelineError(nil); ok {
		t.Error("expected AsPipelineError to return false for nil")
	}

	wrapped := Wrap(pipelineErr, CategoryInternal, CodeUnexpectedError, "outer")
	if !IsCategory(wrapped, CategoryInternal) {
		t.Error("expected outer category to be found first")
	}
}

func TestWrapIfNeeded(t *testing.T) {
	pipelineErr := New(CategoryInput, CodeEmptyInput, "test")
	genericErr := errors.New("generic error")

	if result := WrapIfNeeded(pipelineErr, CategoryParse, CodeCorruptWorkbook, "wrapped"); result != pipelineErr {
		t.Error("expected WrapIfNeeded to return original PipelineError")
	}

	result := WrapIfNeeded(genericErr, CategoryParse, CodeCorruptWorkbook, "wrapped")
	if result.Cause != genericErr {
		t.Error("expected WrapIfNeeded to wrap generic error")
	}
	if result.Category != CategoryParse {
		t.Error("expected wrapped error to have correct category")
	}

	if WrapIfNeeded(nil, CategoryParse, CodeCorruptWorkbook, "wrapped") != nil {
		t.Error("expected WrapIfNeeded to return nil for nil input")
	}
}

func TestFallbackCollector(t *testing.T) {
	c := NewFallbackCollector(2)
	for i := 1; i <= 3; i++ {
		c.Add(FormatFallback{Row: i, Field: "amount", Header: "Amount", Value: "abc", Default: "0"})
	}

	if c.Total() != 3 {
		t.Errorf("expected total 3, got %d", c.Total())
	}
	if len(c.Samples()) != 2 {
		t.Errorf("expected 2 samples, got %d", len(c.Samples()))
	}

	text := FormatFallbacksForUser(c.Samples(), c.Total())
	if !strings.Contains(text, "row 1 column 'Amount'") {
		t.Errorf("expected first sample in output, got %q", text)
	}
	if !strings.Contains(text, "and 1 more") {
		t.Errorf("expected overflow line in output, got %q", text)
	}

	if FormatFallbacksForUser(nil, 0) != "No format fallbacks" {
		t.Errorf("unexpected empty output %q", FormatFallbacksForUser(nil, 0))
	}

	var nilCollector *FallbackCollector
	nilCollector.Add(FormatFallback{})
	if nilCollector.Total() != 0 {
		t.Error("expected nil collector to ignore additions")
	}
}
