package errors

import (
	"fmt"
	"strings"
)

// FormatFallback records a cell that could not be interpreted and was
// replaced by its field default. Fallbacks are never returned as errors.
type FormatFallback struct {
	Row     int    `json:"row"`
	Field   string `json:"field"`
	Header  string `json:"header,omitempty"`
	Value   string `json:"value"`
	Default string `json:"default"`
}

// String returns a single-line description of the fallback
func (f FormatFallback) String() string {
	location := fmt.Sprintf("row %d", f.Row)
	if f.Header != "" {
		location += fmt.Sprintf(" column '%s'", f.Header)
	}
	return fmt.Sprintf("%s: %s value '%s' replaced by %s", location, f.Field, f.Value, f.Default)
}

// FallbackCollector collects format fallbacks during a batch. It keeps at
// most maxSamples entries but counts all of them.
type FallbackCollector struct {
	samples    []FormatFallback
	maxSamples int
	total      int
}

// NewFallbackCollector creates a new collector
func NewFallbackCollector(maxSamples int) *FallbackCollector {
	if maxSamples <= 0 {
		maxSamples = 50
	}
	return &FallbackCollector{
		samples:    make([]FormatFallback, 0),
		maxSamples: maxSamples,
	}
}

// Add records a fallback
func (c *FallbackCollector) Add(f FormatFallback) {
	if c == nil {
		return
	}
	c.total++
	if len(c.samples) < c.maxSamples {
		c.samples = append(c.samples, f)
	}
}

// Total returns the number of fallbacks recorded, including ones beyond the sample limit
func (c *FallbackCollector) Total() int {
	if c == nil {
		return 0
	}
	return c.total
}

// Samples returns the retained fallbacks in the order they were added
func (c *FallbackCollector) Samples() []FormatFallback {
	if c == nil {
		return nil
	}
	return c.samples
}

// FormatFallbacksForUser formats fallback samples for display. total counts
// every fallback, including ones not kept as samples.
func FormatFallbacksForUser(samples []FormatFallback, total int) string {
	if total == 0 {
		return "No format fallbacks"
	}

	var lines []string
	lines = append(lines, fmt.Sprintf("%d cell(s) used default values:", total))
	for _, f := range samples {
		lines = append(lines, "  - "+f.String())
	}
	if hidden := total - len(samples); hidden > 0 {
		lines = append(lines, fmt.Sprintf("  ... and %d more", hidden))
	}
	return strings.Join(lines, "\n")
}
