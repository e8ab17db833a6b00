package config

import (
	"fmt"
	"strings"

	"golang-invoice-service/internal/classifier"
	"golang-invoice-service/internal/merchant"
	"golang-invoice-service/internal/models"
	"golang-invoice-service/internal/pipeline"
	"golang-invoice-service/internal/reporter"
	pipelineerrors "golang-invoice-service/pkg/errors"
	"golang-invoice-service/pkg/logger"
)

// CreateLoggerConfig creates a logger configuration for the CLI
func CreateLoggerConfig(verbose bool, format string) (*logger.Config, error) {
	config := logger.DefaultConfig()
	if verbose {
		config = logger.DebugConfig()
	}

	if format != "" {
		config.Format = logger.Format(strings.ToLower(format))
	}

	if err := config.Validate(); err != nil {
		return nil, pipelineerrors.ConfigurationError(pipelineerrors.CodeInvalidConfig, "log-format", format, err)
	}
	return config, nil
}

// CreateRegistry loads the merchant registry at path, or the built-in one when path is empty
func CreateRegistry(path string) (*merchant.Registry, error) {
	if strings.TrimSpace(path) == "" {
		return merchant.DefaultRegistry(), nil
	}
	return merchant.LoadRegistry(path)
}

// CreatePatterns loads a pattern table from path. An empty path returns nil
// so the registry's tenant patterns apply.
func CreatePatterns(path string) (classifier.PatternTable, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	return classifier.LoadPatterns(path)
}

// ParsePrefixOverrides parses values of the form id=PREFIX
func ParsePrefixOverrides(values []string) (map[string]string, error) {
	overrides := make(map[string]string, len(values))

	for _, value := range values {
		id, prefix, ok := strings.Cut(value, "=")
		id = strings.ToLower(strings.TrimSpace(id))
		prefix = strings.TrimSpace(prefix)
		if !ok || id == "" || prefix == "" {
			return nil, pipelineerrors.ConfigurationError(pipelineerrors.CodeInvalidConfig, "prefix-override", value,
				fmt.Errorf("expected id=PREFIX")).
				WithSuggestion("Use --prefix-override auxford=AUXB")
		}
		overrides[id] = prefix
	}

	return overrides, nil
}

// CreatePipelineConfig creates a pipeline configuration. Every override must
// name a profile in the registry.
func CreatePipelineConfig(
	registry *merchant.Registry,
	patterns classifier.PatternTable,
	tenant string,
	overrides map[string]string,
) (*pipeline.Config, error) {
	for id := range overrides {
		if _, ok := registry.Lookup(id); !ok {
			return nil, pipelineerrors.ConfigurationError(pipelineerrors.CodeInvalidConfig, "prefix-override", id,
				fmt.Errorf("unknown merchant id")).
				WithSuggestion("Run 'invoicer merchants' to list the available merchant ids")
		}
	}

	config := pipeline.DefaultConfig()
	config.Registry = registry
	config.Patterns = patterns
	config.Tenant = strings.ToLower(strings.TrimSpace(tenant))
	if overrides != nil {
		config.Overrides = overrides
	}

	return config, nil
}

// CreateSelection creates the explicit column selection from flag values
func CreateSelection(rrn, upi, amount, merchantColumn, prefix string) models.UserSelection {
	return models.UserSelection{
		RRNColumn:      strings.TrimSpace(rrn),
		UPIColumn:      strings.TrimSpace(upi),
		AmountColumn:   strings.TrimSpace(amount),
		MerchantColumn: strings.TrimSpace(merchantColumn),
		ManualPrefix:   strings.TrimSpace(prefix),
	}
}

// CreateReportConfig creates a report configuration for the given output format
func CreateReportConfig(outputFormat string, verbose bool) (*reporter.ReportConfig, error) {
	config := reporter.DefaultReportConfig()
	config.Format = reporter.OutputFormat(strings.ToLower(outputFormat))
	config.IncludeMerchantDetails = verbose

	if config.Format != reporter.FormatConsole {
		config.MaxConsoleItems = 0
	}

	if err := config.Validate(); err != nil {
		return nil, pipelineerrors.ConfigurationError(pipelineerrors.CodeInvalidConfig, "output-format", outputFormat, err).
			WithSuggestion("Valid formats: console, json, csv")
	}
	return config, nil
}
