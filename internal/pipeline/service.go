// Package pipeline coordinates the invoice workflow.
//
// A request moves through three explicit steps, each a pure function of its
// inputs:
//   - Load: raw upload bytes to a Table plus its column Classification
//   - Analyze: duplicate groups over a chosen key column
//   - Generate: the precondition gate, row filtering and batch assembly
//
// Nothing is cached between steps; callers hold the Dataset and pass it back.
//
// Example usage:
//
//	service, err := pipeline.NewService(pipeline.DefaultConfig())
//	dataset, err := service.LoadFile("settlements.xlsx", "")
//	result, err := service.Generate(ctx, dataset, &pipeline.GenerateRequest{
//		Selection: models.UserSelection{RRNColumn: "RRN", UPIColumn: "Payer VPA", AmountColumn: "Amount", ManualPrefix: "INV"},
//	})
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang-invoice-service/internal/classifier"
	"golang-invoice-service/internal/duplicates"
	"golang-invoice-service/internal/ingest"
	"golang-invoice-service/internal/invoice"
	"golang-invoice-service/internal/merchant"
	"golang-invoice-service/internal/models"
	pipelineerrors "golang-invoice-service/pkg/errors"
	"golang-invoice-service/pkg/logger"
)

// Config holds configuration options for the pipeline service
type Config struct {
	Ingest *ingest.Config

	// Registry supplies merchant profiles. Defaults to the built-in registry.
	Registry *merchant.Registry

	// Tenant selects whose pattern table classifies columns. Empty means
	// the registry default.
	Tenant string

	// Patterns, when set, replaces the registry's pattern table
	Patterns classifier.PatternTable

	// Overrides maps a profile id to a replacement invoice prefix
	Overrides map[string]string

	// YieldEvery controls how often batch generation yields
	YieldEvery int
}

// DefaultConfig returns a default configuration for the pipeline service
func DefaultConfig() *Config {
	return &Config{
		Ingest:     ingest.DefaultConfig(),
		Registry:   merchant.DefaultRegistry(),
		Overrides:  map[string]string{},
		YieldEvery: invoice.DefaultYieldEvery,
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.YieldEvery <= 0 {
		return pipelineerrors.ConfigurationError(pipelineerrors.CodeInvalidConfig, "yield every", c.YieldEvery,
			fmt.Errorf("yield interval must be positive"))
	}
	if c.Registry != nil && c.Tenant != "" {
		if _, ok := c.Registry.Lookup(c.Tenant); !ok {
			return pipelineerrors.ConfigurationError(pipelineerrors.CodeInvalidConfig, "tenant", c.Tenant,
				fmt.Errorf("tenant is not in the merchant registry"))
		}
	}
	if err := c.Patterns.Validate(); err != nil {
		return pipelineerrors.ConfigurationError(pipelineerrors.CodeInvalidConfig, "patterns", "", err)
	}
	return nil
}

// Dataset is a loaded upload together with its classification
type Dataset struct {
	Source         string                `json:"source"`
	Table          *models.Table         `json:"table"`
	Classification models.Classification `json:"classification"`
}

// Analysis summarises a dataset for display
type Analysis struct {
	Source         string                      `json:"source"`
	Headers        []string                    `json:"headers"`
	RowCount       int                         `json:"row_count"`
	Classification models.Classification       `json:"classification"`
	Duplicates     *duplicates.DetectionResult `json:"duplicates,omitempty"`
}

// GenerateRequest describes one generation request
type GenerateRequest struct {
	Selection models.UserSelection
	Rows      invoice.RowFilter
}

// Service runs the load, analyze and generate steps
type Service struct {
	config     *Config
	ingestor   *ingest.FileIngestor
	classifier *classifier.ColumnClassifier
	generator  *invoice.BatchGenerator
	logger     logger.Logger
}

// NewService creates a new pipeline service
func NewService(config *Config) (*Service, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Registry == nil {
		config.Registry = merchant.DefaultRegistry()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	patterns := config.Patterns
	if patterns == nil {
		tenant := config.Tenant
		if tenant == "" {
			tenant = config.Registry.DefaultID()
		}
		patterns = config.Registry.PatternsFor(tenant)
	}

	batchConfig := invoice.DefaultBatchConfig()
	batchConfig.Registry = config.Registry
	batchConfig.Overrides = config.Overrides
	batchConfig.YieldEvery = config.YieldEvery

	return &Service{
		config:     config,
		ingestor:   ingest.NewFileIngestor(config.Ingest),
		classifier: classifier.New(patterns),
		generator:  invoice.NewBatchGenerator(batchConfig),
		logger:     logger.WithComponent("pipeline"),
	}, nil
}

// Registry returns the merchant registry in use
func (s *Service) Registry() *merchant.Registry {
	return s.config.Registry
}

// LoadFile reads path and loads it. Without a MIME hint the file extension
// is used as the hint.
func (s *Service) LoadFile(path, mimeHint string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, pipelineerrors.Wrap(err, pipelineerrors.CategoryInput, pipelineerrors.CodeUnreadableInput,
			"failed to read input file").
			WithContext("file", path).
			WithSuggestion("Check that the file exists and is readable")
	}
	if mimeHint == "" {
		mimeHint = filepath.Ext(path)
	}
	return s.Load(data, mimeHint, path)
}

// Load ingests data and classifies its columns
func (s *Service) Load(data []byte, mimeHint, source string) (*Dataset, error) {
	op := logger.NewOperationLogger("load", s.logger).
		WithField("source", source).
		WithField("bytes", len(data))

	table, err := s.ingestor.Ingest(data, mimeHint)
	if err != nil {
		op.Error(err, "Failed to ingest upload")
		return nil, err
	}
	op.Step("ingested")

	// Sniffing stops after enough non-empty values per header, so it gets
	// every row rather than a fixed leading window.
	cls := s.classifier.Classify(table.Headers, table.Rows)
	op.WithField("rows", len(table.Rows)).
		WithField("roles_detected", len(cls)).
		Success("Upload loaded")

	return &Dataset{
		Source:         source,
		Table:          table,
		Classification: cls,
	}, nil
}

// Analyze reports the dataset's shape and, when keyColumn is set, its duplicate groups
func (s *Service) Analyze(dataset *Dataset, keyColumn string) (*Analysis, error) {
	analysis := &Analysis{
		Source:         dataset.Source,
		Headers:        dataset.Table.Headers,
		RowCount:       len(dataset.Table.Rows),
		Classification: dataset.Classification,
	}
	if keyColumn == "" {
		return analysis, nil
	}

	if !hasHeader(dataset.Table.Headers, keyColumn) {
		return nil, pipelineerrors.New(pipelineerrors.CategoryInput, pipelineerrors.CodeUnknownColumn,
			fmt.Sprintf("duplicate key column '%s' not found", keyColumn)).
			WithContext("available_headers", strings.Join(dataset.Table.Headers, ", "))
	}
	analysis.Duplicates = duplicates.Detect(dataset.Table.Rows, keyColumn)

	s.logger.WithFields(logger.Fields{
		"key_column":     keyColumn,
		"groups":         len(analysis.Duplicates.Groups),
		"duplicate_rows": analysis.Duplicates.DuplicateRows,
	}).Debug("Duplicate scan complete")

	return analysis, nil
}

func hasHeader(headers []string, name string) bool {
	for _, h := range headers {
		if h == name {
			return true
		}
	}
	return false
}

// Generate builds invoice records for the dataset. The selection is checked
// before any row is touched; a failing check aborts the request.
func (s *Service) Generate(ctx context.Context, dataset *Dataset, request *GenerateRequest) (*invoice.BatchResult, error) {
	if request == nil {
		return nil, pipelineerrors.ConfigurationError(pipelineerrors.CodeMissingSelection, "generate request", nil, nil)
	}
	if err := invoice.ValidateSelection(request.Selection); err != nil {
		return nil, err
	}
	if err := invoice.ValidateColumns(request.Selection, dataset.Table.Headers); err != nil {
		return nil, err
	}

	rows := request.Rows.Apply(dataset.Table.Rows)
	if len(rows) == 0 {
		return nil, pipelineerrors.EmptyInputError("row selection").
			WithSuggestion("Check the --rows ranges against the row indexes shown by inspect")
	}

	var result *invoice.BatchResult
	err := logger.TimedOperation("generate", s.logger.WithField("rows", len(rows)), func() error {
		var genErr error
		result, genErr = s.generator.Generate(ctx, rows, dataset.Classification, request.Selection)
		return genErr
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
