package invoice

import (
	"context"
	"runtime"
	"time"

	"golang-invoice-service/internal/merchant"
	"golang-invoice-service/internal/models"
	pipelineerrors "golang-invoice-service/pkg/errors"
	"golang-invoice-service/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultYieldEvery is how many rows are assembled between yields
const DefaultYieldEvery = 25

// BatchConfig holds options for batch generation
type BatchConfig struct {
	// Registry supplies merchant profiles. Defaults to the built-in registry.
	Registry *merchant.Registry

	// Overrides maps a profile id to a replacement invoice prefix
	Overrides map[string]string

	// YieldEvery controls how often the generator yields and checks for cancellation
	YieldEvery int

	// MaxFallbackSamples bounds the fallbacks kept in the result
	MaxFallbackSamples int

	// Now returns the generation time. Defaults to time.Now.
	Now func() time.Time
}

// DefaultBatchConfig returns a default batch configuration
func DefaultBatchConfig() *BatchConfig {
	return &BatchConfig{
		Registry:           merchant.DefaultRegistry(),
		Overrides:          map[string]string{},
		YieldEvery:         DefaultYieldEvery,
		MaxFallbackSamples: 50,
		Now:                time.Now,
	}
}

// BatchResult contains the records of one generation request
type BatchResult struct {
	BatchID     string                          `json:"batch_id"`
	GeneratedAt time.Time                       `json:"generated_at"`
	Records     []models.InvoiceRecord          `json:"records"`
	Summary     BatchSummary                    `json:"summary"`
	Fallbacks   []pipelineerrors.FormatFallback `json:"fallbacks,omitempty"`
}

// BatchSummary provides totals for a batch
type BatchSummary struct {
	TotalRecords   int             `json:"total_records"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	ByMerchant     map[string]int  `json:"by_merchant"`
	FallbackCount  int             `json:"fallback_count"`
	ProcessingTime time.Duration   `json:"processing_time"`
}

// BatchGenerator assembles records for a whole set of rows sequentially
type BatchGenerator struct {
	config *BatchConfig
	logger logger.Logger
}

// NewBatchGenerator creates a new batch generator
func NewBatchGenerator(config *BatchConfig) *BatchGenerator {
	if config == nil {
		config = DefaultBatchConfig()
	}
	if config.Registry == nil {
		config.Registry = merchant.DefaultRegistry()
	}
	if config.YieldEvery <= 0 {
		config.YieldEvery = DefaultYieldEvery
	}
	if config.Now == nil {
		config.Now = time.Now
	}

	return &BatchGenerator{
		config: config,
		logger: logger.WithComponent("batch_generator"),
	}
}

// Generate validates the selection, then assembles one record per row.
// Sequence numbers are 1-based positions within rows. The context is
// checked before the first row and then every YieldEvery rows; a cancelled
// context aborts the batch.
func (g *BatchGenerator) Generate(
	ctx context.Context,
	rows []models.Row,
	cls models.Classification,
	sel models.UserSelection,
) (*BatchResult, error) {
	if err := ValidateSelection(sel); err != nil {
		return nil, err
	}

	start := time.Now()
	fallbacks := pipelineerrors.NewFallbackCollector(g.config.MaxFallbackSamples)
	assembler := &Assembler{Now: g.config.Now, Fallbacks: fallbacks}

	result := &BatchResult{
		BatchID:     uuid.New().String(),
		GeneratedAt: g.config.Now(),
		Records:     make([]models.InvoiceRecord, 0, len(rows)),
		Summary: BatchSummary{
			TotalAmount: decimal.Zero,
			ByMerchant:  make(map[string]int),
		},
	}

	log := g.logger.WithField("batch_id", result.BatchID)
	tracker := logger.NewProgressTracker(logger.ProgressConfig{
		Operation: "generate_invoices",
		Total:     int64(len(rows)),
		LogEvery:  int64(g.config.YieldEvery * 10),
		Logger:    log,
	})

	for i, row := range rows {
		if i%g.config.YieldEvery == 0 {
			select {
			case <-ctx.Done():
				err := pipelineerrors.InternalError(pipelineerrors.CodeCancelled, "generate invoices", ctx.Err()).
					WithContext("processed", i)
				tracker.CompleteWithError(err)
				return nil, err
			default:
			}
			runtime.Gosched()
		}

		record := assembler.Assemble(row, cls, sel, i+1, g.config.Registry, g.config.Overrides)
		result.Records = append(result.Records, record)
		result.Summary.TotalAmount = result.Summary.TotalAmount.Add(record.Amount)
		result.Summary.ByMerchant[record.Merchant.ID]++
		tracker.Increment()
	}

	result.Summary.TotalRecords = len(result.Records)
	result.Summary.FallbackCount = fallbacks.Total()
	result.Summary.ProcessingTime = time.Since(start)
	result.Fallbacks = fallbacks.Samples()
	tracker.Complete()

	if fallbacks.Total() > 0 {
		log.WithField("fallbacks", fallbacks.Total()).Warn("Some cells fell back to defaults")
	}

	return result, nil
}
