package invoice

import (
	"context"
	"fmt"
	"testing"
	"time"

	"golang-invoice-service/internal/models"
	pipelineerrors "golang-invoice-service/pkg/errors"

	"github.com/shopspring/decimal"
)

func buildRows(n int) []models.Row {
	rows := make([]models.Row, 0, n)
	for i := 1; i <= n; i++ {
		rows = append(rows, models.NewRow(i, map[string]models.CellValue{
			"RRN":      models.Text(fmt.Sprintf("R%d", i)),
			"UPI":      models.Text(fmt.Sprintf("user%d@upi", i)),
			"Amount":   models.Number(float64(i)),
			"Merchant": models.Text("auxford"),
		}))
	}
	return rows
}

func batchSelection() models.UserSelection {
	return models.UserSelection{RRNColumn: "RRN", UPIColumn: "UPI", AmountColumn: "Amount", MerchantColumn: "Merchant"}
}

func TestBatchGenerate(t *testing.T) {
	config := DefaultBatchConfig()
	config.Now = func() time.Time { return fixedNow }
	generator := NewBatchGenerator(config)

	result, err := generator.Generate(context.Background(), buildRows(60), models.Classification{}, batchSelection())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Records) != 60 {
		t.Fatalf("expected 60 records, got %d", len(result.Records))
	}
	if result.Records[0].InvoiceNumber != "AUX001" || result.Records[59].InvoiceNumber != "AUX060" {
		t.Errorf("unexpected sequence %s..%s", result.Records[0].InvoiceNumber, result.Records[59].InvoiceNumber)
	}
	if result.BatchID == "" {
		t.Error("expected batch id")
	}
	if !result.Summary.TotalAmount.Equal(decimal.NewFromInt(1830)) {
		t.Errorf("expected total 1830, got %s", result.Summary.TotalAmount)
	}
	if result.Summary.ByMerchant["auxford"] != 60 {
		t.Errorf("expected 60 auxford records, got %d", result.Summary.ByMerchant["auxford"])
	}
	if !result.GeneratedAt.Equal(fixedNow) {
		t.Errorf("expected generated at %v, got %v", fixedNow, result.GeneratedAt)
	}
}

func TestBatchSequenceCountsFilteredRows(t *testing.T) {
	filter, err := ParseRowFilter("5-6")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rows := filter.Apply(buildRows(10))

	result, err := NewBatchGenerator(nil).Generate(context.Background(), rows, models.Classification{}, batchSelection())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Records[0].InvoiceNumber != "AUX001" || result.Records[0].RowIndex != 5 {
		t.Errorf("expected first filtered row to be AUX001 for row 5, got %s for row %d",
			result.Records[0].InvoiceNumber, result.Records[0].RowIndex)
	}
}

func TestBatchGateBlocksRequest(t *testing.T) {
	sel := batchSelection()
	sel.AmountColumn = ""

	result, err := NewBatchGenerator(nil).Generate(context.Background(), buildRows(3), models.Classification{}, sel)
	if err == nil {
		t.Fatal("expected configuration error")
	}
	if result != nil {
		t.Error("expected no partial result")
	}
	if !pipelineerrors.IsCategory(err, pipelineerrors.CategoryConfiguration) {
		t.Errorf("expected configuration category, got %v", err)
	}
}

func TestBatchCancellation(t *testing.T) {
	tests := []struct {
		name       string
		rows       int
		yieldEvery int
	}{
		{"long batch", 20, 5},
		{"batch shorter than the yield interval", 3, DefaultYieldEvery},
		{"single row", 1, DefaultYieldEvery},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			config := DefaultBatchConfig()
			config.YieldEvery = tt.yieldEvery
			result, err := NewBatchGenerator(config).Generate(ctx, buildRows(tt.rows), models.Classification{}, batchSelection())

			if result != nil {
				t.Error("expected no partial result")
			}
			pe, ok := pipelineerrors.AsPipelineError(err)
			if !ok {
				t.Fatalf("expected pipeline error, got %v", err)
			}
			if pe.Code != pipelineerrors.CodeCancelled {
				t.Errorf("expected cancelled code, got %s", pe.Code)
			}
			if pe.Context["processed"] != 0 {
				t.Errorf("expected no rows processed, got %v", pe.Context["processed"])
			}
		})
	}
}

func TestBatchCollectsFallbacks(t *testing.T) {
	rows := buildRows(2)
	rows[1] = models.NewRow(2, map[string]models.CellValue{
		"RRN":    models.Text("R2"),
		"UPI":    models.Text("x@upi"),
		"Amount": models.Text("n/a"),
	})

	result, err := NewBatchGenerator(nil).Generate(context.Background(), rows, models.Classification{}, batchSelection())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Summary.FallbackCount != 1 || len(result.Fallbacks) != 1 {
		t.Fatalf("expected 1 fallback, got %d", result.Summary.FallbackCount)
	}
	if result.Fallbacks[0].Row != 2 || result.Fallbacks[0].Field != "amount" {
		t.Errorf("unexpected fallback %+v", result.Fallbacks[0])
	}
	if !result.Records[1].Amount.IsZero() {
		t.Errorf("expected zero amount, got %s", result.Records[1].Amount)
	}
}
