package reporter

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang-invoice-service/internal/invoice"
	"golang-invoice-service/internal/models"
)

// InvoiceDocument is the payload handed to a renderer for one invoice
type InvoiceDocument struct {
	BatchID     string                 `json:"batch_id"`
	GeneratedAt time.Time              `json:"generated_at"`
	Fields      []models.LabeledField  `json:"fields"`
	Merchant    models.MerchantProfile `json:"merchant"`
	Remarks     string                 `json:"remarks"`
	RowIndex    int                    `json:"row_index"`
}

// NewInvoiceDocument pairs a record with its labeled fields
func NewInvoiceDocument(result *invoice.BatchResult, record models.InvoiceRecord) InvoiceDocument {
	return InvoiceDocument{
		BatchID:     result.BatchID,
		GeneratedAt: result.GeneratedAt,
		Fields:      record.DocumentFields(),
		Merchant:    record.Merchant,
		Remarks:     record.Remarks,
		RowIndex:    record.RowIndex,
	}
}

// WriteDocuments writes one <filename>.json per record into dir and returns
// the paths written. Records sharing a filename get a _2, _3... suffix.
func WriteDocuments(result *invoice.BatchResult, dir string) ([]string, error) {
	if result == nil {
		return nil, fmt.Errorf("batch result cannot be nil")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	used := make(map[string]int, len(result.Records))
	paths := make([]string, 0, len(result.Records))

	for _, record := range result.Records {
		name := record.Filename
		used[name]++
		if n := used[name]; n > 1 {
			name = fmt.Sprintf("%s_%d", name, n)
		}

		data, err := json.MarshalIndent(NewInvoiceDocument(result, record), "", "  ")
		if err != nil {
			return paths, fmt.Errorf("failed to encode invoice %s: %w", record.InvoiceNumber, err)
		}

		path := filepath.Join(dir, name+".json")
		if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
			return paths, fmt.Errorf("failed to write invoice %s: %w", record.InvoiceNumber, err)
		}
		paths = append(paths, path)
	}

	return paths, nil
}
