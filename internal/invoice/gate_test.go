package invoice

import (
	"testing"

	"golang-invoice-service/internal/models"
	pipelineerrors "golang-invoice-service/pkg/errors"
)

func TestValidateSelection(t *testing.T) {
	tests := []struct {
		name    string
		sel     models.UserSelection
		wantErr bool
	}{
		{"merchant column", models.UserSelection{RRNColumn: "r", UPIColumn: "u", AmountColumn: "a", MerchantColumn: "m"}, false},
		{"manual prefix", models.UserSelection{RRNColumn: "r", UPIColumn: "u", AmountColumn: "a", ManualPrefix: "INV"}, false},
		{"missing rrn", models.UserSelection{UPIColumn: "u", AmountColumn: "a", MerchantColumn: "m"}, true},
		{"missing upi", models.UserSelection{RRNColumn: "r", AmountColumn: "a", MerchantColumn: "m"}, true},
		{"missing amount", models.UserSelection{RRNColumn: "r", UPIColumn: "u", MerchantColumn: "m"}, true},
		{"no merchant or prefix", models.UserSelection{RRNColumn: "r", UPIColumn: "u", AmountColumn: "a"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSelection(tt.sel)
			if (err != nil) != tt.wantErr {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
			if err == nil {
				return
			}
			pe, ok := pipelineerrors.AsPipelineError(err)
			if !ok {
				t.Fatalf("expected pipeline error, got %T", err)
			}
			if pe.Category != pipelineerrors.CategoryConfiguration || pe.Code != pipelineerrors.CodeMissingSelection {
				t.Errorf("expected configuration/missing_selection, got %s/%s", pe.Category, pe.Code)
			}
		})
	}
}

func TestValidateColumns(t *testing.T) {
	sel := models.UserSelection{RRNColumn: "RRN", UPIColumn: "UPI", AmountColumn: "Amt"}
	if err := ValidateColumns(sel, []string{"RRN", "UPI", "Amt"}); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if err := ValidateColumns(sel, []string{"RRN", "UPI"}); err == nil {
		t.Error("expected error for unknown column")
	}
}
