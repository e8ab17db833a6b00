package invoice

import (
	"fmt"
	"strings"

	"golang-invoice-service/internal/models"
	pipelineerrors "golang-invoice-service/pkg/errors"
)

// ValidateSelection checks the generation precondition: RRN, UPI and amount
// columns are selected, and either a merchant column or a manual invoice
// prefix is given. A failure blocks the whole request.
func ValidateSelection(sel models.UserSelection) error {
	missing := sel.Missing()
	if len(missing) == 0 {
		return nil
	}

	return pipelineerrors.ConfigurationError(
		pipelineerrors.CodeMissingSelection,
		strings.Join(missing, ", "),
		"",
		fmt.Errorf("generation requires %d more selection(s)", len(missing)),
	)
}

// ValidateColumns checks that every selected column exists in headers
func ValidateColumns(sel models.UserSelection, headers []string) error {
	unknown := sel.UnknownColumns(headers)
	if len(unknown) == 0 {
		return nil
	}

	return pipelineerrors.ConfigurationError(
		pipelineerrors.CodeInvalidConfig,
		"selected columns",
		strings.Join(unknown, ", "),
		fmt.Errorf("columns not found in file"),
	).WithContext("available_headers", strings.Join(headers, ", "))
}
