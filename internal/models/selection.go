package models

// UserSelection holds the columns the user picked explicitly. An empty
// string means the column was not selected.
type UserSelection struct {
	RRNColumn      string `json:"rrn_column,omitempty" mapstructure:"rrn_column"`
	UPIColumn      string `json:"upi_column,omitempty" mapstructure:"upi_column"`
	AmountColumn   string `json:"amount_column,omitempty" mapstructure:"amount_column"`
	MerchantColumn string `json:"merchant_column,omitempty" mapstructure:"merchant_column"`
	ManualPrefix   string `json:"manual_prefix,omitempty" mapstructure:"invoice_prefix"`
}

// Missing lists the required selections that are not set
func (s UserSelection) Missing() []string {
	var missing []string
	if s.RRNColumn == "" {
		missing = append(missing, "rrn column")
	}
	if s.UPIColumn == "" {
		missing = append(missing, "upi column")
	}
	if s.AmountColumn == "" {
		missing = append(missing, "amount column")
	}
	if s.MerchantColumn == "" && s.ManualPrefix == "" {
		missing = append(missing, "merchant column or invoice prefix")
	}
	return missing
}

// UnknownColumns returns the selected columns that are not among headers
func (s UserSelection) UnknownColumns(headers []string) []string {
	known := make(map[string]bool, len(headers))
	for _, h := range headers {
		known[h] = true
	}
	var unknown []string
	for _, col := range []string{s.RRNColumn, s.UPIColumn, s.AmountColumn, s.MerchantColumn} {
		if col != "" && !known[col] {
			unknown = append(unknown, col)
		}
	}
	return unknown
}
