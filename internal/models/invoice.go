package models

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// MerchantProfile is the company identity printed on an invoice
type MerchantProfile struct {
	ID            string   `json:"id" yaml:"id" validate:"required,lowercase,alphanum"`
	CompanyName   string   `json:"company_name" yaml:"company_name" validate:"required"`
	Address       string   `json:"address" yaml:"address" validate:"required"`
	TaxID         string   `json:"tax_id,omitempty" yaml:"tax_id"`
	InvoicePrefix string   `json:"invoice_prefix" yaml:"invoice_prefix" validate:"required"`
	LogoRef       string   `json:"logo_ref,omitempty" yaml:"logo_ref"`
	TermsAcronym  string   `json:"terms_acronym,omitempty" yaml:"terms_acronym"`
	Aliases       []string `json:"aliases,omitempty" yaml:"aliases" validate:"dive,required"`
}

// WithPrefix returns a copy of the profile using prefix as its invoice prefix
func (m MerchantProfile) WithPrefix(prefix string) MerchantProfile {
	m.InvoicePrefix = prefix
	if m.Aliases != nil {
		m.Aliases = append([]string(nil), m.Aliases...)
	}
	return m
}

// Document labels carried by every rendered invoice
const (
	LabelBillTo        = "Bill to"
	LabelRRN           = "RRN No."
	LabelInvoiceNumber = "Invoice No."
	LabelDateTime      = "Transaction Date & Time"
	LabelNetAmount     = "Net Amount"
)

// InvoiceRecord holds the resolved fields of one invoice
type InvoiceRecord struct {
	InvoiceNumber       string          `json:"invoice_number"`
	BillTo              string          `json:"bill_to"`
	RRN                 string          `json:"rrn"`
	TransactionDateTime string          `json:"transaction_date_time"`
	Amount              decimal.Decimal `json:"amount"`
	Merchant            MerchantProfile `json:"merchant"`
	Remarks             string          `json:"remarks"`
	Filename            string          `json:"filename"`
	RowIndex            int             `json:"row_index"`
}

// LabeledField is a document label paired with its value
type LabeledField struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// DocumentFields returns the record's values under their document labels
func (r InvoiceRecord) DocumentFields() []LabeledField {
	return []LabeledField{
		{Label: LabelBillTo, Value: r.BillTo},
		{Label: LabelRRN, Value: r.RRN},
		{Label: LabelInvoiceNumber, Value: r.InvoiceNumber},
		{Label: LabelDateTime, Value: r.TransactionDateTime},
		{Label: LabelNetAmount, Value: r.Amount.StringFixed(2)},
	}
}

// MarshalJSON implements custom JSON marshaling for InvoiceRecord
func (r InvoiceRecord) MarshalJSON() ([]byte, error) {
	type Alias InvoiceRecord
	return json.Marshal(&struct {
		Amount string `json:"amount"`
		Alias
	}{
		Amount: r.Amount.StringFixed(2),
		Alias:  Alias(r),
	})
}
