package classifier

import (
	"fmt"
	"os"
	"strings"

	"golang-invoice-service/internal/models"
	pipelineerrors "golang-invoice-service/pkg/errors"

	"gopkg.in/yaml.v3"
)

// PatternTable lists, per role, the lowercase substrings that identify a
// header. Order inside a list does not affect the result because any match
// selects the header.
type PatternTable map[models.ColumnRole][]string

// DefaultPatterns returns the built-in pattern table
func DefaultPatterns() PatternTable {
	return PatternTable{
		models.RoleRrn:             {"rrn", "retrieval", "reference_no", "reference no", "refno", "ref_no"},
		models.RoleMerchant:        {"merchant", "company", "business", "payee name", "store", "shop"},
		models.RoleAmount:          {"amount", "value", "txnamount", "transaction_amount"},
		models.RoleTransactionDate: {"date", "txndt", "txn_dt"},
		models.RoleTransactionTime: {"time", "timestamp"},
		models.RoleUtr:             {"utr", "unique transaction reference", "bank_ref"},
		models.RoleRemarks:         {"remark", "narration", "description", "note", "comment", "purpose"},
		models.RoleUpi: {
			"upi", "upiid", "upi_id", "vpa", "vba", "payeevpa", "payervpa",
			"payee_vpa", "payer_vpa", "payee_upi", "payer_upi", "upivirtualpaymentaddress",
		},
		models.RoleVpa: {
			"vpa", "vba", "payeevpa", "payervpa", "payee_vpa", "payer_vpa", "upivirtualpaymentaddress",
		},
	}
}

// Merge returns a copy of t where every role present in overrides uses the
// override list instead.
func (t PatternTable) Merge(overrides PatternTable) PatternTable {
	merged := make(PatternTable, len(t))
	for role, patterns := range t {
		merged[role] = append([]string(nil), patterns...)
	}
	for role, patterns := range overrides {
		merged[role] = append([]string(nil), patterns...)
	}
	return merged
}

// Validate checks that every role is known and every pattern is a non-empty
// lowercase string.
func (t PatternTable) Validate() error {
	for role, patterns := range t {
		if !role.IsValid() {
			return fmt.Errorf("unknown column role %q", role)
		}
		for _, p := range patterns {
			if strings.TrimSpace(p) == "" {
				return fmt.Errorf("role %s has an empty pattern", role)
			}
			if p != strings.ToLower(p) {
				return fmt.Errorf("role %s pattern %q must be lowercase", role, p)
			}
		}
	}
	return nil
}

// LoadPatterns reads pattern overrides from a YAML file of the form
//
//	amount: [amount, net_amt]
//	rrn: [rrn, ref_no]
//
// and merges them over the default table.
func LoadPatterns(path string) (PatternTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, pipelineerrors.ConfigurationError(pipelineerrors.CodeMissingConfig, "patterns file", path, err)
	}

	overrides := PatternTable{}
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, pipelineerrors.ConfigurationError(pipelineerrors.CodeInvalidConfig, "patterns file", path, err)
	}
	for role, patterns := range overrides {
		for i, p := range patterns {
			overrides[role][i] = strings.ToLower(strings.TrimSpace(p))
		}
	}
	if err := overrides.Validate(); err != nil {
		return nil, pipelineerrors.ConfigurationError(pipelineerrors.CodeInvalidConfig, "patterns file", path, err)
	}

	return DefaultPatterns().Merge(overrides), nil
}
