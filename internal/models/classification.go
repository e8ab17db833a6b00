package models

// ColumnRole is the semantic meaning inferred for a column
type ColumnRole string

const (
	RoleRrn             ColumnRole = "rrn"
	RoleUpi             ColumnRole = "upi"
	RoleMerchant        ColumnRole = "merchant"
	RoleAmount          ColumnRole = "amount"
	RoleTransactionDate ColumnRole = "transaction_date"
	RoleTransactionTime ColumnRole = "transaction_time"
	RoleVpa             ColumnRole = "vpa"
	RoleUtr             ColumnRole = "utr"
	RoleRemarks         ColumnRole = "remarks"
)

// AllRoles lists every role in reporting order
var AllRoles = []ColumnRole{
	RoleRrn,
	RoleUpi,
	RoleMerchant,
	RoleAmount,
	RoleTransactionDate,
	RoleTransactionTime,
	RoleVpa,
	RoleUtr,
	RoleRemarks,
}

// IsValid checks if the role is known
func (r ColumnRole) IsValid() bool {
	for _, known := range AllRoles {
		if r == known {
			return true
		}
	}
	return false
}

// Classification maps each detected role to its header. A missing key means
// the role was not detected. Several roles may share one header.
type Classification map[ColumnRole]string

// Header returns the header detected for role
func (c Classification) Header(role ColumnRole) (string, bool) {
	h, ok := c[role]
	return h, ok && h != ""
}

// Cell returns the row's value under the header detected for role, or Empty
func (c Classification) Cell(row Row, role ColumnRole) CellValue {
	if h, ok := c.Header(role); ok {
		return row.Get(h)
	}
	return Empty()
}

// DuplicateMember is one row of a duplicate group together with its
// 0-based position in the full row sequence.
type DuplicateMember struct {
	Row           Row `json:"row"`
	OriginalIndex int `json:"original_index"`
}

// DuplicateGroup collects rows sharing the same normalized key
type DuplicateGroup struct {
	Key     string            `json:"key"`
	Members []DuplicateMember `json:"members"`
}

// Count returns the number of rows in the group
func (g DuplicateGroup) Count() int {
	return len(g.Members)
}
