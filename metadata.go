package indexsync

import "strings"

// BackendType selects the physical value table an attribute is stored in.
type BackendType string

const (
	BackendVarchar  BackendType = "varchar"
	BackendInt      BackendType = "int"
	BackendDecimal  BackendType = "decimal"
	BackendText     BackendType = "text"
	BackendDatetime BackendType = "datetime"
	// BackendStatic attributes live on the entity table and have no scoped rows.
	BackendStatic BackendType = "static"
)

// ParseBackendType normalizes a stored backend type. "string" is accepted as an
// alias of varchar.
func ParseBackendType(raw string) (BackendType, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "varchar", "string":
		return BackendVarchar, true
	case "int", "integer":
		return BackendInt, true
	case "decimal", "numeric":
		return BackendDecimal, true
	case "text":
		return BackendText, true
	case "datetime", "timestamp":
		return BackendDatetime, true
	case "static":
		return BackendStatic, true
	default:
		return "", false
	}
}

// HasValueTable reports whether values of this backend live in a scoped value table.
func (b BackendType) HasValueTable() bool {
	switch b {
	case BackendVarchar, BackendInt, BackendDecimal, BackendText, BackendDatetime:
		return true
	default:
		return false
	}
}

// ValueTable returns "<prefix>_<backend>" for backends stored in value tables.
func (b BackendType) ValueTable(prefix string) string {
	return prefix + "_" + string(b)
}

// AttributeDescriptor is the read-only configuration of one catalog attribute.
type AttributeDescriptor struct {
	ID            int64       `json:"id"`
	Code          string      `json:"code"`
	BackendType   BackendType `json:"backendType"`
	IsWatched     bool        `json:"isWatched"`
	IsIndexable   bool        `json:"isIndexable"`
	IsDefault     bool        `json:"isDefault"`
	AspectMapping AspectSet   `json:"aspectMapping"`
}

// Well-known attribute codes.
const (
	AttributeStatus            = "status"
	AttributeVisibility        = "visibility"
	AttributePrice             = "price"
	AttributeCategoryIDs       = "category_ids"
	AttributeIsInStock         = "is_in_stock"
	AttributeQuantityAndStatus = "quantity_and_stock_status"
)

// Product status values as stored in the int value table.
const (
	StatusEnabled  int64 = 1
	StatusDisabled int64 = 2
)

// CombineRule decides how a variant's value and its parent's value combine.
type CombineRule string

const (
	// CombineStatus: disabled if either side is disabled.
	CombineStatus CombineRule = "status"
	// CombineVisibility: the parent's value governs.
	CombineVisibility CombineRule = "visibility"
	// CombineParent: the parent's value, used for parent_<attr> enrichment.
	CombineParent CombineRule = "parent"
)

// ParseCombineRule returns the rule for its name.
func ParseCombineRule(raw string) (CombineRule, bool) {
	switch CombineRule(strings.ToLower(strings.TrimSpace(raw))) {
	case CombineStatus:
		return CombineStatus, true
	case CombineVisibility:
		return CombineVisibility, true
	case CombineParent:
		return CombineParent, true
	default:
		return "", false
	}
}

// DefaultCombineRule returns the rule attached to an attribute code.
func DefaultCombineRule(attributeCode string) CombineRule {
	switch attributeCode {
	case AttributeStatus:
		return CombineStatus
	case AttributeVisibility:
		return CombineVisibility
	default:
		return CombineParent
	}
}
