package indexsync

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// ChangeRecord is the normalized description of what a mutation changed.
// Empty StoreIDs means all stores; empty CustomerGroupIDs means all groups.
type ChangeRecord struct {
	EntityIDs         []int64  `json:"entityIds"`
	StoreIDs          []int64  `json:"storeIds"`
	CustomerGroupIDs  []int64  `json:"customerGroupIds"`
	ChangedAttributes []string `json:"changedAttributes"`
	EntitySubtypes    []Aspect `json:"entitySubtypes"`

	// AttributeIDs is only read for attribute-kind dispatches.
	AttributeIDs []int64 `json:"attributeIds,omitempty"`

	// RecordIDs and OriginValue are set by the stock detector: RecordIDs holds
	// target descriptors ("P", "X-P", "X") and OriginValue the bucket key.
	RecordIDs   []string `json:"recordIds,omitempty"`
	OriginValue string   `json:"originValue,omitempty"`
}

// IsEmpty reports whether the record names neither entities nor aspects.
func (r ChangeRecord) IsEmpty() bool {
	return len(r.EntityIDs) == 0 && len(r.EntitySubtypes) == 0
}

// ScopeContext is the store (and optionally customer group) a resolution runs in.
type ScopeContext struct {
	StoreID         int64
	CustomerGroupID *int64
}

// DefaultStoreID is the admin/global scope.
const DefaultStoreID int64 = 0

// ParentChildLink joins a variant to its configurable parent.
type ParentChildLink struct {
	ChildEntityID  int64 `json:"childEntityId"`
	ParentEntityID int64 `json:"parentEntityId"`
}

// ValueSource tells which scope a resolved value came from.
type ValueSource string

const (
	SourceDefault       ValueSource = "DEFAULT"
	SourceStoreOverride ValueSource = "STORE_OVERRIDE"
)

// ResolvedAttributeValue is the effective value of an attribute in one scope.
// Value is nil when no row exists. Its dynamic type follows the backend:
// string (varchar, text), int64 (int), decimal.Decimal (decimal), time.Time (datetime).
type ResolvedAttributeValue struct {
	Value  any         `json:"value"`
	Source ValueSource `json:"source"`
}

func (v ResolvedAttributeValue) IsNull() bool {
	return v.Value == nil
}

// Int64 returns the value as an integer when it has one.
func (v ResolvedAttributeValue) Int64() (int64, bool) {
	switch value := v.Value.(type) {
	case int64:
		return value, true
	case decimal.Decimal:
		if value.IsInteger() {
			return value.IntPart(), true
		}
	case string:
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return n, true
		}
	}
	return 0, false
}

// ProductType is the host's product type id.
type ProductType string

const (
	ProductTypeSimple       ProductType = "simple"
	ProductTypeVirtual      ProductType = "virtual"
	ProductTypeConfigurable ProductType = "configurable"
	ProductTypeBundle       ProductType = "bundle"
	ProductTypeGrouped      ProductType = "grouped"
)

// ProductSnapshot is the state of a product as seen by a save hook.
type ProductSnapshot struct {
	EntityID   int64          `json:"entityId"`
	TypeID     ProductType    `json:"typeId"`
	StoreID    int64          `json:"storeId"`
	Attributes map[string]any `json:"attributes"`
}

// PriceRow is one row written by a price persistence call.
type PriceRow struct {
	AttributeCode string          `json:"attributeCode"`
	StoreID       int64           `json:"storeId"`
	RowLinkID     int64           `json:"rowLinkId"`
	Value         decimal.Decimal `json:"value"`
}

// TierPriceRow is one tier-price row written or deleted by a persistence call.
type TierPriceRow struct {
	StoreID         int64           `json:"storeId"`
	RowLinkID       int64           `json:"rowLinkId"`
	CustomerGroupID int64           `json:"customerGroupId"`
	AllGroups       bool            `json:"allGroups"`
	Qty             decimal.Decimal `json:"qty"`
	Value           decimal.Decimal `json:"value"`
}

// StockItem is the pending state of a stock-item save. WasInStock carries the
// flag persisted before the save when the caller reports after writing; nil
// means the stock repository still holds the old flag.
type StockItem struct {
	ProductID  int64 `json:"productId"`
	IsInStock  bool  `json:"isInStock"`
	WasInStock *bool `json:"wasInStock,omitempty"`
}

// ProductDeletion names a product being deleted. ParentIDs, when non-nil, are
// the configurable parents captured before the links were removed and replace
// the parent lookup.
type ProductDeletion struct {
	EntityID  int64   `json:"entityId"`
	ParentIDs []int64 `json:"parentIds,omitempty"`
}

// CategoryRelationChange lists the products whose assignment to a category changed.
type CategoryRelationChange struct {
	CategoryID        int64   `json:"categoryId"`
	AddedProductIDs   []int64 `json:"addedProductIds"`
	RemovedProductIDs []int64 `json:"removedProductIds"`
	// UpdatedProductIDs covers position-only changes.
	UpdatedProductIDs []int64 `json:"updatedProductIds"`
}

// ConfigurableLinkChange lists variants added to or removed from a parent.
type ConfigurableLinkChange struct {
	ParentID        int64   `json:"parentId"`
	AddedChildIDs   []int64 `json:"addedChildIds"`
	RemovedChildIDs []int64 `json:"removedChildIds"`
}

// AttributeConfigChange carries the configuration of an attribute before and
// after a save. Before is nil for new attributes.
type AttributeConfigChange struct {
	Before *AttributeDescriptor `json:"before,omitempty"`
	After  AttributeDescriptor  `json:"after"`
}

// StockTargetKind names the logical record a stock change can affect.
type StockTargetKind string

const (
	StockTargetStandalone StockTargetKind = "standalone"
	StockTargetVariant    StockTargetKind = "variant"
	StockTargetParent     StockTargetKind = "parent"
)

// StockTarget is one logical indexed record whose stock state may change.
// ParentID is set for variant targets only.
type StockTarget struct {
	Kind     StockTargetKind
	EntityID int64
	ParentID int64
}

// Descriptor renders the target as "P", "X-P" or "X".
func (t StockTarget) Descriptor() string {
	if t.Kind == StockTargetVariant {
		return strconv.FormatInt(t.ParentID, 10) + "-" + strconv.FormatInt(t.EntityID, 10)
	}
	return strconv.FormatInt(t.EntityID, 10)
}

// EntityIDs lists the entities the target refers to, parent first.
func (t StockTarget) EntityIDs() []int64 {
	if t.Kind == StockTargetVariant {
		return []int64{t.ParentID, t.EntityID}
	}
	return []int64{t.EntityID}
}
