package indexsync

import (
	"context"
)

// ChangeObserver is the mutation hook surface the host platform calls. Hooks
// never fail because of change detection; the "around" hooks return only the
// error of the host's own write.
type ChangeObserver interface {
	AfterProductSave(ctx context.Context, before *ProductSnapshot, after ProductSnapshot)
	AroundProductDelete(ctx context.Context, product ProductDeletion, del func(ctx context.Context) error) error

	AfterPriceSave(ctx context.Context, rows []PriceRow)
	AfterTierPriceSave(ctx context.Context, rows []TierPriceRow)
	AfterTierPriceReplace(ctx context.Context, rows []TierPriceRow)
	AroundTierPriceDelete(ctx context.Context, rows []TierPriceRow, del func(ctx context.Context) error) error

	AroundStockItemSave(ctx context.Context, item StockItem, persist func(ctx context.Context) error) error

	AfterCategoryRelationSave(ctx context.Context, change CategoryRelationChange)
	AfterConfigurableLinkChange(ctx context.Context, change ConfigurableLinkChange)

	AfterAttributeSave(ctx context.Context, change AttributeConfigChange)
	AfterAttributeDelete(ctx context.Context, attribute AttributeDescriptor)
}

// AttributeRegistry reads attribute configuration.
type AttributeRegistry interface {
	// GetAttribute returns the descriptor for code or an attribute-not-found error.
	GetAttribute(ctx context.Context, code string) (AttributeDescriptor, error)
}

// WatchedAttributeProvider lists the attribute codes whose changes are diffed on save.
type WatchedAttributeProvider interface {
	WatchedAttributeCodes(ctx context.Context) ([]string, error)
}

// DefaultAttributeProvider lists core attribute codes that are always indexed
// and cannot be reconfigured.
type DefaultAttributeProvider interface {
	DefaultAttributeCodes(ctx context.Context) ([]string, error)
}

// ParentResolver maps variants to the configurable parents they belong to.
type ParentResolver interface {
	ParentIDs(ctx context.Context, childIDs []int64) ([]ParentChildLink, error)
}

// ChildResolver is an optional capability of a ParentResolver.
type ChildResolver interface {
	ChildIDs(ctx context.Context, parentID int64) ([]int64, error)
}

// LinkFieldMapper translates between the storage link field and public entity ids.
type LinkFieldMapper interface {
	// EntityIDs maps row-link ids to entity ids, preserving first-seen order.
	EntityIDs(ctx context.Context, linkIDs []int64) ([]int64, error)
	// LinkID returns the link id of an entity, false when the entity is unknown.
	LinkID(ctx context.Context, entityID int64) (int64, bool, error)
}

// CategoryStoreResolver returns the stores a category is visible in.
type CategoryStoreResolver interface {
	CategoryStoreIDs(ctx context.Context, categoryID int64) ([]int64, error)
}

// StockRepository reads persisted stock flags.
type StockRepository interface {
	// InStockFlags returns is_in_stock per product; products without a stock
	// item are absent from the map.
	InStockFlags(ctx context.Context, productIDs []int64) (map[int64]bool, error)
}

// StockStatusProvider computes whether a logical stock target is in stock.
// overrides replaces persisted stock flags for the listed products.
type StockStatusProvider interface {
	IsInStock(ctx context.Context, target StockTarget, overrides map[int64]bool) (bool, error)
}

// IntegrationChecker tells whether a store is connected to the search service.
type IntegrationChecker interface {
	IsIntegrated(storeID int64) bool
	IntegratedStoreIDs() []int64
}

// Publisher is the process-wide publish/subscribe bus.
type Publisher interface {
	Publish(ctx context.Context, channel Channel, event Event) error
}
