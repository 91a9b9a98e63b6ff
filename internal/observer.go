package internal

import (
	"context"

	"github.com/lychee-technology/indexsync"
	"go.uber.org/zap"
)

// Detector names used in logs and metrics.
const (
	detectorProductSave      = "product_save"
	detectorProductDelete    = "product_delete"
	detectorPrice            = "price"
	detectorTierPrice        = "tier_price"
	detectorTierPriceReplace = "tier_price_replace"
	detectorTierPriceDelete  = "tier_price_delete"
	detectorStock            = "stock_item"
	detectorCategory         = "category_products"
	detectorConfigurable     = "configurable_links"
	detectorAttributeSave    = "attribute_save"
	detectorAttributeDelete  = "attribute_delete"
)

// Detectors groups one detector per mutation source.
type Detectors struct {
	Product   *ProductSaveDetector
	Price     *PriceDetector
	Stock     *StockDetector
	Category  *CategoryRelationDetector
	Link      *ConfigurableLinkDetector
	Attribute *AttributeConfigDetector
}

// Observer implements indexsync.ChangeObserver. It is the one place where
// detection errors are logged and swallowed.
type Observer struct {
	detectors  Detectors
	dispatcher *UpdateEventDispatcher
}

var _ indexsync.ChangeObserver = (*Observer)(nil)

func NewObserver(detectors Detectors, dispatcher *UpdateEventDispatcher) *Observer {
	return &Observer{detectors: detectors, dispatcher: dispatcher}
}

func (o *Observer) AfterProductSave(ctx context.Context, before *indexsync.ProductSnapshot, after indexsync.ProductSnapshot) {
	o.safely(detectorProductSave, func() {
		record, err := o.detectors.Product.Detect(ctx, before, after)
		if o.detected(detectorProductSave, err, record != nil, "entity_id", after.EntityID, "store_id", after.StoreID) {
			o.dispatcher.Dispatch(ctx, *record, indexsync.UpdateKindEntity)
		}
	})
}

// AroundProductDelete reads the parents of the product before it is deleted
// and dispatches only when the delete succeeded.
func (o *Observer) AroundProductDelete(ctx context.Context, product indexsync.ProductDeletion, del func(ctx context.Context) error) error {
	var record *indexsync.ChangeRecord
	o.safely(detectorProductDelete, func() {
		detected, err := o.detectors.Product.DetectDelete(ctx, product)
		if o.detected(detectorProductDelete, err, detected != nil, "entity_id", product.EntityID) {
			record = detected
		}
	})

	if err := del(ctx); err != nil {
		return err
	}
	if record != nil {
		o.dispatcher.Dispatch(ctx, *record, indexsync.UpdateKindEntity)
	}
	return nil
}

func (o *Observer) AfterPriceSave(ctx context.Context, rows []indexsync.PriceRow) {
	o.safely(detectorPrice, func() {
		records, err := o.detectors.Price.DetectPrices(ctx, rows)
		if o.detected(detectorPrice, err, len(records) > 0, "rows", len(rows)) {
			o.dispatchAll(ctx, records)
		}
	})
}

func (o *Observer) AfterTierPriceSave(ctx context.Context, rows []indexsync.TierPriceRow) {
	o.tierPrices(ctx, detectorTierPrice, rows)
}

func (o *Observer) AfterTierPriceReplace(ctx context.Context, rows []indexsync.TierPriceRow) {
	o.tierPrices(ctx, detectorTierPriceReplace, rows)
}

func (o *Observer) tierPrices(ctx context.Context, detector string, rows []indexsync.TierPriceRow) {
	o.safely(detector, func() {
		records, err := o.detectors.Price.DetectTierPrices(ctx, rows)
		if o.detected(detector, err, len(records) > 0, "rows", len(rows)) {
			o.dispatchAll(ctx, records)
		}
	})
}

// AroundTierPriceDelete maps the rows to entity ids while they still exist,
// runs the delete, then dispatches.
func (o *Observer) AroundTierPriceDelete(ctx context.Context, rows []indexsync.TierPriceRow, del func(ctx context.Context) error) error {
	var records []indexsync.ChangeRecord
	o.safely(detectorTierPriceDelete, func() {
		detected, err := o.detectors.Price.DetectTierPrices(ctx, rows)
		if o.detected(detectorTierPriceDelete, err, len(detected) > 0, "rows", len(rows)) {
			records = detected
		}
	})

	if err := del(ctx); err != nil {
		return err
	}
	o.dispatchAll(ctx, records)
	return nil
}

// AroundStockItemSave computes before and after stock states ahead of persist.
// The before state comes from the repository unless item.WasInStock is set.
func (o *Observer) AroundStockItemSave(ctx context.Context, item indexsync.StockItem, persist func(ctx context.Context) error) error {
	var records []indexsync.ChangeRecord
	o.safely(detectorStock, func() {
		detected, err := o.detectors.Stock.Detect(ctx, item)
		if o.detected(detectorStock, err, len(detected) > 0, "product_id", item.ProductID) {
			records = detected
		}
	})

	if err := persist(ctx); err != nil {
		return err
	}
	o.dispatchAll(ctx, records)
	return nil
}

func (o *Observer) AfterCategoryRelationSave(ctx context.Context, change indexsync.CategoryRelationChange) {
	o.safely(detectorCategory, func() {
		record, err := o.detectors.Category.Detect(ctx, change)
		if o.detected(detectorCategory, err, record != nil, "category_id", change.CategoryID) {
			o.dispatcher.Dispatch(ctx, *record, indexsync.UpdateKindEntity)
		}
	})
}

func (o *Observer) AfterConfigurableLinkChange(ctx context.Context, change indexsync.ConfigurableLinkChange) {
	o.safely(detectorConfigurable, func() {
		record, err := o.detectors.Link.Detect(change)
		if o.detected(detectorConfigurable, err, record != nil, "parent_id", change.ParentID) {
			o.dispatcher.Dispatch(ctx, *record, indexsync.UpdateKindEntity)
		}
	})
}

func (o *Observer) AfterAttributeSave(ctx context.Context, change indexsync.AttributeConfigChange) {
	o.safely(detectorAttributeSave, func() {
		records, err := o.detectors.Attribute.DetectSave(ctx, change)
		if o.detected(detectorAttributeSave, err, records.Entity != nil || records.Attribute != nil, "attribute", change.After.Code) {
			o.dispatchAttributeRecords(ctx, records)
		}
	})
}

func (o *Observer) AfterAttributeDelete(ctx context.Context, attribute indexsync.AttributeDescriptor) {
	o.safely(detectorAttributeDelete, func() {
		records, err := o.detectors.Attribute.DetectDelete(ctx, attribute)
		if o.detected(detectorAttributeDelete, err, records.Entity != nil || records.Attribute != nil, "attribute", attribute.Code) {
			o.dispatchAttributeRecords(ctx, records)
		}
	})
}

func (o *Observer) dispatchAll(ctx context.Context, records []indexsync.ChangeRecord) {
	for _, record := range records {
		o.dispatcher.Dispatch(ctx, record, indexsync.UpdateKindEntity)
	}
}

func (o *Observer) dispatchAttributeRecords(ctx context.Context, records AttributeRecords) {
	if records.Attribute != nil {
		o.dispatcher.Dispatch(ctx, *records.Attribute, indexsync.UpdateKindAttribute)
	}
	if records.Entity != nil {
		o.dispatcher.Dispatch(ctx, *records.Entity, indexsync.UpdateKindEntity)
	}
}

// detected logs a failed detection and records the outcome metric. It
// returns true when there is something to dispatch.
func (o *Observer) detected(detector string, err error, found bool, fields ...any) bool {
	switch {
	case err != nil:
		args := append([]any{"detector", detector, "err", err}, fields...)
		zap.S().Warnw("change detection failed, skipping update", args...)
		EmitDetect(detector, resultFailed)
		return false
	case !found:
		EmitDetect(detector, resultNoChange)
		return false
	default:
		EmitDetect(detector, resultDetected)
		return true
	}
}

// safely keeps a detector panic from reaching the host's write path.
func (o *Observer) safely(detector string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			zap.S().Errorw("change detection panicked", "detector", detector, "panic", r)
			EmitDetect(detector, resultFailed)
		}
	}()
	fn()
}
