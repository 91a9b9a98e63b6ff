package internal

import (
	"context"

	"github.com/lychee-technology/indexsync"
	"go.uber.org/zap"
)

// ProductSaveDetector diffs watched attributes between two product snapshots.
type ProductSaveDetector struct {
	watched        indexsync.WatchedAttributeProvider
	scope          *ImpactScopeResolver
	integration    indexsync.IntegrationChecker
	composite      *Set[indexsync.ProductType]
	excluded       *Set[string]
	includeParents bool
}

func NewProductSaveDetector(watched indexsync.WatchedAttributeProvider, scope *ImpactScopeResolver, integration indexsync.IntegrationChecker, cfg indexsync.DetectionConfig) *ProductSaveDetector {
	return &ProductSaveDetector{
		watched:        watched,
		scope:          scope,
		integration:    integration,
		composite:      NewSet(cfg.CompositeProductTypes...),
		excluded:       NewSet(cfg.CompositeExcludedAttributes...),
		includeParents: cfg.IncludeParentsOnChildSave,
	}
}

// Detect returns nil when no watched attribute changed or the store is not
// integrated. A product without a before snapshot is new and always yields a
// record.
func (d *ProductSaveDetector) Detect(ctx context.Context, before *indexsync.ProductSnapshot, after indexsync.ProductSnapshot) (*indexsync.ChangeRecord, error) {
	if after.EntityID <= 0 {
		return nil, indexsync.NewInvalidMutationError("product save without entity id")
	}
	if !d.integration.IsIntegrated(after.StoreID) {
		return nil, nil
	}

	changed := []string{}
	if before != nil {
		codes, err := d.watched.WatchedAttributeCodes(ctx)
		if err != nil {
			return nil, indexsync.NewCollaboratorError("WatchedAttributeCodes", err).WithDetail("entityId", after.EntityID)
		}
		changed = d.changedAttributes(codes, *before, after)
		if len(changed) == 0 {
			return nil, nil
		}
	}

	return &indexsync.ChangeRecord{
		EntityIDs:         d.withParents(ctx, after.EntityID),
		StoreIDs:          storeScope(after.StoreID),
		CustomerGroupIDs:  []int64{},
		ChangedAttributes: changed,
		EntitySubtypes:    []indexsync.Aspect{},
	}, nil
}

// DetectDelete builds the record of a product about to be deleted. Without
// captured parent ids it must run before the delete so that parent links can
// still be read.
func (d *ProductSaveDetector) DetectDelete(ctx context.Context, product indexsync.ProductDeletion) (*indexsync.ChangeRecord, error) {
	entityID := product.EntityID
	if entityID <= 0 {
		return nil, indexsync.NewInvalidMutationError("product delete without entity id")
	}
	if !d.integration.IsIntegrated(indexsync.DefaultStoreID) {
		return nil, nil
	}
	ids := []int64{entityID}
	switch {
	case !d.includeParents:
	case product.ParentIDs != nil:
		ids = uniqueInOrder(append(ids, positiveIDs(product.ParentIDs)...))
	default:
		ids = d.withParents(ctx, entityID)
	}
	return &indexsync.ChangeRecord{
		EntityIDs:         ids,
		StoreIDs:          []int64{},
		CustomerGroupIDs:  []int64{},
		ChangedAttributes: []string{},
		EntitySubtypes:    []indexsync.Aspect{},
	}, nil
}

func (d *ProductSaveDetector) changedAttributes(codes []string, before, after indexsync.ProductSnapshot) []string {
	skipExcluded := d.composite.Contains(after.TypeID)
	changed := make([]string, 0)
	for _, code := range uniqueInOrder(codes) {
		if skipExcluded && d.excluded.Contains(code) {
			continue
		}
		oldValue, hadOld := before.Attributes[code]
		newValue, hasNew := after.Attributes[code]
		if !hadOld && !hasNew {
			continue
		}
		if !attributeValuesEqual(oldValue, newValue) {
			changed = append(changed, code)
		}
	}
	return changed
}

// withParents adds configurable parents of entityID. A failing parent lookup
// only drops the enrichment.
func (d *ProductSaveDetector) withParents(ctx context.Context, entityID int64) []int64 {
	ids := []int64{entityID}
	if !d.includeParents {
		return ids
	}
	parents, err := d.scope.ParentIDs(ctx, ids)
	if err != nil {
		zap.S().Warnw("parent lookup failed, emitting product without parents",
			"operation", "ParentIDs", "entity_id", entityID, "err", err)
		return ids
	}
	return uniqueInOrder(append(ids, parents...))
}
