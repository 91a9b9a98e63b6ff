package internal

import (
	"context"

	"github.com/lychee-technology/indexsync"
)

// CategoryRelationDetector builds records from the product ids a category
// aggregate reports as added, removed or repositioned.
type CategoryRelationDetector struct {
	scope *ImpactScopeResolver
}

func NewCategoryRelationDetector(scope *ImpactScopeResolver) *CategoryRelationDetector {
	return &CategoryRelationDetector{scope: scope}
}

// Detect returns nil when no product moved or the category is visible in no
// integrated store.
func (d *CategoryRelationDetector) Detect(ctx context.Context, change indexsync.CategoryRelationChange) (*indexsync.ChangeRecord, error) {
	ids := make([]int64, 0, len(change.AddedProductIDs)+len(change.RemovedProductIDs)+len(change.UpdatedProductIDs))
	ids = append(ids, change.AddedProductIDs...)
	ids = append(ids, change.RemovedProductIDs...)
	ids = append(ids, change.UpdatedProductIDs...)
	ids = sortedUnique(positiveIDs(ids))
	if len(ids) == 0 {
		return nil, nil
	}

	stores, err := d.scope.CategoryStoreIDs(ctx, change.CategoryID)
	if err != nil {
		return nil, err
	}
	if len(stores) == 0 {
		return nil, nil
	}

	return &indexsync.ChangeRecord{
		EntityIDs:         ids,
		StoreIDs:          stores,
		CustomerGroupIDs:  []int64{},
		ChangedAttributes: []string{indexsync.AttributeCategoryIDs},
		EntitySubtypes:    []indexsync.Aspect{},
	}, nil
}

// ConfigurableLinkDetector builds records from the child ids a link
// operation added to or removed from a parent.
type ConfigurableLinkDetector struct {
	integration indexsync.IntegrationChecker
}

func NewConfigurableLinkDetector(integration indexsync.IntegrationChecker) *ConfigurableLinkDetector {
	return &ConfigurableLinkDetector{integration: integration}
}

func (d *ConfigurableLinkDetector) Detect(change indexsync.ConfigurableLinkChange) (*indexsync.ChangeRecord, error) {
	if change.ParentID <= 0 {
		return nil, indexsync.NewInvalidMutationError("link change without parent id")
	}
	children := positiveIDs(append(append([]int64{}, change.AddedChildIDs...), change.RemovedChildIDs...))
	if len(children) == 0 || !d.integration.IsIntegrated(indexsync.DefaultStoreID) {
		return nil, nil
	}

	return &indexsync.ChangeRecord{
		EntityIDs:         uniqueInOrder(append([]int64{change.ParentID}, children...)),
		StoreIDs:          []int64{},
		CustomerGroupIDs:  []int64{},
		ChangedAttributes: []string{},
		EntitySubtypes:    []indexsync.Aspect{},
	}, nil
}
