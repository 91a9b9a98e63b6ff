package internal

import (
	"context"

	"github.com/lychee-technology/indexsync"
)

// Stock bucket keys, used as the origin value of stock records.
const (
	stockBucketOut = "0"
	stockBucketIn  = "1"
)

// StockDetector evaluates every logical record a stock item feeds, before and
// after the pending write, and groups the ones that flip by their new state.
type StockDetector struct {
	scope       *ImpactScopeResolver
	provider    indexsync.StockStatusProvider
	integration indexsync.IntegrationChecker
}

func NewStockDetector(scope *ImpactScopeResolver, provider indexsync.StockStatusProvider, integration indexsync.IntegrationChecker) *StockDetector {
	return &StockDetector{scope: scope, provider: provider, integration: integration}
}

type stockBucket struct {
	descriptors *OrderedSet[string]
	entityIDs   *OrderedSet[int64]
}

// Detect runs before the stock item is persisted. The after state is computed
// by overriding the product's persisted flag with the pending one. When the
// caller has already written, item.WasInStock restores the before state.
func (d *StockDetector) Detect(ctx context.Context, item indexsync.StockItem) ([]indexsync.ChangeRecord, error) {
	if item.ProductID <= 0 {
		return nil, indexsync.NewInvalidMutationError("stock item without product id")
	}
	if !d.integration.IsIntegrated(indexsync.DefaultStoreID) {
		return nil, nil
	}

	targets, err := d.scope.StockTargets(ctx, item.ProductID)
	if err != nil {
		return nil, err
	}

	pending := map[int64]bool{item.ProductID: item.IsInStock}
	var previous map[int64]bool
	if item.WasInStock != nil {
		previous = map[int64]bool{item.ProductID: *item.WasInStock}
	}
	buckets := map[string]*stockBucket{
		stockBucketOut: {descriptors: NewOrderedSet[string](), entityIDs: NewOrderedSet[int64]()},
		stockBucketIn:  {descriptors: NewOrderedSet[string](), entityIDs: NewOrderedSet[int64]()},
	}

	for _, target := range targets {
		before, err := d.provider.IsInStock(ctx, target, previous)
		if err != nil {
			return nil, err
		}
		after, err := d.provider.IsInStock(ctx, target, pending)
		if err != nil {
			return nil, err
		}
		if before == after {
			continue
		}

		key := stockBucketOut
		if after {
			key = stockBucketIn
		}
		buckets[key].descriptors.Add(target.Descriptor())
		buckets[key].entityIDs.Add(target.EntityIDs()...)
	}

	records := make([]indexsync.ChangeRecord, 0, 2)
	for _, key := range []string{stockBucketOut, stockBucketIn} {
		bucket := buckets[key]
		if bucket.descriptors.Len() == 0 {
			continue
		}
		records = append(records, indexsync.ChangeRecord{
			EntityIDs:         bucket.entityIDs.Slice(),
			StoreIDs:          []int64{},
			CustomerGroupIDs:  []int64{},
			ChangedAttributes: []string{indexsync.AttributeIsInStock},
			EntitySubtypes:    []indexsync.Aspect{},
			RecordIDs:         bucket.descriptors.Slice(),
			OriginValue:       key,
		})
	}
	return records, nil
}
