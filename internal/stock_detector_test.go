package internal

import (
	"context"
	"testing"

	"github.com/lychee-technology/indexsync"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stockFixture struct {
	values    *fakeValueStore
	stock     *fakeStockRepo
	relations *fakeRelations
}

// newStockFixture links product 5 to parents 100 and 200. Everything starts
// enabled and in stock.
func newStockFixture() *stockFixture {
	values := newFakeValueStore()
	for _, id := range []int64{5, 6, 100, 200} {
		values.set(indexsync.AttributeStatus, id, 0, strPtr("1"))
	}
	return &stockFixture{
		values:    values,
		stock:     &fakeStockRepo{flags: map[int64]bool{5: true, 6: true, 100: true, 200: true}},
		relations: &fakeRelations{parents: map[int64][]int64{5: {100, 200}}},
	}
}

func (f *stockFixture) detector(withChildren bool) *StockDetector {
	var parents indexsync.ParentResolver = parentsOnly{inner: f.relations}
	if withChildren {
		parents = f.relations
	}
	integration := integratedStores(1)
	scope := NewImpactScopeResolver(parents, &fakeCategoryStores{}, integration)
	resolver := NewScopedAttributeResolver(newFakeRegistry(statusAttr), f.values, &identityLinks{})
	provider := NewProductStockStatusProvider(f.stock, resolver, scope.Children(), indexsync.ScopeContext{StoreID: indexsync.DefaultStoreID})
	return NewStockDetector(scope, provider, integration)
}

func TestStockDetector_VariantGoesOutOfStock(t *testing.T) {
	f := newStockFixture()

	records, err := f.detector(false).Detect(context.Background(), indexsync.StockItem{ProductID: 5, IsInStock: false})
	require.NoError(t, err)
	require.Len(t, records, 1)

	record := records[0]
	assert.Equal(t, "0", record.OriginValue)
	assert.Equal(t, []string{"5", "100-5", "200-5"}, record.RecordIDs)
	assert.Equal(t, []int64{5, 100, 200}, record.EntityIDs)
	assert.Equal(t, []string{indexsync.AttributeIsInStock}, record.ChangedAttributes)
	assert.Empty(t, record.StoreIDs)
}

func TestStockDetector_ParentAggregates(t *testing.T) {
	f := newStockFixture()
	// parent 200 keeps an in-stock child, so only parent 100 flips
	f.relations.parents[6] = []int64{200}

	records, err := f.detector(true).Detect(context.Background(), indexsync.StockItem{ProductID: 5, IsInStock: false})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, []string{"5", "100-5", "200-5", "100"}, records[0].RecordIDs)
	assert.Equal(t, []int64{5, 100, 200}, records[0].EntityIDs)
}

func TestStockDetector_BackInStock(t *testing.T) {
	f := newStockFixture()
	f.stock.flags[5] = false

	records, err := f.detector(false).Detect(context.Background(), indexsync.StockItem{ProductID: 5, IsInStock: true})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "1", records[0].OriginValue)
	assert.Len(t, records[0].RecordIDs, 3)
}

func TestStockDetector_PriorFlagFromCaller(t *testing.T) {
	f := newStockFixture()
	f.stock.flags[5] = false

	wasInStock := true
	records, err := f.detector(false).Detect(context.Background(), indexsync.StockItem{ProductID: 5, IsInStock: false, WasInStock: &wasInStock})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "0", records[0].OriginValue)
	assert.Equal(t, []string{"5", "100-5", "200-5"}, records[0].RecordIDs)

	wasInStock = false
	records, err = f.detector(false).Detect(context.Background(), indexsync.StockItem{ProductID: 5, IsInStock: false, WasInStock: &wasInStock})
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestStockDetector_SplitsBuckets(t *testing.T) {
	f := newStockFixture()
	// parent 100 is out of stock, so its variant target cannot flip
	f.stock.flags[5] = false
	f.stock.flags[100] = false

	records, err := f.detector(false).Detect(context.Background(), indexsync.StockItem{ProductID: 5, IsInStock: true})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, []string{"5", "200-5"}, records[0].RecordIDs)
	assert.Equal(t, []int64{5, 200}, records[0].EntityIDs)
}

func TestStockDetector_NoChange(t *testing.T) {
	f := newStockFixture()

	records, err := f.detector(true).Detect(context.Background(), indexsync.StockItem{ProductID: 5, IsInStock: true})
	require.NoError(t, err)
	assert.Empty(t, records)

	// a disabled product is never in stock, so flipping its flag changes nothing
	f.values.rows = map[valueKey][]ScopedValueRow{}
	f.values.set(indexsync.AttributeStatus, 5, 0, strPtr("2"))
	f.values.set(indexsync.AttributeStatus, 100, 0, strPtr("1"))
	f.values.set(indexsync.AttributeStatus, 200, 0, strPtr("1"))
	records, err = f.detector(false).Detect(context.Background(), indexsync.StockItem{ProductID: 5, IsInStock: false})
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestStockDetector_ProviderFailure(t *testing.T) {
	f := newStockFixture()
	f.stock.err = errBoom

	_, err := f.detector(false).Detect(context.Background(), indexsync.StockItem{ProductID: 5})
	assert.True(t, indexsync.IsCollaboratorError(err))
}

func TestProductStockStatusProvider_ParentNeedsChildResolver(t *testing.T) {
	f := newStockFixture()
	resolver := NewScopedAttributeResolver(newFakeRegistry(statusAttr), f.values, &identityLinks{})
	provider := NewProductStockStatusProvider(f.stock, resolver, nil, indexsync.ScopeContext{})

	_, err := provider.IsInStock(context.Background(), indexsync.StockTarget{Kind: indexsync.StockTargetParent, EntityID: 100}, nil)
	assert.Error(t, err)
}

func TestImpactScopeResolver_StockTargets(t *testing.T) {
	relations := &fakeRelations{parents: map[int64][]int64{5: {100, 200, 100}}}
	ctx := context.Background()

	withChildren := NewImpactScopeResolver(relations, &fakeCategoryStores{}, integratedStores(1))
	require.NotNil(t, withChildren.Children())
	targets, err := withChildren.StockTargets(ctx, 5)
	require.NoError(t, err)
	descriptors := make([]string, 0, len(targets))
	for _, target := range targets {
		descriptors = append(descriptors, target.Descriptor())
	}
	assert.Equal(t, []string{"5", "100-5", "200-5", "100", "200"}, descriptors)

	withoutChildren := NewImpactScopeResolver(parentsOnly{inner: relations}, &fakeCategoryStores{}, integratedStores(1))
	assert.Nil(t, withoutChildren.Children())
	targets, err = withoutChildren.StockTargets(ctx, 5)
	require.NoError(t, err)
	assert.Len(t, targets, 3)
}
