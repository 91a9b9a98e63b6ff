package internal

import (
	"context"
	"testing"

	"github.com/lychee-technology/indexsync"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func integratedStores(ids ...int64) *StoreIntegration {
	keys := make(map[int64]string, len(ids))
	for _, id := range ids {
		keys[id] = "key"
	}
	return NewStoreIntegration(keys)
}

func newProductDetector(relations indexsync.ParentResolver, cfg indexsync.DetectionConfig) *ProductSaveDetector {
	integration := integratedStores(1, 7)
	registry := newFakeRegistry(nameAttr, statusAttr, priceAttr,
		indexsync.AttributeDescriptor{ID: 131, Code: indexsync.AttributeQuantityAndStatus, BackendType: indexsync.BackendInt, IsWatched: true},
		indexsync.AttributeDescriptor{ID: 80, Code: "color", BackendType: indexsync.BackendInt, IsWatched: true},
	)
	scope := NewImpactScopeResolver(relations, &fakeCategoryStores{}, integration)
	return NewProductSaveDetector(registry, scope, integration, cfg)
}

func TestProductSaveDetector_WatchedAttributeChanged(t *testing.T) {
	detector := newProductDetector(&fakeRelations{}, indexsync.DefaultConfig().Detection)
	before := &indexsync.ProductSnapshot{EntityID: 10, TypeID: indexsync.ProductTypeSimple, StoreID: 7, Attributes: map[string]any{"name": "A", "sku": "x"}}
	after := indexsync.ProductSnapshot{EntityID: 10, TypeID: indexsync.ProductTypeSimple, StoreID: 7, Attributes: map[string]any{"name": "B", "sku": "y"}}

	record, err := detector.Detect(context.Background(), before, after)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, []int64{10}, record.EntityIDs)
	assert.Equal(t, []int64{7}, record.StoreIDs)
	assert.Equal(t, []string{"name"}, record.ChangedAttributes)
	assert.Empty(t, record.EntitySubtypes)
}

func TestProductSaveDetector_NoWatchedChange(t *testing.T) {
	detector := newProductDetector(&fakeRelations{}, indexsync.DefaultConfig().Detection)
	before := &indexsync.ProductSnapshot{EntityID: 10, StoreID: 7, Attributes: map[string]any{"name": "A", "color": "3", "sku": "x"}}
	after := indexsync.ProductSnapshot{EntityID: 10, StoreID: 7, Attributes: map[string]any{"name": "A", "color": 3, "sku": "y"}}

	record, err := detector.Detect(context.Background(), before, after)
	require.NoError(t, err)
	assert.Nil(t, record)
}

func TestProductSaveDetector_CompositeStockStatusExcluded(t *testing.T) {
	detector := newProductDetector(&fakeRelations{}, indexsync.DefaultConfig().Detection)
	before := &indexsync.ProductSnapshot{EntityID: 100, TypeID: indexsync.ProductTypeConfigurable, StoreID: 1,
		Attributes: map[string]any{indexsync.AttributeQuantityAndStatus: []any{"1"}}}
	after := indexsync.ProductSnapshot{EntityID: 100, TypeID: indexsync.ProductTypeConfigurable, StoreID: 1,
		Attributes: map[string]any{indexsync.AttributeQuantityAndStatus: []any{"1", "0"}}}

	record, err := detector.Detect(context.Background(), before, after)
	require.NoError(t, err)
	assert.Nil(t, record)

	// the same difference on a simple product is a change
	before.TypeID, after.TypeID = indexsync.ProductTypeSimple, indexsync.ProductTypeSimple
	before.Attributes[indexsync.AttributeQuantityAndStatus] = []any{"1", "1"}
	record, err = detector.Detect(context.Background(), before, after)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, []string{indexsync.AttributeQuantityAndStatus}, record.ChangedAttributes)
}

func TestProductSaveDetector_NewProductAlwaysRecorded(t *testing.T) {
	detector := newProductDetector(&fakeRelations{}, indexsync.DefaultConfig().Detection)
	record, err := detector.Detect(context.Background(), nil, indexsync.ProductSnapshot{EntityID: 11, StoreID: 0})
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, []int64{11}, record.EntityIDs)
	assert.Empty(t, record.StoreIDs)
	assert.Empty(t, record.ChangedAttributes)
}

func TestProductSaveDetector_StoreNotIntegrated(t *testing.T) {
	detector := newProductDetector(&fakeRelations{}, indexsync.DefaultConfig().Detection)
	record, err := detector.Detect(context.Background(), nil, indexsync.ProductSnapshot{EntityID: 11, StoreID: 9})
	require.NoError(t, err)
	assert.Nil(t, record)
}

func TestProductSaveDetector_Parents(t *testing.T) {
	relations := &fakeRelations{parents: map[int64][]int64{10: {100, 200}}}
	cfg := indexsync.DefaultConfig().Detection

	record, err := newProductDetector(relations, cfg).Detect(context.Background(), nil, indexsync.ProductSnapshot{EntityID: 10, StoreID: 1})
	require.NoError(t, err)
	assert.Equal(t, []int64{10, 100, 200}, record.EntityIDs)

	cfg.IncludeParentsOnChildSave = false
	record, err = newProductDetector(relations, cfg).Detect(context.Background(), nil, indexsync.ProductSnapshot{EntityID: 10, StoreID: 1})
	require.NoError(t, err)
	assert.Equal(t, []int64{10}, record.EntityIDs)

	// a failing parent lookup drops the enrichment, not the record
	relations.err = errBoom
	cfg.IncludeParentsOnChildSave = true
	record, err = newProductDetector(relations, cfg).Detect(context.Background(), nil, indexsync.ProductSnapshot{EntityID: 10, StoreID: 1})
	require.NoError(t, err)
	assert.Equal(t, []int64{10}, record.EntityIDs)
}

func TestProductSaveDetector_Delete(t *testing.T) {
	relations := &fakeRelations{parents: map[int64][]int64{10: {100}}}
	record, err := newProductDetector(relations, indexsync.DefaultConfig().Detection).DetectDelete(context.Background(), indexsync.ProductDeletion{EntityID: 10})
	require.NoError(t, err)
	assert.Equal(t, []int64{10, 100}, record.EntityIDs)
	assert.Empty(t, record.StoreIDs)

	_, err = newProductDetector(relations, indexsync.DefaultConfig().Detection).DetectDelete(context.Background(), indexsync.ProductDeletion{EntityID: 0})
	assert.Error(t, err)
}

func TestPriceDetector_GroupsByStore(t *testing.T) {
	links := &identityLinks{rowToEntity: map[int64]int64{10: 501, 11: 501, 12: 502}}
	detector := NewPriceDetector(links, integratedStores(1, 2))

	rows := []indexsync.PriceRow{
		{AttributeCode: "special_price", StoreID: 2, RowLinkID: 12, Value: decimal.NewFromInt(5)},
		{AttributeCode: indexsync.AttributePrice, StoreID: 0, RowLinkID: 10, Value: decimal.NewFromInt(9)},
		{StoreID: 0, RowLinkID: 11, Value: decimal.NewFromInt(9)},
		{AttributeCode: indexsync.AttributePrice, StoreID: 3, RowLinkID: 12, Value: decimal.NewFromInt(1)},
	}
	records, err := detector.DetectPrices(context.Background(), rows)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, []int64{501}, records[0].EntityIDs)
	assert.Empty(t, records[0].StoreIDs)
	assert.Equal(t, []string{indexsync.AttributePrice}, records[0].ChangedAttributes)

	assert.Equal(t, []int64{502}, records[1].EntityIDs)
	assert.Equal(t, []int64{2}, records[1].StoreIDs)
	assert.Equal(t, []string{"special_price"}, records[1].ChangedAttributes)
}

func TestPriceDetector_TierPriceCustomerGroups(t *testing.T) {
	detector := NewPriceDetector(&identityLinks{}, integratedStores(1))

	records, err := detector.DetectTierPrices(context.Background(), []indexsync.TierPriceRow{
		{StoreID: 1, RowLinkID: 7, CustomerGroupID: 3},
		{StoreID: 1, RowLinkID: 8, CustomerGroupID: 1},
		{StoreID: 1, RowLinkID: 7, CustomerGroupID: 3},
	})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, []int64{7, 8}, records[0].EntityIDs)
	assert.Equal(t, []int64{1, 3}, records[0].CustomerGroupIDs)

	records, err = detector.DetectTierPrices(context.Background(), []indexsync.TierPriceRow{
		{StoreID: 1, RowLinkID: 7, CustomerGroupID: 3},
		{StoreID: 1, RowLinkID: 7, AllGroups: true},
	})
	require.NoError(t, err)
	assert.Empty(t, records[0].CustomerGroupIDs)
}

func TestPriceDetector_MappingFailure(t *testing.T) {
	detector := NewPriceDetector(&identityLinks{err: errBoom}, integratedStores(1))
	_, err := detector.DetectTierPrices(context.Background(), []indexsync.TierPriceRow{{StoreID: 1, RowLinkID: 7}})
	assert.True(t, indexsync.IsCollaboratorError(err))
}

func TestPriceDetector_MappingFailureSkipsOnlyItsStore(t *testing.T) {
	links := &identityLinks{failing: map[int64]bool{12: true}}
	detector := NewPriceDetector(links, integratedStores(1, 3))

	records, err := detector.DetectPrices(context.Background(), []indexsync.PriceRow{
		{StoreID: 1, RowLinkID: 10},
		{StoreID: 3, RowLinkID: 12},
	})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, []int64{10}, records[0].EntityIDs)
	assert.Equal(t, []int64{1}, records[0].StoreIDs)
}

func TestCategoryRelationDetector(t *testing.T) {
	categories := &fakeCategoryStores{stores: map[int64][]int64{17: {3, 1, 2}, 18: {9}}}
	scope := NewImpactScopeResolver(&fakeRelations{}, categories, integratedStores(1, 3))
	detector := NewCategoryRelationDetector(scope)
	ctx := context.Background()

	record, err := detector.Detect(ctx, indexsync.CategoryRelationChange{
		CategoryID:        17,
		AddedProductIDs:   []int64{30, 10},
		RemovedProductIDs: []int64{20},
		UpdatedProductIDs: []int64{10},
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{10, 20, 30}, record.EntityIDs)
	assert.Equal(t, []int64{1, 3}, record.StoreIDs)
	assert.Equal(t, []string{indexsync.AttributeCategoryIDs}, record.ChangedAttributes)

	record, err = detector.Detect(ctx, indexsync.CategoryRelationChange{CategoryID: 18, AddedProductIDs: []int64{10}})
	require.NoError(t, err)
	assert.Nil(t, record, "category only visible in a non-integrated store")

	record, err = detector.Detect(ctx, indexsync.CategoryRelationChange{CategoryID: 17})
	require.NoError(t, err)
	assert.Nil(t, record)

	categories.err = errBoom
	_, err = detector.Detect(ctx, indexsync.CategoryRelationChange{CategoryID: 17, AddedProductIDs: []int64{10}})
	assert.True(t, indexsync.IsCollaboratorError(err))
}

func TestConfigurableLinkDetector(t *testing.T) {
	detector := NewConfigurableLinkDetector(integratedStores(1))

	record, err := detector.Detect(indexsync.ConfigurableLinkChange{ParentID: 100, AddedChildIDs: []int64{5, 6}, RemovedChildIDs: []int64{6, 7}})
	require.NoError(t, err)
	assert.Equal(t, []int64{100, 5, 6, 7}, record.EntityIDs)

	record, err = detector.Detect(indexsync.ConfigurableLinkChange{ParentID: 100})
	require.NoError(t, err)
	assert.Nil(t, record)

	_, err = detector.Detect(indexsync.ConfigurableLinkChange{AddedChildIDs: []int64{5}})
	assert.Error(t, err)
}

func TestAttributeConfigDetector_Save(t *testing.T) {
	color := indexsync.AttributeDescriptor{ID: 80, Code: "color", BackendType: indexsync.BackendInt}
	detector := NewAttributeConfigDetector(newFakeRegistry(color), newFakeRegistry(statusAttr))
	ctx := context.Background()

	t.Run("indexing switched on", func(t *testing.T) {
		before := color
		after := color
		after.IsIndexable = true
		after.AspectMapping = indexsync.NewAspectSet(indexsync.AspectPrice)

		records, err := detector.DetectSave(ctx, indexsync.AttributeConfigChange{Before: &before, After: after})
		require.NoError(t, err)
		require.NotNil(t, records.Entity)
		assert.Equal(t, []indexsync.Aspect{indexsync.AspectPrice}, records.Entity.EntitySubtypes)
		assert.Empty(t, records.Entity.EntityIDs)
		require.NotNil(t, records.Attribute)
		assert.Equal(t, []int64{80}, records.Attribute.AttributeIDs)
	})

	t.Run("mapping extended", func(t *testing.T) {
		before := color
		before.IsIndexable = true
		before.AspectMapping = indexsync.NewAspectSet(indexsync.AspectPrice)
		after := before
		after.AspectMapping = indexsync.NewAspectSet(indexsync.AspectPrice, indexsync.AspectStock)

		records, err := detector.DetectSave(ctx, indexsync.AttributeConfigChange{Before: &before, After: after})
		require.NoError(t, err)
		assert.Equal(t, []indexsync.Aspect{indexsync.AspectStock}, records.Entity.EntitySubtypes)
		assert.NotNil(t, records.Attribute)
	})

	t.Run("non indexable untouched", func(t *testing.T) {
		before := color
		after := color
		after.AspectMapping = indexsync.NewAspectSet()
		records, err := detector.DetectSave(ctx, indexsync.AttributeConfigChange{Before: &before, After: after})
		require.NoError(t, err)
		assert.Nil(t, records.Entity)
		assert.Nil(t, records.Attribute)
	})

	t.Run("default attribute is always indexable", func(t *testing.T) {
		before := statusAttr
		before.IsDefault = false
		before.IsIndexable = false
		after := before
		after.AspectMapping = indexsync.NewAspectSet(indexsync.AspectVisibility)

		records, err := detector.DetectSave(ctx, indexsync.AttributeConfigChange{Before: &before, After: after})
		require.NoError(t, err)
		assert.Equal(t, []indexsync.Aspect{indexsync.AspectVisibility}, records.Entity.EntitySubtypes)
		assert.Equal(t, []int64{statusAttr.ID}, records.Attribute.AttributeIDs)
	})

	t.Run("id looked up by code", func(t *testing.T) {
		after := indexsync.AttributeDescriptor{Code: "color", IsIndexable: true}
		records, err := detector.DetectSave(ctx, indexsync.AttributeConfigChange{After: after})
		require.NoError(t, err)
		assert.Equal(t, []int64{80}, records.Attribute.AttributeIDs)
	})
}

func TestAttributeConfigDetector_Delete(t *testing.T) {
	detector := NewAttributeConfigDetector(newFakeRegistry(), nil)
	ctx := context.Background()

	attr := indexsync.AttributeDescriptor{ID: 81, Code: "material", IsIndexable: true, AspectMapping: indexsync.NewAspectSet(indexsync.AspectAttributes)}
	records, err := detector.DetectDelete(ctx, attr)
	require.NoError(t, err)
	assert.Equal(t, []int64{81}, records.Attribute.AttributeIDs)
	assert.Equal(t, []indexsync.Aspect{indexsync.AspectAttributes}, records.Entity.EntitySubtypes)

	attr.IsIndexable = false
	records, err = detector.DetectDelete(ctx, attr)
	require.NoError(t, err)
	assert.Nil(t, records.Attribute)
	assert.Nil(t, records.Entity)
}

func TestAttributeConfigDetector_DefaultsFailure(t *testing.T) {
	defaults := newFakeRegistry()
	defaults.err = errBoom
	detector := NewAttributeConfigDetector(nil, defaults)

	_, err := detector.DetectSave(context.Background(), indexsync.AttributeConfigChange{After: indexsync.AttributeDescriptor{ID: 5, Code: "x"}})
	assert.True(t, indexsync.IsCollaboratorError(err))
}
