package internal

import (
	"context"

	"github.com/lychee-technology/indexsync"
)

// ImpactScopeResolver expands a raw mutation into the parents, stores and
// logical stock records it affects.
type ImpactScopeResolver struct {
	parents     indexsync.ParentResolver
	children    indexsync.ChildResolver
	categories  indexsync.CategoryStoreResolver
	integration indexsync.IntegrationChecker
}

// NewImpactScopeResolver checks once whether parents can also list children.
// Without that capability parent aggregate stock targets are not produced.
func NewImpactScopeResolver(parents indexsync.ParentResolver, categories indexsync.CategoryStoreResolver, integration indexsync.IntegrationChecker) *ImpactScopeResolver {
	r := &ImpactScopeResolver{
		parents:     parents,
		categories:  categories,
		integration: integration,
	}
	if children, ok := parents.(indexsync.ChildResolver); ok {
		r.children = children
	}
	return r
}

// Children returns the child lookup capability, or nil when unsupported.
func (r *ImpactScopeResolver) Children() indexsync.ChildResolver {
	return r.children
}

// ParentIDs returns the distinct configurable parents of childIDs in
// first-seen order.
func (r *ImpactScopeResolver) ParentIDs(ctx context.Context, childIDs []int64) ([]int64, error) {
	if len(childIDs) == 0 {
		return []int64{}, nil
	}
	links, err := r.parents.ParentIDs(ctx, childIDs)
	if err != nil {
		return nil, indexsync.NewCollaboratorError("ParentIDs", err).WithDetail("childIds", childIDs)
	}
	parents := NewOrderedSet[int64]()
	for _, link := range links {
		parents.Add(link.ParentEntityID)
	}
	return parents.Slice(), nil
}

// StockTargets lists the logical records whose stock state depends on the
// stock item of productID: the product itself, the product as a variant of
// each parent, and each parent's aggregate.
func (r *ImpactScopeResolver) StockTargets(ctx context.Context, productID int64) ([]indexsync.StockTarget, error) {
	targets := []indexsync.StockTarget{{Kind: indexsync.StockTargetStandalone, EntityID: productID}}

	parents, err := r.ParentIDs(ctx, []int64{productID})
	if err != nil {
		return nil, err
	}
	for _, parentID := range parents {
		targets = append(targets, indexsync.StockTarget{
			Kind:     indexsync.StockTargetVariant,
			EntityID: productID,
			ParentID: parentID,
		})
	}
	if r.children == nil {
		return targets, nil
	}
	for _, parentID := range parents {
		targets = append(targets, indexsync.StockTarget{Kind: indexsync.StockTargetParent, EntityID: parentID})
	}
	return targets, nil
}

// CategoryStoreIDs returns the integrated stores a category is visible in,
// in ascending order. The lookup happens once per detection.
func (r *ImpactScopeResolver) CategoryStoreIDs(ctx context.Context, categoryID int64) ([]int64, error) {
	stores, err := r.categories.CategoryStoreIDs(ctx, categoryID)
	if err != nil {
		return nil, indexsync.NewCollaboratorError("CategoryStoreIDs", err).WithDetail("categoryId", categoryID)
	}
	return r.IntegratedOnly(stores), nil
}

// IntegratedOnly keeps the integrated stores of storeIDs, sorted and distinct.
func (r *ImpactScopeResolver) IntegratedOnly(storeIDs []int64) []int64 {
	kept := make([]int64, 0, len(storeIDs))
	for _, storeID := range storeIDs {
		if storeID > indexsync.DefaultStoreID && r.integration.IsIntegrated(storeID) {
			kept = append(kept, storeID)
		}
	}
	return sortedUnique(kept)
}
