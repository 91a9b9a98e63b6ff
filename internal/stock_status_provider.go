package internal

import (
	"context"

	"github.com/lychee-technology/indexsync"
)

// ProductStockStatusProvider decides whether a stock target is in stock from
// persisted stock flags and the combined product status.
type ProductStockStatusProvider struct {
	stock    indexsync.StockRepository
	resolver *ScopedAttributeResolver
	children indexsync.ChildResolver
	scope    indexsync.ScopeContext
}

// NewProductStockStatusProvider builds a provider evaluating statuses in
// scope. children may be nil, in which case parent targets cannot be evaluated.
func NewProductStockStatusProvider(stock indexsync.StockRepository, resolver *ScopedAttributeResolver, children indexsync.ChildResolver, scope indexsync.ScopeContext) *ProductStockStatusProvider {
	return &ProductStockStatusProvider{stock: stock, resolver: resolver, children: children, scope: scope}
}

// IsInStock implements indexsync.StockStatusProvider.
//
//	standalone P: stock(P) and status(P) enabled
//	variant X-P:  stock(P) and stock(X) and status(P, X) enabled
//	parent X:     stock(X) and status(X) enabled and at least one child
//	              qualifies as a variant of X
func (p *ProductStockStatusProvider) IsInStock(ctx context.Context, target indexsync.StockTarget, overrides map[int64]bool) (bool, error) {
	resolver := p.resolver.ForOperation()

	switch target.Kind {
	case indexsync.StockTargetStandalone:
		flags, err := p.flags(ctx, []int64{target.EntityID}, overrides)
		if err != nil || !flags[target.EntityID] {
			return false, err
		}
		return p.enabled(ctx, resolver, target.EntityID, 0)

	case indexsync.StockTargetVariant:
		return p.variantInStock(ctx, resolver, target.EntityID, target.ParentID, overrides, nil)

	case indexsync.StockTargetParent:
		if p.children == nil {
			return false, indexsync.NewConfigurationError("parent stock targets need a child resolver")
		}
		children, err := p.children.ChildIDs(ctx, target.EntityID)
		if err != nil {
			return false, indexsync.NewCollaboratorError("ChildIDs", err).WithDetail("parentId", target.EntityID)
		}
		flags, err := p.flags(ctx, append([]int64{target.EntityID}, children...), overrides)
		if err != nil || !flags[target.EntityID] {
			return false, err
		}
		enabled, err := p.enabled(ctx, resolver, target.EntityID, 0)
		if err != nil || !enabled {
			return false, err
		}
		for _, childID := range children {
			ok, err := p.variantInStock(ctx, resolver, childID, target.EntityID, overrides, flags)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil

	default:
		return false, indexsync.NewInvalidMutationError("unknown stock target kind " + string(target.Kind))
	}
}

func (p *ProductStockStatusProvider) variantInStock(ctx context.Context, resolver *ScopedAttributeResolver, childID, parentID int64, overrides, flags map[int64]bool) (bool, error) {
	if flags == nil {
		var err error
		flags, err = p.flags(ctx, []int64{childID, parentID}, overrides)
		if err != nil {
			return false, err
		}
	}
	if !flags[childID] || !flags[parentID] {
		return false, nil
	}
	return p.enabled(ctx, resolver, childID, parentID)
}

// flags loads persisted stock flags and applies overrides on top.
func (p *ProductStockStatusProvider) flags(ctx context.Context, ids []int64, overrides map[int64]bool) (map[int64]bool, error) {
	flags, err := p.stock.InStockFlags(ctx, ids)
	if err != nil {
		return nil, indexsync.NewCollaboratorError("InStockFlags", err).WithDetail("productIds", ids)
	}
	if flags == nil {
		flags = make(map[int64]bool, len(overrides))
	}
	for id, inStock := range overrides {
		flags[id] = inStock
	}
	return flags, nil
}

// enabled resolves the status of childID combined with parentID (0 for none).
func (p *ProductStockStatusProvider) enabled(ctx context.Context, resolver *ScopedAttributeResolver, childID, parentID int64) (bool, error) {
	status, err := resolver.ResolveCombined(ctx, indexsync.AttributeStatus, childID, parentID, p.scope.StoreID, indexsync.CombineStatus)
	if err != nil {
		return false, err
	}
	return !isDisabled(status), nil
}
