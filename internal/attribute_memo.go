package internal

import (
	"context"

	"github.com/lychee-technology/indexsync"
)

type memoizedAttribute struct {
	attr indexsync.AttributeDescriptor
	err  error
}

// AttributeMemo caches attribute lookups for the lifetime of one operation.
// It is not safe for concurrent use. Create one per mutation and drop it.
type AttributeMemo struct {
	registry indexsync.AttributeRegistry
	defaults indexsync.DefaultAttributeProvider

	byCode       map[string]memoizedAttribute
	defaultCodes *Set[string]
}

// NewAttributeMemo wraps registry. defaults may be nil, in which case only the
// descriptor's own IsDefault flag is consulted.
func NewAttributeMemo(registry indexsync.AttributeRegistry, defaults indexsync.DefaultAttributeProvider) *AttributeMemo {
	return &AttributeMemo{
		registry: registry,
		defaults: defaults,
		byCode:   make(map[string]memoizedAttribute),
	}
}

// GetAttribute implements indexsync.AttributeRegistry. Found descriptors and
// not-found results are memoized; other failures are retried on the next call.
func (m *AttributeMemo) GetAttribute(ctx context.Context, code string) (indexsync.AttributeDescriptor, error) {
	if hit, ok := m.byCode[code]; ok {
		return hit.attr, hit.err
	}
	attr, err := m.registry.GetAttribute(ctx, code)
	if err == nil || indexsync.IsAttributeNotFound(err) {
		m.byCode[code] = memoizedAttribute{attr: attr, err: err}
	}
	return attr, err
}

// IsDefault reports whether attr is a core attribute that is always indexed.
func (m *AttributeMemo) IsDefault(ctx context.Context, attr indexsync.AttributeDescriptor) (bool, error) {
	if attr.IsDefault {
		return true, nil
	}
	if m.defaults == nil {
		return false, nil
	}
	if m.defaultCodes == nil {
		codes, err := m.defaults.DefaultAttributeCodes(ctx)
		if err != nil {
			return false, err
		}
		m.defaultCodes = NewSet(codes...)
	}
	return m.defaultCodes.Contains(attr.Code), nil
}
