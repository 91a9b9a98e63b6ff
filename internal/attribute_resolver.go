package internal

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/lychee-technology/indexsync"
	"github.com/shopspring/decimal"
)

// datetimeLayouts are the text forms Postgres renders timestamp columns in.
var datetimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999Z07",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ScopedAttributeResolver computes effective attribute values with the
// store-override over store-default fallback.
type ScopedAttributeResolver struct {
	attributes indexsync.AttributeRegistry
	values     AttributeValueStore
	links      indexsync.LinkFieldMapper
}

func NewScopedAttributeResolver(attributes indexsync.AttributeRegistry, values AttributeValueStore, links indexsync.LinkFieldMapper) *ScopedAttributeResolver {
	return &ScopedAttributeResolver{attributes: attributes, values: values, links: links}
}

// ForOperation returns a copy whose attribute lookups are memoized until the
// copy is dropped.
func (r *ScopedAttributeResolver) ForOperation() *ScopedAttributeResolver {
	if _, ok := r.attributes.(*AttributeMemo); ok {
		return r
	}
	cp := *r
	cp.attributes = NewAttributeMemo(r.attributes, nil)
	return &cp
}

// Resolve returns the value of attributeCode for entityID in storeID. A
// missing entity or missing rows resolve to a null value; only an unknown
// attribute is an error.
func (r *ScopedAttributeResolver) Resolve(ctx context.Context, attributeCode string, entityID, storeID int64) (indexsync.ResolvedAttributeValue, error) {
	attr, err := r.attributes.GetAttribute(ctx, attributeCode)
	if err != nil {
		return indexsync.ResolvedAttributeValue{}, err
	}
	return r.ResolveDescriptor(ctx, attr, entityID, storeID)
}

// ResolveDescriptor resolves an attribute the caller already loaded.
func (r *ScopedAttributeResolver) ResolveDescriptor(ctx context.Context, attr indexsync.AttributeDescriptor, entityID, storeID int64) (indexsync.ResolvedAttributeValue, error) {
	null := indexsync.ResolvedAttributeValue{Source: indexsync.SourceDefault}

	if !attr.BackendType.HasValueTable() {
		return null, indexsync.NewUnsupportedBackendError(attr.Code, attr.BackendType)
	}

	started := time.Now()
	defer EmitResolveLatency(string(attr.BackendType), started)

	linkID, found, err := r.links.LinkID(ctx, entityID)
	if err != nil {
		return null, indexsync.NewCollaboratorError("LinkID", err).WithDetail("entityId", entityID)
	}
	if !found {
		return null, nil
	}

	rows, err := r.values.ScopedValues(ctx, attr, linkID, storeID)
	if err != nil {
		return null, indexsync.NewCollaboratorError("ScopedValues", err).
			WithDetail("attribute", attr.Code).
			WithDetail("entityId", entityID).
			WithDetail("storeId", storeID)
	}

	var defaultRow, storeRow *ScopedValueRow
	for i := range rows {
		switch rows[i].StoreID {
		case indexsync.DefaultStoreID:
			defaultRow = &rows[i]
		case storeID:
			storeRow = &rows[i]
		}
	}

	switch {
	case storeRow != nil:
		value, err := decodeAttributeValue(attr, storeRow.Value)
		return indexsync.ResolvedAttributeValue{Value: value, Source: indexsync.SourceStoreOverride}, err
	case defaultRow != nil:
		value, err := decodeAttributeValue(attr, defaultRow.Value)
		return indexsync.ResolvedAttributeValue{Value: value, Source: indexsync.SourceDefault}, err
	default:
		return null, nil
	}
}

// ResolveCombined resolves the child and its parent independently and merges
// them with rule. Without a parent the child's own value is returned.
func (r *ScopedAttributeResolver) ResolveCombined(ctx context.Context, attributeCode string, childID, parentID, storeID int64, rule indexsync.CombineRule) (indexsync.ResolvedAttributeValue, error) {
	attr, err := r.attributes.GetAttribute(ctx, attributeCode)
	if err != nil {
		return indexsync.ResolvedAttributeValue{}, err
	}

	child, err := r.ResolveDescriptor(ctx, attr, childID, storeID)
	if err != nil {
		return indexsync.ResolvedAttributeValue{}, err
	}
	if parentID <= 0 {
		return child, nil
	}

	parent, err := r.ResolveDescriptor(ctx, attr, parentID, storeID)
	if err != nil {
		return indexsync.ResolvedAttributeValue{}, err
	}
	return combineValues(rule, child, parent), nil
}

func combineValues(rule indexsync.CombineRule, child, parent indexsync.ResolvedAttributeValue) indexsync.ResolvedAttributeValue {
	if rule != indexsync.CombineStatus {
		return parent
	}
	if isDisabled(child) {
		return indexsync.ResolvedAttributeValue{Value: indexsync.StatusDisabled, Source: child.Source}
	}
	if isDisabled(parent) {
		return indexsync.ResolvedAttributeValue{Value: indexsync.StatusDisabled, Source: parent.Source}
	}
	return indexsync.ResolvedAttributeValue{Value: indexsync.StatusEnabled, Source: child.Source}
}

func isDisabled(v indexsync.ResolvedAttributeValue) bool {
	status, ok := v.Int64()
	return ok && status == indexsync.StatusDisabled
}

// decodeAttributeValue converts the text form of a stored value to the Go type
// of its backend.
func decodeAttributeValue(attr indexsync.AttributeDescriptor, raw *string) (any, error) {
	if raw == nil {
		return nil, nil
	}
	text := *raw

	switch attr.BackendType {
	case indexsync.BackendInt:
		n, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
		if err != nil {
			return nil, indexsync.NewInvalidValueError(attr.Code, text, err)
		}
		return n, nil
	case indexsync.BackendDecimal:
		d, err := decimal.NewFromString(strings.TrimSpace(text))
		if err != nil {
			return nil, indexsync.NewInvalidValueError(attr.Code, text, err)
		}
		return d, nil
	case indexsync.BackendDatetime:
		var lastErr error
		for _, layout := range datetimeLayouts {
			t, err := time.Parse(layout, strings.TrimSpace(text))
			if err == nil {
				return t, nil
			}
			lastErr = err
		}
		return nil, indexsync.NewInvalidValueError(attr.Code, text, lastErr)
	default:
		return text, nil
	}
}
