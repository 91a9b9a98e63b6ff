package internal

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/lychee-technology/indexsync"
)

var errBoom = errors.New("boom")

func strPtr(s string) *string { return &s }

type fakeRegistry struct {
	attrs map[string]indexsync.AttributeDescriptor
	calls int
	err   error
}

func newFakeRegistry(attrs ...indexsync.AttributeDescriptor) *fakeRegistry {
	f := &fakeRegistry{attrs: make(map[string]indexsync.AttributeDescriptor, len(attrs))}
	for _, attr := range attrs {
		f.attrs[attr.Code] = attr
	}
	return f
}

func (f *fakeRegistry) GetAttribute(_ context.Context, code string) (indexsync.AttributeDescriptor, error) {
	f.calls++
	if f.err != nil {
		return indexsync.AttributeDescriptor{}, f.err
	}
	attr, ok := f.attrs[code]
	if !ok {
		return indexsync.AttributeDescriptor{}, indexsync.NewAttributeNotFoundError(code)
	}
	return attr, nil
}

func (f *fakeRegistry) WatchedAttributeCodes(context.Context) ([]string, error) {
	return f.codesWhere(func(a indexsync.AttributeDescriptor) bool { return a.IsWatched })
}

func (f *fakeRegistry) DefaultAttributeCodes(context.Context) ([]string, error) {
	return f.codesWhere(func(a indexsync.AttributeDescriptor) bool { return a.IsDefault })
}

func (f *fakeRegistry) codesWhere(keep func(indexsync.AttributeDescriptor) bool) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	codes := make([]string, 0)
	for code, attr := range f.attrs {
		if keep(attr) {
			codes = append(codes, code)
		}
	}
	sort.Strings(codes)
	return codes, nil
}

type valueKey struct {
	attribute string
	linkID    int64
}

type fakeValueStore struct {
	rows map[valueKey][]ScopedValueRow
	err  error
}

func newFakeValueStore() *fakeValueStore {
	return &fakeValueStore{rows: make(map[valueKey][]ScopedValueRow)}
}

func (f *fakeValueStore) set(attribute string, linkID, storeID int64, value *string) *fakeValueStore {
	key := valueKey{attribute: attribute, linkID: linkID}
	f.rows[key] = append(f.rows[key], ScopedValueRow{StoreID: storeID, Value: value})
	return f
}

func (f *fakeValueStore) ScopedValues(_ context.Context, attr indexsync.AttributeDescriptor, linkID, storeID int64) ([]ScopedValueRow, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]ScopedValueRow, 0)
	for _, row := range f.rows[valueKey{attribute: attr.Code, linkID: linkID}] {
		if row.StoreID == indexsync.DefaultStoreID || row.StoreID == storeID {
			out = append(out, row)
		}
	}
	return out, nil
}

// identityLinks maps entity ids to themselves, like an entity_id link field.
type identityLinks struct {
	rowToEntity map[int64]int64
	unknown     map[int64]bool
	failing     map[int64]bool
	err         error
}

func (f *identityLinks) EntityIDs(_ context.Context, linkIDs []int64) ([]int64, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, id := range linkIDs {
		if f.failing[id] {
			return nil, errBoom
		}
	}
	out := NewOrderedSet[int64]()
	for _, id := range linkIDs {
		if mapped, ok := f.rowToEntity[id]; ok {
			out.Add(mapped)
			continue
		}
		if f.rowToEntity == nil {
			out.Add(id)
		}
	}
	return out.Slice(), nil
}

func (f *identityLinks) LinkID(_ context.Context, entityID int64) (int64, bool, error) {
	if f.err != nil {
		return 0, false, f.err
	}
	if f.unknown[entityID] {
		return 0, false, nil
	}
	return entityID, true, nil
}

// fakeRelations implements ParentResolver and ChildResolver.
type fakeRelations struct {
	parents map[int64][]int64
	err     error
}

func (f *fakeRelations) ParentIDs(_ context.Context, childIDs []int64) ([]indexsync.ParentChildLink, error) {
	if f.err != nil {
		return nil, f.err
	}
	links := make([]indexsync.ParentChildLink, 0)
	for _, child := range childIDs {
		for _, parent := range f.parents[child] {
			links = append(links, indexsync.ParentChildLink{ChildEntityID: child, ParentEntityID: parent})
		}
	}
	return links, nil
}

func (f *fakeRelations) ChildIDs(_ context.Context, parentID int64) ([]int64, error) {
	if f.err != nil {
		return nil, f.err
	}
	children := make([]int64, 0)
	for child, parents := range f.parents {
		for _, p := range parents {
			if p == parentID {
				children = append(children, child)
			}
		}
	}
	sort.Slice(children, func(i, j int) bool { return children[i] < children[j] })
	return children, nil
}

// parentsOnly hides the ChildResolver capability of the wrapped relations.
type parentsOnly struct {
	inner *fakeRelations
}

func (p parentsOnly) ParentIDs(ctx context.Context, childIDs []int64) ([]indexsync.ParentChildLink, error) {
	return p.inner.ParentIDs(ctx, childIDs)
}

type fakeStockRepo struct {
	flags map[int64]bool
	err   error
}

func (f *fakeStockRepo) InStockFlags(_ context.Context, ids []int64) (map[int64]bool, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if flag, ok := f.flags[id]; ok {
			out[id] = flag
		}
	}
	return out, nil
}

type fakeCategoryStores struct {
	stores map[int64][]int64
	err    error
}

func (f *fakeCategoryStores) CategoryStoreIDs(_ context.Context, categoryID int64) ([]int64, error) {
	if f.err != nil {
		return nil, f.err
	}
	return append([]int64{}, f.stores[categoryID]...), nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []indexsync.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, channel indexsync.Channel, event indexsync.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	event.Channel = channel
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) published() []indexsync.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]indexsync.Event(nil), p.events...)
}
