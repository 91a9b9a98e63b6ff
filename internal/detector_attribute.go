package internal

import (
	"context"

	"github.com/lychee-technology/indexsync"
)

// AttributeConfigDetector reacts to attribute configuration saves and deletes.
type AttributeConfigDetector struct {
	registry indexsync.AttributeRegistry
	defaults indexsync.DefaultAttributeProvider
}

func NewAttributeConfigDetector(registry indexsync.AttributeRegistry, defaults indexsync.DefaultAttributeProvider) *AttributeConfigDetector {
	return &AttributeConfigDetector{registry: registry, defaults: defaults}
}

// AttributeRecords is the outcome of an attribute detection. Entity, when
// set, asks for the listed aspects to be recomputed for every entity.
// Attribute, when set, announces the attribute itself.
type AttributeRecords struct {
	Entity    *indexsync.ChangeRecord
	Attribute *indexsync.ChangeRecord
}

// DetectSave classifies the aspects the save affects. Default attributes are
// always indexable whatever their stored flag says.
func (d *AttributeConfigDetector) DetectSave(ctx context.Context, change indexsync.AttributeConfigChange) (AttributeRecords, error) {
	memo := NewAttributeMemo(d.registry, d.defaults)
	after, err := d.withID(ctx, memo, change.After)
	if err != nil {
		return AttributeRecords{}, err
	}

	newIndexable, err := d.indexable(ctx, memo, after)
	if err != nil {
		return AttributeRecords{}, err
	}

	oldIndexable := false
	oldMapping := indexsync.NewAspectSet()
	if change.Before != nil {
		oldIndexable, err = d.indexable(ctx, memo, *change.Before)
		if err != nil {
			return AttributeRecords{}, err
		}
		oldMapping = change.Before.AspectMapping
	}

	var out AttributeRecords
	aspects := ClassifyAspects(oldIndexable, newIndexable, oldMapping, after.AspectMapping)
	if !aspects.IsEmpty() {
		out.Entity = aspectRecord(after.Code, aspects)
	}
	if newIndexable || oldIndexable != newIndexable {
		out.Attribute = attributeRecord(after.ID)
	}
	return out, nil
}

// DetectDelete announces a deleted indexable attribute and the aspects its
// mapping fed.
func (d *AttributeConfigDetector) DetectDelete(ctx context.Context, attr indexsync.AttributeDescriptor) (AttributeRecords, error) {
	memo := NewAttributeMemo(d.registry, d.defaults)
	attr, err := d.withID(ctx, memo, attr)
	if err != nil {
		return AttributeRecords{}, err
	}
	indexable, err := d.indexable(ctx, memo, attr)
	if err != nil || !indexable {
		return AttributeRecords{}, err
	}

	out := AttributeRecords{Attribute: attributeRecord(attr.ID)}
	if !attr.AspectMapping.IsEmpty() {
		out.Entity = aspectRecord(attr.Code, attr.AspectMapping)
	}
	return out, nil
}

// withID fills in the id of a descriptor the host sent by code only.
func (d *AttributeConfigDetector) withID(ctx context.Context, memo *AttributeMemo, attr indexsync.AttributeDescriptor) (indexsync.AttributeDescriptor, error) {
	if attr.ID > 0 || d.registry == nil {
		return attr, nil
	}
	stored, err := memo.GetAttribute(ctx, attr.Code)
	if indexsync.IsAttributeNotFound(err) {
		return attr, nil
	}
	if err != nil {
		return attr, indexsync.NewCollaboratorError("GetAttribute", err).WithDetail("attribute", attr.Code)
	}
	attr.ID = stored.ID
	return attr, nil
}

func (d *AttributeConfigDetector) indexable(ctx context.Context, memo *AttributeMemo, attr indexsync.AttributeDescriptor) (bool, error) {
	if attr.IsIndexable {
		return true, nil
	}
	isDefault, err := memo.IsDefault(ctx, attr)
	if err != nil {
		return false, indexsync.NewCollaboratorError("DefaultAttributeCodes", err).WithDetail("attribute", attr.Code)
	}
	return isDefault, nil
}

func aspectRecord(code string, aspects indexsync.AspectSet) *indexsync.ChangeRecord {
	return &indexsync.ChangeRecord{
		EntityIDs:         []int64{},
		StoreIDs:          []int64{},
		CustomerGroupIDs:  []int64{},
		ChangedAttributes: []string{code},
		EntitySubtypes:    aspects.Slice(),
	}
}

func attributeRecord(attributeID int64) *indexsync.ChangeRecord {
	ids := []int64{}
	if attributeID > 0 {
		ids = append(ids, attributeID)
	}
	return &indexsync.ChangeRecord{
		AttributeIDs: ids,
		StoreIDs:     []int64{},
	}
}
