package internal

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/lychee-technology/indexsync"
)

//go:embed schemas/*.json
var payloadSchemaFiles embed.FS

// shapeEntityPayload builds the canonical entity update message: entity ids
// keep their first-seen order, store and customer group ids and attribute
// codes are sorted, aspects follow the enum order with ALL subsuming the
// others, and no list is nil.
func shapeEntityPayload(record indexsync.ChangeRecord) (indexsync.EntityUpdatePayload, error) {
	for _, id := range record.EntityIDs {
		if id <= 0 {
			return indexsync.EntityUpdatePayload{}, fmt.Errorf("entity id %d is not positive", id)
		}
	}
	if err := checkStoreIDs(record.StoreIDs); err != nil {
		return indexsync.EntityUpdatePayload{}, err
	}

	subtypes := indexsync.NewAspectSet()
	for _, aspect := range record.EntitySubtypes {
		if !aspect.IsValid() {
			return indexsync.EntityUpdatePayload{}, fmt.Errorf("unknown aspect %q", aspect)
		}
		subtypes.Add(aspect)
	}
	subtypes = subtypes.Canonical()
	subtypeNames := make([]string, 0, len(subtypes))
	for _, aspect := range subtypes.Slice() {
		subtypeNames = append(subtypeNames, string(aspect))
	}

	codes := make([]string, 0, len(record.ChangedAttributes))
	for _, code := range record.ChangedAttributes {
		if code = strings.TrimSpace(code); code != "" {
			codes = append(codes, code)
		}
	}

	payload := indexsync.EntityUpdatePayload{
		EntityType:        indexsync.EntityTypeProduct,
		EntityIDs:         uniqueInOrder(record.EntityIDs),
		StoreIDs:          sortedUnique(record.StoreIDs),
		CustomerGroupIDs:  sortedUnique(record.CustomerGroupIDs),
		ChangedAttributes: sortedUnique(codes),
		EntitySubtypes:    subtypeNames,
		OriginValue:       record.OriginValue,
	}
	if len(record.RecordIDs) > 0 {
		payload.RecordIDs = uniqueInOrder(record.RecordIDs)
	}
	return payload, nil
}

// shapeAttributePayload builds the canonical attribute update message.
func shapeAttributePayload(record indexsync.ChangeRecord) (indexsync.AttributeUpdatePayload, error) {
	for _, id := range record.AttributeIDs {
		if id <= 0 {
			return indexsync.AttributeUpdatePayload{}, fmt.Errorf("attribute id %d is not positive", id)
		}
	}
	if err := checkStoreIDs(record.StoreIDs); err != nil {
		return indexsync.AttributeUpdatePayload{}, err
	}
	return indexsync.AttributeUpdatePayload{
		AttributeType: indexsync.AttributeTypeProduct,
		AttributeIDs:  sortedUnique(record.AttributeIDs),
		StoreIDs:      sortedUnique(record.StoreIDs),
	}, nil
}

// checkStoreIDs rejects the default store inside a store list: "all stores"
// is the empty list.
func checkStoreIDs(storeIDs []int64) error {
	for _, id := range storeIDs {
		if id <= indexsync.DefaultStoreID {
			return fmt.Errorf("store id %d is not a store view", id)
		}
	}
	return nil
}

// payloadValidator checks shaped payloads against the embedded JSON schemas.
type payloadValidator struct {
	schemas map[indexsync.UpdateKind]*jsonschema.Resolved
}

func newPayloadValidator() (*payloadValidator, error) {
	files := map[indexsync.UpdateKind]string{
		indexsync.UpdateKindEntity:    "schemas/entity_update.json",
		indexsync.UpdateKindAttribute: "schemas/attribute_update.json",
	}

	v := &payloadValidator{schemas: make(map[indexsync.UpdateKind]*jsonschema.Resolved, len(files))}
	for kind, name := range files {
		raw, err := payloadSchemaFiles.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("read schema %s: %w", name, err)
		}
		var schema jsonschema.Schema
		if err := json.Unmarshal(raw, &schema); err != nil {
			return nil, fmt.Errorf("parse schema %s: %w", name, err)
		}
		resolved, err := schema.Resolve(&jsonschema.ResolveOptions{})
		if err != nil {
			return nil, fmt.Errorf("resolve schema %s: %w", name, err)
		}
		v.schemas[kind] = resolved
	}
	return v, nil
}

func (v *payloadValidator) Validate(kind indexsync.UpdateKind, payload any) error {
	resolved, ok := v.schemas[kind]
	if !ok {
		return fmt.Errorf("no schema for %s payloads", kind)
	}

	// validate the wire form, not the Go value
	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	var instance any
	if err := json.Unmarshal(encoded, &instance); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	if err := resolved.Validate(instance); err != nil {
		return fmt.Errorf("payload validation failed: %w", err)
	}
	return nil
}
