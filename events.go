package indexsync

import (
	"time"

	"github.com/google/uuid"
)

// UpdateKind selects the payload shape and channel of a dispatch.
type UpdateKind string

const (
	UpdateKindEntity    UpdateKind = "entity"
	UpdateKindAttribute UpdateKind = "attribute"
)

// Channel is a fixed publish/subscribe channel name.
type Channel string

const (
	ChannelEntityUpdate    Channel = "indexsync.entity.update"
	ChannelAttributeUpdate Channel = "indexsync.attribute.update"
)

// Entity-type tags carried in payloads.
const (
	EntityTypeProduct    = "catalog_product"
	AttributeTypeProduct = "catalog_product_attribute"
)

// ChannelFor returns the channel a kind publishes on.
func ChannelFor(kind UpdateKind) (Channel, bool) {
	switch kind {
	case UpdateKindEntity:
		return ChannelEntityUpdate, true
	case UpdateKindAttribute:
		return ChannelAttributeUpdate, true
	default:
		return "", false
	}
}

// EntityUpdatePayload is the canonical entity update message.
type EntityUpdatePayload struct {
	EntityType        string   `json:"entityType"`
	EntityIDs         []int64  `json:"entityIds"`
	StoreIDs          []int64  `json:"storeIds"`
	CustomerGroupIDs  []int64  `json:"customerGroupIds"`
	ChangedAttributes []string `json:"changedAttributes"`
	EntitySubtypes    []string `json:"entitySubtypes"`
	RecordIDs         []string `json:"recordIds,omitempty"`
	OriginValue       string   `json:"originValue,omitempty"`
}

// AttributeUpdatePayload is the canonical attribute update message.
type AttributeUpdatePayload struct {
	AttributeType string  `json:"attributeType"`
	AttributeIDs  []int64 `json:"attributeIds"`
	StoreIDs      []int64 `json:"storeIds"`
}

// Event is the envelope published on the bus. Payload is either
// EntityUpdatePayload or AttributeUpdatePayload.
type Event struct {
	ID         uuid.UUID `json:"id"`
	Channel    Channel   `json:"channel"`
	OccurredAt time.Time `json:"occurredAt"`
	Payload    any       `json:"payload"`
}
