package internal

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lychee-technology/indexsync"
	"go.uber.org/zap"
)

// UpdateEventDispatcher is the single funnel from detectors to the bus. It
// never fails its caller: every problem is logged and the publish dropped.
type UpdateEventDispatcher struct {
	publisher indexsync.Publisher
	validator *payloadValidator
	nowFunc   func() time.Time
	newID     func() (uuid.UUID, error)
}

// NewUpdateEventDispatcher builds a dispatcher. Schema validation of shaped
// payloads is skipped when validatePayloads is false.
func NewUpdateEventDispatcher(publisher indexsync.Publisher, validatePayloads bool) (*UpdateEventDispatcher, error) {
	d := &UpdateEventDispatcher{
		publisher: publisher,
		nowFunc:   time.Now,
		newID:     uuid.NewV7,
	}
	if validatePayloads {
		v, err := newPayloadValidator()
		if err != nil {
			return nil, fmt.Errorf("load payload schemas: %w", err)
		}
		d.validator = v
	}
	return d, nil
}

// Dispatch publishes at most one event for record.
func (d *UpdateEventDispatcher) Dispatch(ctx context.Context, record indexsync.ChangeRecord, kind indexsync.UpdateKind) {
	defer func() {
		if r := recover(); r != nil {
			zap.S().Errorw("dispatch panicked", "kind", kind, "panic", r)
			EmitDispatch(string(kind), resultFailed)
		}
	}()

	channel, ok := indexsync.ChannelFor(kind)
	if !ok {
		zap.S().Warnw("unknown update kind, dropping record", "kind", kind)
		EmitDispatch(string(kind), resultInvalid)
		return
	}

	if !dispatchable(record, kind) {
		zap.S().Debugw("nothing to dispatch", "kind", kind)
		EmitDispatch(string(kind), resultSkipped)
		return
	}

	payload, err := d.shape(record, kind)
	if err != nil {
		zap.S().Warnw("dropping malformed update",
			"kind", kind,
			"entity_ids", record.EntityIDs,
			"attribute_ids", record.AttributeIDs,
			"err", err,
		)
		EmitDispatch(string(kind), resultInvalid)
		return
	}

	id, err := d.newID()
	if err != nil {
		zap.S().Errorw("cannot allocate event id", "kind", kind, "err", err)
		EmitDispatch(string(kind), resultFailed)
		return
	}
	event := indexsync.Event{
		ID:         id,
		Channel:    channel,
		OccurredAt: d.nowFunc().UTC(),
		Payload:    payload,
	}

	if err := d.publisher.Publish(ctx, channel, event); err != nil {
		zap.S().Errorw("publish failed", "kind", kind, "event_id", id, "channel", channel, "err", err)
		EmitDispatch(string(kind), resultFailed)
		return
	}

	zap.S().Debugw("update published", "kind", kind, "event_id", id, "channel", channel)
	EmitDispatch(string(kind), resultPublished)
}

func dispatchable(record indexsync.ChangeRecord, kind indexsync.UpdateKind) bool {
	if kind == indexsync.UpdateKindAttribute {
		return len(record.AttributeIDs) > 0
	}
	return !record.IsEmpty()
}

func (d *UpdateEventDispatcher) shape(record indexsync.ChangeRecord, kind indexsync.UpdateKind) (any, error) {
	var (
		payload any
		err     error
	)
	switch kind {
	case indexsync.UpdateKindAttribute:
		payload, err = shapeAttributePayload(record)
	default:
		payload, err = shapeEntityPayload(record)
	}
	if err != nil {
		return nil, indexsync.NewPayloadError(kind, err)
	}
	if d.validator != nil {
		if err := d.validator.Validate(kind, payload); err != nil {
			return nil, indexsync.NewPayloadError(kind, err)
		}
	}
	return payload, nil
}
