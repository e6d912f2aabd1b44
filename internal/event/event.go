// Package event defines the immutable Event type admitted to the matcher
// core and its InternalEvent projection onto the uniform Value model.
package event

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/vitaliisemenov/alert-history/internal/value"
)

// Event is the external, wire-format event (spec.md §6 "Event format").
// Once admitted to the core an Event is immutable; nothing in this module
// mutates one after construction.
type Event struct {
	TraceID   string        `json:"trace_id"`
	Type      string        `json:"type"`
	CreatedMs uint64        `json:"created_ms"`
	Metadata  *value.Object `json:"metadata"`
	Payload   *value.Object `json:"payload"`
}

// UnmarshalJSON decodes an Event, defaulting Metadata/Payload to empty
// objects rather than nil so downstream accessor lookups never need a
// nil check, and assigning a fresh trace ID when trace_id is empty.
func (e *Event) UnmarshalJSON(data []byte) error {
	var raw struct {
		TraceID   string      `json:"trace_id"`
		Type      string      `json:"type"`
		CreatedMs uint64      `json:"created_ms"`
		Metadata  value.Value `json:"metadata"`
		Payload   value.Value `json:"payload"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	e.TraceID = raw.TraceID
	if e.TraceID == "" {
		e.TraceID = uuid.NewString()
	}
	e.Type = raw.Type
	e.CreatedMs = raw.CreatedMs
	if obj, ok := raw.Metadata.AsObject(); ok {
		e.Metadata = obj
	} else {
		e.Metadata = value.NewObject()
	}
	if obj, ok := raw.Payload.AsObject(); ok {
		e.Payload = obj
	} else {
		e.Payload = value.NewObject()
	}
	return nil
}

// New builds an Event with a freshly generated trace ID and the current
// time as created_ms; the caller supplies neither. Collectors are
// expected to set both themselves; see spec.md §9 "Per-event tracing".
func New(eventType string, payload, metadata *value.Object) Event {
	if payload == nil {
		payload = value.NewObject()
	}
	if metadata == nil {
		metadata = value.NewObject()
	}
	return Event{
		TraceID:   uuid.NewString(),
		Type:      eventType,
		CreatedMs: uint64(time.Now().UnixMilli()),
		Metadata:  metadata,
		Payload:   payload,
	}
}

// InternalEvent reshapes an Event to uniform Value access so Accessors
// address `type`, `created_ms`, `metadata` and `payload` identically
// (spec.md §3 "InternalEvent").
type InternalEvent struct {
	root *value.Object
}

// NewInternal projects an Event into its InternalEvent form.
func NewInternal(e Event) InternalEvent {
	root := value.NewObject()
	root.Set("type", value.String(e.Type))
	root.Set("created_ms", value.Uint(e.CreatedMs))
	root.Set("metadata", value.ObjectVal(orEmpty(e.Metadata)))
	root.Set("payload", value.ObjectVal(orEmpty(e.Payload)))
	return InternalEvent{root: root}
}

func orEmpty(o *value.Object) *value.Object {
	if o == nil {
		return value.NewObject()
	}
	return o
}

// AsValue returns the whole event as a Value Object, the resolution of the
// bare `${event}` accessor (spec.md §4.1).
func (ie InternalEvent) AsValue() value.Value {
	return value.ObjectVal(ie.root)
}

// Field resolves a top-level event field: "type", "created_ms", "metadata"
// or "payload".
func (ie InternalEvent) Field(name string) (value.Value, bool) {
	return ie.root.Get(name)
}
