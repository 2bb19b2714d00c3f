package events

import (
	"encoding/json"
	"fmt"

	"github.com/go-go-golems/socra/pkg/completion"
	"github.com/rs/zerolog"
)

type EventType string

const (
	EventTypeNodeEnter     EventType = "node-enter"
	EventTypeDecisionStart EventType = "decision-start"
	EventTypePartial       EventType = "partial"
	EventTypeDecision      EventType = "decision"
	EventTypeDecisionError EventType = "decision-error"
	EventTypeLeafStart     EventType = "leaf-start"
	EventTypeLeafEnd       EventType = "leaf-end"
)

type Event interface {
	Type() EventType
	Metadata() EventMetadata
	Payload() []byte
}

// EventMetadata locates an event within a run.
type EventMetadata struct {
	RunID    string `json:"run_id"`
	NodeKey  string `json:"node_key"`
	NodeName string `json:"node_name"`
	Depth    int    `json:"depth"`
	Attempt  int    `json:"attempt,omitempty"`
}

func (em EventMetadata) MarshalZerologObject(e *zerolog.Event) {
	e.Str("run_id", em.RunID)
	e.Str("node", em.NodeKey)
	e.Int("depth", em.Depth)
	if em.Attempt > 0 {
		e.Int("attempt", em.Attempt)
	}
}

type EventImpl struct {
	Type_     EventType     `json:"type"`
	Metadata_ EventMetadata `json:"meta"`

	// raw JSON when decoded with NewEventFromJSON
	payload []byte
}

func (e *EventImpl) MarshalZerologObject(ev *zerolog.Event) {
	ev.Str("type", string(e.Type_))
	ev.Object("meta", e.Metadata_)
}

func (e *EventImpl) Type() EventType {
	return e.Type_
}

func (e *EventImpl) Metadata() EventMetadata {
	return e.Metadata_
}

func (e *EventImpl) Payload() []byte {
	return e.payload
}

type EventNodeEnter struct {
	EventImpl
}

func NewNodeEnterEvent(metadata EventMetadata) *EventNodeEnter {
	return &EventNodeEnter{EventImpl: EventImpl{Type_: EventTypeNodeEnter, Metadata_: metadata}}
}

type EventDecisionStart struct {
	EventImpl
	Candidates []string `json:"candidates"`
}

func NewDecisionStartEvent(metadata EventMetadata, candidates []string) *EventDecisionStart {
	return &EventDecisionStart{
		EventImpl:  EventImpl{Type_: EventTypeDecisionStart, Metadata_: metadata},
		Candidates: candidates,
	}
}

type EventPartial struct {
	EventImpl
	Delta      string `json:"delta"`
	Completion string `json:"completion"`
}

func NewPartialEvent(metadata EventMetadata, delta string, completion string) *EventPartial {
	return &EventPartial{
		EventImpl:  EventImpl{Type_: EventTypePartial, Metadata_: metadata},
		Delta:      delta,
		Completion: completion,
	}
}

type EventDecision struct {
	EventImpl
	Key        string          `json:"key"`
	Name       string          `json:"name"`
	Reasoning  string          `json:"reasoning"`
	Thought    string          `json:"thought"`
	Cost       completion.Cost `json:"cost"`
	DurationMs int64           `json:"duration_ms"`
}

func NewDecisionEvent(metadata EventMetadata) *EventDecision {
	return &EventDecision{EventImpl: EventImpl{Type_: EventTypeDecision, Metadata_: metadata}}
}

type EventDecisionError struct {
	EventImpl
	ErrorString string          `json:"error"`
	Cost        completion.Cost `json:"cost"`
	DurationMs  int64           `json:"duration_ms"`
}

func NewDecisionErrorEvent(metadata EventMetadata, err error) *EventDecisionError {
	return &EventDecisionError{
		EventImpl:   EventImpl{Type_: EventTypeDecisionError, Metadata_: metadata},
		ErrorString: err.Error(),
	}
}

type EventLeafStart struct {
	EventImpl
}

func NewLeafStartEvent(metadata EventMetadata) *EventLeafStart {
	return &EventLeafStart{EventImpl: EventImpl{Type_: EventTypeLeafStart, Metadata_: metadata}}
}

type EventLeafEnd struct {
	EventImpl
	ErrorString string          `json:"error,omitempty"`
	Cost        completion.Cost `json:"cost"`
	DurationMs  int64           `json:"duration_ms"`
}

func NewLeafEndEvent(metadata EventMetadata, err error) *EventLeafEnd {
	ret := &EventLeafEnd{EventImpl: EventImpl{Type_: EventTypeLeafEnd, Metadata_: metadata}}
	if err != nil {
		ret.ErrorString = err.Error()
	}
	return ret
}

func toTypedEvent[T any](b []byte) (*T, error) {
	var ret *T
	if err := json.Unmarshal(b, &ret); err != nil {
		return nil, err
	}
	return ret, nil
}

func withPayload[T any, PT interface {
	*T
	Event
	setPayload([]byte)
}](b []byte) (Event, error) {
	ret, err := toTypedEvent[T](b)
	if err != nil {
		return nil, err
	}
	PT(ret).setPayload(b)
	return PT(ret), nil
}

func (e *EventImpl) setPayload(b []byte) {
	e.payload = b
}

// NewEventFromJSON decodes an event using its type discriminator.
func NewEventFromJSON(b []byte) (Event, error) {
	var hdr struct {
		Type EventType `json:"type"`
	}
	if err := json.Unmarshal(b, &hdr); err != nil {
		return nil, err
	}

	switch hdr.Type {
	case EventTypeNodeEnter:
		return withPayload[EventNodeEnter](b)
	case EventTypeDecisionStart:
		return withPayload[EventDecisionStart](b)
	case EventTypePartial:
		return withPayload[EventPartial](b)
	case EventTypeDecision:
		return withPayload[EventDecision](b)
	case EventTypeDecisionError:
		return withPayload[EventDecisionError](b)
	case EventTypeLeafStart:
		return withPayload[EventLeafStart](b)
	case EventTypeLeafEnd:
		return withPayload[EventLeafEnd](b)
	}

	return nil, fmt.Errorf("unknown event type: %s", hdr.Type)
}
