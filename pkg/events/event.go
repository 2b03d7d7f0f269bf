package events

import (
	"encoding/json"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// TopicAssistant is the in-process bus topic all assistant events flow
// through. The consumer service fans them out to WebSocket clients and NATS.
const TopicAssistant = "assistant.events"

// Event types.
const (
	TypeVoiceSessionChanged = "VOICE_SESSION_CHANGED"
	TypeVoiceCommand        = "VOICE_COMMAND"
	TypeVoiceQuery          = "VOICE_QUERY"
	TypeVoiceUtterance      = "VOICE_UTTERANCE"
	TypeSignedOut           = "SIGNED_OUT"
	TypeSearchPerformed     = "SEARCH_PERFORMED"
	TypeFeedbackSubmitted   = "FEEDBACK_SUBMITTED"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "VOICE_COMMAND").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent is the single concrete implementation used across the assistant.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

func newEvent(eventType string, data map[string]interface{}) BaseEvent {
	return BaseEvent{Type: eventType, Data: data, OccurredAt: time.Now()}
}

func NewVoiceSessionChanged(phase string) Event {
	return newEvent(TypeVoiceSessionChanged, map[string]interface{}{"phase": phase})
}

func NewVoiceCommand(kind, target, transcript string) Event {
	return newEvent(TypeVoiceCommand, map[string]interface{}{
		"kind":       kind,
		"target":     target,
		"transcript": transcript,
	})
}

func NewVoiceQuery(question string) Event {
	return newEvent(TypeVoiceQuery, map[string]interface{}{"question": question})
}

func NewVoiceUtterance(text string, cancelPrevious bool) Event {
	return newEvent(TypeVoiceUtterance, map[string]interface{}{
		"text":            text,
		"cancel_previous": cancelPrevious,
	})
}

func NewSignedOut() Event {
	return newEvent(TypeSignedOut, map[string]interface{}{})
}

func NewSearchPerformed(query string, topK, citations int) Event {
	return newEvent(TypeSearchPerformed, map[string]interface{}{
		"query":     query,
		"top_k":     topK,
		"citations": citations,
	})
}

func NewFeedbackSubmitted(category string) Event {
	return newEvent(TypeFeedbackSubmitted, map[string]interface{}{"category": category})
}

// Envelope is the wire form events take on the bus (and onward to WebSocket
// clients and NATS subjects).
type Envelope struct {
	Type string                 `json:"type"`
	Data map[string]interface{} `json:"data"`
	At   time.Time              `json:"at"`
}

// Publish serializes the event and hands it to a watermill publisher.
func Publish(pub message.Publisher, topic string, ev Event) error {
	payload, err := json.Marshal(Envelope{
		Type: ev.EventType(),
		Data: ev.Payload(),
		At:   ev.Timestamp(),
	})
	if err != nil {
		return err
	}
	return pub.Publish(topic, message.NewMessage(watermill.NewUUID(), payload))
}
