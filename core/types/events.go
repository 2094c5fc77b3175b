package types

import "time"

type EventType string

const (
	EventTurnStarted             EventType = "turn_started"
	EventTurnTransferred         EventType = "turn_transferred"
	EventTurnReleased            EventType = "turn_released"
	EventTurnTimeout             EventType = "turn_timeout"
	EventAgentQueued             EventType = "agent_queued"
	EventQueuedResponseCancelled EventType = "queued_response_cancelled"
	EventResponseReevaluated     EventType = "response_reevaluated"
	EventDecision                EventType = "decision"
)

// Event is published on the bus for bridge and UI consumers. Only the
// fields relevant to Type are set.
type Event struct {
	Type          EventType `json:"type"`
	AgentID       string    `json:"agent_id,omitempty"`
	PreviousAgent string    `json:"previous_agent,omitempty"`
	NewAgent      string    `json:"new_agent,omitempty"`
	QueueSize     int       `json:"queue_size"`
	Score         float64   `json:"score,omitempty"`
	Winners       []string  `json:"winners,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// EventSink receives events. Implementations must not block.
type EventSink interface {
	Emit(Event)
}

// EventSinkFunc adapts a function to EventSink.
type EventSinkFunc func(Event)

func (f EventSinkFunc) Emit(e Event) { f(e) }

// DiscardEvents drops everything.
var DiscardEvents EventSink = EventSinkFunc(func(Event) {})
