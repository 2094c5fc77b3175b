package types

import "time"

// DecisionReason names the rule that produced the winners of a decision.
type DecisionReason string

const (
	ReasonMention            DecisionReason = "mention"
	ReasonCollectiveGreeting DecisionReason = "collective_greeting"
	ReasonNamed              DecisionReason = "named"
	ReasonCascade            DecisionReason = "cascade"
	ReasonFallback           DecisionReason = "fallback"
	ReasonNone               DecisionReason = "none"
)

// ScoreKind tells which scoring source produced a score table.
type ScoreKind string

const (
	ScoreKindRule   ScoreKind = "rule"
	ScoreKindOracle ScoreKind = "oracle"
	ScoreKindNone   ScoreKind = ""
)

// DecisionRequest is an incoming utterance to arbitrate.
type DecisionRequest struct {
	ConversationID   string            `json:"conversation_id,omitempty"`
	Message          string            `json:"message"`
	MentionedAgents  []string          `json:"mentioned_agents,omitempty"`
	EmotionalContext *EmotionalContext `json:"emotional_context,omitempty"`
	DiscussionTurn   int               `json:"discussion_turn"`
	AllowSuppression bool              `json:"allow_suppression"`
}

// Decision is the outcome of arbitration for one message.
type Decision struct {
	ID         string             `json:"id"`
	Winners    []string           `json:"winners"`
	Scores     map[string]float64 `json:"scores,omitempty"`
	Suppressed []string           `json:"suppressed,omitempty"`
	Reason     DecisionReason     `json:"reason"`
	Kind       ScoreKind          `json:"kind,omitempty"`
	Decay      float64            `json:"decay"`
	Emotion    *EmotionalContext  `json:"emotional_context,omitempty"`
	CreatedAt  time.Time          `json:"created_at"`
}

// HasWinners reports whether anybody should speak.
func (d Decision) HasWinners() bool {
	return len(d.Winners) > 0
}
