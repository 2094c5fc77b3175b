// Package suppression withholds low scoring responses and keeps them around
// for a later second look.
package suppression

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mudler/LocalArbiter/pkg/xstrings"
	"github.com/mudler/xlog"
)

type Reason string

const (
	ReasonLowRelevance   Reason = "low_relevance"
	ReasonBelowThreshold Reason = "below_threshold"
	ReasonSuperseded     Reason = "superseded"
)

const (
	DefaultMinimumThreshold    = 0.3
	DefaultReevaluationDelay   = 30 * time.Second
	DefaultMaxAttempts         = 3
	DefaultContextChangeWeight = 0.2
	maxContextBoost            = 1.0
)

// Snapshot is the conversational context a response was suppressed in.
type Snapshot struct {
	PrimaryEmotion  string   `json:"primary_emotion,omitempty"`
	MentionedAgents []string `json:"mentioned_agents,omitempty"`
	ConversationID  string   `json:"conversation_id,omitempty"`
}

// SuppressedResponse is a withheld response waiting for re-evaluation.
type SuppressedResponse struct {
	ID                string            `json:"id"`
	AgentID           string            `json:"agent_id"`
	Message           string            `json:"message"`
	Score             float64           `json:"score"`
	Reason            Reason            `json:"reason"`
	Timestamp         time.Time         `json:"timestamp"`
	ReevaluationCount int               `json:"reevaluation_count"`
	LastEvaluated     time.Time         `json:"last_evaluated,omitempty"`
	Context           Snapshot          `json:"context"`
	Metadata          map[string]string `json:"metadata,omitempty"`
}

// ResponseSuppressor decides whether a score is too low to speak and owns
// the delayed re-evaluation queue.
type ResponseSuppressor struct {
	mu sync.Mutex

	enabled             bool
	minimumThreshold    float64
	reevaluation        bool
	reevaluationDelay   time.Duration
	maxAttempts         int
	contextChangeWeight float64
	now                 func() time.Time

	queue  []SuppressedResponse
	logger *SuppressionLogger
}

type Option func(*ResponseSuppressor)

func WithEnabled(enabled bool) Option {
	return func(s *ResponseSuppressor) {
		s.enabled = enabled
	}
}

// WithMinimumThreshold sets the score under which responses are withheld,
// clamped to [0,1].
func WithMinimumThreshold(t float64) Option {
	return func(s *ResponseSuppressor) {
		s.minimumThreshold = clamp(t, 0, 1)
	}
}

// WithReevaluation configures the delayed queue. A zero delay disables it.
func WithReevaluation(delay time.Duration, maxAttempts int) Option {
	return func(s *ResponseSuppressor) {
		s.reevaluation = delay > 0
		if delay > 0 {
			s.reevaluationDelay = delay
		}
		if maxAttempts > 0 {
			s.maxAttempts = maxAttempts
		}
	}
}

func WithContextChangeWeight(w float64) Option {
	return func(s *ResponseSuppressor) {
		s.contextChangeWeight = clamp(w, 0, maxContextBoost)
	}
}

func WithLogger(l *SuppressionLogger) Option {
	return func(s *ResponseSuppressor) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *ResponseSuppressor) {
		if now != nil {
			s.now = now
		}
	}
}

func NewResponseSuppressor(opts ...Option) *ResponseSuppressor {
	s := &ResponseSuppressor{
		enabled:             true,
		minimumThreshold:    DefaultMinimumThreshold,
		reevaluation:        true,
		reevaluationDelay:   DefaultReevaluationDelay,
		maxAttempts:         DefaultMaxAttempts,
		contextChangeWeight: DefaultContextChangeWeight,
		now:                 time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	if s.logger == nil {
		s.logger = NewSuppressionLogger(defaultHistorySize)
	}
	return s
}

func (s *ResponseSuppressor) MinimumThreshold() float64 {
	return s.minimumThreshold
}

func (s *ResponseSuppressor) Enabled() bool {
	return s.enabled
}

// ShouldSuppress reports whether a response scored at score must be held.
func (s *ResponseSuppressor) ShouldSuppress(agentID string, score float64) bool {
	return s.enabled && score < s.minimumThreshold
}

// SuppressResponse logs the suppression and, when re-evaluation is on,
// queues the response. It returns the queued item.
func (s *ResponseSuppressor) SuppressResponse(agentID, message string, score float64, reason Reason, ctx Snapshot, metadata map[string]string) SuppressedResponse {
	item := SuppressedResponse{
		ID:        uuid.New().String(),
		AgentID:   agentID,
		Message:   message,
		Score:     score,
		Reason:    reason,
		Timestamp: s.now(),
		Context:   ctx,
		Metadata:  metadata,
	}

	s.logger.Log(Entry{
		ID:        item.ID,
		AgentID:   agentID,
		Message:   message,
		Score:     score,
		Reason:    reason,
		Timestamp: item.Timestamp,
	})

	if s.reevaluation {
		s.mu.Lock()
		s.queue = append(s.queue, item)
		s.mu.Unlock()
	}
	return item
}

// GetPendingReevaluations returns the queued responses that are due, with
// their attempt counter incremented. Items that used all their attempts
// are dropped from the queue.
func (s *ResponseSuppressor) GetPendingReevaluations() []SuppressedResponse {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	pending := []SuppressedResponse{}
	kept := s.queue[:0]
	expired := 0
	for _, item := range s.queue {
		if item.ReevaluationCount >= s.maxAttempts {
			expired++
			xlog.Debug("Dropping suppressed response", "agent", item.AgentID, "attempts", item.ReevaluationCount)
			continue
		}
		since := item.Timestamp
		if item.LastEvaluated.After(since) {
			since = item.LastEvaluated
		}
		if now.Sub(since) >= s.reevaluationDelay {
			item.ReevaluationCount++
			item.LastEvaluated = now
			pending = append(pending, item)
		}
		kept = append(kept, item)
	}
	s.queue = kept
	if expired > 0 {
		s.logger.markExpired(expired)
	}
	return pending
}

// CheckContextChange returns the score boost earned by a context that moved
// on since the response was suppressed.
func (s *ResponseSuppressor) CheckContextChange(item SuppressedResponse, current Snapshot) float64 {
	boost := 0.0
	if item.Context.PrimaryEmotion != current.PrimaryEmotion {
		boost += s.contextChangeWeight
	}
	if !xstrings.SameSet(item.Context.MentionedAgents, current.MentionedAgents) {
		boost += s.contextChangeWeight
	}
	return clamp(boost, 0, maxContextBoost)
}

// Resolve removes a response that passed re-evaluation from the queue.
func (s *ResponseSuppressor) Resolve(id string) bool {
	if !s.Drop(id) {
		return false
	}
	s.logger.markReevaluated()
	return true
}

// Drop removes a response from the queue without counting it as
// re-evaluated.
func (s *ResponseSuppressor) Drop(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, item := range s.queue {
		if item.ID == id {
			s.queue = append(s.queue[:i], s.queue[i+1:]...)
			return true
		}
	}
	return false
}

// ClearSuppressed drops every queued response of agentID, or the whole
// queue when agentID is empty. It returns how many were removed.
func (s *ResponseSuppressor) ClearSuppressed(agentID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.queue[:0]
	removed := 0
	for _, item := range s.queue {
		if agentID == "" || item.AgentID == agentID {
			removed++
			continue
		}
		kept = append(kept, item)
	}
	s.queue = kept
	return removed
}

// Pending returns a copy of the queue.
func (s *ResponseSuppressor) Pending() []SuppressedResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]SuppressedResponse(nil), s.queue...)
}

func (s *ResponseSuppressor) GetStats() Stats {
	stats := s.logger.Stats()
	s.mu.Lock()
	stats.PendingCount = len(s.queue)
	s.mu.Unlock()
	return stats
}

func (s *ResponseSuppressor) GetSuppressionHistory(limit int) []Entry {
	return s.logger.History(limit)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
