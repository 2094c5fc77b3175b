package suppression

import (
	"sync"
	"time"

	"github.com/mudler/xlog"
)

const defaultHistorySize = 100

// Entry is one line of the suppression log.
type Entry struct {
	ID        string    `json:"id"`
	AgentID   string    `json:"agent_id"`
	Message   string    `json:"message"`
	Score     float64   `json:"score"`
	Reason    Reason    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

// Stats are the counters exposed to the admin API.
type Stats struct {
	TotalSuppressions int            `json:"total_suppressions"`
	ByAgent           map[string]int `json:"by_agent"`
	ByReason          map[Reason]int `json:"by_reason"`
	PendingCount      int            `json:"pending_count"`
	Reevaluated       int            `json:"reevaluated"`
	Expired           int            `json:"expired"`
}

// SuppressionLogger counts suppressions and keeps a bounded history.
type SuppressionLogger struct {
	sync.Mutex
	total       int
	byAgent     map[string]int
	byReason    map[Reason]int
	reevaluated int
	expired     int
	history     []Entry
	maxHistory  int
}

func NewSuppressionLogger(maxHistory int) *SuppressionLogger {
	if maxHistory <= 0 {
		maxHistory = defaultHistorySize
	}
	return &SuppressionLogger{
		byAgent:    make(map[string]int),
		byReason:   make(map[Reason]int),
		maxHistory: maxHistory,
	}
}

func (l *SuppressionLogger) Log(e Entry) {
	l.Lock()
	defer l.Unlock()

	l.total++
	l.byAgent[e.AgentID]++
	l.byReason[e.Reason]++
	l.history = append(l.history, e)
	if len(l.history) > l.maxHistory {
		l.history = l.history[len(l.history)-l.maxHistory:]
	}

	xlog.Info("Response suppressed", "agent", e.AgentID, "score", e.Score, "reason", e.Reason)
}

func (l *SuppressionLogger) markReevaluated() {
	l.Lock()
	l.reevaluated++
	l.Unlock()
}

func (l *SuppressionLogger) markExpired(n int) {
	l.Lock()
	l.expired += n
	l.Unlock()
}

// Stats returns a copy of the counters.
func (l *SuppressionLogger) Stats() Stats {
	l.Lock()
	defer l.Unlock()

	s := Stats{
		TotalSuppressions: l.total,
		ByAgent:           make(map[string]int, len(l.byAgent)),
		ByReason:          make(map[Reason]int, len(l.byReason)),
		Reevaluated:       l.reevaluated,
		Expired:           l.expired,
	}
	for k, v := range l.byAgent {
		s.ByAgent[k] = v
	}
	for k, v := range l.byReason {
		s.ByReason[k] = v
	}
	return s
}

// History returns up to limit entries, newest first. A limit <= 0 returns
// everything retained.
func (l *SuppressionLogger) History(limit int) []Entry {
	l.Lock()
	defer l.Unlock()

	n := len(l.history)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]Entry, 0, limit)
	for i := n - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, l.history[i])
	}
	return out
}
