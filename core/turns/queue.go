package turns

import (
	"sort"
	"time"
)

// QueuedResponse is an agent waiting to speak.
type QueuedResponse struct {
	AgentID   string         `json:"agent_id"`
	Message   string         `json:"message"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Priority  int            `json:"priority"`
	Timestamp time.Time      `json:"timestamp"`
}

func (q QueuedResponse) before(o QueuedResponse) bool {
	if q.Priority != o.Priority {
		return q.Priority > o.Priority
	}
	return q.Timestamp.Before(o.Timestamp)
}

// responseQueue is kept sorted by priority descending, then timestamp.
// It holds at most one entry per agent.
type responseQueue []QueuedResponse

func (q responseQueue) index(agentID string) int {
	for i, r := range q {
		if r.AgentID == agentID {
			return i
		}
	}
	return -1
}

// push inserts r in order. A second request of a queued agent replaces the
// message and keeps the better priority and the earlier timestamp.
func (q responseQueue) push(r QueuedResponse) responseQueue {
	if i := q.index(r.AgentID); i >= 0 {
		old := q[i]
		if old.Priority > r.Priority {
			r.Priority = old.Priority
		}
		if old.Timestamp.Before(r.Timestamp) {
			r.Timestamp = old.Timestamp
		}
		q = q.remove(i)
	}
	i := sort.Search(len(q), func(i int) bool { return r.before(q[i]) })
	q = append(q, QueuedResponse{})
	copy(q[i+1:], q[i:])
	q[i] = r
	return q
}

func (q responseQueue) remove(i int) responseQueue {
	return append(q[:i], q[i+1:]...)
}

func (q responseQueue) snapshot() []QueuedResponse {
	return append([]QueuedResponse{}, q...)
}
