package scoring

import (
	"sort"

	"github.com/mudler/LocalArbiter/core/types"
)

// Fallback picks an agent when no score clears the bar.
type Fallback struct {
	MinimumThreshold float64
	DefaultAgentID   string
}

func NewFallback(minimumThreshold float64, defaultAgentID string) *Fallback {
	return &Fallback{MinimumThreshold: minimumThreshold, DefaultAgentID: defaultAgentID}
}

// SelectAgent returns the top ranked agent when it reaches the threshold.
// Otherwise it returns the configured default agent if it is active, then
// the active agent that answered least often. It returns false when there
// is no agent at all.
func (f *Fallback) SelectAgent(ranked []Ranked, all []types.AgentProfile) (string, bool) {
	if len(ranked) > 0 && ranked[0].Score >= f.MinimumThreshold {
		return ranked[0].Agent.ID, true
	}

	active := []types.AgentProfile{}
	for _, a := range all {
		if a.Active {
			active = append(active, a)
		}
	}

	if f.DefaultAgentID != "" {
		for _, a := range active {
			if a.ID == f.DefaultAgentID {
				return a.ID, true
			}
		}
	}

	if len(active) == 0 {
		return "", false
	}
	sort.Slice(active, func(i, j int) bool {
		if active[i].ResponseCount != active[j].ResponseCount {
			return active[i].ResponseCount < active[j].ResponseCount
		}
		return active[i].ID < active[j].ID
	})
	return active[0].ID, true
}
