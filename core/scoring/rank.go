package scoring

import (
	"sort"

	"github.com/mudler/LocalArbiter/core/types"
)

// Ranked is an agent with its final score.
type Ranked struct {
	Agent types.AgentProfile
	Score float64
}

// Rank pairs agents with their scores, best first. Agents without a score
// are left out. Equal scores are ordered by agent id.
func Rank(agents []types.AgentProfile, scores map[string]float64) []Ranked {
	out := make([]Ranked, 0, len(agents))
	for _, a := range agents {
		s, ok := scores[a.ID]
		if !ok {
			continue
		}
		out = append(out, Ranked{Agent: a, Score: s})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Agent.ID < out[j].Agent.ID
	})
	return out
}

// IDs returns the agent ids of ranked, in order.
func IDs(ranked []Ranked) []string {
	ids := make([]string, len(ranked))
	for i, r := range ranked {
		ids[i] = r.Agent.ID
	}
	return ids
}

const defaultTieEpsilon = 0.001

// Tiebreaker orders agents whose scores are practically equal.
type Tiebreaker struct {
	Epsilon float64
}

func NewTiebreaker() *Tiebreaker {
	return &Tiebreaker{Epsilon: defaultTieEpsilon}
}

// Apply reorders the agents within Epsilon of the top score.
func (t *Tiebreaker) Apply(ranked []Ranked) []Ranked {
	return t.ApplyWithin(ranked, t.Epsilon)
}

// ApplyWithin reorders the agents within margin of the top score by
// response count ascending, last response time descending, then agent id.
// ranked must already be sorted by score, best first. The rest of the slice
// keeps its order.
func (t *Tiebreaker) ApplyWithin(ranked []Ranked, margin float64) []Ranked {
	if len(ranked) < 2 {
		return ranked
	}
	out := append([]Ranked(nil), ranked...)
	top := out[0].Score
	n := 1
	for n < len(out) && top-out[n].Score < margin {
		n++
	}
	tied := out[:n]
	sort.SliceStable(tied, func(i, j int) bool {
		a, b := tied[i].Agent, tied[j].Agent
		if a.ResponseCount != b.ResponseCount {
			return a.ResponseCount < b.ResponseCount
		}
		if !a.LastResponseTime.Equal(b.LastResponseTime) {
			return a.LastResponseTime.After(b.LastResponseTime)
		}
		return a.ID < b.ID
	})
	return out
}
