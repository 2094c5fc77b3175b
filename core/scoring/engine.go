// Package scoring rates how fit every agent is to answer a message.
package scoring

import (
	"math"
	"strings"
	"time"

	"github.com/mudler/LocalArbiter/core/topics"
	"github.com/mudler/LocalArbiter/core/types"
)

const (
	domainShare    = 0.6
	expertiseShare = 0.4

	traitShare      = 0.4
	capabilityShare = 0.6
	rangeCapability = 0.8
	neutralFit      = 0.5

	minPenalty = 0.1
	maxPenalty = 1.0
)

// Weights combine the three partial scores. They should sum to 1.
type Weights struct {
	Relevance float64 `json:"relevance"`
	Interest  float64 `json:"interest"`
	Emotional float64 `json:"emotional"`
}

func DefaultWeights() Weights {
	return Weights{Relevance: 0.5, Interest: 0.3, Emotional: 0.2}
}

// Engine is the rule-based scorer.
type Engine struct {
	Weights          Weights
	Cooldown         time.Duration
	TiebreakerMargin float64

	interests *topics.InterestScorer
}

type EngineOption func(*Engine)

func WithWeights(w Weights) EngineOption {
	return func(e *Engine) {
		if w.Relevance >= 0 && w.Interest >= 0 && w.Emotional >= 0 && w.Relevance+w.Interest+w.Emotional > 0 {
			e.Weights = w
		}
	}
}

func WithCooldown(d time.Duration) EngineOption {
	return func(e *Engine) {
		if d > 0 {
			e.Cooldown = d
		}
	}
}

func WithTiebreakerMargin(m float64) EngineOption {
	return func(e *Engine) {
		if m >= 0 {
			e.TiebreakerMargin = m
		}
	}
}

func WithInterestScorer(s *topics.InterestScorer) EngineOption {
	return func(e *Engine) {
		if s != nil {
			e.interests = s
		}
	}
}

func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		Weights:          DefaultWeights(),
		Cooldown:         60 * time.Second,
		TiebreakerMargin: 0.1,
		interests:        topics.NewInterestScorer(nil),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// ScoreAgent returns the weighted fitness of agent for message, in
// [0, agent.PriorityWeight].
func (e *Engine) ScoreAgent(agent types.AgentProfile, message string, emo *types.EmotionalContext) float64 {
	total := e.Weights.Relevance + e.Weights.Interest + e.Weights.Emotional
	combined := e.Weights.Relevance*e.Relevance(agent, message) +
		e.Weights.Interest*e.interests.Score(agent, message) +
		e.Weights.Emotional*e.EmotionalFit(agent, emo)
	if total > 1 {
		combined /= total
	}
	weight := agent.PriorityWeight
	if weight < 0 {
		weight = 0
	}
	return weight * clamp(combined, 0, 1)
}

// Relevance is the share of the agent's domains and expertise literally
// mentioned in message.
func (e *Engine) Relevance(agent types.AgentProfile, message string) float64 {
	lower := strings.ToLower(message)
	return domainShare*literalFraction(agent.Domains, lower) +
		expertiseShare*literalFraction(agent.Expertise, lower)
}

// EmotionalFit rates how well the agent can answer the emotion of the
// message. It is neutral when no emotion was detected.
func (e *Engine) EmotionalFit(agent types.AgentProfile, emo *types.EmotionalContext) float64 {
	if !emo.HasEmotion() {
		return neutralFit
	}
	emotion := strings.ToLower(emo.PrimaryEmotion)

	traits := 0.0
	if len(agent.PersonalityTraits) > 0 {
		matched := 0
		for _, t := range agent.PersonalityTraits {
			if strings.EqualFold(strings.TrimSpace(t), emotion) {
				matched++
			}
		}
		traits = float64(matched) / float64(len(agent.PersonalityTraits))
	}

	capability := 0.0
	if containsFold(agent.SupportedEmotions, emotion) {
		capability = agent.EmpathyLevel
	}
	if containsFold(agent.EmotionalRange, emotion) && rangeCapability > capability {
		capability = rangeCapability
	}

	intensity := clamp(emo.PrimaryIntensity(), 0, 1)
	fit := (traitShare*traits + capabilityShare*capability) * (0.5 + 0.5*intensity)
	return clamp(fit, 0, 1)
}

// ApplyRepetitionPenalty scales score down for agents that spoke recently.
// An infinite gap means the agent never spoke.
func (e *Engine) ApplyRepetitionPenalty(score, secondsSinceLastSpoke float64) float64 {
	cooldown := e.Cooldown.Seconds()
	if cooldown <= 0 || math.IsInf(secondsSinceLastSpoke, 1) {
		return score
	}
	if math.IsNaN(secondsSinceLastSpoke) {
		return score * minPenalty
	}
	return score * clamp(secondsSinceLastSpoke/cooldown, minPenalty, maxPenalty)
}

// SecondsSinceLastSpoke is the gap used by ApplyRepetitionPenalty.
func SecondsSinceLastSpoke(agent types.AgentProfile, now time.Time) float64 {
	if !agent.HasSpoken() {
		return math.Inf(1)
	}
	return now.Sub(agent.LastResponseTime).Seconds()
}

// AreScoresTied reports whether two scores are too close to rank.
func (e *Engine) AreScoresTied(a, b float64) bool {
	return math.Abs(a-b) < e.TiebreakerMargin
}

func literalFraction(terms []string, lowerMessage string) float64 {
	if len(terms) == 0 {
		return 0
	}
	matched := 0
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" && strings.Contains(lowerMessage, t) {
			matched++
		}
	}
	return math.Min(float64(matched)/float64(len(terms)), 1.0)
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(strings.TrimSpace(v), s) {
			return true
		}
	}
	return false
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
