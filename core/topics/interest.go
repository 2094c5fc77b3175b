package topics

import "github.com/mudler/LocalArbiter/core/types"

const (
	topicWeight  = 0.4
	skillWeight  = 0.35
	domainWeight = 0.25
)

// InterestScorer rates how interesting a message is for an agent, in [0,1].
type InterestScorer struct {
	extractor *TopicExtractor
}

func NewInterestScorer(extractor *TopicExtractor) *InterestScorer {
	if extractor == nil {
		extractor = NewTopicExtractor()
	}
	return &InterestScorer{extractor: extractor}
}

func (s *InterestScorer) Extractor() *TopicExtractor {
	return s.extractor
}

// Score extracts the topics of message and scores them against agent.
func (s *InterestScorer) Score(agent types.AgentProfile, message string) float64 {
	return s.ScoreTopics(agent, s.extractor.Extract(message))
}

// ScoreTopics scores already extracted topics against agent.
func (s *InterestScorer) ScoreTopics(agent types.AgentProfile, t Topics) float64 {
	return topicWeight*t.MatchFraction(agent.Interests) +
		skillWeight*t.MatchFraction(agent.Expertise) +
		domainWeight*t.MatchFraction(agent.Domains)
}
