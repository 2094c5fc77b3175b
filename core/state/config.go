package state

import "github.com/mudler/LocalArbiter/core/types"

// AgentConfig is an agent as written in an agents file. Unset numeric and
// boolean fields take the defaults of types.NewAgentProfile.
type AgentConfig struct {
	ID       string `json:"agent_id" yaml:"agent_id"`
	Name     string `json:"name" yaml:"name"`
	Nickname string `json:"nickname" yaml:"nickname"`

	Domains           []string `json:"domains" yaml:"domains"`
	Expertise         []string `json:"expertise" yaml:"expertise"`
	Interests         []string `json:"interests" yaml:"interests"`
	PersonalityTraits []string `json:"personality_traits" yaml:"personality_traits"`

	SupportedEmotions []string `json:"supported_emotions" yaml:"supported_emotions"`
	EmotionalRange    []string `json:"emotional_range" yaml:"emotional_range"`
	EmpathyLevel      *float64 `json:"empathy_level" yaml:"empathy_level"`
	Adaptability      *float64 `json:"adaptability" yaml:"adaptability"`

	Active         *bool    `json:"is_active" yaml:"is_active"`
	PriorityWeight *float64 `json:"priority_weight" yaml:"priority_weight"`
}

// AgentsFile is the document read by the loader. A bare list of agents is
// accepted as well.
type AgentsFile struct {
	Agents []AgentConfig `json:"agents" yaml:"agents"`
}

// Profile converts the config into a normalized profile.
func (c AgentConfig) Profile() types.AgentProfile {
	p := types.NewAgentProfile(c.ID, c.Name)
	p.Nickname = c.Nickname
	p.Domains = c.Domains
	p.Expertise = c.Expertise
	p.Interests = c.Interests
	p.PersonalityTraits = c.PersonalityTraits
	p.SupportedEmotions = c.SupportedEmotions
	p.EmotionalRange = c.EmotionalRange
	if c.EmpathyLevel != nil {
		p.EmpathyLevel = *c.EmpathyLevel
	}
	if c.Adaptability != nil {
		p.Adaptability = *c.Adaptability
	}
	if c.Active != nil {
		p.Active = *c.Active
	}
	if c.PriorityWeight != nil {
		p.PriorityWeight = *c.PriorityWeight
	}
	p.Normalize()
	return p
}
