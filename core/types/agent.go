package types

import (
	"strings"
	"time"
)

// AgentProfile describes a persona that can take part in a shared conversation.
type AgentProfile struct {
	ID       string `json:"agent_id" yaml:"agent_id"`
	Name     string `json:"name" yaml:"name"`
	Nickname string `json:"nickname,omitempty" yaml:"nickname,omitempty"`

	Domains           []string `json:"domains,omitempty" yaml:"domains,omitempty"`
	Expertise         []string `json:"expertise,omitempty" yaml:"expertise,omitempty"`
	Interests         []string `json:"interests,omitempty" yaml:"interests,omitempty"`
	PersonalityTraits []string `json:"personality_traits,omitempty" yaml:"personality_traits,omitempty"`

	SupportedEmotions []string `json:"supported_emotions,omitempty" yaml:"supported_emotions,omitempty"`
	EmotionalRange    []string `json:"emotional_range,omitempty" yaml:"emotional_range,omitempty"`
	EmpathyLevel      float64  `json:"empathy_level" yaml:"empathy_level"`
	Adaptability      float64  `json:"adaptability" yaml:"adaptability"`

	Active           bool      `json:"is_active" yaml:"is_active"`
	PriorityWeight   float64   `json:"priority_weight" yaml:"priority_weight"`
	ResponseCount    int       `json:"response_count" yaml:"-"`
	LastResponseTime time.Time `json:"last_response_time,omitempty" yaml:"-"`
}

// NewAgentProfile returns a profile with the defaults a freshly loaded
// persona starts with.
func NewAgentProfile(id, name string) AgentProfile {
	return AgentProfile{
		ID:             id,
		Name:           name,
		EmpathyLevel:   0.5,
		Adaptability:   0.5,
		Active:         true,
		PriorityWeight: 1.0,
	}
}

// Normalize clamps the numeric fields into their valid ranges.
func (a *AgentProfile) Normalize() {
	a.EmpathyLevel = clamp01(a.EmpathyLevel)
	a.Adaptability = clamp01(a.Adaptability)
	if a.PriorityWeight < 0 {
		a.PriorityWeight = 0
	}
	if a.Name == "" {
		a.Name = a.ID
	}
}

// HasSpoken reports whether the agent ever answered.
func (a AgentProfile) HasSpoken() bool {
	return !a.LastResponseTime.IsZero()
}

// Summary is the short description sent to the scoring oracle.
func (a AgentProfile) Summary() string {
	parts := []string{a.Name}
	if len(a.Domains) > 0 {
		parts = append(parts, "domains: "+strings.Join(a.Domains, ", "))
	}
	if len(a.Expertise) > 0 {
		parts = append(parts, "expertise: "+strings.Join(a.Expertise, ", "))
	}
	if len(a.PersonalityTraits) > 0 {
		parts = append(parts, "personality: "+strings.Join(a.PersonalityTraits, ", "))
	}
	return strings.Join(parts, "; ")
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
