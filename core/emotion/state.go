package emotion

import (
	"sync"
	"time"

	"github.com/mudler/xlog"
)

const maxHistory = 50

const Neutral = "neutral"

type response struct {
	emotion   string
	intensity float64
}

// empathy maps the emotion of the user to the emotion an agent answers with.
var empathy = map[string]response{
	Sad:        {"empathetic", 0.7},
	Angry:      {"calm", 0.6},
	Fearful:    {"reassuring", 0.7},
	Anxious:    {"reassuring", 0.6},
	Happy:      {"joyful", 0.6},
	Excited:    {"enthusiastic", 0.7},
	Frustrated: {"patient", 0.6},
	Confused:   {"helpful", 0.5},
	Lonely:     {"warm", 0.7},
	Grateful:   {"pleased", 0.5},
	Surprised:  {"curious", 0.5},
	Loving:     {"affectionate", 0.5},
}

// Record is one entry of an agent's emotional history.
type Record struct {
	UserEmotion  string    `json:"user_emotion"`
	AgentEmotion string    `json:"agent_emotion"`
	Intensity    float64   `json:"intensity"`
	Timestamp    time.Time `json:"timestamp"`
}

// AgentState is the emotional memory of one agent.
type AgentState struct {
	CurrentEmotion    string    `json:"current_emotion"`
	EmotionIntensity  float64   `json:"emotion_intensity"`
	History           []Record  `json:"history"`
	InteractionsCount int       `json:"interactions_count"`
	LastEmotionChange time.Time `json:"last_emotion_change"`
}

func (s AgentState) clone() AgentState {
	s.History = append([]Record(nil), s.History...)
	return s
}

// StateManager owns the per-agent emotional states. A state only changes
// through UpdateEmotionalState.
type StateManager struct {
	sync.Mutex
	states map[string]*AgentState
	now    func() time.Time
}

func NewStateManager() *StateManager {
	return &StateManager{
		states: map[string]*AgentState{},
		now:    time.Now,
	}
}

// ResponseFor returns the agent emotion and intensity answering userEmotion.
func ResponseFor(userEmotion string) (string, float64) {
	if r, ok := empathy[userEmotion]; ok {
		return r.emotion, r.intensity
	}
	return Neutral, 0.3
}

// UpdateEmotionalState records that agentID answered a user feeling
// userEmotion and returns the resulting state.
func (m *StateManager) UpdateEmotionalState(agentID, userEmotion string) AgentState {
	m.Lock()
	defer m.Unlock()

	st, ok := m.states[agentID]
	if !ok {
		st = &AgentState{CurrentEmotion: Neutral}
		m.states[agentID] = st
	}

	now := m.now()
	agentEmotion, intensity := ResponseFor(userEmotion)
	if agentEmotion != st.CurrentEmotion {
		st.LastEmotionChange = now
		xlog.Debug("Agent emotion changed", "agent", agentID, "from", st.CurrentEmotion, "to", agentEmotion)
	}
	st.CurrentEmotion = agentEmotion
	st.EmotionIntensity = intensity
	st.InteractionsCount++
	st.History = append(st.History, Record{
		UserEmotion:  userEmotion,
		AgentEmotion: agentEmotion,
		Intensity:    intensity,
		Timestamp:    now,
	})
	if len(st.History) > maxHistory {
		st.History = st.History[len(st.History)-maxHistory:]
	}

	return st.clone()
}

// GetState returns a copy of the emotional state of agentID.
func (m *StateManager) GetState(agentID string) (AgentState, bool) {
	m.Lock()
	defer m.Unlock()

	st, ok := m.states[agentID]
	if !ok {
		return AgentState{}, false
	}
	return st.clone(), true
}

// Forget drops the state of an unregistered agent.
func (m *StateManager) Forget(agentID string) {
	m.Lock()
	defer m.Unlock()
	delete(m.states, agentID)
}
