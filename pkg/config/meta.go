package config

type FieldType string

const (
	FieldTypeNumber   FieldType = "number"
	FieldTypeText     FieldType = "text"
	FieldTypeCheckbox FieldType = "checkbox"
	FieldTypeDuration FieldType = "duration"
)

type Field struct {
	Name         string    `json:"name"`
	Type         FieldType `json:"type"`
	Label        string    `json:"label"`
	DefaultValue any       `json:"defaultValue"`
	Value        any       `json:"value"`
	HelpText     string    `json:"helpText,omitempty"`
	Min          float32   `json:"min,omitempty"`
	Max          float32   `json:"max,omitempty"`
	Step         float32   `json:"step,omitempty"`
}

type FieldGroup struct {
	Name   string  `json:"name"`
	Label  string  `json:"label"`
	Fields []Field `json:"fields"`
}

// FieldGroups describes the arbitration settings in effect, for admin
// clients. Secrets are left out.
func (c *Config) FieldGroups() []FieldGroup {
	return []FieldGroup{
		{
			Name:  "scoring",
			Label: "Scoring",
			Fields: []Field{
				{Name: "relevance_weight", Type: FieldTypeNumber, Label: "Relevance weight", DefaultValue: 0.5, Value: c.RelevanceWeight, Min: 0, Max: 1, Step: 0.05},
				{Name: "interest_weight", Type: FieldTypeNumber, Label: "Interest weight", DefaultValue: 0.3, Value: c.InterestWeight, Min: 0, Max: 1, Step: 0.05},
				{Name: "emotional_weight", Type: FieldTypeNumber, Label: "Emotional weight", DefaultValue: 0.2, Value: c.EmotionalWeight, Min: 0, Max: 1, Step: 0.05},
				{Name: "cascade_threshold", Type: FieldTypeNumber, Label: "Cascade threshold", DefaultValue: 0.75, Value: c.CascadeThreshold, Min: 0, Max: 1, Step: 0.05, HelpText: "Every agent scoring above answers"},
				{Name: "tiebreaker_margin", Type: FieldTypeNumber, Label: "Tie margin", DefaultValue: 0.1, Value: c.TiebreakerMargin, Min: 0, Max: 1, Step: 0.01},
				{Name: "cooldown", Type: FieldTypeDuration, Label: "Repetition cooldown", DefaultValue: "60s", Value: c.Cooldown.String()},
				{Name: "oracle", Type: FieldTypeCheckbox, Label: "LLM oracle", DefaultValue: false, Value: c.OracleEnabled(), HelpText: "Set LOCALARBITER_LLM_API_URL and LOCALARBITER_MODEL"},
			},
		},
		{
			Name:  "suppression",
			Label: "Suppression",
			Fields: []Field{
				{Name: "enabled", Type: FieldTypeCheckbox, Label: "Enabled", DefaultValue: true, Value: c.SuppressionEnabled},
				{Name: "minimum_threshold", Type: FieldTypeNumber, Label: "Minimum threshold", DefaultValue: 0.3, Value: c.MinimumThreshold, Min: 0, Max: 1, Step: 0.05},
				{Name: "reevaluation_delay", Type: FieldTypeDuration, Label: "Re-evaluation delay", DefaultValue: "30s", Value: c.ReevaluationDelay.String(), HelpText: "0 disables re-evaluation"},
				{Name: "max_reevaluations", Type: FieldTypeNumber, Label: "Re-evaluation attempts", DefaultValue: 3, Value: c.MaxReevaluations, Min: 1, Step: 1},
				{Name: "context_change_weight", Type: FieldTypeNumber, Label: "Context change boost", DefaultValue: 0.2, Value: c.ContextChangeWeight, Min: 0, Max: 1, Step: 0.05},
			},
		},
		{
			Name:  "turns",
			Label: "Turns",
			Fields: []Field{
				{Name: "turn_timeout", Type: FieldTypeDuration, Label: "Turn timeout", DefaultValue: "30s", Value: c.TurnTimeout.String(), HelpText: "Between 5s and 120s"},
				{Name: "max_discussion_turns", Type: FieldTypeNumber, Label: "Max discussion turns", DefaultValue: 5, Value: c.MaxDiscussionTurns, Min: 1, Step: 1},
				{Name: "default_agent", Type: FieldTypeText, Label: "Default agent", DefaultValue: "", Value: c.DefaultAgent},
			},
		},
	}
}
