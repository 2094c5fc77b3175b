package scoring

import (
	"bytes"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/mudler/LocalArbiter/core/types"
)

const scoringPromptTemplate = `Several AI personas share one conversation. Rate how relevant it is for each of them to answer the message below.
Give every persona a score between 0 (should stay silent) and 1 (clearly the right one to answer).

Message: {{ .Message | quote }}
{{- if .Emotion }}
The speaker seems {{ .Emotion.PrimaryEmotion }} (intensity {{ printf "%.2f" .Emotion.OverallIntensity }}).
{{- end }}

Personas:
{{- range .Agents }}
- {{ .ID }}: {{ .Summary }}
{{- end }}

Answer with the scores keyed by persona id ({{ .IDs | join ", " }}).`

var scoringPrompt = template.Must(template.New("scoring").Funcs(sprig.TxtFuncMap()).Parse(scoringPromptTemplate))

func renderScoringPrompt(message string, agents []types.AgentProfile, emo *types.EmotionalContext) (string, error) {
	ids := make([]string, len(agents))
	for i, a := range agents {
		ids[i] = a.ID
	}

	var emotion *types.EmotionalContext
	if emo.HasEmotion() {
		emotion = emo
	}

	prompt := bytes.NewBuffer([]byte{})
	err := scoringPrompt.Execute(prompt, struct {
		Message string
		Emotion *types.EmotionalContext
		Agents  []types.AgentProfile
		IDs     []string
	}{
		Message: message,
		Emotion: emotion,
		Agents:  agents,
		IDs:     ids,
	})
	if err != nil {
		return "", err
	}
	return prompt.String(), nil
}
