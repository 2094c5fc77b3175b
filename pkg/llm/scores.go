package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mudler/xlog"
	"github.com/sashabaranov/go-openai/jsonschema"
)

// ScoresTool is the tool the model answers relevance ratings through.
const ScoresTool = "rate_agents"

var ErrNoScores = errors.New("model returned no usable score")

// Candidate is one agent the model rates.
type Candidate struct {
	ID    string
	Label string
}

// Scores is a score table keyed by candidate id. Some models quote the
// numbers, those are accepted as well.
type Scores map[string]float64

func (s *Scores) UnmarshalJSON(data []byte) error {
	raw := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Scores, len(raw))
	for id, v := range raw {
		var f float64
		if err := json.Unmarshal(v, &f); err == nil {
			out[id] = f
			continue
		}
		var str string
		if err := json.Unmarshal(v, &str); err == nil {
			if f, err := strconv.ParseFloat(strings.TrimSpace(str), 64); err == nil {
				out[id] = f
				continue
			}
		}
		xlog.Debug("Ignoring unreadable score", "id", id, "value", string(v))
	}
	*s = out
	return nil
}

// ScoresSchema describes a {"scores": {id: number}} answer for candidates.
func ScoresSchema(candidates []Candidate) jsonschema.Definition {
	props := make(map[string]jsonschema.Definition, len(candidates))
	required := make([]string, 0, len(candidates))
	for _, c := range candidates {
		props[c.ID] = jsonschema.Definition{
			Type:        jsonschema.Number,
			Description: fmt.Sprintf("Relevance of %s for the message, between 0 and 1", c.Label),
		}
		required = append(required, c.ID)
	}
	return jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"scores": {
				Type:       jsonschema.Object,
				Properties: props,
				Required:   required,
			},
		},
		Required: []string{"scores"},
	}
}

// RateCandidates asks model to rate every candidate for prompt. Scores are
// clamped to [0,1]; unknown ids and non-finite values are dropped, and a
// reply left empty by that is ErrNoScores.
func RateCandidates(ctx context.Context, client LLMClient, model, prompt string, candidates []Candidate) (map[string]float64, error) {
	var reply struct {
		Scores Scores `json:"scores"`
	}
	err := CallTool(ctx, client, ToolRequest{
		Model:       model,
		Prompt:      prompt,
		Tool:        ScoresTool,
		Description: "Rate how relevant it is for each agent to answer",
		Schema:      ScoresSchema(candidates),
	}, &reply)
	if err != nil {
		return nil, err
	}

	out := make(map[string]float64, len(candidates))
	for _, c := range candidates {
		v, ok := reply.Scores[c.ID]
		if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out[c.ID] = math.Min(math.Max(v, 0), 1)
	}
	if len(out) == 0 {
		return nil, ErrNoScores
	}
	return out, nil
}
