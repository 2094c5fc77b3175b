// Package emotion does lightweight lexical emotion inference and keeps the
// emotional memory of every agent.
package emotion

import (
	"sort"

	"github.com/mudler/LocalArbiter/core/types"
	"github.com/mudler/LocalArbiter/pkg/xstrings"
)

const (
	baseIntensity     = 0.5
	maxIntensity      = 1.5
	modifierWindow    = 2
	negationFactor    = -0.5
	repetitionBoost   = 0.1
	maxRepetitionGain = 1.5
)

// Detector finds emotions in text using a fixed keyword lexicon.
type Detector struct {
	keywords map[string]string
}

func NewDetector() *Detector {
	keywords := map[string]string{}
	for emotion, words := range lexicon {
		for _, w := range words {
			keywords[w] = emotion
		}
	}
	return &Detector{keywords: keywords}
}

type hit struct {
	emotion  string
	keyword  string
	position int
	count    int
}

// DetectEmotions returns the emotional context of message. It never fails:
// text without any recognized keyword yields an empty context.
func (d *Detector) DetectEmotions(message string) types.EmotionalContext {
	tokens := xstrings.Words(message)

	hits := map[string]*hit{}
	order := []string{}
	for i, tok := range tokens {
		emotion, ok := d.keywords[tok]
		if !ok {
			continue
		}
		if h, seen := hits[tok]; seen {
			h.count++
			continue
		}
		hits[tok] = &hit{emotion: emotion, keyword: tok, position: i, count: 1}
		order = append(order, tok)
	}

	best := map[string]*types.DetectedEmotion{}
	for _, kw := range order {
		h := hits[kw]
		intensity := d.intensity(tokens, h)
		if intensity <= 0 {
			continue
		}
		cur, ok := best[h.emotion]
		if !ok {
			best[h.emotion] = &types.DetectedEmotion{
				Emotion:   h.emotion,
				Intensity: intensity,
				Keywords:  []string{h.keyword},
				Position:  h.position,
			}
			continue
		}
		cur.Keywords = append(cur.Keywords, h.keyword)
		if intensity > cur.Intensity {
			cur.Intensity = intensity
		}
	}

	detected := make([]types.DetectedEmotion, 0, len(best))
	for _, e := range best {
		detected = append(detected, *e)
	}
	sort.Slice(detected, func(i, j int) bool {
		if detected[i].Intensity != detected[j].Intensity {
			return detected[i].Intensity > detected[j].Intensity
		}
		if detected[i].Position != detected[j].Position {
			return detected[i].Position < detected[j].Position
		}
		return detected[i].Emotion < detected[j].Emotion
	})

	ctx := types.EmotionalContext{DetectedEmotions: detected}
	if len(detected) == 0 {
		return ctx
	}

	ctx.PrimaryEmotion = detected[0].Emotion
	ctx.IsMixed = len(detected) > 1

	var sum, pos, neg float64
	for _, e := range detected {
		sum += e.Intensity
		switch {
		case positive[e.Emotion]:
			pos += e.Intensity
		case negative[e.Emotion]:
			neg += e.Intensity
		}
	}
	ctx.OverallIntensity = sum / float64(len(detected))
	if pos+neg > 0 {
		ctx.SentimentPolarity = (pos - neg) / (pos + neg)
	}
	return ctx
}

func (d *Detector) intensity(tokens []string, h *hit) float64 {
	intensity := baseIntensity
	negated := false

	lo, hi := h.position-modifierWindow, h.position+modifierWindow
	if lo < 0 {
		lo = 0
	}
	if hi > len(tokens)-1 {
		hi = len(tokens) - 1
	}
	for i := lo; i <= hi; i++ {
		if i == h.position {
			continue
		}
		if m, ok := modifiers[tokens[i]]; ok {
			intensity *= m
		}
		if negations[tokens[i]] {
			negated = true
		}
	}
	// only negative emotions are cancelled by a negation
	if negated && negative[h.emotion] {
		intensity *= negationFactor
	}

	if h.count > 1 {
		gain := 1 + repetitionBoost*float64(h.count-1)
		if gain > maxRepetitionGain {
			gain = maxRepetitionGain
		}
		intensity *= gain
	}

	if intensity < 0 {
		return 0
	}
	if intensity > maxIntensity {
		return maxIntensity
	}
	return intensity
}
