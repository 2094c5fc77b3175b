package types

// DetectedEmotion is a single emotion found in a message.
type DetectedEmotion struct {
	Emotion   string   `json:"emotion"`
	Intensity float64  `json:"intensity"`
	Keywords  []string `json:"keywords,omitempty"`
	Position  int      `json:"position"`
}

// EmotionalContext is the per-message emotional read used by scoring.
// An empty PrimaryEmotion means no emotion was detected.
type EmotionalContext struct {
	PrimaryEmotion    string            `json:"primary_emotion,omitempty"`
	DetectedEmotions  []DetectedEmotion `json:"detected_emotions,omitempty"`
	OverallIntensity  float64           `json:"overall_intensity"`
	IsMixed           bool              `json:"is_mixed"`
	SentimentPolarity float64           `json:"sentiment_polarity"`
}

// HasEmotion reports whether a primary emotion is present.
func (e *EmotionalContext) HasEmotion() bool {
	return e != nil && e.PrimaryEmotion != ""
}

// PrimaryIntensity returns the intensity of the primary emotion, or the
// overall intensity when the primary is not listed.
func (e *EmotionalContext) PrimaryIntensity() float64 {
	if !e.HasEmotion() {
		return 0
	}
	for _, d := range e.DetectedEmotions {
		if d.Emotion == e.PrimaryEmotion {
			return d.Intensity
		}
	}
	return e.OverallIntensity
}
