package emotion

import (
	"sort"

	"github.com/mudler/LocalArbiter/pkg/xstrings"
)

const (
	Happy      = "happy"
	Sad        = "sad"
	Angry      = "angry"
	Fearful    = "fearful"
	Surprised  = "surprised"
	Excited    = "excited"
	Anxious    = "anxious"
	Frustrated = "frustrated"
	Grateful   = "grateful"
	Confused   = "confused"
	Lonely     = "lonely"
	Loving     = "loving"
)

// lexicon holds the keywords that signal each emotion, english and french.
var lexicon = map[string][]string{
	Happy:      {"happy", "glad", "joy", "joyful", "cheerful", "delighted", "heureux", "heureuse", "joie", "ravi", "ravie"},
	Sad:        {"sad", "unhappy", "depressed", "miserable", "crying", "cry", "heartbroken", "triste", "déprimé", "malheureux", "pleure"},
	Angry:      {"angry", "mad", "furious", "annoyed", "rage", "irritated", "fâché", "colère", "énervé", "furieux"},
	Fearful:    {"afraid", "scared", "fear", "terrified", "frightened", "peur", "effrayé", "terrifié"},
	Surprised:  {"surprised", "shocked", "amazed", "astonished", "wow", "surpris", "étonné", "choqué"},
	Excited:    {"excited", "thrilled", "eager", "pumped", "excité", "excitée", "hâte"},
	Anxious:    {"anxious", "worried", "nervous", "stressed", "anxieux", "anxieuse", "inquiet", "inquiète", "stressé"},
	Frustrated: {"frustrated", "frustrating", "stuck", "frustré", "frustrée", "agacé"},
	Grateful:   {"grateful", "thankful", "thanks", "thank", "appreciate", "reconnaissant", "reconnaissante"},
	Confused:   {"confused", "puzzled", "unsure", "confus", "confuse", "perdu", "perdue"},
	Lonely:     {"lonely", "alone", "isolated", "seul", "seule", "isolé"},
	Loving:     {"love", "adore", "caring", "aime", "adorer", "amour"},
}

var positive = xstrings.Set(Happy, Excited, Grateful, Loving)

var negative = xstrings.Set(Sad, Angry, Fearful, Anxious, Frustrated, Confused, Lonely)

var modifiers = map[string]float64{
	"very":       1.5,
	"really":     1.4,
	"so":         1.3,
	"extremely":  1.8,
	"incredibly": 1.7,
	"super":      1.5,
	"totally":    1.4,
	"truly":      1.4,
	"quite":      1.2,
	"slightly":   0.4,
	"somewhat":   0.6,
	"little":     0.5,
	"bit":        0.5,
	"kinda":      0.6,
	"très":       1.5,
	"vraiment":   1.4,
	"tellement":  1.6,
	"trop":       1.5,
	"peu":        0.5,
	"assez":      0.8,
}

var negations = xstrings.Set(
	"not", "no", "never", "dont", "don", "isn", "wasn", "aren", "weren", "didn", "doesn", "neither", "nor", "without",
	"ne", "pas", "jamais", "non", "aucun", "aucune",
)

// Supported lists the emotions the detector can recognize.
func Supported() []string {
	out := make([]string, 0, len(lexicon))
	for e := range lexicon {
		out = append(out, e)
	}
	sort.Strings(out)
	return out
}
