package topics

import "github.com/mudler/LocalArbiter/pkg/xstrings"

var stopwords = xstrings.Set(
	// english
	"the", "and", "for", "are", "but", "not", "you", "all", "any", "can", "had", "her", "was", "one",
	"our", "out", "has", "have", "him", "his", "how", "its", "may", "new", "now", "old", "see", "two",
	"who", "did", "get", "let", "say", "she", "too", "use", "that", "this", "with", "from", "they",
	"will", "would", "there", "their", "what", "about", "which", "when", "make", "like", "time", "just",
	"know", "take", "into", "your", "some", "could", "them", "than", "then", "look", "only", "come",
	"over", "think", "also", "back", "after", "work", "first", "well", "even", "want", "because",
	"these", "give", "most", "tell", "me", "please", "should", "does", "been", "were", "being", "very",
	"really", "much", "more", "something", "anything", "everyone", "everybody", "hello", "hey",
	// french
	"les", "des", "une", "est", "pas", "pour", "que", "qui", "dans", "sur", "avec", "mais", "ont",
	"vous", "nous", "tu", "toi", "moi", "son", "ses", "elle", "ils", "elles", "leur", "aux", "par",
	"comment", "quoi", "peux", "peut", "faire", "bonjour", "salut", "merci", "tout", "tous", "cette",
	"ces", "mon", "ton", "mes", "tes", "vas", "aider", "parle", "parler",
)

// categories maps a domain category to the keywords and bigrams that signal it.
var categories = map[string][]string{
	"technology": {"tech", "technology", "technologie", "computer", "ordinateur", "software", "logiciel",
		"code", "coding", "programming", "programmation", "developer", "internet", "app", "ai", "robot",
		"machine learning", "artificial intelligence", "intelligence artificielle", "data", "cloud", "server"},
	"cooking": {"cook", "cooking", "cuisine", "recipe", "recette", "food", "nourriture", "kitchen", "dish",
		"plat", "bake", "baking", "chef", "meal", "repas", "dinner", "lunch", "dessert", "ingredient"},
	"music": {"music", "musique", "song", "chanson", "concert", "guitar", "guitare", "piano", "album",
		"singer", "band", "melody"},
	"sports": {"sport", "sports", "football", "soccer", "tennis", "basketball", "match", "team", "équipe",
		"running", "fitness", "workout", "exercise"},
	"health": {"health", "santé", "doctor", "médecin", "medicine", "sick", "malade", "symptom", "diet",
		"sleep", "mental health", "wellness"},
	"science": {"science", "physics", "physique", "chemistry", "chimie", "biology", "biologie", "research",
		"experiment", "space", "espace", "astronomy", "planet"},
	"art": {"art", "painting", "peinture", "drawing", "dessin", "museum", "musée", "artist", "artiste",
		"sculpture", "design"},
	"travel": {"travel", "voyage", "trip", "vacation", "vacances", "flight", "vol", "hotel", "country",
		"pays", "city", "ville", "tourist"},
	"finance": {"money", "argent", "finance", "bank", "banque", "invest", "investment", "stock", "budget",
		"price", "prix", "salary", "crypto"},
	"education": {"learn", "learning", "apprendre", "school", "école", "study", "étudier", "teacher",
		"professeur", "course", "cours", "exam", "homework", "university", "université"},
	"emotions": {"feel", "feeling", "sentiment", "emotion", "émotion", "sad", "triste", "happy", "heureux",
		"lonely", "anxious", "stress"},
}
