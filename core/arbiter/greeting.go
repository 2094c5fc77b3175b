package arbiter

import (
	"strings"

	"github.com/mudler/LocalArbiter/pkg/xstrings"
)

var greetings = xstrings.Set(
	"hi", "hello", "hey", "greetings", "morning", "evening", "yo", "howdy",
	"bonjour", "bonsoir", "salut", "coucou", "hola",
)

var collectives = xstrings.Set(
	"everyone", "everybody", "all", "guys", "folks", "team", "yall",
	"tous", "toutes", "amis", "gens",
)

var collectivePhrases = []string{"tout le monde", "you all", "all of you"}

// isCollectiveGreeting reports whether message greets the whole group.
func isCollectiveGreeting(message string) bool {
	words := xstrings.Words(message)
	if !xstrings.ContainsAny(words, greetings) {
		return false
	}
	if xstrings.ContainsAny(words, collectives) {
		return true
	}
	lower := strings.ToLower(message)
	for _, p := range collectivePhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
