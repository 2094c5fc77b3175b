// Package names resolves utterances that address an agent by name.
package names

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/mudler/LocalArbiter/core/types"
	"github.com/mudler/LocalArbiter/pkg/xstrings"
)

const minNameLength = 3

const namePattern = `(\p{Lu}[\p{L}'-]*\p{L})`

var patterns = []*regexp.Regexp{
	// Lisa, can you...
	regexp.MustCompile(`^\s*` + namePattern + `\s*,`),
	// @lisa
	regexp.MustCompile(`@([\p{L}\p{N}_-]+)`),
	// Lisa: ...
	regexp.MustCompile(`^\s*` + namePattern + `\s*:`),
	// hello Lisa
	regexp.MustCompile(`(?:^|[\s,.!?])(?i:hi|hello|hey|good morning|good evening|bonjour|bonsoir|salut|coucou|yo)[\s,!]+` + namePattern),
	// ask Lisa ...
	regexp.MustCompile(`(?:^|[\s,.!?])(?i:ask|tell|let|please|thanks|thank you|dis|demande|merci)[\s,]+` + namePattern),
}

// words that start sentences and are never names.
var common = xstrings.Set(
	"i", "you", "we", "they", "he", "she", "it", "the", "a", "an", "this", "that", "what", "why", "how",
	"when", "where", "who", "which", "can", "could", "would", "should", "do", "does", "is", "are", "tell",
	"please", "let", "ok", "okay", "yes", "no", "thanks", "hi", "hello", "hey", "everyone", "everybody",
	"je", "tu", "il", "elle", "nous", "vous", "ils", "elles", "le", "la", "les", "un", "une", "ce", "ça",
	"quoi", "pourquoi", "comment", "quand", "qui", "est", "oui", "non", "merci", "bonjour", "salut",
	"bonsoir", "coucou", "tout", "tous", "dis", "demande",
)

// Extractor finds the name an utterance addresses.
type Extractor struct {
	patterns []*regexp.Regexp
}

func NewExtractor() *Extractor {
	return &Extractor{patterns: patterns}
}

// ExtractNameFromMessage returns the addressed name or "" if none.
func (e *Extractor) ExtractNameFromMessage(message string) string {
	name, _ := e.extract(message)
	return name
}

// extract reports whether the name came from an addressing pattern rather
// than from a capitalized first word.
func (e *Extractor) extract(message string) (string, bool) {
	for _, p := range e.patterns {
		for _, m := range p.FindAllStringSubmatch(message, -1) {
			if name := strings.Trim(m[1], "'-"); isName(name) {
				return name, true
			}
		}
	}

	fields := xstrings.Fields(message)
	if len(fields) > 1 {
		first := fields[0]
		r := []rune(first)
		if unicode.IsUpper(r[0]) && isName(first) {
			return first, false
		}
	}
	return "", false
}

// ResolveAgent finds the agent message addresses. A capitalized first word
// only resolves when it names the agent or starts one of its names, so
// "Technology is fascinating" does not address "Tech".
func (e *Extractor) ResolveAgent(message string, agents []types.AgentProfile) (string, bool) {
	name, explicit := e.extract(message)
	if name == "" {
		return "", false
	}
	return e.find(name, agents, explicit)
}

func isName(s string) bool {
	return s != "" && !common[strings.ToLower(s)]
}

// FindAgentByName resolves name against agents. It tries exact
// case-insensitive matches on name and nickname first, then prefix,
// substring and shared-token matches. The bool is true only for exact matches.
func (e *Extractor) FindAgentByName(name string, agents []types.AgentProfile) (string, bool) {
	return e.find(name, agents, true)
}

// find matches name against agents. Loose matches let a candidate be found
// inside name and allow shared tokens.
func (e *Extractor) find(name string, agents []types.AgentProfile, loose bool) (string, bool) {
	query := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "@")))
	if len([]rune(query)) < minNameLength {
		return "", false
	}

	sorted := append([]types.AgentProfile(nil), agents...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	matchers := []func(candidate string) bool{
		func(c string) bool { return c == query },
		func(c string) bool { return strings.HasPrefix(c, query) },
		func(c string) bool {
			return strings.Contains(c, query) || (loose && len([]rune(c)) >= minNameLength && strings.Contains(query, c))
		},
		func(c string) bool { return loose && sharesToken(c, query) },
	}

	for i, match := range matchers {
		for _, a := range sorted {
			for _, candidate := range labels(a) {
				if match(candidate) {
					return a.ID, i == 0
				}
			}
		}
	}
	return "", false
}

func labels(a types.AgentProfile) []string {
	out := []string{}
	for _, s := range []string{a.Name, a.Nickname} {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func sharesToken(a, b string) bool {
	tokens := map[string]bool{}
	for _, t := range xstrings.Words(a) {
		if len([]rune(t)) >= minNameLength {
			tokens[t] = true
		}
	}
	for _, t := range xstrings.Words(b) {
		if tokens[t] {
			return true
		}
	}
	return false
}
