// Package topics extracts keywords and domain categories from messages and
// scores how well they fit an agent's interests.
package topics

import (
	"sort"
	"strings"

	"github.com/mudler/LocalArbiter/pkg/xstrings"
)

const minKeywordLength = 3

// Topics is what a message talks about.
type Topics struct {
	Keywords   []string `json:"keywords"`
	Categories []string `json:"categories"`

	text string
}

// TopicExtractor turns free text into Topics using a fixed lexicon.
type TopicExtractor struct {
	categories map[string][]string
}

func NewTopicExtractor() *TopicExtractor {
	return &TopicExtractor{categories: categories}
}

// Extract returns the stopword-filtered keywords of text and the categories
// it matches, most matched category first.
func (e *TopicExtractor) Extract(text string) Topics {
	words := xstrings.Words(text)

	keywords := []string{}
	for _, w := range words {
		if len([]rune(w)) < minKeywordLength || stopwords[w] {
			continue
		}
		keywords = append(keywords, w)
	}
	keywords = xstrings.UniqueSlice(keywords)

	wordSet := xstrings.Set(words...)
	bigrams := map[string]bool{}
	for i := 0; i+1 < len(words); i++ {
		bigrams[words[i]+" "+words[i+1]] = true
	}

	hits := map[string]int{}
	for category, terms := range e.categories {
		for _, term := range terms {
			if strings.Contains(term, " ") {
				if bigrams[term] {
					hits[category]++
				}
				continue
			}
			if wordSet[term] {
				hits[category]++
			}
		}
	}

	found := make([]string, 0, len(hits))
	for c := range hits {
		found = append(found, c)
	}
	sort.Slice(found, func(i, j int) bool {
		if hits[found[i]] != hits[found[j]] {
			return hits[found[i]] > hits[found[j]]
		}
		return found[i] < found[j]
	})

	return Topics{
		Keywords:   keywords,
		Categories: found,
		text:       strings.Join(words, " "),
	}
}

// Matches reports whether term (an interest, skill or domain) is covered by
// the extracted topics.
func (t Topics) Matches(term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return false
	}
	if strings.Contains(term, " ") {
		return strings.Contains(t.text, term)
	}
	for _, c := range t.Categories {
		if c == term || strings.HasPrefix(c, term) || strings.HasPrefix(term, c) {
			return true
		}
	}
	for _, k := range t.Keywords {
		if k == term {
			return true
		}
		if len(k) >= 4 && len(term) >= 4 && (strings.HasPrefix(k, term) || strings.HasPrefix(term, k)) {
			return true
		}
	}
	return false
}

// MatchFraction is the share of terms covered by the topics, 0 for no terms.
func (t Topics) MatchFraction(terms []string) float64 {
	if len(terms) == 0 {
		return 0
	}
	matched := 0
	for _, term := range terms {
		if t.Matches(term) {
			matched++
		}
	}
	return float64(matched) / float64(len(terms))
}
