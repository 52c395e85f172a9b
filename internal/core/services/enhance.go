package services

import (
	"sort"
	"strings"
)

// maxSynonymsPerPhrase bounds how many alternates one matched phrase adds.
const maxSynonymsPerPhrase = 2

// DefaultSynonyms is the built-in domain vocabulary.
func DefaultSynonyms() map[string][]string {
	return map[string][]string{
		"emergency stop":  {"e-stop", "estop"},
		"push button":     {"pushbutton", "button"},
		"color":           {"colour"},
		"ce marking":      {"ce mark"},
		"risk assessment": {"hazard analysis"},
	}
}

// QueryEnhancer appends domain synonyms to a query before it is embedded.
// The enhanced text is never shown to the user.
type QueryEnhancer struct {
	phrases  []string
	synonyms map[string][]string
}

// NewQueryEnhancer builds an enhancer over the default vocabulary plus extra.
// Extra entries replace defaults with the same phrase.
func NewQueryEnhancer(extra map[string][]string) *QueryEnhancer {
	synonyms := DefaultSynonyms()
	for phrase, alts := range extra {
		synonyms[strings.ToLower(phrase)] = alts
	}

	phrases := make([]string, 0, len(synonyms))
	for phrase := range synonyms {
		phrases = append(phrases, phrase)
	}
	sort.Strings(phrases)

	return &QueryEnhancer{phrases: phrases, synonyms: synonyms}
}

// Enhance lowercases the query and appends up to two alternates for every
// phrase it contains. Running it twice may append the alternates again.
func (e *QueryEnhancer) Enhance(query string) string {
	enhanced := strings.ToLower(query)
	lowered := enhanced
	for _, phrase := range e.phrases {
		if !strings.Contains(lowered, phrase) {
			continue
		}
		alts := e.synonyms[phrase]
		if len(alts) > maxSynonymsPerPhrase {
			alts = alts[:maxSynonymsPerPhrase]
		}
		if len(alts) > 0 {
			enhanced += " " + strings.Join(alts, " ")
		}
	}
	return enhanced
}
