// Package phraseminer produces a canonical phrase universe from page text:
// sentence phrases, n-grams, and service-pattern phrases, deduplicated by
// lowercase form.
package phraseminer

import (
	"regexp"
	"strings"

	"github.com/use-agent/seoscope/models"
)

const (
	minSentenceLength = 15
	maxSentenceLength = 200
	minSentenceWords  = 3
)

var sentenceSplit = regexp.MustCompile(`[.!?]+`)

var ngramSizes = []int{2, 3, 4, 5, 6}

var stopPrefixes = []string{
	"the ", "a ", "an ", "and ", "or ", "but ",
	"in ", "on ", "at ", "to ", "for ", "of ",
}

// servicePattern matches a domain term directly followed by a service term,
// such as "marketing services" or "seo optimization".
var servicePattern = regexp.MustCompile(
	`(?i)(marketing|digital|content|social|email|ppc|seo|advertising)\s+` +
		`(services?|solutions?|strategies?|management|optimization)`,
)

// Miner extracts phrases from plain text. It holds no state and is safe for
// concurrent use.
type Miner struct{}

// New returns a ready-to-use Miner.
func New() *Miner {
	return &Miner{}
}

// Extract builds the PhraseSet for sourceURL's text: sentence phrases,
// n-grams of 2 through 6 words (stop-phrases excluded), and service-pattern
// phrases, deduplicated by lowercase form.
func (m *Miner) Extract(text, sourceURL string) *models.PhraseSet {
	set := &models.PhraseSet{SourceURL: sourceURL}
	if strings.TrimSpace(text) == "" {
		return set
	}

	seen := make(map[string]struct{})
	add := func(display string) {
		lower := strings.ToLower(display)
		if _, ok := seen[lower]; ok {
			return
		}
		seen[lower] = struct{}{}
		set.Phrases = append(set.Phrases, models.Phrase{Lower: lower, Display: display})
	}

	for _, s := range sentencePhrases(text) {
		add(s)
	}
	for _, s := range ngramPhrases(text) {
		add(s)
	}
	for _, s := range servicePatternPhrases(text) {
		add(s)
	}

	return set
}

func sentencePhrases(text string) []string {
	var out []string
	for _, raw := range sentenceSplit.Split(text, -1) {
		s := strings.TrimSpace(raw)
		if len(s) < minSentenceLength || len(s) > maxSentenceLength {
			continue
		}
		s = normalizeSpaces(s)
		if len(strings.Fields(s)) < minSentenceWords {
			continue
		}
		out = append(out, s)
	}
	return out
}

func ngramPhrases(text string) []string {
	words := strings.Fields(strings.ToLower(text))
	var out []string
	for _, n := range ngramSizes {
		if len(words) < n {
			continue
		}
		for i := 0; i+n <= len(words); i++ {
			phrase := strings.Join(words[i:i+n], " ")
			if isStopPhrase(phrase) {
				continue
			}
			out = append(out, phrase)
		}
	}
	return out
}

func isStopPhrase(phrase string) bool {
	for _, prefix := range stopPrefixes {
		if strings.HasPrefix(phrase, prefix) {
			return true
		}
	}
	return false
}

func servicePatternPhrases(text string) []string {
	matches := servicePattern.FindAllString(text, -1)
	if matches == nil {
		return nil
	}
	out := make([]string, len(matches))
	for i, match := range matches {
		out[i] = normalizeSpaces(match)
	}
	return out
}

func normalizeSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
