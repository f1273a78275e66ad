package gapanalyzer

import (
	"regexp"
	"sort"
	"strings"
)

// MinKeywordLength is the shortest word kept as a keyword.
const MinKeywordLength = 4

// MaxKeywords is how many keywords are searched per requirement.
const MaxKeywords = 3

// stopwords are frequent requirement words that never name code.
var stopwords = map[string]bool{
	"able": true, "about": true, "after": true, "allow": true, "allows": true, "also": true,
	"been": true, "before": true, "being": true, "both": true, "each": true, "from": true,
	"have": true, "into": true, "must": true, "need": true, "needs": true, "only": true,
	"other": true, "provide": true, "provides": true, "shall": true, "should": true,
	"some": true, "such": true, "support": true, "supports": true, "than": true,
	"that": true, "their": true, "them": true, "then": true, "there": true, "these": true,
	"they": true, "this": true, "those": true, "through": true,
	"when": true, "where": true, "which": true, "while": true, "will": true, "with": true,
	"within": true, "without": true, "would": true, "your": true, "system": true,
}

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9\s]+`)

// ExtractKeywords derives up to MaxKeywords search keywords from text: lower-cased,
// stripped of punctuation, without short or common words, deduplicated and ordered
// longest first (ties keep first appearance).
func ExtractKeywords(text string) []string {
	cleaned := nonAlphanumeric.ReplaceAllString(strings.ToLower(text), "")

	seen := make(map[string]bool)
	words := []string{}
	for _, w := range strings.Fields(cleaned) {
		if len(w) < MinKeywordLength || stopwords[w] || seen[w] {
			continue
		}
		seen[w] = true
		words = append(words, w)
	}

	sort.SliceStable(words, func(i, j int) bool {
		return len(words[i]) > len(words[j])
	})
	if len(words) > MaxKeywords {
		words = words[:MaxKeywords]
	}
	return words
}
