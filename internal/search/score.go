package search

import (
	"strings"
	"unicode/utf8"

	"github.com/hyperjump/petqa/internal/models"
)

// Score weights.
const (
	exactPhraseBonus = 1000
	titleWordBonus   = 500
	titleWordDecay   = 10
	titlePrefixBonus = 300
	keywordBonus     = 200
	occurrenceWeight = 10
	popularBonus     = 50
	fuzzyWordBonus   = 5
	fuzzyMinWordLen  = 3
)

var popularFilenameMarkers = []string{"can-", "how-"}

// Score rates rec against a normalized query and its query words. Zero means no match.
// With fuzzy set, a record that would otherwise score zero earns a small bonus for each
// query word whose letters appear in order in its search text.
func Score(rec *models.DocumentRecord, query string, words []string, fuzzy bool) int {
	title := strings.ToLower(rec.Title)
	score := 0
	if strings.Contains(title, query) {
		score += exactPhraseBonus
	}
	for i, w := range words {
		if strings.Contains(title, w) {
			score += max(0, titleWordBonus-titleWordDecay*i)
		}
		if strings.HasPrefix(title, w) {
			score += titlePrefixBonus
		}
		if keywordContains(rec.Keywords, w) {
			score += keywordBonus
		}
		score += occurrenceWeight * strings.Count(rec.SearchText, w)
	}
	if score > 0 && hasPopularMarker(rec.Filename) {
		score += popularBonus
	}
	if score == 0 && fuzzy {
		for _, w := range words {
			if utf8.RuneCountInString(w) >= fuzzyMinWordLen && isSubsequence(w, rec.SearchText) {
				score += fuzzyWordBonus
			}
		}
	}
	return score
}

func keywordContains(keywords []string, w string) bool {
	for _, k := range keywords {
		if strings.Contains(strings.ToLower(k), w) {
			return true
		}
	}
	return false
}

func hasPopularMarker(filename string) bool {
	for _, m := range popularFilenameMarkers {
		if strings.Contains(filename, m) {
			return true
		}
	}
	return false
}

// isSubsequence reports whether the runes of word appear in text in order, gaps allowed.
func isSubsequence(word, text string) bool {
	want := []rune(word)
	if len(want) == 0 {
		return true
	}
	i := 0
	for _, r := range text {
		if r == want[i] {
			i++
			if i == len(want) {
				return true
			}
		}
	}
	return false
}
