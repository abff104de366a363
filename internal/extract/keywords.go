package extract

import (
	"regexp"
	"sort"
	"strings"
)

// MaxKeywords is the number of keywords kept per record.
const MaxKeywords = 10

var keywordPattern = regexp.MustCompile(`\b[a-z]{3,}\b`)

// stopWords are dropped before counting. Besides function words it holds terms that
// appear in nearly every page of the site.
var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {}, "by": {},
	"for": {}, "from": {}, "has": {}, "he": {}, "in": {}, "is": {}, "it": {}, "its": {},
	"of": {}, "on": {}, "that": {}, "the": {}, "to": {}, "was": {}, "will": {}, "with": {},
	"can": {}, "dogs": {}, "cats": {}, "rabbits": {}, "fish": {}, "pet": {}, "pets": {},
}

// IsStopWord reports whether w is excluded from keywords.
func IsStopWord(w string) bool {
	_, ok := stopWords[w]
	return ok
}

// ExtractKeywords returns up to MaxKeywords terms from title and body, most frequent
// first; ties keep first-occurrence order.
func ExtractKeywords(title, body string) []string {
	text := strings.ToLower(title + " " + body)
	counts := make(map[string]int)
	var order []string
	for _, w := range keywordPattern.FindAllString(text, -1) {
		if IsStopWord(w) {
			continue
		}
		if counts[w] == 0 {
			order = append(order, w)
		}
		counts[w]++
	}
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > MaxKeywords {
		order = order[:MaxKeywords]
	}
	if order == nil {
		return []string{}
	}
	return order
}
