package keyword

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// Suggestion is a candidate correction for one word.
type Suggestion struct {
	Term      string
	Distance  int
	Frequency int
	// Score is frequency discounted by edit distance; higher is better.
	Score float64
}

// SpellCheckResult is the outcome of checking a whole query.
type SpellCheckResult struct {
	OriginalQuery   string
	CorrectedQuery  string
	MisspelledTerms []string
	Suggestions     []Suggestion
	HasCorrections  bool
}

// SpellChecker corrects query words against a TermDictionary.
type SpellChecker struct {
	dictionary     TermDictionary
	maxDistance    int
	minFreq        int
	minWordLength  int
	maxSuggestions int
	known          func(string) bool
}

// SpellCheckerOption configures a SpellChecker.
type SpellCheckerOption func(*SpellChecker)

// WithMaxDistance sets the maximum edit distance of a suggestion.
func WithMaxDistance(d int) SpellCheckerOption {
	return func(s *SpellChecker) {
		if d > 0 {
			s.maxDistance = d
		}
	}
}

// WithMinFrequency ignores dictionary terms rarer than f.
func WithMinFrequency(f int) SpellCheckerOption {
	return func(s *SpellChecker) {
		if f >= 0 {
			s.minFreq = f
		}
	}
}

// WithMaxSuggestions caps the suggestions returned per word.
func WithMaxSuggestions(n int) SpellCheckerOption {
	return func(s *SpellChecker) {
		if n > 0 {
			s.maxSuggestions = n
		}
	}
}

// WithKnownWords marks words as correct even when absent from the dictionary
// (stop words, for example).
func WithKnownWords(known func(string) bool) SpellCheckerOption {
	return func(s *SpellChecker) { s.known = known }
}

// NewSpellChecker returns a checker with max distance 2 that leaves words shorter than
// three characters alone.
func NewSpellChecker(dict TermDictionary, opts ...SpellCheckerOption) *SpellChecker {
	s := &SpellChecker{
		dictionary:     dict,
		maxDistance:    2,
		minFreq:        1,
		minWordLength:  3,
		maxSuggestions: 5,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IsMisspelled reports whether term would be corrected.
func (s *SpellChecker) IsMisspelled(term string) bool {
	term = strings.ToLower(term)
	if utf8.RuneCountInString(term) < s.minWordLength {
		return false
	}
	if s.known != nil && s.known(term) {
		return false
	}
	return s.dictionary.Frequency(term) == 0
}

// Suggest returns corrections for a single word, best first.
func (s *SpellChecker) Suggest(term string) []Suggestion {
	term = strings.ToLower(term)
	var out []Suggestion
	for _, candidate := range s.dictionary.Terms() {
		if candidate == term || !Within(term, candidate, s.maxDistance) {
			continue
		}
		freq := s.dictionary.Frequency(candidate)
		if freq < s.minFreq {
			continue
		}
		d := Distance(term, candidate)
		out = append(out, Suggestion{
			Term:      candidate,
			Distance:  d,
			Frequency: freq,
			Score:     float64(freq) / float64(d+1),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if out[i].Distance != out[j].Distance {
			return out[i].Distance < out[j].Distance
		}
		return out[i].Term < out[j].Term
	})
	if len(out) > s.maxSuggestions {
		out = out[:s.maxSuggestions]
	}
	return out
}

// Check corrects every misspelled word of query that has a suggestion.
func (s *SpellChecker) Check(query string) *SpellCheckResult {
	words := strings.Fields(strings.ToLower(query))
	result := &SpellCheckResult{OriginalQuery: query}
	corrected := make([]string, 0, len(words))
	for _, w := range words {
		if !s.IsMisspelled(w) {
			corrected = append(corrected, w)
			continue
		}
		suggestions := s.Suggest(w)
		if len(suggestions) == 0 {
			corrected = append(corrected, w)
			continue
		}
		result.HasCorrections = true
		result.MisspelledTerms = append(result.MisspelledTerms, w)
		result.Suggestions = append(result.Suggestions, suggestions...)
		corrected = append(corrected, suggestions[0].Term)
	}
	result.CorrectedQuery = strings.Join(corrected, " ")
	return result
}

// SuggestedQuery returns the corrected query, or "" when nothing was corrected.
func (s *SpellChecker) SuggestedQuery(query string) string {
	r := s.Check(query)
	if !r.HasCorrections {
		return ""
	}
	return r.CorrectedQuery
}
