package keyword

import (
	"regexp"
	"sort"
	"strings"

	"github.com/hyperjump/petqa/internal/models"
)

var titleWordPattern = regexp.MustCompile(`[a-z]{3,}`)

// TermDictionary is a read-only set of terms with their document frequency.
type TermDictionary interface {
	// Terms returns every term, most frequent first.
	Terms() []string
	// Frequency returns the number of records containing term, or 0.
	Frequency(term string) int
}

// Vocabulary is the TermDictionary of one search index: record keywords plus title words.
// It is immutable after construction.
type Vocabulary struct {
	terms []string
	freq  map[string]int
}

// NewVocabulary collects the terms of idx. Each term counts at most once per record.
func NewVocabulary(idx *models.SearchIndex) *Vocabulary {
	v := &Vocabulary{freq: make(map[string]int)}
	if idx == nil {
		return v
	}
	for _, rec := range idx.Entries {
		seen := make(map[string]struct{})
		add := func(term string) {
			if _, ok := seen[term]; ok {
				return
			}
			seen[term] = struct{}{}
			v.freq[term]++
		}
		for _, k := range rec.Keywords {
			add(strings.ToLower(k))
		}
		for _, w := range titleWordPattern.FindAllString(strings.ToLower(rec.Title), -1) {
			add(w)
		}
	}
	v.terms = make([]string, 0, len(v.freq))
	for t := range v.freq {
		v.terms = append(v.terms, t)
	}
	sort.Slice(v.terms, func(i, j int) bool {
		fi, fj := v.freq[v.terms[i]], v.freq[v.terms[j]]
		if fi != fj {
			return fi > fj
		}
		return v.terms[i] < v.terms[j]
	})
	return v
}

// Terms implements TermDictionary.
func (v *Vocabulary) Terms() []string { return v.terms }

// Frequency implements TermDictionary.
func (v *Vocabulary) Frequency(term string) int { return v.freq[term] }

// Contains reports whether term is in the vocabulary.
func (v *Vocabulary) Contains(term string) bool {
	_, ok := v.freq[term]
	return ok
}

// Len returns the number of distinct terms.
func (v *Vocabulary) Len() int { return len(v.terms) }
