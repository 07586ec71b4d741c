// Package tokenizer normalises raw text into the word sequence consumed by
// the index engine. It lower-cases input, splits on any rune that is not a
// Unicode letter or digit, and drops configured stopwords. The same
// tokenizer must run at index time and query time; diverging rules silently
// break matching.
package tokenizer

import (
	"strings"
	"unicode"
)

// Tokenizer splits text into normalised words.
type Tokenizer struct {
	stopwords map[string]struct{}
}

// New creates a Tokenizer. The stopword list may be empty; entries are
// compared after lower-casing.
func New(stopwords []string) *Tokenizer {
	set := make(map[string]struct{}, len(stopwords))
	for _, w := range stopwords {
		set[strings.ToLower(w)] = struct{}{}
	}
	return &Tokenizer{stopwords: set}
}

// Tokenize returns the ordered word sequence of text: maximal runs of
// letters and digits, lower-cased, stopwords removed.
func (t *Tokenizer) Tokenize(text string) []string {
	lowered := strings.ToLower(text)
	fields := strings.FieldsFunc(lowered, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(t.stopwords) == 0 {
		return fields
	}
	words := fields[:0]
	for _, w := range fields {
		if _, stop := t.stopwords[w]; stop {
			continue
		}
		words = append(words, w)
	}
	return words
}
