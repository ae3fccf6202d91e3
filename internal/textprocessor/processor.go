// Package textprocessor turns raw text into stemmed term frequencies.
package textprocessor

import (
	"github.com/deidaraiorek/vecsearch/internal/tokenizer"
)

type TextProcessor struct {
	tokenizer *tokenizer.Tokenizer
	stemmer   *Stemmer
}

// NewTextProcessor builds a processor whose stop-word list is the default
// English list extended with extraStopWords.
func NewTextProcessor(extraStopWords ...string) *TextProcessor {
	return &TextProcessor{
		tokenizer: tokenizer.NewTokenizer(extraStopWords...),
		stemmer:   NewStemmer(),
	}
}

// Process returns the stemmed tokens of text in order, considering only the
// first limit words (0 for all).
func (tp *TextProcessor) Process(text string, limit int) []string {
	return tp.stemmer.StemBatch(tp.tokenizer.TokenizeN(text, limit))
}

// Normalize maps every stemmed term of text to its raw frequency.
func (tp *TextProcessor) Normalize(text string, limit int) map[string]int {
	freq := make(map[string]int)
	for _, term := range tp.Process(text, limit) {
		freq[term]++
	}
	return freq
}

// Terms returns the distinct stemmed terms of text in first-occurrence order.
// It is the query-side counterpart of Normalize.
func (tp *TextProcessor) Terms(text string) []string {
	seen := make(map[string]bool)
	var terms []string
	for _, term := range tp.Process(text, 0) {
		if seen[term] {
			continue
		}
		seen[term] = true
		terms = append(terms, term)
	}
	return terms
}
