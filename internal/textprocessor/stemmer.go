package textprocessor

import (
	"sync"

	"github.com/kljensen/snowball"
)

const DefaultLanguage = "english"

// Stemmer reduces words to their snowball stems and memoizes the results.
// It is safe for concurrent use.
type Stemmer struct {
	language string

	mu    sync.RWMutex
	cache map[string]string
}

func NewStemmer() *Stemmer {
	return NewStemmerFor(DefaultLanguage)
}

// NewStemmerFor returns a stemmer for any language snowball supports.
// Unsupported languages leave words unchanged.
func NewStemmerFor(language string) *Stemmer {
	return &Stemmer{
		language: language,
		cache:    make(map[string]string),
	}
}

// Stem returns the stem of word, or word itself when stemming fails.
func (s *Stemmer) Stem(word string) string {
	s.mu.RLock()
	stemmed, ok := s.cache[word]
	s.mu.RUnlock()
	if ok {
		return stemmed
	}

	stemmed, err := snowball.Stem(word, s.language, true)
	if err != nil || stemmed == "" {
		stemmed = word
	}

	s.mu.Lock()
	s.cache[word] = stemmed
	s.mu.Unlock()
	return stemmed
}

func (s *Stemmer) StemBatch(words []string) []string {
	stemmed := make([]string, len(words))
	for i, word := range words {
		stemmed[i] = s.Stem(word)
	}
	return stemmed
}

// CacheSize reports how many distinct words have been stemmed.
func (s *Stemmer) CacheSize() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cache)
}
