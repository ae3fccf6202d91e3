package tokenizer

import (
	"regexp"
	"strings"
	"unicode"
)

var wordPattern = regexp.MustCompile(`[a-z0-9]+`)

var entityReplacer = strings.NewReplacer(
	"&nbsp;", " ",
	"&ndash;", " ",
	"&mdash;", " ",
	"&amp;", "and",
	"&lt;", "<",
	"&gt;", ">",
	"-", " ",
	"_", " ",
)

type Tokenizer struct {
	StopWords map[string]bool
	minLength int
	maxLength int
}

// NewTokenizer returns a tokenizer using the default English stop words
// extended with extraStopWords.
func NewTokenizer(extraStopWords ...string) *Tokenizer {
	stopWords := defaultStopWords()
	for _, word := range extraStopWords {
		stopWords[strings.ToLower(strings.TrimSpace(word))] = true
	}
	return &Tokenizer{
		StopWords: stopWords,
		minLength: 2,
		maxLength: 50,
	}
}

func (t *Tokenizer) Tokenize(text string) []string {
	return t.TokenizeN(text, 0)
}

// TokenizeN tokenizes only the first limit words of text, stop words
// included in the count. A limit of 0 means no limit.
func (t *Tokenizer) TokenizeN(text string, limit int) []string {
	words := t.split(t.normalize(text))
	if limit > 0 && len(words) > limit {
		words = words[:limit]
	}

	tokens := make([]string, 0, len(words))
	for _, word := range words {
		if t.StopWords[word] {
			continue
		}

		if len(word) < t.minLength || len(word) > t.maxLength {
			continue
		}

		if !t.IsValidToken(word) {
			continue
		}

		tokens = append(tokens, word)
	}
	return tokens
}

func (t *Tokenizer) normalize(text string) string {
	return entityReplacer.Replace(strings.ToLower(text))
}

func (t *Tokenizer) split(text string) []string {
	return wordPattern.FindAllString(text, -1)
}

// IsValidToken rejects pure numbers and tokens with more digits than letters.
func (t *Tokenizer) IsValidToken(word string) bool {
	alphaCount := 0
	digitCount := 0

	for _, r := range word {
		if unicode.IsLetter(r) {
			alphaCount++
		} else if unicode.IsDigit(r) {
			digitCount++
		}
	}
	if alphaCount == 0 {
		return false
	}
	return digitCount <= alphaCount
}

func defaultStopWords() map[string]bool {
	words := []string{
		// Articles
		"a", "an", "the",

		// Pronouns
		"i", "me", "my", "myself", "we", "our", "ours", "ourselves",
		"you", "your", "yours", "yourself", "yourselves",
		"he", "him", "his", "himself", "she", "her", "hers", "herself",
		"it", "its", "itself", "they", "them", "their", "theirs", "themselves",

		// Prepositions
		"of", "at", "by", "for", "with", "about", "against", "between",
		"into", "through", "during", "before", "after", "above", "below",
		"to", "from", "up", "down", "in", "out", "on", "off", "over", "under",

		// Conjunctions
		"and", "or", "but", "if", "while", "because", "as", "until",
		"than", "so", "nor", "yet",

		// Common verbs
		"is", "am", "are", "was", "were", "be", "been", "being",
		"have", "has", "had", "having",
		"do", "does", "did", "doing",
		"will", "would", "should", "could", "can", "may", "might", "must",

		// Other common words
		"this", "that", "these", "those",
		"what", "which", "who", "whom", "whose", "when", "where", "why", "how",
		"all", "each", "every", "both", "few", "more", "most", "other", "some", "such",
		"no", "not", "only", "own", "same", "then", "there", "too", "very",
		"like", "also", "just",
	}

	stopWords := make(map[string]bool, len(words))
	for _, word := range words {
		stopWords[word] = true
	}
	return stopWords
}
