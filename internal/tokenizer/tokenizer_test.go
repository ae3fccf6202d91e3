package tokenizer_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/deidaraiorek/vecsearch/internal/tokenizer"
)

func TestTokenize(t *testing.T) {
	tok := tokenizer.NewTokenizer()

	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "basic text",
			input:    "The quick brown fox jumps over the lazy dog",
			expected: []string{"quick", "brown", "fox", "jumps", "lazy", "dog"},
		},
		{
			name:     "with punctuation",
			input:    "Hello, world! How are you?",
			expected: []string{"hello", "world"},
		},
		{
			name:     "with numbers",
			input:    "Python 3.11 is great for AI/ML tasks",
			expected: []string{"python", "great", "ai", "ml", "tasks"},
		},
		{
			name:     "hyphenated words",
			input:    "machine-learning and deep-learning are cool",
			expected: []string{"machine", "learning", "deep", "learning", "cool"},
		},
		{
			name:     "mixed alphanumeric",
			input:    "COVID-19 pandemic in 2020 was tough",
			expected: []string{"covid", "pandemic", "tough"},
		},
		{
			name:     "HTML entities",
			input:    "This&nbsp;is&amp;test&lt;html&gt;",
			expected: []string{"isandtest", "html"},
		},
		{
			name:     "possessive",
			input:    "Earth's radiative balance",
			expected: []string{"earth", "radiative", "balance"},
		},
		{
			name:     "single character removal",
			input:    "I have a big dog",
			expected: []string{"big", "dog"},
		},
		{
			name:     "empty input",
			input:    "",
			expected: []string{},
		},
		{
			name:     "only stop words",
			input:    "the and or but",
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tok.Tokenize(tt.input))
		})
	}
}

func TestTokenizeN(t *testing.T) {
	tok := tokenizer.NewTokenizer()
	input := "the quick brown fox jumps over the lazy dog"

	tests := []struct {
		limit    int
		expected []string
	}{
		{0, []string{"quick", "brown", "fox", "jumps", "lazy", "dog"}},
		{1, []string{}},
		{3, []string{"quick", "brown"}},
		{7, []string{"quick", "brown", "fox", "jumps"}},
		{100, []string{"quick", "brown", "fox", "jumps", "lazy", "dog"}},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, tok.TokenizeN(input, tt.limit), "limit %d", tt.limit)
	}
}

func TestIsValidToken(t *testing.T) {
	tok := tokenizer.NewTokenizer()

	tests := []struct {
		token    string
		expected bool
	}{
		{"hello", true},
		{"world", true},
		{"covid19", true},
		{"123", false},
		{"999", false},
		{"abc123def", true},
		{"123abc", true},
		{"a1b2c3d4", true},
		{"ab1234", false},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			assert.Equal(t, tt.expected, tok.IsValidToken(tt.token))
		})
	}
}

func TestStopWords(t *testing.T) {
	tok := tokenizer.NewTokenizer()

	for _, word := range []string{"the", "a", "an", "and", "or", "but", "is", "was", "are", "like"} {
		assert.True(t, tok.StopWords[word], "expected %q to be a stop word", word)
	}

	for _, word := range []string{"machine", "learning", "search", "engine"} {
		assert.False(t, tok.StopWords[word], "expected %q to NOT be a stop word", word)
	}
}

func TestExtraStopWords(t *testing.T) {
	tok := tokenizer.NewTokenizer(" Wikipedia ", "REDIRECT")

	assert.Equal(t, []string{"article"}, tok.Tokenize("Wikipedia article redirect"))
}

func TestLengthFiltering(t *testing.T) {
	tok := tokenizer.NewTokenizer()

	assert.Equal(t, []string{"hello", "world"}, tok.Tokenize("a b c hello world"))

	longToken := strings.Repeat("a", 60)
	assert.Equal(t, []string{"hello"}, tok.Tokenize(longToken+" hello"))
}

func BenchmarkTokenize(b *testing.B) {
	tok := tokenizer.NewTokenizer()
	text := `Machine learning is a subset of artificial intelligence that focuses on
	building systems that learn from data. Deep learning, a subset of machine learning,
	uses neural networks with multiple layers to analyze various factors of data.`

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tok.Tokenize(text)
	}
}
