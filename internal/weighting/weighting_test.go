package weighting

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deidaraiorek/vecsearch/internal/domain"
)

func TestRound2(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{0.5849625, 0.58},
		{1.5849625, 1.58},
		{0.2924812, 0.29},
		{0.125, 0.13},
		{2, 2},
		{0, 0},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, Round2(tt.in), 1e-9, "Round2(%v)", tt.in)
	}
}

func TestNormalizedFrequencyBounds(t *testing.T) {
	for maxF := 1; maxF <= 40; maxF++ {
		for f := 1; f <= maxF; f++ {
			tf := NormalizedFrequency(f, maxF)
			assert.GreaterOrEqual(t, tf, Round2(1/float64(maxF)))
			assert.LessOrEqual(t, tf, 1.0)
		}
		assert.Equal(t, 1.0, NormalizedFrequency(maxF, maxF))
	}
}

func TestNormalizedFrequencyZeroMax(t *testing.T) {
	assert.Equal(t, 0.0, NormalizedFrequency(3, 0))
}

func TestInverseDocumentFrequency(t *testing.T) {
	idf, err := InverseDocumentFrequency(3, 1)
	require.NoError(t, err)
	assert.InDelta(t, math.Log2(3), idf, 1e-12)

	idf, err = InverseDocumentFrequency(8, 8)
	require.NoError(t, err)
	assert.Equal(t, 0.0, idf)

	_, err = InverseDocumentFrequency(3, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)

	_, err = InverseDocumentFrequency(0, 1)
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)
}

func TestWeight(t *testing.T) {
	idf, err := InverseDocumentFrequency(3, 2)
	require.NoError(t, err)

	assert.Equal(t, 0.58, Weight(NormalizedFrequency(2, 2), idf))
	assert.Equal(t, 0.29, Weight(NormalizedFrequency(1, 2), idf))

	idf, err = InverseDocumentFrequency(3, 1)
	require.NoError(t, err)
	assert.Equal(t, 1.58, Weight(1, idf))
}
