// Package weighting implements the TF-IDF model used to weight terms within
// documents. Every function here is pure.
package weighting

import (
	"fmt"
	"math"

	"github.com/deidaraiorek/vecsearch/internal/domain"
)

// Round2 rounds x to two decimal places, halves away from zero.
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// NormalizedFrequency divides a raw frequency by the maximum raw frequency of
// the same term across all documents containing it.
func NormalizedFrequency(raw, maxForTerm int) float64 {
	if maxForTerm <= 0 {
		return 0
	}
	return Round2(float64(raw) / float64(maxForTerm))
}

// InverseDocumentFrequency returns log2(totalDocs / docFreq).
func InverseDocumentFrequency(totalDocs, docFreq int) (float64, error) {
	if docFreq <= 0 || totalDocs <= 0 {
		return 0, fmt.Errorf("%w: idf needs positive counts, got total=%d df=%d",
			domain.ErrInvalidParameter, totalDocs, docFreq)
	}
	return math.Log2(float64(totalDocs) / float64(docFreq)), nil
}

// Weight combines a normalized frequency with an idf.
func Weight(tf, idf float64) float64 {
	return Round2(tf * idf)
}
