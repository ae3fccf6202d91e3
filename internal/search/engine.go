// Package search ranks indexed documents against a term vector by cosine
// similarity.
package search

import (
	"fmt"
	"maps"
	"slices"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"

	"github.com/deidaraiorek/vecsearch/internal/domain"
	"github.com/deidaraiorek/vecsearch/internal/metrics"
)

// Store is the read side of the index used by the engine.
type Store interface {
	GetWeightsForTerm(name string) (map[int64]float64, error)
	GetWeightsForTerms(names []string) (map[int64][]float64, error)
	GetTermsForDocument(docID int64) ([]domain.TermWeight, error)
	GetDocument(docID int64) (domain.Document, error)
}

type Option func(*Engine)

// WithBatched makes the engine fetch all term weights in one query instead
// of one query per term.
func WithBatched(batched bool) Option {
	return func(e *Engine) { e.batched = batched }
}

func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

type Engine struct {
	store   Store
	batched bool
	logger  *zap.Logger
	metrics *metrics.Metrics
}

func NewEngine(store Store, opts ...Option) *Engine {
	e := &Engine{
		store:  store,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// BuildQueryVectors returns, for every document holding a nonzero weight for
// at least one of terms, its weights aligned to terms.
func (e *Engine) BuildQueryVectors(terms []string) (map[int64][]float64, error) {
	var (
		vectors map[int64][]float64
		err     error
	)
	if e.batched {
		vectors, err = e.store.GetWeightsForTerms(terms)
	} else {
		vectors, err = e.perTermVectors(terms)
	}
	if err != nil {
		return nil, err
	}

	for docID, vec := range vectors {
		if isZero(vec) {
			delete(vectors, docID)
		}
	}
	return vectors, nil
}

func (e *Engine) perTermVectors(terms []string) (map[int64][]float64, error) {
	vectors := make(map[int64][]float64)
	for i, term := range terms {
		weights, err := e.store.GetWeightsForTerm(term)
		if err != nil {
			return nil, err
		}
		for docID, value := range weights {
			vec, ok := vectors[docID]
			if !ok {
				vec = make([]float64, len(terms))
				vectors[docID] = vec
			}
			vec[i] = value
		}
	}
	return vectors, nil
}

// CosineSimilarity returns the cosine of the angle between a and b, or -1
// when either is the zero vector or their lengths differ.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || isZero(a) || isZero(b) {
		return -1
	}
	return floats.Dot(a, b) / (floats.Norm(a, 2) * floats.Norm(b, 2))
}

// Rank scores every vector against reference and returns the best
// MaxResults documents, highest score first. A nil reference weighs every
// term equally.
func (e *Engine) Rank(vectors map[int64][]float64, reference []float64) ([]domain.ScoredDoc, error) {
	if len(vectors) == 0 {
		return []domain.ScoredDoc{}, nil
	}

	docIDs := slices.Sorted(maps.Keys(vectors))
	if reference == nil {
		reference = make([]float64, len(vectors[docIDs[0]]))
		for i := range reference {
			reference[i] = 1
		}
	}

	top := NewTopK(MaxResults)
	for _, docID := range docIDs {
		vec := vectors[docID]
		if len(vec) != len(reference) {
			return nil, fmt.Errorf("%w: vector of document %d has %d terms, reference has %d",
				domain.ErrInvalidParameter, docID, len(vec), len(reference))
		}
		top.Offer(domain.ScoredDoc{Score: CosineSimilarity(vec, reference), DocID: docID})
	}
	return top.Drain(), nil
}

// Query ranks documents against terms, each term weighted equally.
func (e *Engine) Query(terms []string) ([]domain.ScoredDoc, error) {
	start := time.Now()

	vectors, err := e.BuildQueryVectors(terms)
	if err != nil {
		return nil, err
	}
	results, err := e.Rank(vectors, nil)
	if err != nil {
		return nil, err
	}

	e.observe("query", start, len(vectors), results)
	return results, nil
}

// SimilarTo ranks documents against the stored term weights of docID.
func (e *Engine) SimilarTo(docID int64) ([]domain.ScoredDoc, error) {
	start := time.Now()

	if _, err := e.store.GetDocument(docID); err != nil {
		return nil, err
	}
	termWeights, err := e.store.GetTermsForDocument(docID)
	if err != nil {
		return nil, err
	}

	terms := make([]string, len(termWeights))
	reference := make([]float64, len(termWeights))
	for i, tw := range termWeights {
		terms[i] = tw.Name
		reference[i] = tw.Weight
	}

	vectors, err := e.BuildQueryVectors(terms)
	if err != nil {
		return nil, err
	}
	results, err := e.Rank(vectors, reference)
	if err != nil {
		return nil, err
	}

	e.observe("similar", start, len(vectors), results)
	return results, nil
}

func (e *Engine) observe(kind string, start time.Time, candidates int, results []domain.ScoredDoc) {
	elapsed := time.Since(start)
	e.metrics.QueryServed(kind, elapsed, len(results))
	e.logger.Debug("ranked documents",
		zap.String("kind", kind),
		zap.Bool("batched", e.batched),
		zap.Int("candidates", candidates),
		zap.Int("results", len(results)),
		zap.Duration("elapsed", elapsed),
	)
}

func isZero(vec []float64) bool {
	for _, v := range vec {
		if v != 0 {
			return false
		}
	}
	return true
}
