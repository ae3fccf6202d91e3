// Package indexer builds the term/document/weight index from a corpus source.
package indexer

import (
	"cmp"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/deidaraiorek/vecsearch/internal/corpus"
	"github.com/deidaraiorek/vecsearch/internal/domain"
	"github.com/deidaraiorek/vecsearch/internal/metrics"
	"github.com/deidaraiorek/vecsearch/internal/weighting"
)

// Normalizer turns document text into raw term frequencies, considering only
// the first limit words (0 for all).
type Normalizer interface {
	Normalize(text string, limit int) map[string]int
}

// Store is the write side of the index used during a build.
type Store interface {
	Begin() error
	Commit() error
	Rollback() error
	DropIfExists() error
	CreateIfNeeded() error
	InsertDocument(title, text string) (int64, error)
	GetOrCreateTermID(name string) (int64, error)
	InsertWeights(weights []domain.Weight) error
	CreateSecondaryIndex() error
	Stats() (domain.Stats, error)
}

type Options struct {
	// DocumentLimit is the maximum number of documents ingested. Required.
	DocumentLimit int
	// TokenLimit caps the words normalized per document. 0 means no limit.
	TokenLimit int
	// TopKPerTerm keeps only the k highest weights of each term. 0 keeps all.
	TopKPerTerm int
	// SecondaryIndex creates the weight indexes after the build commits.
	SecondaryIndex bool
}

func (o Options) Validate() error {
	if o.DocumentLimit <= 0 {
		return fmt.Errorf("%w: document limit must be positive, got %d", domain.ErrInvalidParameter, o.DocumentLimit)
	}
	if o.TokenLimit < 0 {
		return fmt.Errorf("%w: token limit must not be negative, got %d", domain.ErrInvalidParameter, o.TokenLimit)
	}
	if o.TopKPerTerm < 0 {
		return fmt.Errorf("%w: top-k per term must not be negative, got %d", domain.ErrInvalidParameter, o.TopKPerTerm)
	}
	return nil
}

type Indexer struct {
	store      Store
	normalizer Normalizer
	logger     *zap.Logger
	metrics    *metrics.Metrics
}

func New(store Store, normalizer Normalizer, logger *zap.Logger, m *metrics.Metrics) *Indexer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Indexer{
		store:      store,
		normalizer: normalizer,
		logger:     logger,
		metrics:    m,
	}
}

// frequencies maps term id -> document id -> value.
type frequencies[V int | float64] map[int64]map[int64]V

func (f frequencies[V]) add(termID, docID int64, v V) {
	docs, ok := f[termID]
	if !ok {
		docs = make(map[int64]V)
		f[termID] = docs
	}
	docs[docID] += v
}

// Build replaces the index with one built from src. The whole build runs in a
// single transaction; on error nothing of it is kept.
func (ix *Indexer) Build(src corpus.Source, opts Options) (domain.Stats, error) {
	if src == nil {
		return domain.Stats{}, fmt.Errorf("%w: no document source", domain.ErrCorpusUnavailable)
	}
	if err := opts.Validate(); err != nil {
		return domain.Stats{}, err
	}

	start := time.Now()
	ix.logger.Info("starting index build",
		zap.Int("document_limit", opts.DocumentLimit),
		zap.Int("token_limit", opts.TokenLimit),
		zap.Int("top_k_per_term", opts.TopKPerTerm),
	)

	if err := ix.store.Begin(); err != nil {
		return domain.Stats{}, err
	}
	committed := false
	defer func() {
		if !committed {
			if err := ix.store.Rollback(); err != nil {
				ix.logger.Warn("rollback failed", zap.Error(err))
			}
		}
	}()

	if err := ix.store.DropIfExists(); err != nil {
		return domain.Stats{}, err
	}
	if err := ix.store.CreateIfNeeded(); err != nil {
		return domain.Stats{}, err
	}

	raw, ingested, err := ix.ingest(src, opts)
	if err != nil {
		return domain.Stats{}, err
	}

	weights, err := computeWeights(normalizeFrequencies(raw), ingested, opts.TopKPerTerm)
	if err != nil {
		return domain.Stats{}, err
	}
	if err := ix.store.InsertWeights(weights); err != nil {
		return domain.Stats{}, err
	}

	if err := ix.store.Commit(); err != nil {
		return domain.Stats{}, err
	}
	committed = true

	if opts.SecondaryIndex {
		if err := ix.store.CreateSecondaryIndex(); err != nil {
			return domain.Stats{}, err
		}
	}

	stats, err := ix.store.Stats()
	if err != nil {
		return domain.Stats{}, err
	}

	elapsed := time.Since(start)
	ix.metrics.BuildFinished(elapsed, len(weights))
	ix.metrics.SetStats(stats)
	ix.logger.Info("index build complete",
		zap.Int("documents", stats.Documents),
		zap.Int("terms", stats.Terms),
		zap.Int("weights", stats.Weights),
		zap.Duration("elapsed", elapsed),
	)
	return stats, nil
}

// ingest stores up to opts.DocumentLimit documents and returns their raw term
// frequencies along with the number of documents stored.
func (ix *Indexer) ingest(src corpus.Source, opts Options) (frequencies[int], int, error) {
	raw := make(frequencies[int])
	termIDs := make(map[string]int64)
	ingested := 0

	for ingested < opts.DocumentLimit {
		page, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("failed to read source: %w", err)
		}

		if isRedirect(page.Text) {
			ix.logger.Debug("skipping redirect", zap.String("title", page.Title))
			ix.metrics.DocumentSkipped()
			continue
		}

		docID, err := ix.store.InsertDocument(page.Title, page.Text)
		if err != nil {
			return nil, 0, err
		}
		ix.logger.Info("indexed document",
			zap.Int("ordinal", ingested),
			zap.Int64("corpus_id", page.ID),
			zap.String("title", page.Title),
		)

		counts := ix.normalizer.Normalize(page.Text, opts.TokenLimit)
		names := make([]string, 0, len(counts))
		for name := range counts {
			names = append(names, name)
		}
		slices.Sort(names)

		for _, name := range names {
			termID, ok := termIDs[name]
			if !ok {
				termID, err = ix.store.GetOrCreateTermID(name)
				if err != nil {
					return nil, 0, err
				}
				termIDs[name] = termID
			}
			raw.add(termID, docID, counts[name])
		}

		ingested++
		ix.metrics.DocumentIndexed()
	}

	return raw, ingested, nil
}

// normalizeFrequencies divides every raw frequency by the maximum raw
// frequency of its term across the corpus.
func normalizeFrequencies(raw frequencies[int]) frequencies[float64] {
	relative := make(frequencies[float64], len(raw))
	for termID, docs := range raw {
		maxFreq := 0
		for _, freq := range docs {
			maxFreq = max(maxFreq, freq)
		}
		for docID, freq := range docs {
			relative.add(termID, docID, weighting.NormalizedFrequency(freq, maxFreq))
		}
	}
	return relative
}

// computeWeights returns the weights to persist, ordered by term id and then
// by descending weight.
func computeWeights(relative frequencies[float64], totalDocs, topK int) ([]domain.Weight, error) {
	termIDs := make([]int64, 0, len(relative))
	for termID := range relative {
		termIDs = append(termIDs, termID)
	}
	slices.Sort(termIDs)

	var weights []domain.Weight
	for _, termID := range termIDs {
		docs := relative[termID]
		idf, err := weighting.InverseDocumentFrequency(totalDocs, len(docs))
		if err != nil {
			return nil, err
		}

		docIDs := make([]int64, 0, len(docs))
		for docID := range docs {
			docIDs = append(docIDs, docID)
		}
		slices.Sort(docIDs)

		termWeights := make([]domain.Weight, 0, len(docIDs))
		for _, docID := range docIDs {
			value := weighting.Weight(docs[docID], idf)
			if value == 0 {
				continue
			}
			termWeights = append(termWeights, domain.Weight{TermID: termID, DocID: docID, Value: value})
		}
		weights = append(weights, selectTop(termWeights, topK)...)
	}
	return weights, nil
}

// selectTop stable-sorts weights by descending value and keeps the first k.
// k <= 0 keeps all of them.
func selectTop(weights []domain.Weight, k int) []domain.Weight {
	slices.SortStableFunc(weights, func(a, b domain.Weight) int {
		return cmp.Compare(b.Value, a.Value)
	})
	if k > 0 && len(weights) > k {
		return weights[:k]
	}
	return weights
}

const redirectKeyword = "REDIRECT"

// isRedirect reports whether text is a redirect stub: an optional '#', the
// keyword in any case, then end of text, whitespace or a link.
func isRedirect(text string) bool {
	text = strings.TrimPrefix(strings.TrimSpace(text), "#")
	if len(text) < len(redirectKeyword) || !strings.EqualFold(text[:len(redirectKeyword)], redirectKeyword) {
		return false
	}
	rest := text[len(redirectKeyword):]
	if rest == "" {
		return true
	}
	r, _ := utf8.DecodeRuneInString(rest)
	return unicode.IsSpace(r) || r == '['
}
