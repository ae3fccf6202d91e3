// Package server exposes the index over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/deidaraiorek/vecsearch/internal/config"
	"github.com/deidaraiorek/vecsearch/internal/domain"
	"github.com/deidaraiorek/vecsearch/internal/metrics"
)

const snippetLength = 300

// Store is the part of the index the API reads and administers.
type Store interface {
	GetDocument(docID int64) (domain.Document, error)
	GetTermsForDocument(docID int64) ([]domain.TermWeight, error)
	Stats() (domain.Stats, error)
	HasSecondaryIndex() (bool, error)
	CreateSecondaryIndex() error
	DropSecondaryIndex() error
}

type Ranker interface {
	Query(terms []string) ([]domain.ScoredDoc, error)
	SimilarTo(docID int64) ([]domain.ScoredDoc, error)
}

// TermExtractor turns a free-text query into index terms.
type TermExtractor interface {
	Terms(text string) []string
}

type Server struct {
	store   Store
	ranker  Ranker
	terms   TermExtractor
	logger  *zap.Logger
	metrics *metrics.Metrics

	// mu keeps secondary index changes out of in-flight queries.
	mu sync.RWMutex
}

func New(store Store, ranker Ranker, terms TermExtractor, logger *zap.Logger, m *metrics.Metrics) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		store:   store,
		ranker:  ranker,
		terms:   terms,
		logger:  logger,
		metrics: m,
	}
}

type result struct {
	DocID   int64   `json:"doc_id"`
	Title   string  `json:"title"`
	Score   float64 `json:"score"`
	Snippet string  `json:"snippet"`
}

type searchResponse struct {
	Query   string   `json:"query,omitempty"`
	Terms   []string `json:"terms,omitempty"`
	Results []result `json:"results"`
}

type documentResponse struct {
	domain.Document
	Terms []domain.TermWeight `json:"terms"`
}

type statsResponse struct {
	domain.Stats
	SecondaryIndex bool `json:"secondary_index"`
}

type secondaryIndexResponse struct {
	Enabled bool `json:"enabled"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(jsonRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(requestLogger(s.logger))
	r.Use(s.metrics.Middleware())

	r.Get("/health", s.health)
	r.Handle("/metrics", s.metrics.Handler())
	r.Get("/stats", s.stats)
	r.Get("/search", s.search)
	r.Get("/documents/{id}", s.document)
	r.Get("/documents/{id}/similar", s.similar)
	r.Get("/secondary-index", s.secondaryIndexStatus)
	r.Put("/secondary-index", s.createSecondaryIndex)
	r.Delete("/secondary-index", s.dropSecondaryIndex)
	return r
}

// ListenAndServe serves the API until ctx is cancelled, then shuts down
// within cfg.ShutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context, cfg config.ServerConfig) error {
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      s.Router(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("starting HTTP server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		s.logger.Info("server stopped gracefully")
		return nil
	})
	return g.Wait()
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) stats(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats, err := s.store.Stats()
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	hasIndex, err := s.store.HasSecondaryIndex()
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.metrics.SetStats(stats)
	writeJSON(w, http.StatusOK, statsResponse{Stats: stats, SecondaryIndex: hasIndex})
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "query parameter q is required")
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	terms := s.terms.Terms(q)
	scored, err := s.ranker.Query(terms)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	results, err := s.describe(scored)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, searchResponse{Query: q, Terms: terms, Results: results})
}

func (s *Server) document(w http.ResponseWriter, r *http.Request) {
	docID, ok := parseDocID(w, r)
	if !ok {
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, err := s.store.GetDocument(docID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	terms, err := s.store.GetTermsForDocument(docID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if terms == nil {
		terms = []domain.TermWeight{}
	}
	writeJSON(w, http.StatusOK, documentResponse{Document: doc, Terms: terms})
}

func (s *Server) similar(w http.ResponseWriter, r *http.Request) {
	docID, ok := parseDocID(w, r)
	if !ok {
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	scored, err := s.ranker.SimilarTo(docID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	results, err := s.describe(scored)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, searchResponse{Results: results})
}

func (s *Server) secondaryIndexStatus(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	s.writeSecondaryIndex(w)
}

func (s *Server) createSecondaryIndex(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.CreateSecondaryIndex(); err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.logger.Info("secondary index created")
	s.writeSecondaryIndex(w)
}

func (s *Server) dropSecondaryIndex(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.DropSecondaryIndex(); err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.logger.Info("secondary index dropped")
	s.writeSecondaryIndex(w)
}

func (s *Server) writeSecondaryIndex(w http.ResponseWriter) {
	hasIndex, err := s.store.HasSecondaryIndex()
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, secondaryIndexResponse{Enabled: hasIndex})
}

// describe attaches titles and snippets to ranked documents.
func (s *Server) describe(scored []domain.ScoredDoc) ([]result, error) {
	results := make([]result, 0, len(scored))
	for _, sd := range scored {
		doc, err := s.store.GetDocument(sd.DocID)
		if err != nil {
			return nil, err
		}
		results = append(results, result{
			DocID:   sd.DocID,
			Title:   doc.Title,
			Score:   sd.Score,
			Snippet: snippet(doc.Text, snippetLength),
		})
	}
	return results, nil
}

func snippet(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n]) + "..."
}

func parseDocID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	docID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || docID <= 0 {
		writeError(w, http.StatusBadRequest, "bad_request", "document id must be a positive integer")
		return 0, false
	}
	return docID, true
}

func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domain.ErrInvalidParameter):
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
	default:
		s.logger.Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// requestLogger emits one log line per request.
func requestLogger(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			logger.Info("http_request",
				zap.String("request_id", requestID),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
