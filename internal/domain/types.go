// Package domain holds the types shared by the index store, the indexing
// pipeline and the retrieval engine.
package domain

// Document is one indexed source unit.
type Document struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	Text  string `json:"text"`
}

// Weight is the persisted importance of a term within a document.
type Weight struct {
	TermID int64
	DocID  int64
	Value  float64
}

// TermWeight pairs a term name with its weight in one document.
type TermWeight struct {
	Name   string  `json:"term"`
	Weight float64 `json:"weight"`
}

// Stats reports the row counts of the three index relations.
type Stats struct {
	Terms     int `json:"terms"`
	Documents int `json:"documents"`
	Weights   int `json:"weights"`
}

// ScoredDoc is one ranked retrieval result.
type ScoredDoc struct {
	Score float64 `json:"score"`
	DocID int64   `json:"doc_id"`
}
