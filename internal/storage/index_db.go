package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/deidaraiorek/vecsearch/internal/domain"
)

// DefaultPath is the index file used when no path is configured.
const DefaultPath = "wiki-index.db"

// maxTermsPerQuery bounds the number of terms bound into one batched weight
// query so the statement stays under SQLite's host parameter limit.
const maxTermsPerQuery = 400

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
	Prepare(query string) (*sql.Stmt, error)
}

// IndexDB stores terms, documents and weights in a single SQLite file.
//
// While a transaction opened with Begin is active, every operation runs on it.
// An IndexDB with an active transaction must not be shared between goroutines.
type IndexDB struct {
	db   *sql.DB
	tx   *sql.Tx
	path string
}

// NewIndexDB opens the index at dbPath (DefaultPath when empty) and creates
// the schema if it is missing.
func NewIndexDB(dbPath string) (*IndexDB, error) {
	if dbPath == "" {
		dbPath = DefaultPath
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open index database: %w", err)
	}

	if dbPath == ":memory:" {
		// every pooled connection would otherwise see its own empty database
		db.SetMaxOpenConns(1)
	} else if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	indexDB := &IndexDB{
		db:   db,
		path: dbPath,
	}

	if err := indexDB.CreateIfNeeded(); err != nil {
		db.Close()
		return nil, err
	}

	return indexDB, nil
}

func (idb *IndexDB) q() querier {
	if idb.tx != nil {
		return idb.tx
	}
	return idb.db
}

// Path returns the database file path.
func (idb *IndexDB) Path() string {
	return idb.path
}

func (idb *IndexDB) Close() error {
	if idb.tx != nil {
		_ = idb.tx.Rollback()
		idb.tx = nil
	}
	return idb.db.Close()
}

// Begin opens the transaction that subsequent operations run on until Commit
// or Rollback.
func (idb *IndexDB) Begin() error {
	if idb.tx != nil {
		return errors.New("transaction already active")
	}
	tx, err := idb.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	idb.tx = tx
	return nil
}

func (idb *IndexDB) Commit() error {
	if idb.tx == nil {
		return nil
	}
	tx := idb.tx
	idb.tx = nil
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (idb *IndexDB) Rollback() error {
	if idb.tx == nil {
		return nil
	}
	tx := idb.tx
	idb.tx = nil
	if err := tx.Rollback(); err != nil {
		return fmt.Errorf("failed to roll back transaction: %w", err)
	}
	return nil
}

// HasSchema reports whether all index tables exist.
func (idb *IndexDB) HasSchema() (bool, error) {
	var count int
	err := idb.q().QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN (?, ?, ?)",
		schemaTables[0], schemaTables[1], schemaTables[2],
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to inspect schema: %w", err)
	}
	return count == len(schemaTables), nil
}

func (idb *IndexDB) CreateIfNeeded() error {
	if _, err := idb.q().Exec(Schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// DropIfExists drops the whole index, secondary indexes included.
func (idb *IndexDB) DropIfExists() error {
	if _, err := idb.q().Exec(DropSchema); err != nil {
		return fmt.Errorf("failed to drop schema: %w", err)
	}
	return nil
}

func (idb *IndexDB) InsertDocument(title, text string) (int64, error) {
	result, err := idb.q().Exec(
		"INSERT INTO document (title, text) VALUES (?, ?)",
		title, text,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert document %q: %w", title, err)
	}
	return result.LastInsertId()
}

func (idb *IndexDB) InsertTerm(name string) (int64, error) {
	result, err := idb.q().Exec("INSERT INTO term (name) VALUES (?)", name)
	if err != nil {
		return 0, fmt.Errorf("failed to insert term %q: %w", name, err)
	}
	return result.LastInsertId()
}

func (idb *IndexDB) HasTerm(name string) (bool, error) {
	var exists bool
	err := idb.q().QueryRow(
		"SELECT EXISTS(SELECT 1 FROM term WHERE name = ?)",
		name,
	).Scan(&exists)
	return exists, err
}

func (idb *IndexDB) GetTermID(name string) (int64, error) {
	var termID int64
	err := idb.q().QueryRow("SELECT term_id FROM term WHERE name = ?", name).Scan(&termID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("term %q: %w", name, domain.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to query term %q: %w", name, err)
	}
	return termID, nil
}

// GetOrCreateTermID returns the id of name, inserting the term on first use.
func (idb *IndexDB) GetOrCreateTermID(name string) (int64, error) {
	termID, err := idb.GetTermID(name)
	if errors.Is(err, domain.ErrNotFound) {
		return idb.InsertTerm(name)
	}
	return termID, err
}

func (idb *IndexDB) GetTermByID(termID int64) (string, error) {
	var name string
	err := idb.q().QueryRow("SELECT name FROM term WHERE term_id = ?", termID).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("term %d: %w", termID, domain.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("failed to query term %d: %w", termID, err)
	}
	return name, nil
}

func (idb *IndexDB) GetDocument(docID int64) (domain.Document, error) {
	doc := domain.Document{ID: docID}
	err := idb.q().QueryRow(
		"SELECT title, text FROM document WHERE doc_id = ?",
		docID,
	).Scan(&doc.Title, &doc.Text)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Document{}, fmt.Errorf("document %d: %w", docID, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Document{}, fmt.Errorf("failed to query document %d: %w", docID, err)
	}
	return doc, nil
}

// GetDocumentID returns the id of the first document with the given title.
func (idb *IndexDB) GetDocumentID(title string) (int64, error) {
	var docID int64
	err := idb.q().QueryRow(
		"SELECT doc_id FROM document WHERE title = ? ORDER BY doc_id LIMIT 1",
		title,
	).Scan(&docID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("document %q: %w", title, domain.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to query document %q: %w", title, err)
	}
	return docID, nil
}

func (idb *IndexDB) InsertWeight(termID, docID int64, value float64) error {
	_, err := idb.q().Exec(
		"INSERT INTO weight (term_id, doc_id, value) VALUES (?, ?, ?)",
		termID, docID, value,
	)
	if err != nil {
		return fmt.Errorf("failed to insert weight for term %d in document %d: %w", termID, docID, err)
	}
	return nil
}

// InsertWeights appends all weights through a single prepared statement.
func (idb *IndexDB) InsertWeights(weights []domain.Weight) error {
	if len(weights) == 0 {
		return nil
	}

	stmt, err := idb.q().Prepare("INSERT INTO weight (term_id, doc_id, value) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare weight insert: %w", err)
	}
	defer stmt.Close()

	for _, w := range weights {
		if _, err := stmt.Exec(w.TermID, w.DocID, w.Value); err != nil {
			return fmt.Errorf("failed to insert weight for term %d in document %d: %w", w.TermID, w.DocID, err)
		}
	}
	return nil
}

// GetWeight returns the weight of a term in a document, 0 when no row exists.
func (idb *IndexDB) GetWeight(termID, docID int64) (float64, error) {
	var value float64
	err := idb.q().QueryRow(
		"SELECT value FROM weight WHERE term_id = ? AND doc_id = ?",
		termID, docID,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to query weight for term %d in document %d: %w", termID, docID, err)
	}
	return value, nil
}

// GetWeightsForTerm maps every document containing the term to its weight.
func (idb *IndexDB) GetWeightsForTerm(name string) (map[int64]float64, error) {
	rows, err := idb.q().Query(`
		SELECT weight.doc_id, weight.value FROM term
		JOIN weight USING (term_id)
		JOIN document USING (doc_id)
		WHERE term.name = ?
		ORDER BY term.term_id, weight.doc_id`,
		name,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query weights for term %q: %w", name, err)
	}
	defer rows.Close()

	weights := make(map[int64]float64)
	for rows.Next() {
		var docID int64
		var value float64
		if err := rows.Scan(&docID, &value); err != nil {
			return nil, fmt.Errorf("failed to scan weight: %w", err)
		}
		weights[docID] = value
	}
	return weights, rows.Err()
}

// GetWeightsForTerms returns, for every document containing at least one of
// names, a vector aligned to names with zeros for absent terms. Each input
// position is bound explicitly, so duplicates fill every position they hold.
func (idb *IndexDB) GetWeightsForTerms(names []string) (map[int64][]float64, error) {
	vectors := make(map[int64][]float64)
	for start := 0; start < len(names); start += maxTermsPerQuery {
		end := min(start+maxTermsPerQuery, len(names))
		if err := idb.scatterWeights(names, start, end, vectors); err != nil {
			return nil, err
		}
	}
	return vectors, nil
}

func (idb *IndexDB) scatterWeights(names []string, start, end int, vectors map[int64][]float64) error {
	placeholders := make([]string, 0, end-start)
	args := make([]any, 0, 2*(end-start))
	for pos := start; pos < end; pos++ {
		placeholders = append(placeholders, "(?, ?)")
		args = append(args, pos, names[pos])
	}

	query := `
		WITH requested (pos, name) AS (VALUES ` + strings.Join(placeholders, ", ") + `)
		SELECT weight.doc_id, weight.value, requested.pos FROM requested
		JOIN term ON term.name = requested.name
		JOIN weight ON weight.term_id = term.term_id
		JOIN document ON document.doc_id = weight.doc_id
		ORDER BY weight.doc_id, requested.pos`

	rows, err := idb.q().Query(query, args...)
	if err != nil {
		return fmt.Errorf("failed to query weights for %d terms: %w", end-start, err)
	}
	defer rows.Close()

	for rows.Next() {
		var docID int64
		var value float64
		var pos int
		if err := rows.Scan(&docID, &value, &pos); err != nil {
			return fmt.Errorf("failed to scan weight: %w", err)
		}
		vec, ok := vectors[docID]
		if !ok {
			vec = make([]float64, len(names))
			vectors[docID] = vec
		}
		vec[pos] = value
	}
	return rows.Err()
}

// GetTermsForDocument lists the weighted terms of a document by term id.
func (idb *IndexDB) GetTermsForDocument(docID int64) ([]domain.TermWeight, error) {
	rows, err := idb.q().Query(`
		SELECT term.name, weight.value FROM weight
		JOIN term USING (term_id)
		WHERE weight.doc_id = ?
		ORDER BY term.term_id`,
		docID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query terms for document %d: %w", docID, err)
	}
	defer rows.Close()

	var terms []domain.TermWeight
	for rows.Next() {
		var tw domain.TermWeight
		if err := rows.Scan(&tw.Name, &tw.Weight); err != nil {
			return nil, fmt.Errorf("failed to scan term weight: %w", err)
		}
		terms = append(terms, tw)
	}
	return terms, rows.Err()
}

func (idb *IndexDB) Stats() (domain.Stats, error) {
	var stats domain.Stats
	err := idb.q().QueryRow(`
		SELECT
			(SELECT COUNT(*) FROM term),
			(SELECT COUNT(*) FROM document),
			(SELECT COUNT(*) FROM weight)`,
	).Scan(&stats.Terms, &stats.Documents, &stats.Weights)
	if err != nil {
		return domain.Stats{}, fmt.Errorf("failed to count rows: %w", err)
	}
	return stats, nil
}

func (idb *IndexDB) HasSecondaryIndex() (bool, error) {
	var count int
	err := idb.q().QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'index' AND name IN (?, ?)",
		termIndexName, docIndexName,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to inspect indexes: %w", err)
	}
	return count == 2, nil
}

func (idb *IndexDB) CreateSecondaryIndex() error {
	if _, err := idb.q().Exec(SecondaryIndex); err != nil {
		return fmt.Errorf("failed to create secondary index: %w", err)
	}
	return nil
}

func (idb *IndexDB) DropSecondaryIndex() error {
	if _, err := idb.q().Exec(DropSecondaryIndex); err != nil {
		return fmt.Errorf("failed to drop secondary index: %w", err)
	}
	return nil
}
