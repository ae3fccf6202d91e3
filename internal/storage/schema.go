package storage

// Table names checked by HasSchema.
var schemaTables = []string{"term", "document", "weight"}

// Schema creates the term, document and weight relations if missing.
const Schema = `
-- Terms dictionary: one row per distinct normalized term
CREATE TABLE IF NOT EXISTS term (
    term_id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT UNIQUE NOT NULL
);

-- Documents: title and cleaned text of every indexed source page
CREATE TABLE IF NOT EXISTS document (
    doc_id INTEGER PRIMARY KEY AUTOINCREMENT,
    title TEXT NOT NULL,
    text TEXT NOT NULL
);

-- Weights: TF-IDF value of a term in a document, absent means 0
CREATE TABLE IF NOT EXISTS weight (
    doc_id INTEGER NOT NULL,
    term_id INTEGER NOT NULL,
    value REAL NOT NULL,
    FOREIGN KEY (term_id) REFERENCES term(term_id),
    FOREIGN KEY (doc_id) REFERENCES document(doc_id)
);
`

// DropSchema removes all three relations, resetting their id sequences.
const DropSchema = `
DROP TABLE IF EXISTS weight;
DROP TABLE IF EXISTS term;
DROP TABLE IF EXISTS document;
`

// Secondary indexes over the weight relation. They only change query cost.
const (
	termIndexName = "weight_term_id"
	docIndexName  = "weight_doc_id"
)

// SecondaryIndex creates the weight indexes on term_id and doc_id.
const SecondaryIndex = `
CREATE INDEX IF NOT EXISTS weight_term_id ON weight(term_id);
CREATE INDEX IF NOT EXISTS weight_doc_id ON weight(doc_id);
`

// DropSecondaryIndex removes both weight indexes.
const DropSecondaryIndex = `
DROP INDEX IF EXISTS weight_term_id;
DROP INDEX IF EXISTS weight_doc_id;
`
