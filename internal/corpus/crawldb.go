package corpus

import (
	"database/sql"
	"fmt"
	"io"

	_ "github.com/mattn/go-sqlite3"

	"github.com/deidaraiorek/vecsearch/internal/domain"
)

const DefaultCrawlBatchSize = 500

type crawledPage struct {
	ID      int64
	URL     string
	Title   string
	Content string
}

// CrawlSource reads pages from the SQLite database written by the crawler,
// in ascending page id order, one batch at a time.
type CrawlSource struct {
	db        *sql.DB
	batchSize int
	lastID    int64
	buffer    []crawledPage
	done      bool
}

// OpenCrawlDB opens the crawler database at dbPath. The pages table must exist.
func OpenCrawlDB(dbPath string, batchSize int) (*CrawlSource, error) {
	db, err := sql.Open("sqlite3", "file:"+dbPath+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open crawl database: %v", domain.ErrCorpusUnavailable, err)
	}

	var exists bool
	err = db.QueryRow(
		"SELECT EXISTS(SELECT 1 FROM sqlite_master WHERE type = 'table' AND name = 'pages')",
	).Scan(&exists)
	if err != nil || !exists {
		db.Close()
		return nil, fmt.Errorf("%w: no pages table in %s", domain.ErrCorpusUnavailable, dbPath)
	}

	if batchSize <= 0 {
		batchSize = DefaultCrawlBatchSize
	}
	return &CrawlSource{db: db, batchSize: batchSize}, nil
}

func (cs *CrawlSource) Close() error {
	return cs.db.Close()
}

func (cs *CrawlSource) Next() (Page, error) {
	for len(cs.buffer) == 0 {
		if cs.done {
			return Page{}, io.EOF
		}
		pages, err := cs.getPagesAfterID(cs.lastID, cs.batchSize)
		if err != nil {
			return Page{}, err
		}
		if len(pages) < cs.batchSize {
			cs.done = true
		}
		cs.buffer = pages
	}

	page := cs.buffer[0]
	cs.buffer = cs.buffer[1:]
	cs.lastID = page.ID

	title := page.Title
	if title == "" {
		title = page.URL
	}
	return Page{ID: page.ID, Title: title, Text: page.Content}, nil
}

// TotalPages counts the pages available in the crawl database.
func (cs *CrawlSource) TotalPages() (int, error) {
	var count int
	err := cs.db.QueryRow("SELECT COUNT(*) FROM pages").Scan(&count)
	return count, err
}

func (cs *CrawlSource) getPagesAfterID(afterID int64, limit int) ([]crawledPage, error) {
	rows, err := cs.db.Query(
		`SELECT id, url, COALESCE(title, ''), COALESCE(content, '') FROM pages
		WHERE id > ? AND content IS NOT NULL AND content != ''
		ORDER BY id LIMIT ?`,
		afterID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query pages after %d: %w", afterID, err)
	}
	defer rows.Close()

	var pages []crawledPage
	for rows.Next() {
		var page crawledPage
		if err := rows.Scan(&page.ID, &page.URL, &page.Title, &page.Content); err != nil {
			return nil, fmt.Errorf("failed to scan page: %w", err)
		}
		pages = append(pages, page)
	}

	return pages, rows.Err()
}
