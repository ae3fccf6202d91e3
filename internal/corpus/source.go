// Package corpus provides the document sources an index is built from.
//
// A Source yields pages lazily and reports io.EOF once exhausted. Sources are
// read once per build and are not safe for concurrent use.
package corpus

import (
	"io"
)

// Page is one (title, text) pair produced by a source. ID is the identifier
// the page has in the source corpus, not the index document id.
type Page struct {
	ID    int64
	Title string
	Text  string
}

type Source interface {
	// Next returns the next page or io.EOF when no pages remain.
	Next() (Page, error)
	Close() error
}

// SliceSource serves pages from memory.
type SliceSource struct {
	pages []Page
	pos   int
}

func NewSliceSource(pages []Page) *SliceSource {
	return &SliceSource{pages: pages}
}

func (s *SliceSource) Next() (Page, error) {
	if s.pos >= len(s.pages) {
		return Page{}, io.EOF
	}
	page := s.pages[s.pos]
	s.pos++
	return page, nil
}

func (s *SliceSource) Close() error {
	return nil
}
