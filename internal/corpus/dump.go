package corpus

import (
	"bufio"
	"compress/bzip2"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/deidaraiorek/vecsearch/internal/domain"
)

// DefaultDumpPattern matches Wikipedia multistream article dumps.
const DefaultDumpPattern = "wiki-data/*wiki-*-pages-articles-multistream.xml*"

const wikitextModel = "wikitext"

// SiteInfo describes the wiki a dump was exported from.
type SiteInfo struct {
	Name   string `xml:"sitename"`
	DBName string `xml:"dbname"`
}

type xmlPage struct {
	Title     string        `xml:"title"`
	ID        int64         `xml:"id"`
	Revisions []xmlRevision `xml:"revision"`
}

type xmlRevision struct {
	Model string `xml:"model"`
	Text  string `xml:"text"`
}

// DumpReader streams pages out of a MediaWiki XML export.
type DumpReader struct {
	decoder  *xml.Decoder
	closers  []io.Closer
	cleaner  *Cleaner
	siteInfo SiteInfo
	pending  *xmlPage
}

// FindDump returns the first file matching pattern, in lexical order.
func FindDump(pattern string) (string, error) {
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return "", fmt.Errorf("%w: bad pattern %q: %v", domain.ErrCorpusUnavailable, pattern, err)
	}
	for _, match := range matches {
		if info, err := os.Stat(match); err == nil && info.Mode().IsRegular() {
			return match, nil
		}
	}
	return "", fmt.Errorf("%w: no file matches %q", domain.ErrCorpusUnavailable, pattern)
}

// OpenDump opens a dump file, decompressing .bz2 and .zst files on the fly.
func OpenDump(path string) (*DumpReader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCorpusUnavailable, err)
	}

	closers := []io.Closer{file}
	var r io.Reader = bufio.NewReaderSize(file, 1<<20)

	switch {
	case strings.HasSuffix(path, ".bz2"):
		r = bzip2.NewReader(r)
	case strings.HasSuffix(path, ".zst"):
		zr, err := zstd.NewReader(r)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to open zstd stream %s: %w", path, err)
		}
		r = zr
		closers = append(closers, zstdCloser{zr})
	}

	reader, err := NewDumpReader(r)
	if err != nil {
		for _, c := range closers {
			c.Close()
		}
		return nil, fmt.Errorf("failed to read dump %s: %w", path, err)
	}
	reader.closers = closers
	return reader, nil
}

// NewDumpReader reads a dump from r. The site info is decoded eagerly so it
// is available before the first page is read.
func NewDumpReader(r io.Reader) (*DumpReader, error) {
	reader := &DumpReader{
		decoder: xml.NewDecoder(r),
		cleaner: NewCleaner(),
	}

	for {
		tok, err := reader.decoder.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return reader, nil
			}
			return nil, err
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch start.Name.Local {
		case "siteinfo":
			if err := reader.decoder.DecodeElement(&reader.siteInfo, &start); err != nil {
				return nil, fmt.Errorf("failed to decode siteinfo: %w", err)
			}
			return reader, nil
		case "page":
			// export without siteinfo; keep the page for the first Next call
			var page xmlPage
			if err := reader.decoder.DecodeElement(&page, &start); err != nil {
				return nil, fmt.Errorf("failed to decode page: %w", err)
			}
			reader.pending = &page
			return reader, nil
		}
	}
}

func (d *DumpReader) SiteInfo() SiteInfo {
	return d.siteInfo
}

// Next returns the next wikitext page with its markup cleaned.
func (d *DumpReader) Next() (Page, error) {
	for {
		page, err := d.nextPage()
		if err != nil {
			return Page{}, err
		}
		if len(page.Revisions) == 0 {
			continue
		}
		rev := page.Revisions[0]
		if rev.Model != "" && rev.Model != wikitextModel {
			continue
		}
		return Page{
			ID:    page.ID,
			Title: page.Title,
			Text:  d.cleaner.Clean(rev.Text),
		}, nil
	}
}

func (d *DumpReader) nextPage() (*xmlPage, error) {
	if d.pending != nil {
		page := d.pending
		d.pending = nil
		return page, nil
	}
	for {
		tok, err := d.decoder.Token()
		if err != nil {
			return nil, err
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "page" {
			continue
		}
		var page xmlPage
		if err := d.decoder.DecodeElement(&page, &start); err != nil {
			return nil, fmt.Errorf("failed to decode page: %w", err)
		}
		return &page, nil
	}
}

func (d *DumpReader) Close() error {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type zstdCloser struct {
	dec *zstd.Decoder
}

func (z zstdCloser) Close() error {
	z.dec.Close()
	return nil
}
