package domain

import "errors"

var (
	// ErrNotFound signals an unknown term or document id.
	ErrNotFound = errors.New("not found")
	// ErrCorpusUnavailable signals that no document source could be opened.
	ErrCorpusUnavailable = errors.New("corpus unavailable")
	// ErrInvalidParameter signals a limit or argument outside its domain.
	ErrInvalidParameter = errors.New("invalid parameter")
)
