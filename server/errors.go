package server

import "errors"

var (
	// ErrVerseRepositoryRequired indicates a nil verse repository.
	ErrVerseRepositoryRequired = errors.New("verse repository required")

	// ErrSayingRepositoryRequired indicates a nil saying repository.
	ErrSayingRepositoryRequired = errors.New("saying repository required")

	// ErrSearcherRequired indicates a nil searcher.
	ErrSearcherRequired = errors.New("searcher required")
)
