package ingestion

import "errors"

var (
	// ErrVerseRepositoryRequired is returned when a verse repository is not provided.
	ErrVerseRepositoryRequired = errors.New("verse repository required")

	// ErrSayingRepositoryRequired is returned when a saying repository is not provided.
	ErrSayingRepositoryRequired = errors.New("saying repository required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrConfigRequired is returned when an embedding config is not provided.
	ErrConfigRequired = errors.New("embedding config required")

	// ErrVersesSourceRequired is returned when no verses CSV path is given.
	ErrVersesSourceRequired = errors.New("verses csv source required")

	// ErrSayingsSourceRequired is returned when no sayings CSV path is given.
	ErrSayingsSourceRequired = errors.New("sayings csv source required")

	// ErrMissingColumn is returned when a CSV source lacks a required column.
	ErrMissingColumn = errors.New("missing required column")

	// ErrNoRows is returned when a CSV source contains no data rows.
	ErrNoRows = errors.New("no data rows")

	// ErrNoEmbeddings is returned when index artifacts are requested for
	// a corpus with no stored vectors.
	ErrNoEmbeddings = errors.New("no embeddings stored")

	// ErrVectorWidth is returned when an embedding does not have the
	// configured number of dimensions.
	ErrVectorWidth = errors.New("unexpected vector width")

	// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")
)
