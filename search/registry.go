package search

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/poiesic/mishkat/ann"
	"github.com/poiesic/mishkat/core"
)

// CorpusIndex pairs a loaded ANN index with its ordinal-to-id mapping.
// Both are read-only once loaded and safe to share across goroutines.
type CorpusIndex struct {
	Index   *ann.FlatIndex
	Mapping ann.IDMapping
}

// Registry loads and memoizes the ANN artifacts of each corpus. The
// artifacts live under one directory as <corpus>.ann and
// <corpus>_mapping.json, written by the offline build pipeline.
//
// Loading is lazy: the first Load of a corpus reads both files, checks
// that the mapping covers the index exactly, and caches the pair.
// Concurrent first calls observe exactly one load.
type Registry struct {
	dir    string
	logger *slog.Logger

	mu     sync.RWMutex
	loaded map[core.Corpus]*CorpusIndex
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry) error

// WithRegistryLogger sets a custom logger.
// Default is slog.Default().
func WithRegistryLogger(logger *slog.Logger) RegistryOption {
	return func(r *Registry) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// NewRegistry creates a registry over the artifact directory. The
// directory is not touched until the first Load.
func NewRegistry(dir string, opts ...RegistryOption) (*Registry, error) {
	r := &Registry{
		dir:    dir,
		logger: slog.Default(),
		loaded: make(map[core.Corpus]*CorpusIndex),
	}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// IndexPath returns the ANN index file path for a corpus under dir.
func IndexPath(dir string, corpus core.Corpus) string {
	return filepath.Join(dir, string(corpus)+".ann")
}

// MappingPath returns the id mapping file path for a corpus under dir.
func MappingPath(dir string, corpus core.Corpus) string {
	return filepath.Join(dir, string(corpus)+"_mapping.json")
}

// Load returns the corpus's artifacts, reading them from disk on first
// use. Load failures are not cached, so a missing artifact can be
// retried after the build pipeline produces it.
func (r *Registry) Load(corpus core.Corpus) (*CorpusIndex, error) {
	if !corpus.Valid() {
		return nil, core.ErrUnknownCorpus
	}

	r.mu.RLock()
	ci, ok := r.loaded[corpus]
	r.mu.RUnlock()
	if ok {
		return ci, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if ci, ok := r.loaded[corpus]; ok {
		return ci, nil
	}

	ci, err := r.read(corpus)
	if err != nil {
		return nil, err
	}
	r.loaded[corpus] = ci
	return ci, nil
}

func (r *Registry) read(corpus core.Corpus) (*CorpusIndex, error) {
	index, err := ann.Load(IndexPath(r.dir, corpus))
	if err != nil {
		return nil, fmt.Errorf("loading %s index: %w", corpus, err)
	}

	mapping, err := ann.LoadMapping(MappingPath(r.dir, corpus))
	if err != nil {
		return nil, fmt.Errorf("loading %s mapping: %w", corpus, err)
	}

	if index.Len() != len(mapping) {
		return nil, fmt.Errorf("%w: %s index holds %d vectors but mapping lists %d ids",
			ErrCorruptIndex, corpus, index.Len(), len(mapping))
	}

	r.logger.Info("loaded ANN index",
		"corpus", corpus,
		"vectors", index.Len(),
		"dim", index.Dim())

	return &CorpusIndex{Index: index, Mapping: mapping}, nil
}

// Reload drops a corpus's cached artifacts so the next Load reads fresh
// files. Call after the build pipeline rewrites them.
func (r *Registry) Reload(corpus core.Corpus) error {
	if !corpus.Valid() {
		return core.ErrUnknownCorpus
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.loaded, corpus)
	return nil
}

// Close drops every cached index.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loaded = make(map[core.Corpus]*CorpusIndex)
	return nil
}
