package badger

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"

	"github.com/poiesic/mishkat/storage"
)

// EmbeddingCache is a BadgerDB-backed cache of embedding vectors keyed
// by model and text content. The ingestion pipeline consults it before
// calling the embedding service, so re-runs over unchanged source data
// skip the expensive calls.
type EmbeddingCache struct {
	db     *badger.DB
	logger *slog.Logger
}

// badgerLoggerAdapter adapts slog.Logger to badger.Logger interface.
type badgerLoggerAdapter struct {
	logger *slog.Logger
}

var _ badger.Logger = (*badgerLoggerAdapter)(nil)

func (bl *badgerLoggerAdapter) Errorf(msg string, items ...any) {
	bl.logger.Error(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Warningf(msg string, items ...any) {
	bl.logger.Warn(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Infof(msg string, items ...any) {
	bl.logger.Info(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Debugf(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

// OpenEmbeddingCache opens a cache at the specified directory.
// Creates the directory if it doesn't exist. With inMemory set, the
// path is ignored and the cache is discarded on Close.
func OpenEmbeddingCache(filePath string, inMemory bool) (*EmbeddingCache, error) {
	var opts badger.Options

	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		info, err := os.Stat(filePath)
		if err != nil {
			if os.IsNotExist(err) {
				if err := os.MkdirAll(filePath, 0755); err != nil {
					return nil, err
				}
				info, err = os.Stat(filePath)
				if err != nil {
					return nil, err
				}
			} else {
				return nil, err
			}
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("%s is not a directory", filePath)
		}
		opts = badger.DefaultOptions(filePath)
	}

	opts.Logger = &badgerLoggerAdapter{logger: slog.Default()}
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	return &EmbeddingCache{
		db:     db,
		logger: slog.Default(),
	}, nil
}

// Close closes the underlying database.
func (c *EmbeddingCache) Close() error {
	return c.db.Close()
}

// Get returns the cached vector for (model, text). The second return
// reports whether the entry was present.
func (c *EmbeddingCache) Get(model, text string) ([]float32, bool, error) {
	var vector []float32
	err := c.db.View(func(tx *badger.Txn) error {
		item, err := tx.Get(makeVectorKey(model, text))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			var err error
			vector, err = storage.UnmarshalVector(val)
			return err
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return vector, true, nil
}

// Put stores the vector for (model, text), replacing any previous entry.
func (c *EmbeddingCache) Put(model, text string, vector []float32) error {
	return c.db.Update(func(tx *badger.Txn) error {
		return tx.Set(makeVectorKey(model, text), storage.MarshalVector(vector))
	})
}

// Len returns the number of cached vectors.
func (c *EmbeddingCache) Len() (int, error) {
	count := 0
	err := c.db.View(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(vectorPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}
