package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/dgraph-io/badger/v4"
	"github.com/dustin/go-humanize"
	"github.com/sudorandom/telescope/pkg/mapengine"
)

// DatasetCache keeps corrected datasets on disk so startup can skip the
// SQLite export. Keys encode everything that changes the coordinates.
type DatasetCache struct {
	db *badger.DB
}

func OpenDatasetCache(path string) (*DatasetCache, error) {
	opts := badger.DefaultOptions(path)
	// Decrease logging verbosity
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening dataset cache: %w", err)
	}
	return &DatasetCache{db: db}, nil
}

func (c *DatasetCache) Close() error {
	return c.db.Close()
}

// Put stores ds under key, replacing any previous value.
func (c *DatasetCache) Put(key string, ds mapengine.Dataset) error {
	val, err := json.Marshal(ds)
	if err != nil {
		return fmt.Errorf("encoding dataset %s: %w", key, err)
	}
	err = c.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), val)
	})
	if err == nil {
		log.Printf("[CACHE] Stored %s (%s)", key, humanize.Bytes(uint64(len(val))))
	}
	return err
}

// Get returns the dataset stored under key. A missing key is not an error.
func (c *DatasetCache) Get(key string) (mapengine.Dataset, bool, error) {
	var ds mapengine.Dataset
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			return json.Unmarshal(v, &ds)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return mapengine.Dataset{}, false, nil
	}
	if err != nil {
		return mapengine.Dataset{}, false, fmt.Errorf("reading dataset %s: %w", key, err)
	}
	return ds, true, nil
}

// Delete removes every key starting with prefix. An empty prefix clears the
// cache.
func (c *DatasetCache) Delete(prefix string) error {
	if prefix == "" {
		return c.db.DropAll()
	}
	return c.db.DropPrefix([]byte(prefix))
}

// Keys lists the cached dataset keys.
func (c *DatasetCache) Keys() ([]string, error) {
	var keys []string
	err := c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, string(it.Item().KeyCopy(nil)))
		}
		return nil
	})
	return keys, err
}
