package store

import (
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"
)

var bucketExtractions = []byte("extractions")

// ExtractionCache persists extracted document text keyed by path and
// modification time, so a wholesale re-index can skip the cross-process
// extraction round trip for files that have not changed. Embeddings are
// never cached; every run re-embeds the workspace.
type ExtractionCache struct {
	db *bbolt.DB
}

type cachedExtraction struct {
	ModTime int64  `json:"mod_time"`
	Text    string `json:"text"`
}

func OpenExtractionCache(path string) (*ExtractionCache, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open extraction cache: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketExtractions)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create extractions bucket: %w", err)
	}

	return &ExtractionCache{db: db}, nil
}

// Get returns the cached text for a file, if it was cached at this exact
// modification time.
func (c *ExtractionCache) Get(filePath string, modTime int64) (string, bool) {
	var text string
	var ok bool

	c.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketExtractions)
		if b == nil {
			return nil
		}

		data := b.Get([]byte(filePath))
		if data == nil {
			return nil
		}

		var entry cachedExtraction
		if err := json.Unmarshal(data, &entry); err != nil {
			return nil // skip corrupted entries
		}
		if entry.ModTime == modTime {
			text = entry.Text
			ok = true
		}
		return nil
	})

	return text, ok
}

// Put stores extracted text for a file at a modification time, replacing any
// prior entry for the same path.
func (c *ExtractionCache) Put(filePath string, modTime int64, text string) error {
	data, err := json.Marshal(cachedExtraction{ModTime: modTime, Text: text})
	if err != nil {
		return err
	}

	return c.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketExtractions)
		if b == nil {
			return fmt.Errorf("extractions bucket not found")
		}
		return b.Put([]byte(filePath), data)
	})
}

func (c *ExtractionCache) Close() error {
	return c.db.Close()
}
