package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	fileBucket   = "files"
	keySeparator = "/"
)

// boltStore implements a Store backed by BoltDB.
type boltStore struct {
	db              *bolt.DB
	cleanupMu       sync.Mutex
	lastCleanup     atomic.Int64
	dataRoot        string
	verifyTTL       time.Duration
	cleanupInterval time.Duration
}

// openBolt initializes a BoltDB-backed Store.
func openBolt(path string, opts Options) (Store, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create ledger directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(fileBucket))
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init bucket: %w", err)
	}

	store := &boltStore{
		db:              db,
		dataRoot:        opts.DataRoot,
		verifyTTL:       opts.VerifyTTL,
		cleanupInterval: opts.CleanupInterval,
	}
	store.lastCleanup.Store(time.Now().Unix())
	return store, nil
}

// Close closes the BoltDB store.
func (b *boltStore) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

// Get returns the recorded download for dataset/filename, if any.
func (b *boltStore) Get(dataset, filename string) (FileRecord, bool, error) {
	if b == nil || b.db == nil {
		return FileRecord{}, false, nil
	}

	if err := b.maybeCleanupOrphans(time.Now()); err != nil {
		return FileRecord{}, false, err
	}

	var (
		rec   FileRecord
		found bool
	)
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(fileBucket))
		if bucket == nil {
			return fmt.Errorf("file bucket missing")
		}

		value := bucket.Get(recordKey(dataset, filename))
		if value == nil {
			return nil
		}
		if err := json.Unmarshal(value, &rec); err != nil {
			return fmt.Errorf("decode file record: %w", err)
		}
		found = true
		return nil
	})
	return rec, found, err
}

// Put records a verified download.
func (b *boltStore) Put(dataset, filename string, rec FileRecord) error {
	if b == nil || b.db == nil {
		return nil
	}

	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode file record: %w", err)
	}

	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(fileBucket))
		if bucket == nil {
			return fmt.Errorf("file bucket missing")
		}
		return bucket.Put(recordKey(dataset, filename), payload)
	})
}

// Delete removes the record for one file.
func (b *boltStore) Delete(dataset, filename string) error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(fileBucket))
		if bucket == nil {
			return fmt.Errorf("file bucket missing")
		}
		return bucket.Delete(recordKey(dataset, filename))
	})
}

// DeleteDataset removes every record belonging to the dataset.
func (b *boltStore) DeleteDataset(dataset string) error {
	if b == nil || b.db == nil {
		return nil
	}
	prefix := []byte(dataset + keySeparator)
	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(fileBucket))
		if bucket == nil {
			return fmt.Errorf("file bucket missing")
		}

		cursor := bucket.Cursor()
		for k, _ := cursor.Seek(prefix); k != nil && strings.HasPrefix(string(k), string(prefix)); k, _ = cursor.Next() {
			if err := cursor.Delete(); err != nil {
				return err
			}
		}
		return nil
	})
}

// Each visits every record in key order.
func (b *boltStore) Each(fn func(dataset, filename string, rec FileRecord) error) error {
	if b == nil || b.db == nil || fn == nil {
		return nil
	}
	return b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(fileBucket))
		if bucket == nil {
			return fmt.Errorf("file bucket missing")
		}

		cursor := bucket.Cursor()
		for k, v := cursor.First(); k != nil; k, v = cursor.Next() {
			dataset, filename, ok := splitRecordKey(k)
			if !ok {
				continue
			}
			var rec FileRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				continue
			}
			if err := fn(dataset, filename, rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// maybeCleanupOrphans drops records whose file no longer exists on disk and
// whose verification is past the trust window. Runs on a fixed cadence to
// avoid unbounded ledger growth after datasets are cleared externally.
func (b *boltStore) maybeCleanupOrphans(now time.Time) error {
	if b == nil || b.db == nil || b.dataRoot == "" {
		return nil
	}

	last := time.Unix(b.lastCleanup.Load(), 0)
	if now.Sub(last) < b.cleanupInterval {
		return nil
	}

	b.cleanupMu.Lock()
	defer b.cleanupMu.Unlock()

	last = time.Unix(b.lastCleanup.Load(), 0)
	if now.Sub(last) < b.cleanupInterval {
		return nil
	}

	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(fileBucket))
		if bucket == nil {
			return fmt.Errorf("file bucket missing")
		}

		cursor := bucket.Cursor()
		for k, v := cursor.First(); k != nil; k, v = cursor.Next() {
			dataset, filename, ok := splitRecordKey(k)
			if !ok {
				if err := cursor.Delete(); err != nil {
					return err
				}
				continue
			}

			var rec FileRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				if err := cursor.Delete(); err != nil {
					return err
				}
				continue
			}
			if now.Sub(rec.VerifiedAt) < b.verifyTTL {
				continue
			}
			if _, err := os.Stat(filepath.Join(b.dataRoot, dataset, filename)); os.IsNotExist(err) {
				if err := cursor.Delete(); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err == nil {
		b.lastCleanup.Store(now.Unix())
	}
	return err
}

func recordKey(dataset, filename string) []byte {
	return []byte(dataset + keySeparator + filename)
}

func splitRecordKey(key []byte) (dataset, filename string, ok bool) {
	parts := strings.SplitN(string(key), keySeparator, 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}
