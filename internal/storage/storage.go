package storage

import (
	"fmt"
	"strings"
	"time"
)

// Package storage provides the local fetch ledger abstraction. The ledger
// remembers which dataset files have been downloaded and verified so that
// repeat fetches can skip re-hashing large files.

// FileRecord describes one verified download.
type FileRecord struct {
	Checksum   string    `json:"checksum"`
	SizeBytes  int64     `json:"size_bytes"`
	FetchedAt  time.Time `json:"fetched_at"`
	VerifiedAt time.Time `json:"verified_at"`
}

// Store persists file records keyed by dataset id and filename.
type Store interface {
	Close() error
	Get(dataset, filename string) (FileRecord, bool, error)
	Put(dataset, filename string, rec FileRecord) error
	Delete(dataset, filename string) error
	DeleteDataset(dataset string) error
	Each(fn func(dataset, filename string, rec FileRecord) error) error
}

// Options controls retention characteristics for concrete store implementations.
type Options struct {
	// DataRoot is the cache root; cleanup drops records whose file is gone.
	DataRoot        string
	VerifyTTL       time.Duration
	CleanupInterval time.Duration
}

const (
	defaultVerifyTTL       = 30 * 24 * time.Hour
	defaultCleanupInterval = 12 * time.Hour
)

// NewStore creates the configured ledger backend.
func NewStore(typ, path string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", "none", "disabled":
		return noopStore{}, nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt ledger requires a path")
		}
		return openBolt(path, opts)
	default:
		return nil, fmt.Errorf("unsupported ledger type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.VerifyTTL <= 0 {
		opts.VerifyTTL = defaultVerifyTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	return opts
}

type noopStore struct{}

func (noopStore) Close() error                                             { return nil }
func (noopStore) Get(string, string) (FileRecord, bool, error)             { return FileRecord{}, false, nil }
func (noopStore) Put(string, string, FileRecord) error                     { return nil }
func (noopStore) Delete(string, string) error                              { return nil }
func (noopStore) DeleteDataset(string) error                               { return nil }
func (noopStore) Each(func(string, string, FileRecord) error) error        { return nil }
