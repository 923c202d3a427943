package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/mdverse/mddata/internal/domain"
	"github.com/mdverse/mddata/internal/logger"
	"github.com/mdverse/mddata/internal/storage"
	"github.com/mdverse/mddata/pkg/httpclient"
)

const partialSuffix = ".partial"

var defaultHeaders = map[string]string{
	"User-Agent": "mddata/1.0",
}

// Options controls a single fetch pass.
type Options struct {
	// DownloadIfMissing permits network access for files absent from the
	// cache. When false, a missing file is an ErrNotCached error.
	DownloadIfMissing bool
	// Force re-downloads every file regardless of cache state.
	Force bool
}

// DefaultOptions matches the original loader behavior: download on demand.
func DefaultOptions() Options {
	return Options{DownloadIfMissing: true}
}

// ServiceOptions tunes retry and trust-window behavior.
type ServiceOptions struct {
	Retries   int
	Backoff   time.Duration
	VerifyTTL time.Duration
}

// Service downloads dataset files into the data home and verifies their
// integrity. A file path is only ever handed back to the caller after its
// SHA-256 matched the registry checksum, or while a ledger record of that
// verification is still inside the trust window.
type Service struct {
	home       string
	downloader httpclient.Downloader
	store      storage.Store
	retries    int
	backoff    time.Duration
	verifyTTL  time.Duration
	log        logger.Logger
}

// NewService wires a fetch service over the data home directory.
func NewService(home string, dl httpclient.Downloader, store storage.Store, opts ServiceOptions, log logger.Logger) (*Service, error) {
	if home == "" {
		return nil, fmt.Errorf("data home must not be empty")
	}
	if dl == nil {
		return nil, fmt.Errorf("downloader must not be nil")
	}
	if store == nil {
		store = mustNoopStore()
	}
	if log == nil {
		log = &logger.NopLogger{}
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if opts.Backoff <= 0 {
		opts.Backoff = 2 * time.Second
	}
	if opts.VerifyTTL <= 0 {
		opts.VerifyTTL = 30 * 24 * time.Hour
	}

	return &Service{
		home:       home,
		downloader: dl,
		store:      store,
		retries:    opts.Retries,
		backoff:    opts.Backoff,
		verifyTTL:  opts.VerifyTTL,
		log:        log,
	}, nil
}

// Home returns the data home directory.
func (s *Service) Home() string { return s.home }

// DatasetDir returns the cache directory for a dataset.
func (s *Service) DatasetDir(id string) string {
	return filepath.Join(s.home, id)
}

// Dataset materializes every file of the dataset locally and returns the
// resolved paths.
func (s *Service) Dataset(ctx context.Context, ds domain.Dataset, opts Options) (domain.LocalDataset, error) {
	local := domain.LocalDataset{
		ID:          ds.ID,
		Dir:         s.DatasetDir(ds.ID),
		Files:       make(map[string]string, len(ds.Files)),
		Description: ds.Description,
	}

	if err := os.MkdirAll(local.Dir, 0o755); err != nil {
		return domain.LocalDataset{}, fmt.Errorf("create dataset directory: %w", err)
	}

	for _, f := range ds.Files {
		select {
		case <-ctx.Done():
			return domain.LocalDataset{}, ctx.Err()
		default:
		}

		path, err := s.ensureFile(ctx, ds.ID, f, opts)
		if err != nil {
			return domain.LocalDataset{}, fmt.Errorf("dataset %s file %s: %w", ds.ID, f.Key, err)
		}
		local.Files[f.Key] = path
	}

	return local, nil
}

// ensureFile returns the local path for one remote file, downloading and
// verifying as needed.
func (s *Service) ensureFile(ctx context.Context, datasetID string, f domain.RemoteFile, opts Options) (string, error) {
	path := filepath.Join(s.DatasetDir(datasetID), f.Filename)

	if !opts.Force {
		if ok, err := s.cachedAndTrusted(datasetID, f, path); err != nil {
			return "", err
		} else if ok {
			return path, nil
		}
	}

	info, statErr := os.Stat(path)
	if statErr == nil && !opts.Force {
		// Present but not trusted by the ledger: re-hash before accepting.
		sum, err := ChecksumFile(path)
		if err != nil {
			return "", err
		}
		if sum == f.Checksum {
			s.recordVerified(datasetID, f, info.Size())
			return path, nil
		}
		// Corrupted cached copy; fall through to a fresh download unless
		// offline.
		if !opts.DownloadIfMissing {
			return "", &ChecksumError{Path: path, Got: sum, Want: f.Checksum}
		}
		s.log.WarnObj("cached file failed verification, refetching", "cache_mismatch", map[string]any{
			"dataset_id": datasetID,
			"path":       path,
			"got":        sum,
		})
	}

	if os.IsNotExist(statErr) && !opts.DownloadIfMissing {
		return "", fmt.Errorf("%w: %s", ErrNotCached, path)
	}
	if !opts.DownloadIfMissing && opts.Force {
		return "", fmt.Errorf("%w: force fetch requires downloads enabled", ErrNotCached)
	}

	size, err := s.download(ctx, f, path)
	if err != nil {
		return "", err
	}
	s.recordFetched(datasetID, f, size)

	return path, nil
}

// cachedAndTrusted reports whether the file exists and its ledger record is
// fresh enough to skip re-hashing.
func (s *Service) cachedAndTrusted(datasetID string, f domain.RemoteFile, path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat cached file: %w", err)
	}

	rec, found, err := s.store.Get(datasetID, f.Filename)
	if err != nil {
		return false, fmt.Errorf("ledger lookup: %w", err)
	}
	if !found {
		return false, nil
	}
	if rec.Checksum != f.Checksum || rec.SizeBytes != info.Size() {
		return false, nil
	}
	if time.Since(rec.VerifiedAt) >= s.verifyTTL {
		return false, nil
	}
	return true, nil
}

// download streams the remote file to a temp path, hashing as it goes, and
// renames into place only after the checksum matched. No partial file is ever
// left at the final path.
func (s *Service) download(ctx context.Context, f domain.RemoteFile, path string) (int64, error) {
	start := time.Now()
	s.log.InfoObj("downloading file", "download_meta", map[string]any{
		"url":  f.URL,
		"path": path,
	})

	var (
		size int64
		err  error
	)
	for attempt := 0; ; attempt++ {
		size, err = s.downloadOnce(ctx, f, path)
		if err == nil {
			break
		}

		var sumErr *ChecksumError
		if errors.As(err, &sumErr) || attempt >= s.retries || ctx.Err() != nil {
			return 0, err
		}

		s.log.WarnObj("download attempt failed, retrying", "download_retry", map[string]any{
			"url":     f.URL,
			"attempt": attempt + 1,
			"error":   err.Error(),
		})

		timer := time.NewTimer(s.backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return 0, ctx.Err()
		case <-timer.C:
		}
	}

	s.log.InfoObj("download completed", "download_meta", map[string]any{
		"url":        f.URL,
		"path":       path,
		"bytes":      size,
		"elapsed_ms": time.Since(start).Milliseconds(),
	})
	return size, nil
}

func (s *Service) downloadOnce(ctx context.Context, f domain.RemoteFile, path string) (int64, error) {
	tmpPath := path + partialSuffix
	tmp, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}

	cleanup := func() {
		tmp.Close()
		os.Remove(tmpPath)
	}

	hasher := sha256.New()
	dest := io.MultiWriter(tmp, hasher)

	_, size, err := s.downloader.Download(ctx, f.URL, defaultHeaders, dest)
	if err != nil {
		cleanup()
		return 0, fmt.Errorf("download %s: %w", f.URL, err)
	}

	sum := hex.EncodeToString(hasher.Sum(nil))
	if sum != f.Checksum {
		cleanup()
		return 0, &ChecksumError{Path: path, Got: sum, Want: f.Checksum}
	}

	if err := tmp.Sync(); err != nil {
		cleanup()
		return 0, fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("rename temp file into place: %w", err)
	}
	return size, nil
}

func (s *Service) recordFetched(datasetID string, f domain.RemoteFile, size int64) {
	now := time.Now().UTC()
	s.putRecord(datasetID, f, storage.FileRecord{
		Checksum:   f.Checksum,
		SizeBytes:  size,
		FetchedAt:  now,
		VerifiedAt: now,
	})
}

func (s *Service) recordVerified(datasetID string, f domain.RemoteFile, size int64) {
	rec, found, err := s.store.Get(datasetID, f.Filename)
	now := time.Now().UTC()
	if err != nil || !found {
		rec = storage.FileRecord{Checksum: f.Checksum, SizeBytes: size, FetchedAt: now}
	}
	rec.Checksum = f.Checksum
	rec.SizeBytes = size
	rec.VerifiedAt = now
	s.putRecord(datasetID, f, rec)
}

func (s *Service) putRecord(datasetID string, f domain.RemoteFile, rec storage.FileRecord) {
	if err := s.store.Put(datasetID, f.Filename, rec); err != nil {
		s.log.WarnObj("ledger update failed", "ledger_error", map[string]any{
			"dataset_id": datasetID,
			"filename":   f.Filename,
			"error":      err.Error(),
		})
	}
}

func mustNoopStore() storage.Store {
	store, err := storage.NewStore("none", "", storage.Options{})
	if err != nil {
		panic(err)
	}
	return store
}
