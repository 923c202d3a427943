package fetch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mdverse/mddata/internal/domain"
)

// Status reports the cache state of every file in the dataset without
// hashing. A file counts as verified only while its ledger record is inside
// the trust window; otherwise it is stale.
func (s *Service) Status(ds domain.Dataset) ([]domain.FileStatus, error) {
	out := make([]domain.FileStatus, 0, len(ds.Files))
	for _, f := range ds.Files {
		path := s.filePath(ds.ID, f)
		st := domain.FileStatus{Key: f.Key, Filename: f.Filename, Path: path}

		info, err := os.Stat(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("stat %s: %w", path, err)
			}
			st.State = domain.FileMissing
			out = append(out, st)
			continue
		}
		st.SizeBytes = info.Size()
		st.State = domain.FileStale

		rec, found, err := s.store.Get(ds.ID, f.Filename)
		if err != nil {
			return nil, fmt.Errorf("ledger lookup: %w", err)
		}
		if found && rec.Checksum == f.Checksum && rec.SizeBytes == info.Size() &&
			time.Since(rec.VerifiedAt) < s.verifyTTL {
			st.State = domain.FileVerified
		}
		out = append(out, st)
	}
	return out, nil
}

// Verify re-hashes every cached file of the dataset against its registry
// checksum and refreshes ledger records for matches. Missing files are
// reported, not downloaded.
func (s *Service) Verify(ctx context.Context, ds domain.Dataset) ([]domain.FileStatus, error) {
	out := make([]domain.FileStatus, 0, len(ds.Files))
	for _, f := range ds.Files {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		path := s.filePath(ds.ID, f)
		st := domain.FileStatus{Key: f.Key, Filename: f.Filename, Path: path}

		info, err := os.Stat(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("stat %s: %w", path, err)
			}
			st.State = domain.FileMissing
			out = append(out, st)
			continue
		}
		st.SizeBytes = info.Size()

		sum, err := ChecksumFile(path)
		if err != nil {
			return nil, err
		}
		if sum == f.Checksum {
			st.State = domain.FileVerified
			s.recordVerified(ds.ID, f, info.Size())
		} else {
			st.State = domain.FileStale
			s.log.WarnObj("file failed verification", "verify_mismatch", map[string]any{
				"dataset_id": ds.ID,
				"path":       path,
				"got":        sum,
				"want":       f.Checksum,
			})
		}
		out = append(out, st)
	}
	return out, nil
}

// Clear removes the dataset directory and its ledger records.
func (s *Service) Clear(datasetID string) error {
	if err := os.RemoveAll(s.DatasetDir(datasetID)); err != nil {
		return fmt.Errorf("remove dataset directory: %w", err)
	}
	if err := s.store.DeleteDataset(datasetID); err != nil {
		return fmt.Errorf("remove dataset ledger records: %w", err)
	}
	return nil
}

func (s *Service) filePath(datasetID string, f domain.RemoteFile) string {
	return filepath.Join(s.DatasetDir(datasetID), f.Filename)
}
