package fetch

import (
	"errors"
	"fmt"
)

// ErrNotCached is returned when a file is absent locally and downloading is
// disabled.
var ErrNotCached = errors.New("dataset file not cached")

// ChecksumError reports a downloaded or cached file whose SHA-256 does not
// match the registry checksum.
type ChecksumError struct {
	Path string
	Got  string
	Want string
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("%s has an SHA256 checksum (%s) differing from expected (%s), file may be corrupted",
		e.Path, e.Got, e.Want)
}
