package domain

// Domain contains core models shared across packages.

// RemoteFile describes one downloadable file belonging to a dataset.
// Checksum is the hex-encoded SHA-256 of the file content.
type RemoteFile struct {
	Key       string `json:"key" yaml:"key"`
	Filename  string `json:"filename" yaml:"filename"`
	URL       string `json:"url" yaml:"url"`
	Checksum  string `json:"checksum" yaml:"checksum"`
	SizeBytes int64  `json:"size_bytes,omitempty" yaml:"size_bytes,omitempty"`
}

// Dataset is a named collection of remote files plus descriptive metadata.
type Dataset struct {
	ID          string       `json:"id" yaml:"id"`
	Name        string       `json:"name" yaml:"name"`
	Description string       `json:"description" yaml:"description"`
	License     string       `json:"license,omitempty" yaml:"license,omitempty"`
	Source      string       `json:"source,omitempty" yaml:"source,omitempty"`
	Files       []RemoteFile `json:"files" yaml:"files"`
}

// File returns the remote file with the given key, if present.
func (d Dataset) File(key string) (RemoteFile, bool) {
	for _, f := range d.Files {
		if f.Key == key {
			return f, true
		}
	}
	return RemoteFile{}, false
}

// LocalDataset is the result of a fetch: resolved local paths keyed by the
// registry file key, plus the dataset description.
type LocalDataset struct {
	ID          string            `json:"id"`
	Dir         string            `json:"dir"`
	Files       map[string]string `json:"files"`
	Description string            `json:"description"`
}

// FileState classifies a cached file relative to its registry entry.
type FileState string

const (
	FileMissing  FileState = "missing"
	FileStale    FileState = "stale"
	FileVerified FileState = "verified"
)

// FileStatus reports the cache state of a single dataset file.
type FileStatus struct {
	Key       string    `json:"key"`
	Filename  string    `json:"filename"`
	Path      string    `json:"path"`
	State     FileState `json:"state"`
	SizeBytes int64     `json:"size_bytes"`
}
