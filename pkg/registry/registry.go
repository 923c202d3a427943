package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/mdverse/mddata/internal/domain"
)

// Package registry holds the dataset catalog: a built-in set of datasets plus
// optional user-supplied YAML/JSON definitions merged over it.

type catalogFile struct {
	Datasets []domain.Dataset `json:"datasets" yaml:"datasets"`
}

// Registry resolves dataset definitions by id.
type Registry struct {
	mu       sync.RWMutex
	datasets map[string]domain.Dataset
}

// New returns a registry seeded with the built-in catalog.
func New() *Registry {
	r := &Registry{datasets: make(map[string]domain.Dataset, len(builtinCatalog))}
	for _, d := range builtinCatalog {
		r.datasets[d.ID] = d
	}
	return r
}

// Load merges dataset definitions from a YAML/JSON file over the current
// catalog. File entries replace built-in entries with the same id.
func (r *Registry) Load(path string) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("registry file path is empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open registry file: %w", err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return fmt.Errorf("read registry file: %w", err)
	}

	cat, err := parseCatalog(raw, filepath.Ext(path))
	if err != nil {
		return err
	}
	if len(cat.Datasets) == 0 {
		return errors.New("registry file contains no datasets entries")
	}

	seen := make(map[string]struct{}, len(cat.Datasets))
	cleaned := make([]domain.Dataset, len(cat.Datasets))
	for i := range cat.Datasets {
		d := sanitizeDataset(cat.Datasets[i])
		if err := validateDataset(d); err != nil {
			return fmt.Errorf("dataset[%d]: %w", i, err)
		}
		if _, dup := seen[d.ID]; dup {
			return fmt.Errorf("duplicate dataset id %q", d.ID)
		}
		seen[d.ID] = struct{}{}
		cleaned[i] = d
	}

	r.mu.Lock()
	for _, d := range cleaned {
		r.datasets[d.ID] = d
	}
	r.mu.Unlock()

	return nil
}

// All returns the catalog sorted by dataset id.
func (r *Registry) All() []domain.Dataset {
	r.mu.RLock()
	out := make([]domain.Dataset, 0, len(r.datasets))
	for _, d := range r.datasets {
		out = append(out, d)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ByID returns the dataset definition for the given id, if present.
func (r *Registry) ByID(id string) (domain.Dataset, bool) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Dataset{}, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.datasets[id]
	return d, ok
}

func parseCatalog(data []byte, ext string) (catalogFile, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))

	decoders := []struct {
		name string
		ext  string
		fn   func([]byte, any) error
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		var cat catalogFile
		if err := d.fn(data, &cat); err == nil {
			return cat, nil
		}
	}

	return catalogFile{}, errors.New("registry file format not recognized (expected YAML or JSON)")
}

func sanitizeDataset(d domain.Dataset) domain.Dataset {
	d.ID = strings.TrimSpace(d.ID)
	d.Name = strings.TrimSpace(d.Name)
	d.Description = strings.TrimSpace(d.Description)
	d.License = strings.TrimSpace(d.License)
	d.Source = strings.TrimSpace(d.Source)

	for i := range d.Files {
		f := d.Files[i]
		f.Key = strings.TrimSpace(f.Key)
		f.Filename = strings.TrimSpace(f.Filename)
		f.URL = strings.TrimSpace(f.URL)
		f.Checksum = strings.ToLower(strings.TrimSpace(f.Checksum))
		d.Files[i] = f
	}
	return d
}

func validateDataset(d domain.Dataset) error {
	if d.ID == "" {
		return errors.New("id is required")
	}
	if d.Name == "" {
		return fmt.Errorf("name is required for dataset %q", d.ID)
	}
	if len(d.Files) == 0 {
		return fmt.Errorf("dataset %q has no files", d.ID)
	}

	keys := make(map[string]struct{}, len(d.Files))
	for i, f := range d.Files {
		if f.Key == "" {
			return fmt.Errorf("dataset %q file[%d]: key is required", d.ID, i)
		}
		if _, dup := keys[f.Key]; dup {
			return fmt.Errorf("dataset %q has duplicate file key %q", d.ID, f.Key)
		}
		keys[f.Key] = struct{}{}
		if f.Filename == "" {
			return fmt.Errorf("dataset %q file %q: filename is required", d.ID, f.Key)
		}
		if f.Filename != filepath.Base(f.Filename) {
			return fmt.Errorf("dataset %q file %q: filename must not contain path separators", d.ID, f.Key)
		}
		if f.URL == "" {
			return fmt.Errorf("dataset %q file %q: url is required", d.ID, f.Key)
		}
		if err := validateChecksum(f.Checksum); err != nil {
			return fmt.Errorf("dataset %q file %q: %w", d.ID, f.Key, err)
		}
	}
	return nil
}

func validateChecksum(sum string) error {
	if len(sum) != 64 {
		return fmt.Errorf("checksum must be 64 hex characters, got %d", len(sum))
	}
	for _, c := range sum {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return fmt.Errorf("checksum contains non-hex character %q", c)
		}
	}
	return nil
}
