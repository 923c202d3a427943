package registry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestBuiltinCatalog(t *testing.T) {
	reg := New()

	ds, ok := reg.ByID("adk_equilibrium")
	if !ok {
		t.Fatalf("adk_equilibrium missing from builtin catalog")
	}
	if len(ds.Files) != 2 {
		t.Fatalf("adk_equilibrium should have 2 files, got %d", len(ds.Files))
	}
	top, ok := ds.File("topology")
	if !ok {
		t.Fatalf("adk_equilibrium missing topology file")
	}
	if top.Filename != "adk4AKE.psf" {
		t.Fatalf("unexpected topology filename %q", top.Filename)
	}
	if len(top.Checksum) != 64 {
		t.Fatalf("topology checksum not pinned: %q", top.Checksum)
	}

	if _, ok := reg.ByID("ifabp_water"); !ok {
		t.Fatalf("ifabp_water missing from builtin catalog")
	}

	all := reg.All()
	for i := 1; i < len(all); i++ {
		if all[i-1].ID >= all[i].ID {
			t.Fatalf("All() not sorted by id: %s >= %s", all[i-1].ID, all[i].ID)
		}
	}
}

func TestLoadMergesOverBuiltins(t *testing.T) {
	path := writeFile(t, "registry.yaml", `
datasets:
  - id: local_test
    name: Local test dataset
    files:
      - key: data
        filename: data.bin
        url: https://example.org/data.bin
        checksum: `+strings.Repeat("ab", 32)+`
  - id: adk_equilibrium
    name: Replaced AdK entry
    files:
      - key: topology
        filename: other.psf
        url: https://example.org/other.psf
        checksum: `+strings.Repeat("cd", 32)+`
`)

	reg := New()
	if err := reg.Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if _, ok := reg.ByID("local_test"); !ok {
		t.Fatalf("file dataset not loaded")
	}

	ds, ok := reg.ByID("adk_equilibrium")
	if !ok {
		t.Fatalf("adk_equilibrium disappeared after merge")
	}
	if ds.Name != "Replaced AdK entry" {
		t.Fatalf("file entry should override builtin, got name %q", ds.Name)
	}

	// Untouched builtin survives the merge.
	if _, ok := reg.ByID("ifabp_water"); !ok {
		t.Fatalf("ifabp_water should survive merge")
	}
}

func TestLoadRejectsDuplicateIDs(t *testing.T) {
	sum := strings.Repeat("ef", 32)
	path := writeFile(t, "registry.yaml", `
datasets:
  - id: dup
    name: First
    files:
      - {key: a, filename: a.bin, url: https://example.org/a, checksum: `+sum+`}
  - id: dup
    name: Second
    files:
      - {key: b, filename: b.bin, url: https://example.org/b, checksum: `+sum+`}
`)

	if err := New().Load(path); err == nil {
		t.Fatalf("expected duplicate id error")
	}
}

func TestLoadValidation(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{
			name: "short checksum",
			body: `
datasets:
  - id: d1
    name: D1
    files:
      - {key: a, filename: a.bin, url: https://example.org/a, checksum: short}
`,
		},
		{
			name: "non-hex checksum",
			body: `
datasets:
  - id: d1
    name: D1
    files:
      - {key: a, filename: a.bin, url: https://example.org/a, checksum: ` + strings.Repeat("zz", 32) + `}
`,
		},
		{
			name: "path traversal filename",
			body: `
datasets:
  - id: d1
    name: D1
    files:
      - {key: a, filename: ../../etc/passwd, url: https://example.org/a, checksum: ` + strings.Repeat("ab", 32) + `}
`,
		},
		{
			name: "duplicate file key",
			body: `
datasets:
  - id: d1
    name: D1
    files:
      - {key: a, filename: a.bin, url: https://example.org/a, checksum: ` + strings.Repeat("ab", 32) + `}
      - {key: a, filename: b.bin, url: https://example.org/b, checksum: ` + strings.Repeat("cd", 32) + `}
`,
		},
		{
			name: "no files",
			body: `
datasets:
  - id: d1
    name: D1
    files: []
`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeFile(t, "registry.yaml", tc.body)
			if err := New().Load(path); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestLoadJSON(t *testing.T) {
	sum := strings.Repeat("12", 32)
	path := writeFile(t, "registry.json", `{
  "datasets": [
    {
      "id": "json_test",
      "name": "JSON test dataset",
      "files": [
        {"key": "data", "filename": "d.bin", "url": "https://example.org/d", "checksum": "`+sum+`"}
      ]
    }
  ]
}`)

	reg := New()
	if err := reg.Load(path); err != nil {
		t.Fatalf("Load json: %v", err)
	}
	if _, ok := reg.ByID("json_test"); !ok {
		t.Fatalf("json dataset not loaded")
	}
}
