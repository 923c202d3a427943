package app

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mdverse/mddata/internal/config"
	"github.com/mdverse/mddata/internal/domain"
	"github.com/mdverse/mddata/internal/fetch"
	"github.com/mdverse/mddata/pkg/notify"
)

func testConfig(t *testing.T, home string) *config.Config {
	t.Helper()
	return &config.Config{
		AppName:               "mddata",
		LogLevel:              "error",
		DataHome:              home,
		LedgerFilename:        "ledger.db",
		HTTPTimeout:           5 * time.Second,
		DownloadRetries:       1,
		RetryBackoff:          10 * time.Millisecond,
		VerifyTTL:             time.Hour,
		LedgerCleanupInterval: time.Hour,
	}
}

func writeRegistry(t *testing.T, dir, serverURL string, content []byte) string {
	t.Helper()
	sum := sha256.Sum256(content)
	body := fmt.Sprintf(`
datasets:
  - id: demo
    name: Demo dataset
    description: Small demo payload
    files:
      - key: data
        filename: demo.bin
        url: %s/demo.bin
        checksum: %s
`, serverURL, hex.EncodeToString(sum[:]))

	path := filepath.Join(dir, "registry.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write registry: %v", err)
	}
	return path
}

func TestAppFetchNotifiesSinks(t *testing.T) {
	content := []byte("demo dataset payload")
	fileServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write(content)
	}))
	defer fileServer.Close()

	events := make(chan notify.Event, 1)
	hookServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var evt notify.Event
		if err := json.Unmarshal(body, &evt); err == nil {
			events <- evt
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer hookServer.Close()

	scratch := t.TempDir()
	home := filepath.Join(scratch, "home")

	notifiers := filepath.Join(scratch, "notifiers.yaml")
	if err := os.WriteFile(notifiers, []byte(fmt.Sprintf(
		"notifiers:\n  - id: hook\n    type: http\n    http:\n      url: %s\n", hookServer.URL,
	)), 0o644); err != nil {
		t.Fatalf("write notifiers: %v", err)
	}

	cfg := testConfig(t, home)
	cfg.RegistryFile = writeRegistry(t, scratch, fileServer.URL, content)
	cfg.NotifiersFile = notifiers

	a, err := New(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()

	locals, err := a.Fetch(context.Background(), []string{"demo"}, fetch.DefaultOptions())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(locals) != 1 {
		t.Fatalf("expected 1 fetched dataset, got %d", len(locals))
	}
	got, err := os.ReadFile(locals[0].Files["data"])
	if err != nil {
		t.Fatalf("read fetched file: %v", err)
	}
	if string(got) != string(content) {
		t.Fatalf("fetched content mismatch")
	}

	select {
	case evt := <-events:
		if evt.DatasetID != "demo" {
			t.Fatalf("event dataset id = %q", evt.DatasetID)
		}
		if evt.TotalBytes != int64(len(content)) {
			t.Fatalf("event total bytes = %d, want %d", evt.TotalBytes, len(content))
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no fetch notification delivered")
	}
}

func TestAppFetchUnknownDataset(t *testing.T) {
	cfg := testConfig(t, filepath.Join(t.TempDir(), "home"))
	a, err := New(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()

	if _, err := a.Fetch(context.Background(), []string{"nope"}, fetch.DefaultOptions()); err == nil {
		t.Fatalf("expected error for unknown dataset")
	}
}

func TestAppStatusAndClear(t *testing.T) {
	content := []byte("clearable payload")
	fileServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write(content)
	}))
	defer fileServer.Close()

	scratch := t.TempDir()
	cfg := testConfig(t, filepath.Join(scratch, "home"))
	cfg.RegistryFile = writeRegistry(t, scratch, fileServer.URL, content)

	a, err := New(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()

	if _, err := a.Fetch(context.Background(), []string{"demo"}, fetch.DefaultOptions()); err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	statuses, err := a.Status([]string{"demo"})
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if statuses["demo"][0].State != domain.FileVerified {
		t.Fatalf("expected verified after fetch, got %s", statuses["demo"][0].State)
	}

	if err := a.Clear([]string{"demo"}); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	statuses, err = a.Status([]string{"demo"})
	if err != nil {
		t.Fatalf("Status after clear: %v", err)
	}
	if statuses["demo"][0].State != domain.FileMissing {
		t.Fatalf("expected missing after clear, got %s", statuses["demo"][0].State)
	}
}

func TestAppClearAllSweepsStrayDirs(t *testing.T) {
	content := []byte("sweep payload")
	fileServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write(content)
	}))
	defer fileServer.Close()

	scratch := t.TempDir()
	home := filepath.Join(scratch, "home")
	cfg := testConfig(t, home)
	cfg.RegistryFile = writeRegistry(t, scratch, fileServer.URL, content)

	a, err := New(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()

	if _, err := a.Fetch(context.Background(), []string{"demo"}, fetch.DefaultOptions()); err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	// A directory from a dataset no longer in the catalog still counts as
	// cache content.
	strayDir := filepath.Join(home, "retired_dataset")
	if err := os.MkdirAll(strayDir, 0o755); err != nil {
		t.Fatalf("mkdir stray: %v", err)
	}
	if err := os.WriteFile(filepath.Join(strayDir, "old.dcd"), []byte("stale trajectory"), 0o644); err != nil {
		t.Fatalf("seed stray: %v", err)
	}

	if err := a.ClearAll(); err != nil {
		t.Fatalf("ClearAll: %v", err)
	}

	if _, err := os.Stat(filepath.Join(home, "demo")); !os.IsNotExist(err) {
		t.Fatalf("catalog dataset dir should be removed")
	}
	if _, err := os.Stat(strayDir); !os.IsNotExist(err) {
		t.Fatalf("non-catalog dataset dir should be removed")
	}
	if _, err := os.Stat(cfg.LedgerPath()); err != nil {
		t.Fatalf("ledger file should survive ClearAll: %v", err)
	}

	statuses, err := a.Status([]string{"demo"})
	if err != nil {
		t.Fatalf("Status after ClearAll: %v", err)
	}
	if statuses["demo"][0].State != domain.FileMissing {
		t.Fatalf("expected missing after ClearAll, got %s", statuses["demo"][0].State)
	}
}
