package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestBoltStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	storeRaw, err := openBolt(filepath.Join(dir, "ledger.db"), normalizeOptions(Options{DataRoot: dir}))
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	store := storeRaw.(*boltStore)
	defer store.Close()

	if _, found, err := store.Get("adk", "top.psf"); err != nil || found {
		t.Fatalf("expected no record, found=%v err=%v", found, err)
	}

	rec := FileRecord{
		Checksum:   "abc123",
		SizeBytes:  42,
		FetchedAt:  time.Now().UTC(),
		VerifiedAt: time.Now().UTC(),
	}
	if err := store.Put("adk", "top.psf", rec); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, found, err := store.Get("adk", "top.psf")
	if err != nil || !found {
		t.Fatalf("Get after Put: found=%v err=%v", found, err)
	}
	if got.Checksum != rec.Checksum || got.SizeBytes != rec.SizeBytes {
		t.Fatalf("record mismatch: got %+v want %+v", got, rec)
	}

	if err := store.Delete("adk", "top.psf"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, found, _ := store.Get("adk", "top.psf"); found {
		t.Fatalf("record should be gone after Delete")
	}
}

func TestBoltStoreDeleteDataset(t *testing.T) {
	dir := t.TempDir()
	storeRaw, err := openBolt(filepath.Join(dir, "ledger.db"), normalizeOptions(Options{DataRoot: dir}))
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	store := storeRaw.(*boltStore)
	defer store.Close()

	rec := FileRecord{Checksum: "x", VerifiedAt: time.Now()}
	for _, key := range [][2]string{{"adk", "a.psf"}, {"adk", "b.dcd"}, {"ifabp", "c.pdb"}} {
		if err := store.Put(key[0], key[1], rec); err != nil {
			t.Fatalf("Put %v: %v", key, err)
		}
	}

	if err := store.DeleteDataset("adk"); err != nil {
		t.Fatalf("DeleteDataset: %v", err)
	}

	var remaining []string
	err = store.Each(func(dataset, filename string, _ FileRecord) error {
		remaining = append(remaining, dataset+"/"+filename)
		return nil
	})
	if err != nil {
		t.Fatalf("Each: %v", err)
	}
	if len(remaining) != 1 || remaining[0] != "ifabp/c.pdb" {
		t.Fatalf("unexpected remaining records: %v", remaining)
	}
}

func TestBoltStoreCleansOrphanedRecords(t *testing.T) {
	dir := t.TempDir()
	opts := Options{
		DataRoot:        dir,
		VerifyTTL:       time.Millisecond,
		CleanupInterval: time.Millisecond,
	}
	storeRaw, err := openBolt(filepath.Join(dir, "ledger.db"), opts)
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	store := storeRaw.(*boltStore)
	defer store.Close()

	// One record whose file exists, one orphan.
	if err := os.MkdirAll(filepath.Join(dir, "adk"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "adk", "kept.psf"), []byte("data"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	old := FileRecord{Checksum: "x", VerifiedAt: time.Now().Add(-time.Hour)}
	if err := store.Put("adk", "kept.psf", old); err != nil {
		t.Fatalf("Put kept: %v", err)
	}
	if err := store.Put("adk", "orphan.dcd", old); err != nil {
		t.Fatalf("Put orphan: %v", err)
	}

	// Force the cleanup cadence to fire on the next Get.
	store.lastCleanup.Store(time.Now().Add(-time.Minute).Unix())

	if _, _, err := store.Get("adk", "kept.psf"); err != nil {
		t.Fatalf("Get: %v", err)
	}

	if _, found, _ := store.Get("adk", "kept.psf"); !found {
		t.Fatalf("record with existing file should survive cleanup")
	}
	if _, found, _ := store.Get("adk", "orphan.dcd"); found {
		t.Fatalf("orphaned record should be dropped by cleanup")
	}
}

func TestNewStoreSupportsNoop(t *testing.T) {
	store, err := NewStore("none", "", Options{})
	if err != nil {
		t.Fatalf("NewStore none: %v", err)
	}
	if err := store.Put("x", "y", FileRecord{}); err != nil {
		t.Fatalf("noop store Put: %v", err)
	}
	if _, found, err := store.Get("x", "y"); err != nil || found {
		t.Fatalf("noop store Get: found=%v err=%v", found, err)
	}
}

func TestNewStoreRejectsUnknownType(t *testing.T) {
	if _, err := NewStore("redis", "", Options{}); err == nil {
		t.Fatalf("expected error for unsupported ledger type")
	}
}
