package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/mdverse/mddata/internal/config"
	"github.com/mdverse/mddata/internal/domain"
	"github.com/mdverse/mddata/internal/fetch"
	"github.com/mdverse/mddata/internal/logger"
	"github.com/mdverse/mddata/internal/storage"
	"github.com/mdverse/mddata/pkg/httpclient"
	"github.com/mdverse/mddata/pkg/notify"
	"github.com/mdverse/mddata/pkg/registry"
)

// App wires the dataset catalog, the fetch ledger, the download service, and
// the optional notifier fanout behind the operations the CLI exposes.
type App struct {
	cfg      *config.Config
	catalog  *registry.Registry
	store    storage.Store
	fetchSvc *fetch.Service
	fanout   *notify.Fanout
	log      logger.Logger
}

// New builds the application runtime from config.
func New(ctx context.Context, cfg *config.Config, log logger.Logger) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = &logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if err := os.MkdirAll(cfg.DataHome, 0o755); err != nil {
		return nil, fmt.Errorf("create data home: %w", err)
	}

	catalog := registry.New()
	if cfg.RegistryFile != "" {
		if err := catalog.Load(cfg.RegistryFile); err != nil {
			return nil, fmt.Errorf("load dataset registry: %w", err)
		}
	}
	ids := make([]string, 0)
	for _, d := range catalog.All() {
		ids = append(ids, d.ID)
	}
	log.InfoObj("dataset catalog loaded", "catalog_meta", map[string]any{
		"count": len(ids),
		"ids":   ids,
	})

	storeOpts := storage.Options{
		DataRoot:        cfg.DataHome,
		VerifyTTL:       cfg.VerifyTTL,
		CleanupInterval: cfg.LedgerCleanupInterval,
	}
	store, err := storage.NewStore("bbolt", cfg.LedgerPath(), storeOpts)
	if err != nil {
		return nil, fmt.Errorf("init ledger: %w", err)
	}
	log.InfoObj("ledger initialized", "ledger_config", map[string]any{
		"path":               cfg.LedgerPath(),
		"verify_ttl_seconds": int(cfg.VerifyTTL.Seconds()),
	})

	downloader := httpclient.NewRestyClient(cfg.HTTPTimeout)
	fetchSvc, err := fetch.NewService(cfg.DataHome, downloader, store, fetch.ServiceOptions{
		Retries:   cfg.DownloadRetries,
		Backoff:   cfg.RetryBackoff,
		VerifyTTL: cfg.VerifyTTL,
	}, log)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("init fetch service: %w", err)
	}

	fanout, err := buildFanout(ctx, cfg, log)
	if err != nil {
		store.Close()
		return nil, err
	}

	return &App{
		cfg:      cfg,
		catalog:  catalog,
		store:    store,
		fetchSvc: fetchSvc,
		fanout:   fanout,
		log:      log,
	}, nil
}

// buildFanout assembles the notifier fanout; notifications stay disabled
// unless a notifiers file is configured.
func buildFanout(ctx context.Context, cfg *config.Config, log logger.Logger) (*notify.Fanout, error) {
	if cfg.NotifiersFile == "" {
		return notify.NewFanout(nil), nil
	}

	notifierReg, err := notify.LoadRegistry(cfg.NotifiersFile)
	if err != nil {
		return nil, fmt.Errorf("load notifiers registry: %w", err)
	}

	enabled := notifierReg.Enabled()
	sinks, err := notify.BuildAll(ctx, notify.DefaultRegistry(), enabled, log)
	if err != nil {
		return nil, fmt.Errorf("build notifiers: %w", err)
	}

	summaries := make([]map[string]string, 0, len(enabled))
	for _, nc := range enabled {
		summaries = append(summaries, map[string]string{"id": nc.ID, "type": nc.Type})
	}
	log.InfoObj("notifiers registry loaded", "notifiers_meta", map[string]any{
		"count":     len(summaries),
		"notifiers": summaries,
	})

	return notify.NewFanout(sinks), nil
}

// Home returns the data home directory.
func (a *App) Home() string { return a.cfg.DataHome }

// Datasets returns the catalog sorted by id.
func (a *App) Datasets() []domain.Dataset { return a.catalog.All() }

// Dataset resolves a dataset definition by id.
func (a *App) Dataset(id string) (domain.Dataset, error) {
	ds, ok := a.catalog.ByID(id)
	if !ok {
		return domain.Dataset{}, fmt.Errorf("unknown dataset %q", id)
	}
	return ds, nil
}

// Fetch materializes the named datasets locally and notifies configured
// sinks about each completed dataset.
func (a *App) Fetch(ctx context.Context, ids []string, opts fetch.Options) ([]domain.LocalDataset, error) {
	list, err := a.resolve(ids)
	if err != nil {
		return nil, err
	}

	out := make([]domain.LocalDataset, 0, len(list))
	errs := make([]error, 0)

	for _, ds := range list {
		start := time.Now()
		local, err := a.fetchSvc.Dataset(ctx, ds, opts)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, local)
		a.notifyFetched(ctx, ds, local, time.Since(start))
	}

	if len(errs) > 0 {
		return out, errors.Join(errs...)
	}
	return out, nil
}

// FetchAll fetches every dataset in the catalog.
func (a *App) FetchAll(ctx context.Context, opts fetch.Options) ([]domain.LocalDataset, error) {
	ids := make([]string, 0)
	for _, d := range a.catalog.All() {
		ids = append(ids, d.ID)
	}
	return a.Fetch(ctx, ids, opts)
}

// Verify re-hashes cached files for the named datasets.
func (a *App) Verify(ctx context.Context, ids []string) (map[string][]domain.FileStatus, error) {
	list, err := a.resolve(ids)
	if err != nil {
		return nil, err
	}

	out := make(map[string][]domain.FileStatus, len(list))
	errs := make([]error, 0)
	for _, ds := range list {
		statuses, err := a.fetchSvc.Verify(ctx, ds)
		if err != nil {
			errs = append(errs, fmt.Errorf("verify %s: %w", ds.ID, err))
			continue
		}
		out[ds.ID] = statuses
	}

	if len(errs) > 0 {
		return out, errors.Join(errs...)
	}
	return out, nil
}

// Status reports cache state for the named datasets (all when ids is empty)
// without hashing.
func (a *App) Status(ids []string) (map[string][]domain.FileStatus, error) {
	var list []domain.Dataset
	if len(ids) == 0 {
		list = a.catalog.All()
	} else {
		var err error
		list, err = a.resolve(ids)
		if err != nil {
			return nil, err
		}
	}

	out := make(map[string][]domain.FileStatus, len(list))
	for _, ds := range list {
		statuses, err := a.fetchSvc.Status(ds)
		if err != nil {
			return nil, fmt.Errorf("status %s: %w", ds.ID, err)
		}
		out[ds.ID] = statuses
	}
	return out, nil
}

// Clear removes cached data and ledger records for the named datasets.
func (a *App) Clear(ids []string) error {
	list, err := a.resolve(ids)
	if err != nil {
		return err
	}

	errs := make([]error, 0)
	for _, ds := range list {
		if err := a.fetchSvc.Clear(ds.ID); err != nil {
			errs = append(errs, fmt.Errorf("clear %s: %w", ds.ID, err))
			continue
		}
		a.log.InfoObj("dataset cleared", "clear_meta", map[string]any{"dataset_id": ds.ID})
	}
	return errors.Join(errs...)
}

// ClearAll removes every cached dataset and its ledger records. The ledger
// file itself is kept so an open handle stays valid.
func (a *App) ClearAll() error {
	errs := make([]error, 0)
	for _, ds := range a.catalog.All() {
		if err := a.fetchSvc.Clear(ds.ID); err != nil {
			errs = append(errs, fmt.Errorf("clear %s: %w", ds.ID, err))
		}
	}
	// Directories for datasets no longer in the catalog still count as cache
	// content; sweep anything left under the home except the ledger.
	entries, err := os.ReadDir(a.cfg.DataHome)
	if err != nil {
		errs = append(errs, fmt.Errorf("read data home: %w", err))
		return errors.Join(errs...)
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if err := a.fetchSvc.Clear(e.Name()); err != nil {
			errs = append(errs, fmt.Errorf("clear %s: %w", e.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// Close releases the ledger and any notifier client connections.
func (a *App) Close() error {
	if a == nil {
		return nil
	}
	errs := make([]error, 0, 2)
	if err := a.fanout.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close notifiers: %w", err))
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close ledger: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (a *App) resolve(ids []string) ([]domain.Dataset, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("no datasets named")
	}
	list := make([]domain.Dataset, 0, len(ids))
	for _, id := range ids {
		ds, err := a.Dataset(id)
		if err != nil {
			return nil, err
		}
		list = append(list, ds)
	}
	return list, nil
}

func (a *App) notifyFetched(ctx context.Context, ds domain.Dataset, local domain.LocalDataset, elapsed time.Duration) {
	if a.fanout.Size() == 0 {
		return
	}

	files := make([]notify.FileResult, 0, len(ds.Files))
	for _, f := range ds.Files {
		path := local.Files[f.Key]
		var size int64
		if info, err := os.Stat(path); err == nil {
			size = info.Size()
		}
		files = append(files, notify.FileResult{
			Key:       f.Key,
			Filename:  f.Filename,
			Path:      path,
			SizeBytes: size,
		})
	}

	evt := notify.NewEvent(ds.ID, ds.Name, files, elapsed)
	delivered, err := a.fanout.Notify(ctx, evt)
	if err != nil {
		a.log.WarnObj("fetch notification failed", "notify_error", map[string]any{
			"dataset_id": ds.ID,
			"delivered":  delivered,
			"error":      err.Error(),
		})
		return
	}
	a.log.DebugObj("fetch notification delivered", "notify_meta", map[string]any{
		"dataset_id": ds.ID,
		"delivered":  delivered,
	})
}
