// Command syncd runs catalog synchronization for every configured
// supplier: fetch the newest price file over FTP, archive it, import it
// against the current catalog and persist the result.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"catalog_sync_backend/internal/apiclient"
	"catalog_sync_backend/internal/archive"
	"catalog_sync_backend/internal/catalog"
	"catalog_sync_backend/internal/catalogsync"
	"catalog_sync_backend/internal/credentials"
	"catalog_sync_backend/internal/events"
	"catalog_sync_backend/internal/ftpfetch"
	"catalog_sync_backend/internal/importer"
	"catalog_sync_backend/internal/notify"
	"catalog_sync_backend/internal/pricecache"
	"catalog_sync_backend/internal/supplier"
	"catalog_sync_backend/platform/apperr"
	"catalog_sync_backend/platform/config"
	"catalog_sync_backend/platform/db"
	"catalog_sync_backend/platform/logger"
	"catalog_sync_backend/platform/validator"
)

func main() {
	var (
		only   = flag.String("supplier", "", "sync a single supplier code")
		file   = flag.String("file", "", "import a local file instead of fetching over FTP")
		dryRun = flag.Bool("dry-run", false, "parse and validate without persisting")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log, *only, *file, *dryRun); err != nil {
		log.Error("sync run failed", "error", err.Error())
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *logger.Logger, only, localFile string, dryRun bool) error {
	if err := withRetry(ctx, log, "run migrations", func() error {
		return db.RunMigrations(ctx, cfg.DatabaseURL)
	}); err != nil {
		return err
	}

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisURL})
	defer redisClient.Close()

	suppliers, err := config.LoadSuppliers(cfg.SuppliersFile)
	if err != nil {
		return err
	}
	v := validator.New()
	for _, sc := range suppliers.Suppliers {
		if err := v.Struct(sc); err != nil {
			return fmt.Errorf("supplier %s configuration invalid: %w", sc.Code, err)
		}
	}

	bus := events.NewInMemoryBus(log)
	if cfg.ReportEmailEnabled {
		notify.NewReporter(notify.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.ReportFromAddress,
			To:       cfg.ReportToAddresses,
		}, log).Subscribe(bus)
	}

	var archiver *archive.Archiver
	if cfg.ArchiveEnabled {
		archiver, err = archive.New(cfg.MinIOEndpoint, cfg.MinIOAccessKey, cfg.MinIOSecretKey,
			cfg.MinIOBucket, cfg.MinIOUseSSL, log)
		if err != nil {
			return err
		}
		if err := archiver.EnsureBucket(ctx); err != nil {
			log.Warn("archive unavailable, continuing without", "error", err.Error())
			archiver = nil
		}
	}

	engine := importer.NewEngine(log)
	credStore := credentials.NewPostgresStore(pool, cfg.CredentialKey, log)
	priceCache := pricecache.New(redisClient, cfg.PriceCacheTTL, log)
	runner := &syncRunner{
		log:     log,
		service: catalogsync.New(supplier.NewDefaultRegistry(engine, log), engine, bus, log),
		repo:    catalog.NewRepository(pool, log),
		creds:   credStore,
		fetcher: ftpfetch.NewFetcher(log, ftpfetch.WithTimeout(cfg.FTPTimeout), ftpfetch.WithMaxRetries(cfg.FTPMaxRetries)),
		api: apiclient.NewFactory(credStore, priceCache, log,
			apiclient.WithTimeout(cfg.HTTPTimeout), apiclient.WithMaxAttempts(cfg.HTTPRetryAttempts)),
		archiver:  archiver,
		dryRun:    dryRun,
		localFile: localFile,
	}

	ran := 0
	for _, sc := range suppliers.Suppliers {
		if only != "" && !strings.EqualFold(sc.Code, only) {
			continue
		}
		ran++
		if err := runner.syncOne(ctx, sc); err != nil {
			log.SupplierError(sc.Code, "syncd.run", err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	if only != "" && ran == 0 {
		return fmt.Errorf("supplier %q is not configured in %s", only, cfg.SuppliersFile)
	}

	log.Info("sync run finished", "suppliers", ran)
	return nil
}

// catalogStore is the slice of the catalog repository the runner needs.
type catalogStore interface {
	Snapshot(ctx context.Context, supplierID uuid.UUID) (catalogsync.Snapshot, error)
	CreateBatch(ctx context.Context, batchID, supplierID uuid.UUID, supplierCode, sourceFile string) error
	FinishBatch(ctx context.Context, result catalogsync.ImportResult) error
	UpsertProducts(ctx context.Context, supplierID uuid.UUID, rows []catalogsync.ValidatedRow) error
}

type syncRunner struct {
	log       *logger.Logger
	service   *catalogsync.Service
	repo      catalogStore
	creds     credentials.Store
	fetcher   *ftpfetch.Fetcher
	api       *apiclient.Factory
	archiver  *archive.Archiver
	dryRun    bool
	localFile string
}

func (r *syncRunner) syncOne(ctx context.Context, sc config.SupplierConfig) error {
	log := r.log.WithSupplier(sc.Code)

	supplierID, err := uuid.Parse(sc.SupplierID)
	if err != nil {
		return fmt.Errorf("supplier %s has no valid supplier_id", sc.Code)
	}

	sourceName, data, err := r.fetchFile(ctx, sc, supplierID)
	if err != nil {
		return err
	}
	if data == nil {
		log.Info("no price file to import")
		return nil
	}

	if r.archiver != nil && !r.dryRun {
		if object, err := r.archiver.StorePriceFile(ctx, sc.Code, sourceName, data); err == nil {
			sourceName = object
		}
	}

	// Dry runs read the snapshot too, so the preview classifies rows and
	// detects price changes exactly like the real import.
	snapshot, err := r.repo.Snapshot(ctx, supplierID)
	if err != nil {
		return err
	}

	params := catalogsync.RunParams{
		SupplierCode: sc.Code,
		Data:         data,
		Override:     overrideFromSupplier(sc),
		Snapshot:     snapshot,
		DryRun:       r.dryRun,
		SourceFile:   sourceName,
	}

	if !r.dryRun {
		params.BatchID = uuid.New()
		if err := r.repo.CreateBatch(ctx, params.BatchID, supplierID, sc.Code, sourceName); err != nil {
			return err
		}
		result, runErr := r.runAndPersist(ctx, supplierID, params)
		if finishErr := r.repo.FinishBatch(ctx, result); finishErr != nil {
			log.DatabaseError("finish batch", finishErr)
		}
		if runErr == nil {
			r.afterImport(ctx, supplierID, sc)
		}
		return runErr
	}

	result, err := r.service.RunImport(ctx, params)
	if err != nil {
		return err
	}
	log.Info("dry run finished",
		"total_rows", result.TotalRows,
		"new_products", result.NewProducts,
		"updated_products", result.UpdatedProducts,
		"skipped_rows", result.SkippedRows,
		"price_changes", len(result.PriceChanges),
	)
	return nil
}

// afterImport runs the non-critical follow-ups of a successful sync.
func (r *syncRunner) afterImport(ctx context.Context, supplierID uuid.UUID, sc config.SupplierConfig) {
	if sc.API != nil && !r.dryRun {
		r.verifyAPI(ctx, supplierID, sc)
	}
}

// runAndPersist executes the import and writes the surviving rows. The
// pre-created batch ID rides on params, so the database row and the
// published events cite the same batch.
func (r *syncRunner) runAndPersist(ctx context.Context, supplierID uuid.UUID, params catalogsync.RunParams) (catalogsync.ImportResult, error) {
	result, err := r.service.RunImport(ctx, params)
	if err != nil {
		result.Status = catalogsync.StatusFailed
		return result, err
	}

	if err := r.repo.UpsertProducts(ctx, supplierID, result.Rows); err != nil {
		result.Status = catalogsync.StatusFailed
		return result, err
	}
	return result, nil
}

// fetchFile resolves the price file bytes: a local file when --file is
// given, otherwise the newest matching file from the supplier's FTP.
func (r *syncRunner) fetchFile(ctx context.Context, sc config.SupplierConfig, supplierID uuid.UUID) (string, []byte, error) {
	if r.localFile != "" {
		data, err := os.ReadFile(r.localFile)
		if err != nil {
			return "", nil, err
		}
		return r.localFile, data, nil
	}

	if sc.FTP == nil {
		return "", nil, nil
	}

	creds, err := r.creds.LoadDecrypted(ctx, supplierID, credentials.TypeFTP)
	if err != nil {
		if errors.Is(err, credentials.ErrNoCredentials) {
			return "", nil, fmt.Errorf("supplier %s has ftp configured but no credentials", sc.Code)
		}
		return "", nil, err
	}

	file, data, err := r.fetcher.DownloadLatest(ctx, creds, sc.FTP.RemoteDir, sc.FTP.Pattern)
	if err != nil {
		r.recordTest(ctx, supplierID, err)
		return "", nil, err
	}
	r.recordTest(ctx, supplierID, nil)

	if file == nil {
		return "", nil, nil
	}
	return file.Name, data, nil
}

func (r *syncRunner) recordTest(ctx context.Context, supplierID uuid.UUID, cause error) {
	status, message := statusFor(cause)
	_ = r.creds.RecordTestResult(ctx, supplierID, credentials.TypeFTP, status, message)
}

func statusFor(err error) (string, string) {
	switch {
	case err == nil:
		return credentials.StatusSuccess, ""
	case apperr.IsTimeout(err):
		return credentials.StatusTimeout, err.Error()
	case apperr.IsAuth(err):
		return credentials.StatusInvalidCredentials, err.Error()
	default:
		return credentials.StatusFailed, err.Error()
	}
}

// overrideFromSupplier translates the YAML supplier settings into an
// import config override. Numeric mapping values are column indexes,
// everything else is a header name.
func overrideFromSupplier(sc config.SupplierConfig) *importer.Config {
	override := importer.Config{Encoding: sc.Encoding, SkipHeaderRows: sc.SkipRows}
	if sc.Delimiter != "" {
		override.Delimiter = []rune(sc.Delimiter)[0]
	}
	if len(sc.Mappings) > 0 {
		override.Mappings = make(map[string]importer.ColumnRef, len(sc.Mappings))
		for field, column := range sc.Mappings {
			if index, err := strconv.Atoi(column); err == nil {
				override.Mappings[field] = importer.ByIndex(index)
			} else {
				override.Mappings[field] = importer.ByName(column)
			}
		}
	}
	if override.Encoding == "" && override.Delimiter == 0 && override.SkipHeaderRows == 0 && override.Mappings == nil {
		return nil
	}
	return &override
}

// verifyAPI probes the supplier's API with the stored credentials and
// records the outcome for operator diagnosis.
func (r *syncRunner) verifyAPI(ctx context.Context, supplierID uuid.UUID, sc config.SupplierConfig) {
	client, err := r.api.Get(ctx, supplierID, sc.Code)
	if err != nil {
		if !errors.Is(err, credentials.ErrNoCredentials) {
			r.log.SupplierError(sc.Code, "syncd.verifyAPI", err)
		}
		return
	}

	err = client.TestConnection(ctx)
	if err != nil {
		r.log.SupplierError(sc.Code, "syncd.verifyAPI", err)
	}
	status, message := statusFor(err)
	_ = r.creds.RecordTestResult(ctx, supplierID, credentials.TypeAPI, status, message)
}

// withRetry runs fn up to three times with a linear backoff. Used for
// startup steps that race service availability in containers.
func withRetry(ctx context.Context, log *logger.Logger, name string, fn func() error) error {
	var err error
	for attempt := 1; attempt <= 3; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		log.RetryAttempt(name, attempt, int64(attempt)*1000, err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * time.Second):
		}
	}
	return err
}
