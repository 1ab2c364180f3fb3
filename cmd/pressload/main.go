package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"go.uber.org/zap"

	"press-transcripts/pkg/config"
	"press-transcripts/pkg/db"
	"press-transcripts/pkg/filter"
	"press-transcripts/pkg/loader"
	"press-transcripts/pkg/lock"
	"press-transcripts/pkg/logging"
	"press-transcripts/pkg/parser"
	"press-transcripts/pkg/replication"
	"press-transcripts/pkg/speaker"
	"press-transcripts/pkg/worker"
)

func main() {
	var (
		configPath = flag.String("config", "", "YAML config file (optional)")
		category   = flag.String("category", "", "Category slug of the loaded conferences (overrides config)")
		workers    = flag.Int("workers", 0, "Number of parallel workers (overrides config)")
		dryRun     = flag.Bool("dry-run", false, "Parse documents without writing to the database")
		dumpDir    = flag.String("dump-dir", "", "Directory receiving failed documents and their body text (overrides config)")
		force      = flag.Bool("force", false, "Reload documents that were loaded before")
		recursive  = flag.Bool("recursive", false, "Scan directories recursively")
		publish    = flag.Bool("publish", false, "Publish loaded conferences to MongoDB (requires mongo.uri)")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <dir|file.html|list.txt>...\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *category != "" {
		cfg.Loader.Category = *category
	}
	if *workers > 0 {
		cfg.Loader.Workers = *workers
	}
	if *dumpDir != "" {
		cfg.Loader.DumpDir = *dumpDir
	}
	if *publish {
		cfg.Mongo.Enabled = true
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, flag.Args(), *dryRun, *force, *recursive, logger); err != nil {
		logger.Fatal("press load failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, args []string, dryRun, force, recursive bool, logger *zap.Logger) error {
	start := time.Now()

	sqlClient := db.NewSQLClient(cfg.Database.SQLConfig())
	if err := sqlClient.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer sqlClient.Close()

	store := db.NewStore(sqlClient, logger)
	if err := store.Migrate(ctx); err != nil {
		return err
	}

	sources, err := parser.ParseAll(args, recursive)
	if err != nil {
		return err
	}
	filters := []filter.Filter{filter.NewExtensionFilter(".html", ".htm")}
	if !force && !dryRun {
		filters = append(filters, filter.NewAlreadyLoadedFilter(store))
	}
	sources, err = filter.FilterSources(ctx, sources, filters...)
	if err != nil {
		return err
	}
	logger.Info("documents to process", zap.Int("count", len(sources)), zap.Bool("dry_run", dryRun))
	if len(sources) == 0 {
		return nil
	}

	loc, err := cfg.Loader.Location()
	if err != nil {
		return err
	}
	locker, closeLocker, err := newLocker(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeLocker()

	l := loader.New(store,
		loader.WithLocker(locker),
		loader.WithOrganizationCache(speaker.NewOrganizationCache()),
		loader.WithJurisdiction(cfg.Loader.Jurisdiction),
		loader.WithTitlePrefix(cfg.Loader.TitlePrefix),
		loader.WithLocation(loc),
		loader.WithLogger(logger))

	w := worker.NewWorker(l, worker.Options{
		Category: cfg.Loader.Category,
		DumpDir:  cfg.Loader.DumpDir,
		DryRun:   dryRun,
		Logger:   logger,
	})
	summary, err := worker.NewManager(cfg.Loader.Workers, w, logger).ProcessSources(ctx, sources)
	if err != nil {
		return err
	}

	if cfg.Mongo.Enabled && !dryRun && len(summary.Reports) > 0 {
		if err := publishReports(ctx, cfg, store, summary.Reports, logger); err != nil {
			return err
		}
	}

	logger.Info("done",
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed),
		zap.Duration("duration", time.Since(start)))
	return nil
}

func newLocker(ctx context.Context, cfg *config.Config, logger *zap.Logger) (lock.Locker, func(), error) {
	if cfg.Lock.Backend != "redis" {
		return lock.NewKeyedMutex(), func() {}, nil
	}
	rdb, err := lock.Connect(ctx, cfg.Redis.URL)
	if err != nil {
		return nil, nil, err
	}
	locker := lock.NewRedisLocker(rdb, lock.WithTTL(cfg.Lock.TTL), lock.WithLogger(logger))
	return locker, func() { _ = rdb.Close() }, nil
}

func publishReports(ctx context.Context, cfg *config.Config, store *db.Store, reports []*loader.Report, logger *zap.Logger) error {
	mongoClient := db.NewMongoClient(cfg.Mongo.URI, cfg.Mongo.Database, cfg.Mongo.Collection)
	if err := mongoClient.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	defer mongoClient.Close(context.Background())

	publisher, err := replication.NewPublisher(replication.Config{
		Source: store,
		Sink:   mongoClient,
		Logger: logger,
	})
	if err != nil {
		return err
	}

	ids := make([]string, 0, len(reports))
	for _, r := range reports {
		ids = append(ids, r.ConferenceID)
	}
	_, err = publisher.Publish(ctx, ids...)
	return err
}
