package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/robinvdvleuten/beanledger/config"
	"github.com/robinvdvleuten/beanledger/ledger"
	"github.com/robinvdvleuten/beanledger/loader"
	"github.com/robinvdvleuten/beanledger/output"
	"github.com/robinvdvleuten/beanledger/quote"
	"github.com/robinvdvleuten/beanledger/store/bolt"
	"github.com/robinvdvleuten/beanledger/store/sqlite"
	"github.com/robinvdvleuten/beanledger/telemetry"
)

// Config resolves the configuration from the environment and applies flag
// overrides.
func (g *Globals) Config() (*config.Config, error) {
	cfg, err := config.Load(g.EnvFile)
	if err != nil {
		return nil, err
	}

	if g.Store != "" {
		cfg.Store = g.Store
	}
	if g.DB != "" {
		cfg.DB = g.DB
	}
	if g.LogLevel != "" {
		cfg.LogLevel = g.LogLevel
	}
	if g.Concurrency > 0 {
		cfg.Concurrency = g.Concurrency
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// session holds everything a command needs to process a ledger file.
type session struct {
	cfg    *config.Config
	logger *zap.Logger
	store  ledger.Store
	ledger *ledger.Ledger

	collector telemetry.Collector
	rootTimer telemetry.Timer
}

func (g *Globals) openSession(name string, file *FileOrStdin) (*session, context.Context, error) {
	cfg, err := g.Config()
	if err != nil {
		return nil, nil, err
	}

	logger, err := config.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, nil, err
	}

	store, err := openStore(cfg, g.Force)
	if err != nil {
		return nil, nil, err
	}

	documentRoot := cfg.DocumentRoot
	if documentRoot == "" && !file.IsStdin() {
		documentRoot = filepath.Dir(file.GetAbsoluteFilename())
	}

	s := &session{
		cfg:    cfg,
		logger: logger,
		store:  store,
		ledger: ledger.New(store,
			ledger.WithLogger(logger),
			ledger.WithQuoter(quote.New(quote.WithTimeout(cfg.QuoteTimeout), quote.WithLogger(logger))),
			ledger.WithDocumentRoot(documentRoot),
			ledger.WithConcurrency(cfg.Concurrency),
		),
	}

	ctx := context.Background()
	if g.Telemetry {
		s.collector = telemetry.NewTimingCollector()
		ctx = telemetry.WithCollector(ctx, s.collector)

		s.rootTimer = s.collector.Start(fmt.Sprintf("%s %s", name, filepath.Base(file.Filename)))
		ctx = telemetry.WithRootTimer(ctx, s.rootTimer)
	}

	logger.Debug("session opened",
		zap.String("store", cfg.Store),
		zap.String("file", file.Filename),
		zap.Int("concurrency", cfg.Concurrency))

	return s, ctx, nil
}

// process loads the file and applies its directives to the ledger.
func (s *session) process(ctx context.Context, file *FileOrStdin) (*loader.Result, error) {
	result, err := file.Load(ctx, loader.New(loader.WithFollowIncludes()))
	if err != nil {
		return nil, err
	}
	if err := s.ledger.Process(ctx, result.Directives); err != nil {
		return result, err
	}
	return result, nil
}

// reportTelemetry prints the timing tree when telemetry is enabled.
func (s *session) reportTelemetry(w io.Writer) {
	if s.collector == nil {
		return
	}
	s.rootTimer.End()
	_, _ = fmt.Fprintln(w)
	s.collector.Report(w, output.NewStyles(w))
}

func (s *session) Close() error {
	_ = s.logger.Sync()
	return s.store.Close()
}

// openStore creates the configured store. File-backed stores always start
// empty; an existing database is only replaced after confirmation.
func openStore(cfg *config.Config, force bool) (ledger.Store, error) {
	if cfg.Store == config.StoreMemory {
		return ledger.NewMemoryStore(), nil
	}

	if _, err := os.Stat(cfg.DB); err == nil {
		if !force {
			ok, err := promptYesNo(fmt.Sprintf("Database %s already exists. Overwrite it?", cfg.DB))
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, fmt.Errorf("database %s already exists (use --force to overwrite)", cfg.DB)
			}
		}
		if err := removeDatabase(cfg.DB); err != nil {
			return nil, err
		}
	}

	switch cfg.Store {
	case config.StoreSQLite:
		return sqlite.New(cfg.DB)
	case config.StoreBolt:
		return bolt.New(cfg.DB)
	}
	return nil, fmt.Errorf("unknown store %q", cfg.Store)
}

// removeDatabase deletes a database file and its SQLite side files.
func removeDatabase(path string) error {
	for _, p := range []string{path, path + "-wal", path + "-shm"} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove %s: %w", p, err)
		}
	}
	return nil
}
