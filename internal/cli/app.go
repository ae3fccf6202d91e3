package cli

import (
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/deidaraiorek/vecsearch/internal/config"
	"github.com/deidaraiorek/vecsearch/internal/logger"
	"github.com/deidaraiorek/vecsearch/internal/metrics"
	"github.com/deidaraiorek/vecsearch/internal/search"
	"github.com/deidaraiorek/vecsearch/internal/storage"
	"github.com/deidaraiorek/vecsearch/internal/textprocessor"
)

// app holds what a command needs, built from config and global flags.
type app struct {
	cfg       *config.Config
	logger    *zap.Logger
	db        *storage.IndexDB
	metrics   *metrics.Metrics
	processor *textprocessor.TextProcessor
}

func loadApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if dbPath != "" {
		cfg.Database.Path = dbPath
	}

	level := cfg.Logging.Level
	if verbose {
		level = "debug"
	}
	log, err := logger.NewLogger(cfg.Logging.Env, level)
	if err != nil {
		return nil, err
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New(nil)
	}

	return &app{
		cfg:       cfg,
		logger:    log,
		metrics:   m,
		processor: textprocessor.NewTextProcessor(cfg.Corpus.StopWords...),
	}, nil
}

// openIndex opens the index database, creating the schema if it is missing.
func (a *app) openIndex(cmd *cobra.Command) error {
	db, err := storage.NewIndexDB(a.cfg.Database.Path)
	if err != nil {
		return err
	}
	a.db = db
	a.logger.Debug("opened index",
		zap.String("command", cmd.Name()),
		zap.String("path", db.Path()),
	)
	return nil
}

func (a *app) engine(batched bool) *search.Engine {
	return search.NewEngine(a.db,
		search.WithBatched(batched || a.cfg.Search.Batched),
		search.WithLogger(a.logger),
		search.WithMetrics(a.metrics),
	)
}

func (a *app) Close() error {
	// syncing stderr fails on some terminals
	_ = a.logger.Sync()
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

// withApp runs fn with a loaded app and an open index, closing both afterwards.
func withApp(cmd *cobra.Command, fn func(*app) error) (err error) {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, a.Close())
	}()
	if err := a.openIndex(cmd); err != nil {
		return err
	}
	return fn(a)
}
