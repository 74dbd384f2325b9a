package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cognicore/qaprep/internal/logging"
	"github.com/cognicore/qaprep/pkg/qaprep"
	"github.com/cognicore/qaprep/pkg/qaprep/assemble"
	"github.com/cognicore/qaprep/pkg/qaprep/config"
	"github.com/cognicore/qaprep/pkg/qaprep/features"
	"github.com/cognicore/qaprep/pkg/qaprep/metrics"
	"github.com/cognicore/qaprep/pkg/qaprep/store"
	"github.com/cognicore/qaprep/pkg/qaprep/store/memstore"
	"github.com/cognicore/qaprep/pkg/qaprep/store/sqlite"
)

// app holds the components built from configuration for one invocation.
type app struct {
	configPath string
	logLevel   string
	xlsx       bool

	cfg      *config.Config
	logger   *zap.Logger
	recorder *metrics.Recorder
	prep     *qaprep.Prep
}

// newRootCmd builds the command tree over a. The caller runs a.teardown
// after Execute, whether or not the command failed.
func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "qaprep",
		Short:         "Prepare question-answer datasets for model training",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd.Context())
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default: ./qaprep.yaml or ./config/qaprep.yaml)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level override (debug, info, warn, error)")

	root.AddCommand(
		newPreprocessCmd(a),
		newDropNullsCmd(a),
		newFeaturesCmd(a),
		newRunCmd(a),
		newRunsCmd(a),
	)
	return root
}

func (a *app) setup(ctx context.Context) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	a.cfg = cfg

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	if err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	a.logger = logger

	loader := config.NewLoader(cfg)
	comp, err := loader.Load()
	if err != nil {
		return err
	}

	st, err := openStore(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("open run store: %w", err)
	}

	a.recorder, err = metrics.NewRecorder(nil)
	if err != nil {
		st.Close()
		return err
	}

	asm := assemble.New(comp.Pipeline, features.NewExtractor(comp.Features, logger), nil, logger)
	a.prep = qaprep.New(qaprep.Options{
		Store:      st,
		Assembler:  asm,
		Recorder:   a.recorder,
		Logger:     logger,
		ExportXLSX: cfg.Features.XLSX || a.xlsx,
	})
	return nil
}

// teardown writes the metrics textfile and closes the run store. It is
// safe to call when setup failed or more than once.
func (a *app) teardown() error {
	if a.prep == nil {
		return nil
	}
	prep := a.prep
	a.prep = nil
	defer a.logger.Sync()

	if path := a.cfg.Metrics.Textfile; path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			a.logger.Warn("failed to create metrics directory", zap.Error(err))
		} else if err := a.recorder.WriteTextfile(path); err != nil {
			a.logger.Warn("failed to write metrics textfile", zap.Error(err))
		}
	}
	return prep.Close()
}

func openStore(ctx context.Context, cfg config.StoreConfig) (store.Store, error) {
	switch cfg.Driver {
	case "memory":
		return memstore.New(), nil
	default:
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
		return sqlite.OpenSQLite(ctx, cfg.Path)
	}
}
