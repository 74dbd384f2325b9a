package qaprep

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cognicore/qaprep/pkg/qaprep/assemble"
	"github.com/cognicore/qaprep/pkg/qaprep/dataio"
	"github.com/cognicore/qaprep/pkg/qaprep/internalerr"
	"github.com/cognicore/qaprep/pkg/qaprep/metrics"
	"github.com/cognicore/qaprep/pkg/qaprep/store"
	"github.com/cognicore/qaprep/pkg/qaprep/store/memstore"
	"github.com/cognicore/qaprep/pkg/qaprep/table"
	"github.com/cognicore/qaprep/pkg/qaprep/timing"
)

// Command names recorded in the run catalog
const (
	CommandPreprocess = "preprocess"
	CommandDropNulls  = "dropnulls"
	CommandFeatures   = "features"
	CommandRun        = "run"
)

// Prep is the file-level facade over the dataset pipeline
type Prep struct {
	store      store.Store
	assembler  *assemble.Assembler
	recorder   *metrics.Recorder
	logger     *zap.Logger
	exportXLSX bool
}

// Options configures a Prep instance
type Options struct {
	Store     store.Store
	Assembler *assemble.Assembler
	// Recorder is optional; when set every stage is exported as a metric.
	Recorder *metrics.Recorder
	Logger   *zap.Logger
	// ExportXLSX writes an .xlsx copy next to every features output.
	ExportXLSX bool
}

// Report summarizes one finished command
type Report struct {
	RunID   string
	Output  string
	Rows    int
	Dropped int
	Columns []string
}

// New creates a Prep instance with the given dependencies
func New(opts Options) *Prep {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Store == nil {
		opts.Store = memstore.New()
	}
	if opts.Assembler == nil {
		opts.Assembler = assemble.New(nil, nil, nil, opts.Logger)
	}
	return &Prep{
		store:      opts.Store,
		assembler:  opts.Assembler,
		recorder:   opts.Recorder,
		logger:     opts.Logger,
		exportXLSX: opts.ExportXLSX,
	}
}

// Close cleanly shuts down the run catalog
func (p *Prep) Close() error {
	return p.store.Close()
}

// Store returns the run catalog
func (p *Prep) Store() store.Store { return p.store }

// PreprocessFile loads raw records (or a CSV) and writes "<col>_clean"
// columns for cols. Empty cols cleans every input column.
func (p *Prep) PreprocessFile(ctx context.Context, in, out string, cols []string) (Report, error) {
	return p.execute(ctx, CommandPreprocess, in, out, func(asm *assemble.Assembler, tbl *table.Table, rep *Report) (*table.Table, error) {
		if len(cols) == 0 {
			cols = tbl.Columns()
		}
		return asm.Preprocess(tbl, cols, assemble.Options{})
	})
}

// DropNullsFile removes rows with a null in any of cols and coerces those
// columns to strings. Empty cols selects every "*_clean" column.
func (p *Prep) DropNullsFile(ctx context.Context, in, out string, cols []string) (Report, error) {
	return p.execute(ctx, CommandDropNulls, in, out, func(asm *assemble.Assembler, tbl *table.Table, rep *Report) (*table.Table, error) {
		if len(cols) == 0 {
			cols = cleanColumns(tbl)
		}
		if len(cols) == 0 {
			return nil, fmt.Errorf("%w: no *%s columns to check", internalerr.ErrSchema, assemble.CleanSuffix)
		}
		dropped, err := tbl.DropNulls(cols...)
		if err != nil {
			return nil, err
		}
		rep.Dropped = dropped
		asm.Logger.Info("dropped rows with missing text",
			zap.Strings("columns", cols),
			zap.Int("dropped", dropped),
			zap.Int("remaining", tbl.Len()))
		if err := tbl.CoerceStrings(cols...); err != nil {
			return nil, err
		}
		return tbl, nil
	})
}

// FeaturesFile adds "<col>_<feature>" columns for the cleaned columns
// cols, e.g. "question_clean". Empty cols selects every "*_clean" column.
func (p *Prep) FeaturesFile(ctx context.Context, in, out string, cols []string) (Report, error) {
	return p.execute(ctx, CommandFeatures, in, out, func(asm *assemble.Assembler, tbl *table.Table, rep *Report) (*table.Table, error) {
		if len(cols) == 0 {
			cols = cleanColumns(tbl)
		}
		return asm.Featurize(tbl, cols, assemble.Options{})
	})
}

// RunFile runs preprocessing and feature extraction for the source
// columns cols in one pass.
func (p *Prep) RunFile(ctx context.Context, in, out string, cols []string) (Report, error) {
	return p.execute(ctx, CommandRun, in, out, func(asm *assemble.Assembler, tbl *table.Table, rep *Report) (*table.Table, error) {
		return asm.Run(tbl, cols, assemble.Options{})
	})
}

type transform func(asm *assemble.Assembler, tbl *table.Table, rep *Report) (*table.Table, error)

// execute validates the input, records the run, applies fn and persists
// the result only when every stage succeeded.
func (p *Prep) execute(ctx context.Context, command, in, out string, fn transform) (Report, error) {
	if err := dataio.ValidateFileExists(in); err != nil {
		return Report{}, err
	}
	if err := ctx.Err(); err != nil {
		return Report{}, err
	}

	run, err := p.store.RecordRun(ctx, store.Run{Command: command, Input: in, Output: out})
	if err != nil {
		return Report{}, fmt.Errorf("record run: %w", err)
	}
	logger := p.logger.With(zap.String("run", run.ID), zap.String("command", command))
	logger.Info("run started", zap.String("input", in), zap.String("output", out))

	obs := timing.Multi(timing.Log(logger), p.stageObserver(ctx, run.ID, logger))
	if p.recorder != nil {
		obs = timing.Multi(obs, p.recorder)
	}
	asm := *p.assembler
	asm.Observer = obs
	asm.Logger = logger

	rep := Report{RunID: run.ID, Output: out}
	tbl, err := p.pipeline(ctx, &asm, obs, in, out, fn, &rep)

	res := store.Result{Err: err}
	if err == nil {
		rep.Rows = tbl.Len()
		rep.Columns = tbl.Columns()
		res.Rows, res.Columns = rep.Rows, rep.Columns
		if p.recorder != nil {
			p.recorder.AddRows(command, rep.Rows)
		}
	}
	if ferr := p.store.FinishRun(context.WithoutCancel(ctx), run.ID, res); ferr != nil {
		logger.Warn("failed to finish run", zap.Error(ferr))
	}

	if err != nil {
		logger.Error("run failed", zap.Error(err))
		return rep, fmt.Errorf("%s %s: %w", command, in, err)
	}
	logger.Info("run finished", zap.Int("rows", rep.Rows), zap.Int("columns", len(rep.Columns)))
	return rep, nil
}

func (p *Prep) pipeline(ctx context.Context, asm *assemble.Assembler, obs timing.Observer, in, out string, fn transform, rep *Report) (*table.Table, error) {
	tbl, err := timing.Value(obs, "load", func() (*table.Table, error) {
		return loadInput(in, asm.Logger)
	})
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tbl, err = fn(asm, tbl, rep)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	err = timing.Track(obs, "save", func() error {
		if err := dataio.SaveCSV(tbl, out); err != nil {
			return err
		}
		if p.exportXLSX && isFeatures(tbl) {
			return dataio.SaveXLSX(tbl, xlsxPath(out), dataio.DefaultSheet)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tbl, nil
}

// stageObserver persists each stage timing on the run record.
func (p *Prep) stageObserver(ctx context.Context, runID string, logger *zap.Logger) timing.Observer {
	return timing.ObserverFunc(func(stage string, elapsed time.Duration, err error) {
		st := store.Stage{Name: stage, Elapsed: elapsed}
		if err != nil {
			st.Error = err.Error()
		}
		if aerr := p.store.AddStage(context.WithoutCancel(ctx), runID, st); aerr != nil {
			logger.Warn("failed to record stage", zap.String("stage", stage), zap.Error(aerr))
		}
	})
}

func loadInput(path string, logger *zap.Logger) (*table.Table, error) {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return dataio.LoadCSV(path)
	}
	return dataio.LoadRecords(path, logger)
}

func cleanColumns(tbl *table.Table) []string {
	var cols []string
	for _, c := range tbl.Columns() {
		if strings.HasSuffix(c, assemble.CleanSuffix) {
			cols = append(cols, c)
		}
	}
	return cols
}

func isFeatures(tbl *table.Table) bool {
	for _, c := range tbl.Columns() {
		if strings.Contains(c, assemble.CleanSuffix+"_") {
			return true
		}
	}
	return false
}

func xlsxPath(out string) string {
	return strings.TrimSuffix(out, filepath.Ext(out)) + ".xlsx"
}
