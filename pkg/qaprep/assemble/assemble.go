// Package assemble runs the per-column clean and feature stages over a
// table, producing "<col>_clean" and "<col>_clean_<feature>" columns.
package assemble

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cognicore/qaprep/pkg/qaprep/features"
	"github.com/cognicore/qaprep/pkg/qaprep/ingest"
	"github.com/cognicore/qaprep/pkg/qaprep/internalerr"
	"github.com/cognicore/qaprep/pkg/qaprep/table"
	"github.com/cognicore/qaprep/pkg/qaprep/timing"
)

// CleanSuffix is appended to a source column to name its cleaned copy.
const CleanSuffix = "_clean"

// Preprocessor turns one cell into normalized text. It must not fail on
// null or non-string cells.
type Preprocessor interface {
	PreprocessValue(v any) string
}

// Options control aliasing of the input table.
type Options struct {
	// Copy runs on a clone and leaves the caller's table untouched.
	Copy bool
}

// Assembler wires the preprocessing pipeline and feature extractor.
type Assembler struct {
	Preprocessor Preprocessor
	Extractor    *features.Extractor
	Observer     timing.Observer
	Logger       *zap.Logger
}

// New creates an assembler. Nil arguments get defaults: the standard
// pipeline, the default feature registry, no observer and a no-op logger.
func New(pre Preprocessor, ext *features.Extractor, obs timing.Observer, logger *zap.Logger) *Assembler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if pre == nil {
		pre = ingest.NewPipeline(ingest.DefaultOptions(), nil, nil, nil, nil)
	}
	if ext == nil {
		ext = features.NewExtractor(nil, logger)
	}
	if obs == nil {
		obs = timing.Nop
	}
	return &Assembler{Preprocessor: pre, Extractor: ext, Observer: obs, Logger: logger}
}

// CleanColumn returns the cleaned column name for a source column.
func CleanColumn(col string) string { return col + CleanSuffix }

// Run preprocesses then featurizes each text column, in the order given.
// A missing text column or an output name that already exists aborts
// before any column is added.
func (a *Assembler) Run(tbl *table.Table, textColumns []string, opts Options) (*table.Table, error) {
	if err := a.check(tbl, textColumns, true, true); err != nil {
		return nil, err
	}
	if opts.Copy {
		tbl = tbl.Clone()
	}

	for _, col := range textColumns {
		if err := a.preprocessColumn(tbl, col); err != nil {
			return nil, err
		}
		if err := a.featurizeColumn(tbl, CleanColumn(col)); err != nil {
			return nil, err
		}
	}
	return tbl, nil
}

// Preprocess adds "<col>_clean" for every column.
func (a *Assembler) Preprocess(tbl *table.Table, textColumns []string, opts Options) (*table.Table, error) {
	if err := a.check(tbl, textColumns, true, false); err != nil {
		return nil, err
	}
	if opts.Copy {
		tbl = tbl.Clone()
	}
	for _, col := range textColumns {
		if err := a.preprocessColumn(tbl, col); err != nil {
			return nil, err
		}
	}
	return tbl, nil
}

// Featurize adds "<col>_<feature>" columns for already-cleaned columns,
// e.g. Featurize(tbl, []string{"question_clean"}).
func (a *Assembler) Featurize(tbl *table.Table, cleanColumns []string, opts Options) (*table.Table, error) {
	if err := a.check(tbl, cleanColumns, false, true); err != nil {
		return nil, err
	}
	if opts.Copy {
		tbl = tbl.Clone()
	}
	for _, col := range cleanColumns {
		if err := a.featurizeColumn(tbl, col); err != nil {
			return nil, err
		}
	}
	return tbl, nil
}

// check validates the whole request up front: every source column exists,
// none is listed twice and no output name is taken, neither by an existing
// column nor by another output of the same call.
func (a *Assembler) check(tbl *table.Table, cols []string, clean, featurize bool) error {
	if len(cols) == 0 {
		return fmt.Errorf("%w: no text columns configured", internalerr.ErrInvalidConfig)
	}
	if err := tbl.RequireColumns(cols...); err != nil {
		return err
	}

	listed := make(map[string]bool, len(cols))
	outputs := make(map[string]string)
	claim := func(name, src string) error {
		if tbl.Has(name) {
			return fmt.Errorf("%w: output column %q already exists", internalerr.ErrSchema, name)
		}
		if other, ok := outputs[name]; ok {
			return fmt.Errorf("%w: output column %q produced by both %q and %q", internalerr.ErrSchema, name, other, src)
		}
		outputs[name] = src
		return nil
	}

	for _, col := range cols {
		if listed[col] {
			return fmt.Errorf("%w: column %q listed twice", internalerr.ErrInvalidConfig, col)
		}
		listed[col] = true

		prefix := col
		if clean {
			prefix = CleanColumn(col)
			if err := claim(prefix, col); err != nil {
				return err
			}
		}
		if featurize {
			for _, name := range a.Extractor.Registry().ColumnNames(prefix) {
				if err := claim(name, col); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (a *Assembler) preprocessColumn(tbl *table.Table, col string) error {
	return timing.Track(a.Observer, "preprocess:"+col, func() error {
		src, _ := tbl.Column(col)
		out := make([]any, len(src.Values))
		for i, v := range src.Values {
			out[i] = a.Preprocessor.PreprocessValue(v)
		}
		a.Logger.Info("preprocessed column",
			zap.String("column", col),
			zap.Int("rows", len(out)))
		return tbl.AddColumn(CleanColumn(col), table.KindString, out)
	})
}

func (a *Assembler) featurizeColumn(tbl *table.Table, col string) error {
	return timing.Track(a.Observer, "features:"+col, func() error {
		_, err := a.Extractor.Transform(tbl, col, features.TransformOptions{Prefix: col})
		if err == nil {
			a.Logger.Info("extracted features",
				zap.String("column", col),
				zap.Int("features", len(a.Extractor.Registry())))
		}
		return err
	})
}
