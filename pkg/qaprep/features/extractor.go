package features

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cognicore/qaprep/pkg/qaprep/clean"
	"github.com/cognicore/qaprep/pkg/qaprep/internalerr"
	"github.com/cognicore/qaprep/pkg/qaprep/table"
)

// Value is one extracted feature.
type Value struct {
	Name  string
	Value float64
}

// Extractor applies a feature registry to text values and table columns.
type Extractor struct {
	registry Registry
	logger   *zap.Logger
}

// NewExtractor creates an extractor. An empty registry uses Default().
func NewExtractor(registry Registry, logger *zap.Logger) *Extractor {
	if len(registry) == 0 {
		registry = Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{registry: registry, logger: logger}
}

// Registry returns the features in extraction order.
func (e *Extractor) Registry() Registry { return e.registry }

// Extract computes every feature for text, in registry order.
func (e *Extractor) Extract(text string) []Value {
	out := make([]Value, len(e.registry))
	for i, f := range e.registry {
		out[i] = Value{Name: f.Name, Value: f.Fn(text)}
	}
	return out
}

// ExtractValue coerces a cell and extracts features; nil yields zeros.
func (e *Extractor) ExtractValue(v any) []Value {
	return e.Extract(clean.Coerce(v))
}

// TransformOptions control naming and aliasing of Transform.
type TransformOptions struct {
	// Prefix is prepended as "<prefix>_<feature>"; empty keeps the bare
	// feature names.
	Prefix string
	// Copy makes Transform work on a clone and leave the input untouched.
	Copy bool
}

// ColumnName returns the output column name for a feature.
func ColumnName(prefix, feature string) string {
	if prefix == "" {
		return feature
	}
	return prefix + "_" + feature
}

// ColumnNames returns the output column names for a registry, in order.
func (r Registry) ColumnNames(prefix string) []string {
	names := make([]string, len(r))
	for i, f := range r {
		names[i] = ColumnName(prefix, f.Name)
	}
	return names
}

// Transform appends one column per feature computed over column.
//
// Without opts.Copy the passed table is mutated and returned; callers that
// need the original intact must set Copy. Nothing is appended if the source
// column is missing or any output name already exists.
func (e *Extractor) Transform(tbl *table.Table, column string, opts TransformOptions) (*table.Table, error) {
	if err := tbl.RequireColumns(column); err != nil {
		return nil, err
	}
	names := e.registry.ColumnNames(opts.Prefix)
	for _, n := range names {
		if tbl.Has(n) {
			return nil, fmt.Errorf("transform %q: %w: output column %q already exists", column, internalerr.ErrSchema, n)
		}
	}

	if opts.Copy {
		tbl = tbl.Clone()
	}

	texts, err := tbl.Strings(column)
	if err != nil {
		return nil, err
	}

	for i, f := range e.registry {
		e.logger.Debug("extracting feature", zap.String("column", column), zap.String("feature", f.Name))

		values := make([]any, len(texts))
		for row, text := range texts {
			v := f.Fn(text)
			if f.Kind == table.KindInt {
				values[row] = int(v)
			} else {
				values[row] = v
			}
		}
		if err := tbl.AddColumn(names[i], f.Kind, values); err != nil {
			return nil, err
		}
	}
	return tbl, nil
}
