// Package dataio reads raw corpora and reads/writes the tabular stage
// outputs (CSV, XLSX, JSON).
package dataio

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"go.uber.org/zap"

	"github.com/cognicore/qaprep/pkg/qaprep/clean"
	"github.com/cognicore/qaprep/pkg/qaprep/ingest"
	"github.com/cognicore/qaprep/pkg/qaprep/internalerr"
	"github.com/cognicore/qaprep/pkg/qaprep/table"
)

const maxLineSize = 16 * 1024 * 1024

// ValidateFileExists fails with ErrMissingResource when path is not a
// regular file.
func ValidateFileExists(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: file %s does not exist", internalerr.ErrMissingResource, path)
		}
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", internalerr.ErrMissingResource, path)
	}
	return nil
}

// object is one decoded JSON object with its keys in document order.
type object struct {
	keys   []string
	values map[string]any
}

// LoadRecords reads raw records from a JSON lines file or a JSON array of
// objects. The record fields present in the input come first, then any extra keys in
// first-seen order. Malformed lines and records with no text are skipped
// with a warning; a file without a single valid record is an error.
func LoadRecords(path string, logger *zap.Logger) (*table.Table, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := ValidateFileExists(path); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file %s: %w", path, err)
	}

	var objs []object
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
		objs, err = decodeArray(trimmed, path, logger)
	} else {
		objs, err = decodeLines(data, path, logger)
	}
	if err != nil {
		return nil, err
	}
	if len(objs) == 0 {
		return nil, fmt.Errorf("%w: no valid records found in %s", internalerr.ErrInvalidInput, path)
	}

	return buildTable(objs)
}

func decodeLines(data []byte, path string, logger *zap.Logger) ([]object, error) {
	var objs []object
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		dec := json.NewDecoder(bytes.NewReader(raw))
		obj, err := decodeObject(dec)
		if err == nil {
			// a line holds exactly one object
			if _, next := dec.Token(); next != io.EOF {
				err = errors.New("trailing data after object")
			}
		}
		if err != nil {
			logger.Warn("skipping malformed record",
				zap.String("path", path),
				zap.Int("line", line),
				zap.Error(err))
			continue
		}
		if !keep(obj, path, line, logger) {
			continue
		}
		objs = append(objs, obj)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", path, err)
	}
	return objs, nil
}

func decodeArray(data []byte, path string, logger *zap.Logger) ([]object, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", internalerr.ErrInvalidInput, path, err)
	}

	var objs []object
	for i := 1; dec.More(); i++ {
		obj, err := decodeObject(dec)
		if err != nil {
			return nil, fmt.Errorf("%w: decode %s element %d: %v", internalerr.ErrInvalidInput, path, i, err)
		}
		if keep(obj, path, i, logger) {
			objs = append(objs, obj)
		}
	}
	return objs, nil
}

// keep drops records whose text fields are all blank.
func keep(obj object, path string, pos int, logger *zap.Logger) bool {
	rec := ingest.Record{
		Context:  clean.Coerce(obj.values[ingest.FieldContext]),
		Question: clean.Coerce(obj.values[ingest.FieldQuestion]),
		Answer:   clean.Coerce(obj.values[ingest.FieldAnswer]),
		Type:     clean.Coerce(obj.values[ingest.FieldType]),
	}
	if err := rec.Validate(); err != nil {
		logger.Warn("skipping empty record",
			zap.String("path", path),
			zap.Int("position", pos),
			zap.Error(err))
		return false
	}
	return true
}

// decodeObject reads one JSON object from dec, keeping key order.
func decodeObject(dec *json.Decoder) (object, error) {
	obj := object{values: make(map[string]any)}

	tok, err := dec.Token()
	if err != nil {
		return obj, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return obj, fmt.Errorf("expected object, got %v", tok)
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return obj, err
		}
		key, ok := tok.(string)
		if !ok {
			return obj, fmt.Errorf("expected key, got %v", tok)
		}
		var v any
		if err := dec.Decode(&v); err != nil {
			return obj, err
		}
		if _, seen := obj.values[key]; !seen {
			obj.keys = append(obj.keys, key)
		}
		obj.values[key] = v
	}

	_, err = dec.Token()
	return obj, err
}

// buildTable lays out only the keys present in the input. Record fields
// that occur in any object come first in canonical order; absent fields
// get no column so a later RequireColumns reports them.
func buildTable(objs []object) (*table.Table, error) {
	present := make(map[string]bool)
	var extras []string
	rows := make([]map[string]any, len(objs))
	for i, obj := range objs {
		for _, k := range obj.keys {
			if !present[k] {
				present[k] = true
				extras = append(extras, k)
			}
		}
		rows[i] = obj.values
	}

	columns := make([]string, 0, len(extras))
	for _, f := range ingest.RecordFields {
		if present[f] {
			columns = append(columns, f)
		}
	}
	for _, k := range extras {
		if !slices.Contains(ingest.RecordFields, k) {
			columns = append(columns, k)
		}
	}

	tbl, err := table.FromRows(columns, rows)
	if err != nil {
		return nil, err
	}
	for _, name := range columns {
		col, _ := tbl.Column(name)
		col.Kind = inferKind(col.Values)
	}
	return tbl, nil
}
