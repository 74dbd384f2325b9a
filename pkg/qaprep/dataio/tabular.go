package dataio

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/cognicore/qaprep/pkg/qaprep/clean"
	"github.com/cognicore/qaprep/pkg/qaprep/table"
)

// DefaultSheet is the worksheet name SaveXLSX uses when none is given.
const DefaultSheet = "features"

// LoadCSV reads a CSV file with a header row. Empty cells are null. A
// column whose non-empty cells all parse as integers is Int, as numbers
// is Float; everything else stays String.
func LoadCSV(path string) (*table.Table, error) {
	if err := ValidateFileExists(path); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err == io.EOF {
		return table.New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header of %s: %w", path, err)
	}

	cells := make([][]any, len(header))
	for line := 2; ; line++ {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s line %d: %w", path, line, err)
		}
		for i, v := range record {
			if v == "" {
				cells[i] = append(cells[i], nil)
			} else {
				cells[i] = append(cells[i], v)
			}
		}
	}

	tbl := table.New()
	for i, name := range header {
		values := cells[i]
		if values == nil {
			values = []any{}
		}
		kind := parseNumeric(values)
		if err := tbl.AddColumn(name, kind, values); err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}
	return tbl, nil
}

// parseNumeric converts numeric-looking string columns in place and
// returns the resulting kind.
func parseNumeric(values []any) table.Kind {
	ints, floats := true, true
	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		if _, err := strconv.ParseInt(s, 10, 64); err != nil {
			ints = false
		}
		if _, err := strconv.ParseFloat(s, 64); err != nil {
			floats = false
			break
		}
	}

	switch {
	case ints:
		for i, v := range values {
			if s, ok := v.(string); ok {
				n, _ := strconv.ParseInt(s, 10, 64)
				values[i] = int(n)
			}
		}
		if allNull(values) {
			return table.KindString
		}
		return table.KindInt
	case floats:
		for i, v := range values {
			if s, ok := v.(string); ok {
				values[i], _ = strconv.ParseFloat(s, 64)
			}
		}
		return table.KindFloat
	default:
		return table.KindString
	}
}

func allNull(values []any) bool {
	for _, v := range values {
		if v != nil {
			return false
		}
	}
	return true
}

// inferKind classifies already-typed cells (e.g. decoded JSON).
func inferKind(values []any) table.Kind {
	kind, typed := table.KindInt, false
	for _, v := range values {
		switch v.(type) {
		case nil:
			continue
		case int, int64:
		case float64:
			kind = table.KindFloat
		default:
			return table.KindString
		}
		typed = true
	}
	if !typed {
		return table.KindString
	}
	return kind
}

// FormatCell renders a cell for text output. Nulls are empty, and
// integral floats keep one decimal so the column re-reads as Float.
func FormatCell(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return ""
		}
		if val == math.Trunc(val) && math.Abs(val) < 1e15 {
			return strconv.FormatFloat(val, 'f', 1, 64)
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		if val {
			return "True"
		}
		return "False"
	default:
		return clean.Coerce(v)
	}
}

// SaveCSV writes tbl with a header row and no index column, creating
// parent directories. The file appears only once fully written.
func SaveCSV(tbl *table.Table, path string) error {
	return writeAtomic(path, func(w io.Writer) error {
		cw := csv.NewWriter(w)
		if err := cw.Write(tbl.Columns()); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
		record := make([]string, tbl.Width())
		for i := 0; i < tbl.Len(); i++ {
			for j, v := range tbl.Row(i) {
				record[j] = FormatCell(v)
			}
			if err := cw.Write(record); err != nil {
				return fmt.Errorf("write row %d: %w", i, err)
			}
		}
		cw.Flush()
		return cw.Error()
	})
}

// SaveXLSX writes tbl to a single-sheet workbook with a bold header row.
func SaveXLSX(tbl *table.Table, path, sheet string) error {
	if sheet == "" {
		sheet = DefaultSheet
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create directory for %s: %w", path, err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	for i, name := range tbl.Columns() {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, name); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
		f.SetCellStyle(sheet, cell, cell, headerStyle)
	}

	for i := 0; i < tbl.Len(); i++ {
		row := tbl.Row(i)
		for j, v := range row {
			if table.IsNull(v) {
				row[j] = ""
			}
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save Excel file: %w", err)
	}
	return nil
}

// LoadJSON decodes the JSON file at path into v.
func LoadJSON(path string, v any) error {
	if err := ValidateFileExists(path); err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// SaveJSON writes v as indented JSON, creating parent directories.
func SaveJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return writeAtomic(path, func(w io.Writer) error {
		_, err := w.Write(append(data, '\n'))
		return err
	})
}

func writeAtomic(path string, write func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename into %s: %w", path, err)
	}
	return nil
}
