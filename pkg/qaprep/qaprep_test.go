package qaprep

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/qaprep/pkg/qaprep/dataio"
	"github.com/cognicore/qaprep/pkg/qaprep/features"
	"github.com/cognicore/qaprep/pkg/qaprep/internalerr"
	"github.com/cognicore/qaprep/pkg/qaprep/metrics"
	"github.com/cognicore/qaprep/pkg/qaprep/store"
	"github.com/cognicore/qaprep/pkg/qaprep/store/memstore"
	"github.com/cognicore/qaprep/pkg/qaprep/table"
)

const rawJSONL = `{"context": "The <b>cat</b> sat on the mat.", "question": "Where did the cat sit?", "answer": "On the mat", "type": "location"}
{"context": "Dogs bark at night!", "question": "When do dogs bark?", "answer": null, "type": "time"}
`

func writeRaw(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "raw.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestRunFile(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	p := New(Options{Store: st})

	in := writeRaw(t, rawJSONL)
	out := filepath.Join(t.TempDir(), "features", "qa.csv")

	rep, err := p.RunFile(ctx, in, out, []string{"context", "question"})
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Rows)
	assert.Len(t, rep.Columns, 4+2+2*len(features.Default()))

	tbl, err := dataio.LoadCSV(out)
	require.NoError(t, err)
	assert.Equal(t, rep.Columns, tbl.Columns())
	assert.Equal(t, "cat sat mat", tbl.Value(0, "context_clean"))

	col, _ := tbl.Column("question_clean_word_count")
	assert.Equal(t, table.KindInt, col.Kind)

	run, found, err := st.GetRun(ctx, rep.RunID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, store.StatusSucceeded, run.Status)
	assert.Equal(t, CommandRun, run.Command)

	var names []string
	for _, s := range run.Stages {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{
		"load",
		"preprocess:context", "features:context_clean",
		"preprocess:question", "features:question_clean",
		"save",
	}, names)
}

func TestStagedCommands(t *testing.T) {
	ctx := context.Background()
	p := New(Options{})
	dir := t.TempDir()

	in := writeRaw(t, rawJSONL)
	processed := filepath.Join(dir, "processed.csv")
	cleaned := filepath.Join(dir, "cleaned.csv")
	feats := filepath.Join(dir, "features.csv")

	rep, err := p.PreprocessFile(ctx, in, processed, []string{"context", "question", "answer"})
	require.NoError(t, err)
	assert.Contains(t, rep.Columns, "answer_clean")

	rep, err = p.DropNullsFile(ctx, processed, cleaned, nil)
	require.NoError(t, err)
	// the null answer is cleaned to "", which reads back from CSV as null
	assert.Equal(t, 1, rep.Dropped)
	assert.Equal(t, 1, rep.Rows)

	rep, err = p.FeaturesFile(ctx, cleaned, feats, []string{"question_clean"})
	require.NoError(t, err)
	assert.Contains(t, rep.Columns, "question_clean_char_count")
	assert.NotContains(t, rep.Columns, "context_clean_char_count")
}

func TestDropNullsFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	in := filepath.Join(dir, "processed.csv")
	require.NoError(t, os.WriteFile(in, []byte("question_clean,answer_clean,note\ncat,sit,\n,dog,x\nbird,fly,y\n"), 0644))

	out := filepath.Join(dir, "cleaned.csv")
	rep, err := New(Options{}).DropNullsFile(ctx, in, out, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Dropped)
	assert.Equal(t, 2, rep.Rows)

	tbl, err := dataio.LoadCSV(out)
	require.NoError(t, err)
	require.Equal(t, 2, tbl.Len())
	assert.Equal(t, "cat", tbl.Value(0, "question_clean"))
	assert.Equal(t, "bird", tbl.Value(1, "question_clean"))
}

func TestDropNullsWithoutCleanColumns(t *testing.T) {
	in := filepath.Join(t.TempDir(), "plain.csv")
	require.NoError(t, os.WriteFile(in, []byte("a,b\n1,2\n"), 0644))

	_, err := New(Options{}).DropNullsFile(context.Background(), in, filepath.Join(t.TempDir(), "o.csv"), nil)
	assert.True(t, errors.Is(err, internalerr.ErrSchema))
}

func TestMissingInputRecordsNoRun(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	p := New(Options{Store: st})

	_, err := p.RunFile(ctx, filepath.Join(t.TempDir(), "absent.json"), filepath.Join(t.TempDir(), "o.csv"), []string{"context"})
	assert.True(t, errors.Is(err, internalerr.ErrMissingResource))

	runs, err := st.ListRuns(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestMissingColumnFailsWithoutOutput(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	p := New(Options{Store: st})

	in := writeRaw(t, rawJSONL)
	out := filepath.Join(t.TempDir(), "o.csv")

	rep, err := p.RunFile(ctx, in, out, []string{"context", "title"})
	var schemaErr *table.SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, []string{"title"}, schemaErr.Missing)

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr), "no output may be written on failure")

	run, _, _ := st.GetRun(ctx, rep.RunID)
	assert.Equal(t, store.StatusFailed, run.Status)
	assert.NotEmpty(t, run.Error)
}

func TestAbsentRecordFieldIsMissingColumn(t *testing.T) {
	in := writeRaw(t, `{"context": "The cat sat.", "foo": "x"}
`)
	out := filepath.Join(t.TempDir(), "o.csv")

	_, err := New(Options{}).RunFile(context.Background(), in, out, []string{"context", "question"})
	var schemaErr *table.SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, []string{"question"}, schemaErr.Missing)

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}

func TestCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	in := writeRaw(t, rawJSONL)
	_, err := New(Options{}).RunFile(ctx, in, filepath.Join(t.TempDir(), "o.csv"), []string{"context"})
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestExportXLSX(t *testing.T) {
	in := writeRaw(t, rawJSONL)
	out := filepath.Join(t.TempDir(), "qa.csv")

	_, err := New(Options{ExportXLSX: true}).RunFile(context.Background(), in, out, []string{"question"})
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(filepath.Dir(out), "qa.xlsx"))
	assert.NoError(t, err)
}

func TestRecorderMetrics(t *testing.T) {
	rec, err := metrics.NewRecorder(nil)
	require.NoError(t, err)

	in := writeRaw(t, rawJSONL)
	_, err = New(Options{Recorder: rec}).RunFile(context.Background(), in, filepath.Join(t.TempDir(), "o.csv"), []string{"context"})
	require.NoError(t, err)

	assert.Equal(t, 2.0, testutil.ToFloat64(rec.RowsProcessed.WithLabelValues(CommandRun)))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.StageTotal.WithLabelValues("save", "ok")))
}

func TestRunFileDeterministicOnGeneratedCorpus(t *testing.T) {
	faker := gofakeit.New(42)
	dir := t.TempDir()

	in := filepath.Join(dir, "raw.json")
	var records []map[string]string
	for i := 0; i < 25; i++ {
		records = append(records, map[string]string{
			"context":  faker.Paragraph(2, 3, 12, " "),
			"question": faker.Question(),
			"answer":   faker.Sentence(6),
			"type":     faker.Word(),
		})
	}
	require.NoError(t, dataio.SaveJSON(in, records))

	p := New(Options{})
	first := filepath.Join(dir, "first.csv")
	second := filepath.Join(dir, "second.csv")
	_, err := p.RunFile(context.Background(), in, first, []string{"context", "question", "answer"})
	require.NoError(t, err)
	_, err = p.RunFile(context.Background(), in, second, []string{"context", "question", "answer"})
	require.NoError(t, err)

	a, err := os.ReadFile(first)
	require.NoError(t, err)
	b, err := os.ReadFile(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}
