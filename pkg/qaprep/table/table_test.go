package table

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/qaprep/pkg/qaprep/internalerr"
)

func sample(t *testing.T) *Table {
	t.Helper()
	tbl, err := FromRows([]string{"context", "question"}, []map[string]any{
		{"context": "ctx one", "question": "q one"},
		{"context": "ctx two", "question": "q two"},
	})
	require.NoError(t, err)
	return tbl
}

func TestFromRows(t *testing.T) {
	tbl := sample(t)

	assert.Equal(t, 2, tbl.Len())
	assert.Equal(t, []string{"context", "question"}, tbl.Columns())
	assert.Equal(t, "q two", tbl.Value(1, "question"))
	assert.Nil(t, tbl.Value(5, "question"))
	assert.Nil(t, tbl.Value(0, "missing"))
}

func TestFromRowsMissingKeyIsNull(t *testing.T) {
	tbl, err := FromRows([]string{"a", "b"}, []map[string]any{{"a": "x"}})
	require.NoError(t, err)
	assert.Nil(t, tbl.Value(0, "b"))
	assert.Equal(t, 1, tbl.NullCount())
}

func TestAddColumnKeepsInsertionOrder(t *testing.T) {
	tbl := sample(t)

	require.NoError(t, tbl.AddColumn("answer", KindString, []any{"a1", "a2"}))
	require.NoError(t, tbl.AddColumn("score", KindInt, []any{1, 2}))

	assert.Equal(t, []string{"context", "question", "answer", "score"}, tbl.Columns())
	assert.Equal(t, []any{"ctx one", "q one", "a1", 1}, tbl.Row(0))
}

func TestAddColumnErrors(t *testing.T) {
	tbl := sample(t)

	err := tbl.AddColumn("context", KindString, []any{"x", "y"})
	assert.ErrorIs(t, err, internalerr.ErrSchema)

	err = tbl.AddColumn("short", KindString, []any{"x"})
	assert.ErrorIs(t, err, internalerr.ErrInvalidInput)
	assert.False(t, tbl.Has("short"))
}

func TestSetColumn(t *testing.T) {
	tbl := sample(t)

	require.NoError(t, tbl.SetColumn("context", KindString, []any{"new", "vals"}))
	assert.Equal(t, []string{"context", "question"}, tbl.Columns())
	assert.Equal(t, "new", tbl.Value(0, "context"))

	require.NoError(t, tbl.SetColumn("extra", KindFloat, []any{1.0, 2.0}))
	assert.Equal(t, "extra", tbl.Columns()[2])

	assert.Error(t, tbl.SetColumn("context", KindString, []any{"one"}))
}

func TestRenameColumn(t *testing.T) {
	tbl := sample(t)

	require.NoError(t, tbl.RenameColumn("question", "q"))
	assert.Equal(t, []string{"context", "q"}, tbl.Columns())
	assert.True(t, tbl.Has("q"))
	assert.False(t, tbl.Has("question"))

	assert.ErrorIs(t, tbl.RenameColumn("nope", "x"), internalerr.ErrSchema)
	assert.ErrorIs(t, tbl.RenameColumn("q", "context"), internalerr.ErrSchema)
	assert.NoError(t, tbl.RenameColumn("q", "q"))
}

func TestCloneIsIndependent(t *testing.T) {
	tbl := sample(t)
	cp := tbl.Clone()

	require.NoError(t, cp.AddColumn("answer", KindString, []any{"a", "b"}))
	c, _ := cp.Column("context")
	c.Values[0] = "changed"

	assert.False(t, tbl.Has("answer"))
	assert.Equal(t, "ctx one", tbl.Value(0, "context"))
}

func TestStrings(t *testing.T) {
	tbl, err := FromRows([]string{"v"}, []map[string]any{{"v": nil}, {"v": 3}, {"v": "s"}})
	require.NoError(t, err)

	got, err := tbl.Strings("v")
	require.NoError(t, err)
	assert.Equal(t, []string{"", "3", "s"}, got)

	_, err = tbl.Strings("missing")
	assert.ErrorIs(t, err, internalerr.ErrSchema)
}

func TestRequireColumns(t *testing.T) {
	tbl := sample(t)

	assert.NoError(t, tbl.RequireColumns("context"))
	assert.True(t, tbl.Validate("context", "question"))

	err := tbl.RequireColumns("context", "answer", "type")
	var se *SchemaError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, []string{"answer", "type"}, se.Missing)
	assert.ErrorIs(t, err, internalerr.ErrSchema)
	assert.False(t, tbl.Validate("answer"))
}

func TestCheckKinds(t *testing.T) {
	tbl := sample(t)
	require.NoError(t, tbl.AddColumn("n", KindInt, []any{1, 2}))

	assert.NoError(t, tbl.CheckKinds(map[string]Kind{"n": KindInt, "absent": KindFloat}))

	err := tbl.CheckKinds(map[string]Kind{"n": KindFloat})
	var ke *KindError
	require.True(t, errors.As(err, &ke))
	assert.Equal(t, "n", ke.Column)
	assert.Contains(t, err.Error(), "expected float, got int")
}

func TestIntegrity(t *testing.T) {
	tbl := sample(t)
	assert.NoError(t, tbl.CheckIntegrity())

	withNull, _ := FromRows([]string{"a"}, []map[string]any{{"a": "x"}, {"a": math.NaN()}})
	assert.ErrorIs(t, withNull.CheckIntegrity(), internalerr.ErrIntegrity)

	withDup, _ := FromRows([]string{"a"}, []map[string]any{{"a": "x"}, {"a": "x"}})
	assert.Equal(t, 1, withDup.DuplicateCount())
	assert.ErrorIs(t, withDup.CheckIntegrity(), internalerr.ErrIntegrity)
}

func TestDuplicateKeyDistinguishesTypes(t *testing.T) {
	tbl, _ := FromRows([]string{"a"}, []map[string]any{{"a": "1"}, {"a": 1}})
	assert.Equal(t, 0, tbl.DuplicateCount())
}

func TestDropNulls(t *testing.T) {
	tbl, err := FromRows([]string{"a", "b"}, []map[string]any{
		{"a": "1", "b": "x"},
		{"a": nil, "b": "y"},
		{"a": "3", "b": nil},
		{"a": "4", "b": "z"},
	})
	require.NoError(t, err)

	dropped, err := tbl.DropNulls("a")
	require.NoError(t, err)
	assert.Equal(t, 1, dropped)
	assert.Equal(t, 3, tbl.Len())

	dropped, err = tbl.DropNulls()
	require.NoError(t, err)
	assert.Equal(t, 1, dropped)

	// row order is preserved
	assert.Equal(t, "1", tbl.Value(0, "a"))
	assert.Equal(t, "4", tbl.Value(1, "a"))

	_, err = tbl.DropNulls("missing")
	assert.ErrorIs(t, err, internalerr.ErrSchema)
}

func TestDropDuplicatesKeepsFirst(t *testing.T) {
	tbl, _ := FromRows([]string{"a", "b"}, []map[string]any{
		{"a": "x", "b": "1"},
		{"a": "y", "b": "2"},
		{"a": "x", "b": "1"},
	})

	assert.Equal(t, 1, tbl.DropDuplicates())
	assert.Equal(t, 2, tbl.Len())
	assert.Equal(t, "y", tbl.Value(1, "a"))
}

func TestCoerceStrings(t *testing.T) {
	tbl, _ := FromRows([]string{"a"}, []map[string]any{{"a": 1.5}, {"a": nil}})

	require.NoError(t, tbl.CoerceStrings("a"))
	assert.Equal(t, "1.5", tbl.Value(0, "a"))
	assert.Equal(t, "", tbl.Value(1, "a"))
	assert.Equal(t, 0, tbl.NullCount())

	assert.Error(t, tbl.CoerceStrings("missing"))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "string", KindString.String())
	assert.Equal(t, "int", KindInt.String())
	assert.Equal(t, "float", KindFloat.String())
	assert.Equal(t, "kind(9)", Kind(9).String())
}
