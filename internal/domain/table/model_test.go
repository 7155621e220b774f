package table

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestCellString(t *testing.T) {
	tests := []struct {
		cell Cell
		want string
	}{
		{Empty(), ""},
		{Text("  Alice "), "  Alice "},
		{Number(12), "12"},
		{Number(12.5), "12.5"},
		{Number(-3), "-3"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, tt.cell.String())
	}
}

func TestCellJSON(t *testing.T) {
	cells := []Cell{Empty(), Text("Bob"), Number(42), Number(0.5)}
	data, err := json.Marshal(cells)
	require.NoError(t, err)
	require.JSONEq(t, `[null,"Bob",42,0.5]`, string(data))

	var decoded []Cell
	require.NoError(t, json.Unmarshal(data, &decoded))
	if diff := cmp.Diff(cells, decoded); diff != "" {
		t.Errorf("decoded cells mismatch (-want +got):\n%s", diff)
	}
}

func TestNewPadsShortRows(t *testing.T) {
	tbl := New([]string{"A", "B"}, [][]Cell{
		{Text("a1")},
		{Text("a2"), Number(2), Text("extra")},
	})
	require.NoError(t, tbl.Validate())
	require.Equal(t, 2, tbl.RowCount())
	require.True(t, tbl.Columns[1].Values[0].IsEmpty())
	require.Equal(t, []string{"A", "B"}, tbl.ColumnNames())
}

func TestValidateRagged(t *testing.T) {
	tbl := Table{Columns: []Column{
		{Name: "A", Values: []Cell{Text("x")}},
		{Name: "B", Values: nil},
	}}
	require.ErrorIs(t, tbl.Validate(), ErrRaggedTable)
}

func TestInsertColumn(t *testing.T) {
	tbl := New([]string{"A", "C"}, [][]Cell{{Text("a"), Text("c")}})
	require.NoError(t, tbl.InsertColumn(1, Column{Name: "B", Values: []Cell{Text("b")}}))
	require.Equal(t, []string{"A", "B", "C"}, tbl.ColumnNames())

	err := tbl.InsertColumn(9, Column{Name: "X", Values: []Cell{Empty()}})
	require.Error(t, err)

	err = tbl.InsertColumn(0, Column{Name: "Y", Values: nil})
	require.ErrorIs(t, err, ErrRaggedTable)
}

func TestCloneIsDeep(t *testing.T) {
	tbl := New([]string{"A"}, [][]Cell{{Text("a")}})
	clone := tbl.Clone()
	clone.Columns[0].Values[0] = Text("changed")
	clone.Columns[0].Name = "Z"
	require.Equal(t, "a", tbl.Columns[0].Values[0].String())
	require.Equal(t, "A", tbl.Columns[0].Name)
}

func TestRemoveColumn(t *testing.T) {
	tbl := New([]string{"Status", "A", "Status"}, [][]Cell{{Text("x"), Text("a"), Text("y")}})
	require.Equal(t, 2, tbl.RemoveColumn("Status"))
	require.Equal(t, []string{"A"}, tbl.ColumnNames())
}

func TestTableSetOrder(t *testing.T) {
	var set TableSet
	set.Set("Second", New([]string{"A"}, nil))
	set.Set("First", New([]string{"B"}, nil))
	set.Set("Second", New([]string{"C"}, nil))

	require.Equal(t, []string{"Second", "First"}, set.Names())
	got, ok := set.Sheet("Second")
	require.True(t, ok)
	require.Equal(t, []string{"C"}, got.ColumnNames())

	_, err := set.MustSheet("Missing")
	require.ErrorIs(t, err, ErrSheetNotFound)
}
