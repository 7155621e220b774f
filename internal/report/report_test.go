package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/rpggio/sheetmatch/internal/domain/compare"
	"github.com/rpggio/sheetmatch/internal/domain/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func annotated(t *testing.T) *compare.Result {
	t.Helper()
	source := table.New([]string{"Patient Name", "Age"}, [][]table.Cell{
		{table.Text("Alice"), table.Number(30)},
		{table.Text("Bob"), table.Number(41)},
		{table.Empty(), table.Number(7)},
	})
	reference := table.New([]string{"Name of Patient"}, [][]table.Cell{{table.Text("Alice")}})
	res, err := compare.Annotate(source, reference)
	require.NoError(t, err)
	return res
}

func TestPendingIdentifiers(t *testing.T) {
	res := annotated(t)
	assert.Equal(t, []string{"Bob", "(blank)"}, PendingIdentifiers(res.Table, "Patient Name"))
	assert.Nil(t, PendingIdentifiers(res.Table, "Missing"))

	all := table.New([]string{"Patient Name", compare.StatusColumn}, [][]table.Cell{{table.Text("Alice"), table.Text(compare.StatusDone)}})
	assert.Equal(t, []string{}, PendingIdentifiers(all, "Patient Name"))
}

func TestWriteMarkdown(t *testing.T) {
	res := annotated(t)
	r := &Report{
		RawFile:       "raw.xlsx",
		RawSheet:      "Intake",
		PreviousFile:  "previous.csv",
		PreviousSheet: "previous",
		OutputFile:    "raw_annotated.xlsx",
		Summary:       res.Summary,
		Pending:       PendingIdentifiers(res.Table, res.Summary.SourceColumn),
		GeneratedAt:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	var buf bytes.Buffer
	require.NoError(t, WriteMarkdown(&buf, r))
	out := buf.String()

	assert.Contains(t, out, "# Patient Sheet Comparison")
	assert.Contains(t, out, "`raw.xlsx` (sheet `Intake`)")
	assert.Contains(t, out, "`Patient Name` / `Name of Patient`")
	assert.Contains(t, out, "raw_annotated.xlsx")
	assert.Contains(t, out, "2026-01-02 03:04:05 UTC")
	assert.Contains(t, out, "## Summary")
	assert.Contains(t, out, "33.3%")
	assert.Contains(t, out, "```mermaid")
	assert.Contains(t, out, "[!IMPORTANT]")
	assert.Contains(t, out, "## Not Done")
	assert.Contains(t, out, "- Bob")
	assert.Contains(t, out, "- (blank)")
}

func TestWriteMarkdown_AllDone(t *testing.T) {
	r := &Report{
		RawFile:      "raw.csv",
		PreviousFile: "previous.csv",
		Summary:      compare.Summary{Total: 2, Matched: 2, MatchPercentage: 100},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteMarkdown(&buf, r))
	out := buf.String()

	assert.Contains(t, out, "[!TIP]")
	assert.Contains(t, out, "100.0%")
	assert.NotContains(t, out, "## Not Done")
	assert.NotContains(t, out, "Annotated file")
}

func TestWriteMarkdown_EmptySheet(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMarkdown(&buf, &Report{RawFile: "raw.csv", PreviousFile: "prev.csv"}))
	out := buf.String()

	assert.Contains(t, out, "[!NOTE]")
	assert.Contains(t, out, "0.0%")
	assert.NotContains(t, out, "```mermaid")
}

func TestWriteMarkdown_TruncatesPending(t *testing.T) {
	pending := make([]string, maxPendingListed+5)
	for i := range pending {
		pending[i] = fmt.Sprintf("patient-%03d", i)
	}
	r := &Report{
		Summary: compare.Summary{Total: len(pending), Unmatched: len(pending)},
		Pending: pending,
	}
	var buf bytes.Buffer
	require.NoError(t, WriteMarkdown(&buf, r))
	out := buf.String()

	assert.Contains(t, out, "patient-099")
	assert.NotContains(t, out, "patient-100")
	assert.Contains(t, out, "... and 5 more.")
	assert.Equal(t, maxPendingListed, strings.Count(out, "- patient-"))
}

func TestWriteJSON(t *testing.T) {
	r := &Report{RawFile: "raw.csv", Summary: compare.Summary{Total: 1, Matched: 1, MatchPercentage: 100}, Pending: []string{}}
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, r))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "raw.csv", got["raw_file"])
	assert.NotContains(t, got, "output_file")
	summary := got["summary"].(map[string]any)
	assert.EqualValues(t, 100, summary["match_percentage"])
}
