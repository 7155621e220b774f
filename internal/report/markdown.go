package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
)

// maxPendingListed caps the pending list so huge sheets keep a readable report.
const maxPendingListed = 100

// WriteMarkdown writes the report as GitHub flavored Markdown.
func WriteMarkdown(w io.Writer, r *Report) error {
	md := markdown.NewMarkdown(w)

	writeHeader(md, r)
	writeSummary(md, r)
	writePending(md, r)

	return md.Build()
}

func writeHeader(md *markdown.Markdown, r *Report) {
	md.H1("Patient Sheet Comparison")
	md.PlainText("")

	rows := [][]string{
		{"Raw file", fmt.Sprintf("`%s` (sheet `%s`)", r.RawFile, r.RawSheet)},
		{"Previous file", fmt.Sprintf("`%s` (sheet `%s`)", r.PreviousFile, r.PreviousSheet)},
		{"Matched columns", fmt.Sprintf("`%s` / `%s`", r.Summary.SourceColumn, r.Summary.ReferenceColumn)},
	}
	if r.OutputFile != "" {
		rows = append(rows, []string{"Annotated file", "`" + r.OutputFile + "`"})
	}
	if !r.GeneratedAt.IsZero() {
		rows = append(rows, []string{"Generated", r.GeneratedAt.Format("2006-01-02 15:04:05 MST")})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

func writeSummary(md *markdown.Markdown, r *Report) {
	s := r.Summary

	md.H2("Summary")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Total rows", strconv.Itoa(s.Total)},
			{"Done", strconv.Itoa(s.Matched)},
			{"Not done", strconv.Itoa(s.Unmatched)},
			{"Match", strconv.FormatFloat(s.MatchPercentage, 'f', 1, 64) + "%"},
		},
	})
	md.PlainText("")

	if s.Total > 0 {
		chart := piechart.NewPieChart(
			io.Discard,
			piechart.WithTitle("Row Status"),
			piechart.WithShowData(true),
		)
		chart.LabelAndIntValue("Done", uint64(s.Matched))
		chart.LabelAndIntValue("Not done", uint64(s.Unmatched))

		md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
		md.PlainText("")
	}

	switch {
	case s.Total == 0:
		md.Note("The raw sheet has no data rows.")
	case s.Unmatched == 0:
		md.Tip("Every row of the raw sheet is done.")
	default:
		md.Importantf("%d row(s) of the raw sheet are not in the previous file.", s.Unmatched)
	}
	md.PlainText("")
}

func writePending(md *markdown.Markdown, r *Report) {
	if len(r.Pending) == 0 {
		return
	}

	md.H2("Not Done")
	md.PlainText("")

	listed := r.Pending
	if len(listed) > maxPendingListed {
		listed = listed[:maxPendingListed]
	}
	md.BulletList(listed...)
	if rest := len(r.Pending) - len(listed); rest > 0 {
		md.PlainText("")
		md.PlainTextf("... and %d more.", rest)
	}
	md.PlainText("")
}
