package transport

import (
	"embed"
	"html/template"

	"github.com/dustin/go-humanize"
	"github.com/rpggio/sheetmatch/internal/domain/activity"
	"github.com/rpggio/sheetmatch/internal/domain/compare"
	"github.com/rpggio/sheetmatch/internal/domain/session"
	"github.com/rpggio/sheetmatch/internal/domain/table"
	"github.com/rpggio/sheetmatch/internal/workbook"
)

const (
	previewRows  = 50
	historyLimit = 20
)

//go:embed templates/index.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

type pageData struct {
	SessionID  string
	Flash      *flash
	Raw        *fileView
	Previous   *fileView
	Comparison *session.Comparison
	Preview    *previewView
	History    []activity.ActivityEntry
}

func (p pageData) CanCompare() bool {
	return p.Raw != nil && p.Previous != nil
}

type fileView struct {
	FileName string
	Size     string
	Sheets   []string
	Selected string
}

type previewView struct {
	Sheet     string
	Columns   []string
	Rows      [][]string
	Shown     int
	TotalRows int
	StatusCol int
}

func (p *previewView) Truncated() bool {
	return p.Shown < p.TotalRows
}

func (p *pageData) fill(sess *session.Session) {
	p.Comparison = sess.LastComparison

	var rawSelected, previousSelected string
	if c := sess.LastComparison; c != nil {
		rawSelected, previousSelected = c.RawSheet, c.PreviousSheet
	}
	p.Raw = newFileView(sess.Raw, rawSelected)
	p.Previous = newFileView(sess.Previous, previousSelected)

	if sess.LastComparison != nil && sess.Raw != nil {
		if tbl, ok := sess.Raw.Sheets.Sheet(sess.LastComparison.RawSheet); ok {
			p.Preview = newPreview(sess.LastComparison.RawSheet, tbl)
		}
	}
}

func newFileView(wb *workbook.Workbook, selected string) *fileView {
	if wb == nil {
		return nil
	}
	return &fileView{
		FileName: wb.FileName,
		Size:     humanize.Bytes(uint64(wb.Size)),
		Sheets:   wb.Sheets.Names(),
		Selected: selected,
	}
}

func newPreview(sheet string, tbl table.Table) *previewView {
	columns := tbl.ColumnNames()
	total := tbl.RowCount()
	shown := min(total, previewRows)
	p := &previewView{
		Sheet:     sheet,
		Columns:   columns,
		Rows:      make([][]string, 0, shown),
		Shown:     shown,
		TotalRows: total,
		StatusCol: -1,
	}
	for i, name := range columns {
		if name == compare.StatusColumn {
			p.StatusCol = i
			break
		}
	}
	for r := 0; r < shown; r++ {
		cells := tbl.Row(r)
		values := make([]string, len(cells))
		for i, c := range cells {
			values[i] = c.String()
		}
		p.Rows = append(p.Rows, values)
	}
	return p
}
