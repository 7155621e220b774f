package mcp

import (
	"context"
	"encoding/json"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/sheetmatch/internal/apierror"
	"github.com/rpggio/sheetmatch/internal/domain/compare"
	"github.com/rpggio/sheetmatch/internal/domain/session"
	"github.com/rpggio/sheetmatch/internal/domain/table"
)

// ResolveColumnInput is the argument of resolve_identifier_column.
type ResolveColumnInput struct {
	Columns []string `json:"columns" jsonschema:"column header names of one sheet in order"`
}

// ResolveColumnOutput reports the identifier column, if any.
type ResolveColumnOutput struct {
	Column  string   `json:"column,omitempty"`
	Found   bool     `json:"found"`
	Columns []string `json:"columns"`
}

// TableInput is an inline table: a header plus row-major cell values.
type TableInput struct {
	Columns []string `json:"columns" jsonschema:"header names"`
	Rows    [][]any  `json:"rows" jsonschema:"row-major cell values; null marks an empty cell"`
}

func (t TableInput) table() table.Table {
	rows := make([][]table.Cell, len(t.Rows))
	for r, row := range t.Rows {
		cells := make([]table.Cell, len(row))
		for i, v := range row {
			cells[i] = table.FromValue(v)
		}
		rows[r] = cells
	}
	return table.New(t.Columns, rows)
}

// AnnotateInput is the argument of annotate_tables.
type AnnotateInput struct {
	Source    TableInput `json:"source" jsonschema:"the raw table to annotate"`
	Reference TableInput `json:"reference" jsonschema:"the previous table holding already processed patients"`
}

// AnnotateOutput is the annotated source table and its summary.
type AnnotateOutput struct {
	Summary compare.Summary `json:"summary"`
	Columns []string        `json:"columns"`
	Rows    [][]any         `json:"rows"`
}

// CompareSessionInput is the argument of compare_session.
type CompareSessionInput struct {
	SessionID     string `json:"session_id,omitempty" jsonschema:"full session id shown in the web UI or returned by GET /api/session; defaults to _meta.session_id"`
	RawSheet      string `json:"raw_sheet,omitempty" jsonschema:"raw sheet name; defaults to the first sheet"`
	PreviousSheet string `json:"previous_sheet,omitempty" jsonschema:"previous sheet name; defaults to the first sheet"`
}

// CompareSessionOutput reports a comparison stored in a session.
type CompareSessionOutput struct {
	SessionID     string          `json:"session_id"`
	RawSheet      string          `json:"raw_sheet"`
	PreviousSheet string          `json:"previous_sheet"`
	Summary       compare.Summary `json:"summary"`
}

func registerTools(server *sdkmcp.Server, sessions SessionService) {
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "resolve_identifier_column",
		Description: "Find the patient name column among header names: the first column whose name contains both 'patient' and 'name', ignoring case.",
	}, handleResolveColumn)

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "annotate_tables",
		Description: "Compare two inline tables and return the source table with a Status column set to 'Done' for rows whose patient name appears in the reference table.",
	}, handleAnnotate)

	if sessions != nil {
		h := &sessionTools{sessions: sessions}
		sdkmcp.AddTool(server, &sdkmcp.Tool{
			Name:        "compare_session",
			Description: "Run the comparison on the raw and previous files uploaded to a web session and store the annotated result for download.",
		}, h.handleCompareSession)
	}
}

func handleResolveColumn(_ context.Context, _ *sdkmcp.CallToolRequest, in ResolveColumnInput) (*sdkmcp.CallToolResult, any, error) {
	out := ResolveColumnOutput{Columns: in.Columns}
	if out.Columns == nil {
		out.Columns = []string{}
	}
	col, err := compare.ResolveIdentifierColumn(in.Columns)
	if err == nil {
		out.Column = col
		out.Found = true
	}
	return jsonResult(out)
}

func handleAnnotate(_ context.Context, _ *sdkmcp.CallToolRequest, in AnnotateInput) (*sdkmcp.CallToolResult, any, error) {
	res, err := compare.Annotate(in.Source.table(), in.Reference.table())
	if err != nil {
		return toolError(err)
	}

	out := AnnotateOutput{
		Summary: res.Summary,
		Columns: res.Table.ColumnNames(),
		Rows:    make([][]any, res.Table.RowCount()),
	}
	for r := range out.Rows {
		cells := res.Table.Row(r)
		values := make([]any, len(cells))
		for i, c := range cells {
			values[i] = c.Value()
		}
		out.Rows[r] = values
	}
	return jsonResult(out)
}

type sessionTools struct {
	sessions SessionService
}

func (h *sessionTools) handleCompareSession(ctx context.Context, _ *sdkmcp.CallToolRequest, in CompareSessionInput) (*sdkmcp.CallToolResult, any, error) {
	sessionID := in.SessionID
	if sessionID == "" {
		sessionID = getSessionID(ctx)
	}
	if sessionID == "" {
		return toolError(apierror.Invalid("session_id is required"))
	}

	res, err := h.sessions.Compare(ctx, session.CompareRequest{
		SessionID:     sessionID,
		RawSheet:      in.RawSheet,
		PreviousSheet: in.PreviousSheet,
	})
	if err != nil {
		return toolError(err)
	}

	return jsonResult(CompareSessionOutput{
		SessionID:     res.SessionID,
		RawSheet:      res.Comparison.RawSheet,
		PreviousSheet: res.Comparison.PreviousSheet,
		Summary:       res.Comparison.Summary,
	})
}

func jsonResult(v any) (*sdkmcp.CallToolResult, any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, nil, err
	}
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
	}, nil, nil
}
