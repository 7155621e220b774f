package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `sheetmatch marks which patients of a raw sheet were already handled in a previous sheet.

- resolve_identifier_column: check which header would be used as the patient name column.
- annotate_tables: compare two inline tables; the result gains a Status column after the
  name column with "Done" for matched rows and an empty string otherwise.
- compare_session: run the comparison on files a user uploaded in the web UI. Pass the
  full session id shown on the page (also session_id of GET /api/session) as
  session_id, or in _meta.session_id.

Failed calls return {"error": {"code", "message", "details", "recovery_hint"}}.
See sheetmatch://docs/matching for the exact matching rules.
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "sheetmatch://docs/matching",
		Name:        "matching_rules",
		Title:       "Matching rules",
		Description: "How the identifier column is chosen and how rows are matched.",
		Content: `# Matching rules

## Identifier column

The identifier column is the first column, in sheet order, whose header contains both
"patient" and "name" ignoring case ("Patient Name", "PATIENT_NAME", "Name of patient").
If no header qualifies the comparison fails with COLUMN_NOT_FOUND and the error details
list the available columns and which file they came from.

## Matching

- Values are compared as text after trimming surrounding whitespace.
- Numbers are written in their shortest decimal form, so 1001 and "1001" match.
- Empty cells never match.
- Matching is case sensitive: "alice" does not match "Alice".

## Output

- A Status column is inserted right after the identifier column. A Status column that
  already exists is replaced, so comparing twice gives the same table.
- Rows found in the previous file get "Done"; all others get an empty string.
- The summary reports total rows, matched, unmatched and the match percentage rounded to
  one decimal (0.0 when the raw sheet has no rows).
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
