package mcp

import (
	"encoding/json"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/sheetmatch/internal/apierror"
)

// ErrorPayload is the body of a failed tool call.
type ErrorPayload struct {
	Error *apierror.Error `json:"error"`
}

// MapError maps domain errors to MCP error codes.
func MapError(err error) *apierror.Error {
	return apierror.Map(err)
}

// toolError reports err as a tool result so the model sees the code and recovery hint
// instead of a protocol failure.
func toolError(err error) (*sdkmcp.CallToolResult, any, error) {
	data, mErr := json.Marshal(ErrorPayload{Error: MapError(err)})
	if mErr != nil {
		return nil, nil, err
	}
	return &sdkmcp.CallToolResult{
		IsError: true,
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
	}, nil, nil
}
