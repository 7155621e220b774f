package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

type contextKey int

const sessionIDKey contextKey = iota

// getSessionID extracts the sheetmatch session ID from context.
func getSessionID(ctx context.Context) string {
	v, _ := ctx.Value(sessionIDKey).(string)
	return v
}

// sessionMiddleware reads _meta.session_id so clients can bind every call to one
// browser session without repeating it in tool arguments.
func sessionMiddleware() sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			var sessionID string

			// Some notifications (like "initialized") have nil params.
			if params := req.GetParams(); params != nil {
				func() {
					defer func() { recover() }()
					if meta := params.GetMeta(); meta != nil {
						if sid, ok := meta["session_id"].(string); ok {
							sessionID = sid
						}
					}
				}()
			}

			if sessionID != "" {
				ctx = context.WithValue(ctx, sessionIDKey, sessionID)
			}

			return next(ctx, method, req)
		}
	}
}
