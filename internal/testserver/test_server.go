package testserver

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/sheetmatch/internal/domain/activity"
	"github.com/rpggio/sheetmatch/internal/domain/session"
	"github.com/rpggio/sheetmatch/internal/mcp"
	"github.com/rpggio/sheetmatch/internal/sqlite"
	"github.com/rpggio/sheetmatch/internal/transport"
	"github.com/stretchr/testify/require"
)

// TestServer is the full HTTP stack over an in-memory database.
type TestServer struct {
	Server   *httptest.Server
	DB       *sqlite.DB
	Sessions *session.Service
	// Client keeps the session cookie between requests.
	Client *http.Client
}

// Options tweaks the server under test.
type Options struct {
	MaxUploadBytes int64
}

func New(t *testing.T, opts Options) *TestServer {
	t.Helper()

	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())

	activitySvc := activity.NewService(sqlite.NewActivityRepository(db), nil)
	sessionSvc := session.NewService(sqlite.NewSessionRepository(db), activitySvc, nil)

	mcpServer := mcp.NewServer(mcp.Config{Sessions: sessionSvc, Version: "test"})
	mcpHandler := sdkmcp.NewStreamableHTTPHandler(
		func(*http.Request) *sdkmcp.Server { return mcpServer },
		&sdkmcp.StreamableHTTPOptions{Stateless: true},
	)

	server := httptest.NewServer(transport.NewServer(transport.Options{
		Sessions:       sessionSvc,
		MaxUploadBytes: opts.MaxUploadBytes,
		MCP:            mcpHandler,
	}))

	ts := &TestServer{
		Server:   server,
		DB:       db,
		Sessions: sessionSvc,
		Client:   NewClient(t),
	}

	t.Cleanup(func() {
		server.Close()
		_ = db.Close()
	})

	return ts
}

// NewClient returns a client with its own cookie jar, i.e. a separate browser.
func NewClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar}
}

// SessionID returns the session cookie the client holds for the server.
func (ts *TestServer) SessionID(t *testing.T, client *http.Client) string {
	t.Helper()
	u, err := url.Parse(ts.Server.URL)
	require.NoError(t, err)
	for _, c := range client.Jar.Cookies(u) {
		if c.Name == transport.SessionCookie {
			return c.Value
		}
	}
	return ""
}

// Upload posts a multipart file to /upload/{role}. With asJSON the API response is
// requested instead of the redirect.
func (ts *TestServer) Upload(t *testing.T, client *http.Client, role, fileName string, data []byte, asJSON bool) *http.Response {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", fileName)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, ts.Server.URL+"/upload/"+role, &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if asJSON {
		req.Header.Set("Accept", "application/json")
	}

	resp, err := client.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

// PostForm posts url-encoded form values and follows the redirect.
func (ts *TestServer) PostForm(t *testing.T, client *http.Client, path string, values url.Values) *http.Response {
	t.Helper()
	resp, err := client.PostForm(ts.Server.URL+path, values)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

// PostJSON posts a JSON body.
func (ts *TestServer) PostJSON(t *testing.T, client *http.Client, path string, payload any) *http.Response {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	resp, err := client.Post(ts.Server.URL+path, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

// Get fetches path.
func (ts *TestServer) Get(t *testing.T, client *http.Client, path string) *http.Response {
	t.Helper()
	resp, err := client.Get(ts.Server.URL + path)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

// ReadBody returns the response body as a string.
func ReadBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(data)
}

// DecodeJSON decodes the response body into out.
func DecodeJSON(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	require.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json"), "content type %q", resp.Header.Get("Content-Type"))
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}
