package transport_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/rpggio/sheetmatch/internal/testserver"
	"github.com/rpggio/sheetmatch/internal/transport"
	"github.com/stretchr/testify/require"
)

const (
	rawCSV      = "Patient Name,Age\nAlice,30\nBob,41\nCarol,52\nDan,60\nEve,25\n"
	previousCSV = "Name of Patient,Visit\nAlice,1\nCarol,2\nEve,3\n"
)

func TestHTTPServer_Health(t *testing.T) {
	ts := testserver.New(t, testserver.Options{})

	resp := ts.Get(t, ts.Client, "/health")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "ok", testserver.ReadBody(t, resp))
}

func TestHTTPServer_IndexIssuesSessionCookie(t *testing.T) {
	ts := testserver.New(t, testserver.Options{})

	resp := ts.Get(t, ts.Client, "/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	body := testserver.ReadBody(t, resp)
	require.Contains(t, body, "No file uploaded.")
	require.NotContains(t, body, `action="/compare"`)

	id := ts.SessionID(t, ts.Client)
	require.NotEmpty(t, id)

	// The cookie is stable across requests.
	ts.Get(t, ts.Client, "/")
	require.Equal(t, id, ts.SessionID(t, ts.Client))
}

func TestHTTPServer_UploadCompareDownloadFlow(t *testing.T) {
	ts := testserver.New(t, testserver.Options{})

	resp := ts.Upload(t, ts.Client, "raw", "raw.csv", []byte(rawCSV), false)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := testserver.ReadBody(t, resp)
	require.Contains(t, body, "Uploaded raw.csv as the raw file (1 sheets).")

	resp = ts.Upload(t, ts.Client, "previous", "previous.csv", []byte(previousCSV), false)
	body = testserver.ReadBody(t, resp)
	require.Contains(t, body, "previous.csv")
	require.Contains(t, body, `action="/compare"`)

	resp = ts.PostForm(t, ts.Client, "/compare", url.Values{"raw_sheet": {"raw"}, "previous_sheet": {"previous"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body = testserver.ReadBody(t, resp)
	require.Contains(t, body, "Comparison complete: 3 of 5 rows done (60.0%).")
	require.Contains(t, body, "Preview of raw")
	require.Contains(t, body, `<td class="done">Done</td>`)
	require.Contains(t, body, "/download")

	resp = ts.Get(t, ts.Client, "/download")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "text/csv; charset=utf-8", resp.Header.Get("Content-Type"))
	require.Contains(t, resp.Header.Get("Content-Disposition"), `filename="raw_annotated.csv"`)
	require.Equal(t,
		"Patient Name,Status,Age\nAlice,Done,30\nBob,,41\nCarol,Done,52\nDan,,60\nEve,Done,25\n",
		testserver.ReadBody(t, resp))
}

func TestHTTPServer_CompareErrorsBecomeFlash(t *testing.T) {
	ts := testserver.New(t, testserver.Options{})

	resp := ts.PostForm(t, ts.Client, "/compare", nil)
	body := testserver.ReadBody(t, resp)
	require.Contains(t, body, `class="flash error"`)
	require.Contains(t, body, "session not found")

	ts.Upload(t, ts.Client, "raw", "raw.csv", []byte(rawCSV), false)
	ts.Upload(t, ts.Client, "previous", "previous.csv", []byte("Name,Patient ID\nAlice,1\n"), false)

	resp = ts.PostForm(t, ts.Client, "/compare", url.Values{})
	body = testserver.ReadBody(t, resp)
	require.Contains(t, body, `class="flash error"`)
	require.Contains(t, body, "previous file")
	require.Contains(t, body, "Name, Patient ID")
	require.NotContains(t, body, "Preview of")
}

func TestHTTPServer_WideSheetFlashFitsCookie(t *testing.T) {
	ts := testserver.New(t, testserver.Options{})

	header := make([]string, 200)
	for i := range header {
		header[i] = fmt.Sprintf("Measurement column %03d", i)
	}
	wide := strings.Join(header, ",") + "\n" + strings.Repeat("1,", len(header)-1) + "1\n"

	ts.Upload(t, ts.Client, "raw", "raw.csv", []byte(rawCSV), false)
	ts.Upload(t, ts.Client, "previous", "previous.csv", []byte(wide), false)

	noRedirect := &http.Client{
		Jar: ts.Client.Jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	resp := ts.PostForm(t, noRedirect, "/compare", url.Values{})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	var flashCookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == "sheetmatch_flash" {
			flashCookie = c
		}
	}
	require.NotNil(t, flashCookie)
	require.Less(t, len(flashCookie.String()), 4096)

	body := testserver.ReadBody(t, ts.Get(t, ts.Client, "/"))
	require.Contains(t, body, `class="flash error"`)
	require.Contains(t, body, "Measurement column 019")
	require.Contains(t, body, "and 180 more")
	require.NotContains(t, body, "Measurement column 199")
}

func TestHTTPServer_UploadRejectsUnsupportedFile(t *testing.T) {
	ts := testserver.New(t, testserver.Options{})

	resp := ts.Upload(t, ts.Client, "raw", "notes.txt", []byte("hello"), false)
	body := testserver.ReadBody(t, resp)
	require.Contains(t, body, `class="flash error"`)
	require.Contains(t, body, "unsupported")
	require.Contains(t, body, "No file uploaded.")
}

func TestHTTPServer_UploadTooLarge(t *testing.T) {
	ts := testserver.New(t, testserver.Options{MaxUploadBytes: 64})

	resp := ts.Upload(t, ts.Client, "raw", "raw.csv", []byte(strings.Repeat("Patient Name\nAlice\n", 20)), true)
	require.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)

	var errResp transport.ErrorResponse
	testserver.DecodeJSON(t, resp, &errResp)
	require.Equal(t, "UPLOAD_TOO_LARGE", errResp.Error.Code)
}

func TestHTTPServer_UploadInvalidRole(t *testing.T) {
	ts := testserver.New(t, testserver.Options{})

	resp := ts.Upload(t, ts.Client, "other", "raw.csv", []byte(rawCSV), true)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var errResp transport.ErrorResponse
	testserver.DecodeJSON(t, resp, &errResp)
	require.Equal(t, "INVALID_ROLE", errResp.Error.Code)
}

func TestHTTPServer_ResetClearsOnlyOwnSession(t *testing.T) {
	ts := testserver.New(t, testserver.Options{})
	other := testserver.NewClient(t)

	ts.Upload(t, ts.Client, "raw", "mine.csv", []byte(rawCSV), false)
	ts.Upload(t, other, "raw", "theirs.csv", []byte(rawCSV), false)
	require.NotEqual(t, ts.SessionID(t, ts.Client), ts.SessionID(t, other))

	resp := ts.PostForm(t, ts.Client, "/reset", nil)
	body := testserver.ReadBody(t, resp)
	require.Contains(t, body, "Session cleared.")
	require.NotContains(t, body, "mine.csv")

	body = testserver.ReadBody(t, ts.Get(t, other, "/"))
	require.Contains(t, body, "theirs.csv")
	require.NotContains(t, body, "mine.csv")
}

func TestHTTPServer_DownloadWithoutFile(t *testing.T) {
	ts := testserver.New(t, testserver.Options{})

	body := testserver.ReadBody(t, ts.Get(t, ts.Client, "/download"))
	require.Contains(t, body, `class="flash error"`)
}

func TestSessionMiddleware_ReplacesMalformedCookie(t *testing.T) {
	var seen string
	h := transport.SessionMiddleware(false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = transport.SessionIDFromContext(r.Context())
	}))

	req, err := http.NewRequest(http.MethodGet, "/", nil)
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: transport.SessionCookie, Value: "../../etc/passwd"})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.NotEqual(t, "../../etc/passwd", seen)
	require.Len(t, seen, 36)
	require.Contains(t, rec.Header().Get("Set-Cookie"), transport.SessionCookie+"="+seen)
}
