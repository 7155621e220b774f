package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rpggio/sheetmatch/internal/config"
	"github.com/rpggio/sheetmatch/internal/domain/compare"
	"github.com/rpggio/sheetmatch/internal/domain/table"
	"github.com/rpggio/sheetmatch/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	rawCSV      = "Patient Name,Age\nAlice,30\nBob,41\nCarol,52\n"
	previousCSV = "Name of Patient\nCarol\nAlice\n"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("SHEETMATCH_CONFIG_PATH", "")
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCompareCmd_Markdown(t *testing.T) {
	dir := t.TempDir()
	raw := writeFile(t, dir, "raw.csv", rawCSV)
	prev := writeFile(t, dir, "previous.csv", previousCSV)

	out, err := execute(t, "compare", raw, prev)
	require.NoError(t, err)

	assert.Contains(t, out, "# Patient Sheet Comparison")
	assert.Contains(t, out, "66.7%")
	assert.Contains(t, out, "- Bob")

	annotated, err := os.ReadFile(filepath.Join(dir, "raw_annotated.csv"))
	require.NoError(t, err)
	assert.Equal(t, "Patient Name,Status,Age\nAlice,Done,30\nBob,,41\nCarol,Done,52\n", string(annotated))
}

func TestCompareCmd_JSONAndOutput(t *testing.T) {
	dir := t.TempDir()
	raw := writeFile(t, dir, "raw.csv", rawCSV)
	prev := writeFile(t, dir, "previous.csv", previousCSV)
	output := filepath.Join(dir, "result.csv")

	out, err := execute(t, "compare", raw, prev, "-o", output, "--report", "json")
	require.NoError(t, err)

	var got struct {
		OutputFile string          `json:"output_file"`
		RawSheet   string          `json:"raw_sheet"`
		Summary    compare.Summary `json:"summary"`
		Pending    []string        `json:"pending"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, output, got.OutputFile)
	assert.Equal(t, "raw", got.RawSheet)
	assert.Equal(t, 3, got.Summary.Total)
	assert.Equal(t, 2, got.Summary.Matched)
	assert.Equal(t, []string{"Bob"}, got.Pending)
	assert.FileExists(t, output)
}

func TestCompareCmd_NoReport(t *testing.T) {
	dir := t.TempDir()
	raw := writeFile(t, dir, "raw.csv", rawCSV)
	prev := writeFile(t, dir, "previous.csv", previousCSV)

	out, err := execute(t, "compare", raw, prev, "--report", "none")
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.FileExists(t, filepath.Join(dir, "raw_annotated.csv"))
}

func TestCompareCmd_Errors(t *testing.T) {
	dir := t.TempDir()
	raw := writeFile(t, dir, "raw.csv", rawCSV)
	prev := writeFile(t, dir, "previous.csv", previousCSV)
	noName := writeFile(t, dir, "ids.csv", "Patient ID\n1\n")

	_, err := execute(t, "compare", raw, noName)
	require.ErrorIs(t, err, compare.ErrColumnNotFound)
	var cmpErr *compare.ComparisonError
	require.ErrorAs(t, err, &cmpErr)
	assert.Equal(t, compare.SideReference, cmpErr.Side)
	assert.NoFileExists(t, filepath.Join(dir, "raw_annotated.csv"))

	_, err = execute(t, "compare", raw, prev, "--raw-sheet", "Missing")
	require.ErrorIs(t, err, table.ErrSheetNotFound)

	_, err = execute(t, "compare", raw, filepath.Join(dir, "absent.csv"))
	require.ErrorIs(t, err, os.ErrNotExist)

	_, err = execute(t, "compare", raw, prev, "--report", "html")
	require.ErrorContains(t, err, "unknown report format")

	_, err = execute(t, "compare", raw)
	require.Error(t, err)
}

func TestColumnsCmd(t *testing.T) {
	dir := t.TempDir()
	raw := writeFile(t, dir, "raw.csv", rawCSV)
	ids := writeFile(t, dir, "ids.csv", "Patient ID\n1\n")

	out, err := execute(t, "columns", raw)
	require.NoError(t, err)
	assert.Equal(t, "raw (3 rows)\n  - Patient Name\n  - Age\n  name column: Patient Name\n", out)

	out, err = execute(t, "columns", ids, "--sheet", "ids")
	require.NoError(t, err)
	assert.Contains(t, out, "name column: none")

	_, err = execute(t, "columns", raw, "--sheet", "Other")
	require.ErrorIs(t, err, table.ErrSheetNotFound)
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "sheetmatch version")
	assert.Contains(t, out, "commit:")
}

func TestLoadConfig_Invalid(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yaml", "server:\n  port: 0\n")
	_, err := execute(t, "serve", "--config", path)
	require.ErrorContains(t, err, "config error")
}

func TestServeHTTP_Shutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	logger := logging.New(&bytes.Buffer{}, "error", "text")

	done := make(chan error, 1)
	go func() {
		done <- serveHTTP(ctx, logger, "127.0.0.1:0", nil)
	}()

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestServeHTTP_BadAddr(t *testing.T) {
	logger := logging.New(&bytes.Buffer{}, "error", "text")
	err := serveHTTP(context.Background(), logger, "127.0.0.1:-1", nil)
	require.ErrorContains(t, err, "listen on")
}

func TestOpenApp_FileDatabase(t *testing.T) {
	cfg := config.Default()
	cfg.DB.Path = filepath.Join(t.TempDir(), "nested", "sheetmatch.db")
	a, err := openApp(cfg, nil)
	require.NoError(t, err)
	defer a.close()

	sess, err := a.sessions.Ensure(context.Background(), "")
	require.NoError(t, err)
	assert.NotEmpty(t, sess.ID)
	assert.FileExists(t, cfg.DB.Path)
}

func TestEnsureDBDir(t *testing.T) {
	require.NoError(t, ensureDBDir(":memory:"))
	require.NoError(t, ensureDBDir("local.db"))

	dir := filepath.Join(t.TempDir(), "a", "b")
	require.NoError(t, ensureDBDir(filepath.Join(dir, "x.db")))
	assert.DirExists(t, dir)
}
