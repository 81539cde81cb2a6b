package cli

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rulec/internal/store"
)

func listRuns(t *testing.T, db string, args ...string) []store.Run {
	t.Helper()
	stdout, stderr, code := execute(t, "", append([]string{"--format", "json", "history", "--db", db}, args...)...)
	require.Equal(t, ExitSuccess, code, stderr)
	var resp struct {
		Status string      `json:"status"`
		Data   []store.Run `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp), stdout)
	require.Equal(t, "ok", resp.Status)
	return resp.Data
}

func TestHistory_Empty(t *testing.T) {
	db := filepath.Join(t.TempDir(), "history.db")
	stdout, _, code := execute(t, "", "history", "--db", db)
	assert.Equal(t, ExitSuccess, code)
	assert.Equal(t, "No runs recorded.\n", stdout)
	assert.Empty(t, listRuns(t, db))
}

func TestHistory_RecordsCompiles(t *testing.T) {
	db := filepath.Join(t.TempDir(), "history.db")

	_, stderr, code := execute(t, "", "compile", "testdata/invuln.yaml", "--db", db)
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, stderr, "recorded run ")
	_, _, code = execute(t, "", "compile", "testdata/dangling.yaml", "--db", db)
	require.Equal(t, ExitFailure, code)
	_, _, code = execute(t, "", "compile", "testdata/unknown.yaml", "--db", db)
	require.Equal(t, ExitFailure, code)

	runs := listRuns(t, db)
	require.Len(t, runs, 3)
	assert.Equal(t, int64(3), runs[0].Seq)
	assert.Equal(t, store.StatusFailed, runs[0].Status)
	assert.Equal(t, store.StatusDiagnostics, runs[1].Status)
	assert.Equal(t, store.StatusOK, runs[2].Status)
	assert.Equal(t, "testdata/invuln.yaml", runs[2].InputPath)
	assert.NotEmpty(t, runs[2].OutputFingerprint)

	only := listRuns(t, db, "--input", "testdata/dangling.yaml")
	require.Len(t, only, 1)
	assert.Equal(t, runs[1].ID, only[0].ID)
	assert.Len(t, listRuns(t, db, "--limit", "2"), 2)

	stdout, _, code := execute(t, "", "history", "--db", db)
	require.Equal(t, ExitSuccess, code)
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "SEQ"))
	assert.Contains(t, lines[1], runs[0].ID)
	assert.Contains(t, lines[3], runs[2].OutputFingerprint[:12])
}

func TestHistory_JSONCompileCarriesRunID(t *testing.T) {
	db := filepath.Join(t.TempDir(), "history.db")
	stdout, _, code := execute(t, "", "--format", "json", "compile", "testdata/invuln.yaml", "--db", db)
	require.Equal(t, ExitSuccess, code)

	resp := decodeCompile(t, stdout)
	require.NotEmpty(t, resp.RunID)
	runs := listRuns(t, db)
	require.Len(t, runs, 1)
	assert.Equal(t, runs[0].ID, resp.RunID)
}

func TestHistory_Show(t *testing.T) {
	db := filepath.Join(t.TempDir(), "history.db")
	_, _, code := execute(t, "", "compile", "testdata/dangling.yaml", "--db", db)
	require.Equal(t, ExitFailure, code)
	id := listRuns(t, db)[0].ID

	stdout, _, code := execute(t, "", "history", "show", id, "--db", db)
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, stdout, "Run "+id+" (#1)")
	assert.Contains(t, stdout, "status: diagnostics")
	assert.Contains(t, stdout, "Stages:")
	assert.Contains(t, stdout, "  sema")
	assert.Contains(t, stdout, "Diagnostics:\n  E201 dangling: ")

	stdout, _, code = execute(t, "", "--format", "json", "history", "show", id, "--db", db)
	require.Equal(t, ExitSuccess, code)
	var resp struct {
		Data store.Run `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, id, resp.Data.ID)
	require.Len(t, resp.Data.Diagnostics, 1)
	assert.Equal(t, "dangling", resp.Data.Diagnostics[0].Rule)
	assert.NotEmpty(t, resp.Data.Stages)
}

func TestHistory_ShowUnknown(t *testing.T) {
	db := filepath.Join(t.TempDir(), "history.db")
	stdout, stderr, code := execute(t, "", "history", "show", "nope", "--db", db)
	assert.Equal(t, ExitFailure, code)
	assert.Empty(t, stdout)
	assert.Equal(t, "error[E_NOT_FOUND]: no run nope\n", stderr)
}

func TestHistory_Prune(t *testing.T) {
	db := filepath.Join(t.TempDir(), "history.db")
	for i := 0; i < 3; i++ {
		_, _, code := execute(t, "", "compile", "testdata/invuln.yaml", "--db", db)
		require.Equal(t, ExitSuccess, code)
	}

	stdout, _, code := execute(t, "", "history", "prune", "--keep", "1", "--db", db)
	require.Equal(t, ExitSuccess, code)
	assert.Equal(t, "Deleted 2 run(s)\n", stdout)

	runs := listRuns(t, db)
	require.Len(t, runs, 1)
	assert.Equal(t, int64(3), runs[0].Seq)

	_, stderr, code := execute(t, "", "history", "prune", "--keep", "-1", "--db", db)
	assert.Equal(t, ExitCommandError, code)
	assert.Contains(t, stderr, "--keep must be non-negative")
}

func TestHistory_UnusableDatabase(t *testing.T) {
	db := filepath.Join(t.TempDir(), "missing", "history.db")
	_, stderr, code := execute(t, "", "compile", "testdata/invuln.yaml", "--db", db)
	assert.Equal(t, ExitCommandError, code)
	assert.Contains(t, stderr, "open history")
}
