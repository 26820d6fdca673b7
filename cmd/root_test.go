//go:build !integration

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/recovery-cli/internal/model"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	expected := []string{
		"add", "import", "list", "edit", "remove", "formula",
		"recompute", "export", "trend", "summary", "schema", "serve",
	}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "recovery-cli", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestServeCommand_Flags(t *testing.T) {
	require.NotNil(t, serveCmd.Flags().Lookup("port"))
}

// setupCLI points the CLI at a fresh SQLite file in a temp working dir.
func setupCLI(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck

	t.Setenv("RECOVERY_STORE_DRIVER", "sqlite")
	t.Setenv("RECOVERY_STORE_DATABASE_URL", filepath.Join(dir, "ledger.db"))
	t.Setenv("RECOVERY_LOG_LEVEL", "error")
	return dir
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestCLI_EndToEnd(t *testing.T) {
	dir := setupCLI(t)

	out, _, err := execute(t, "add",
		"date=2024-03-01", "tonnage=100", "ore_grade=2.0",
		"tailings_liquid_gold=0.05", "tailings_solid_gold=0.03")
	require.NoError(t, err)
	rowID := strings.TrimSpace(out)
	require.NotEmpty(t, rowID)

	csvPath := filepath.Join(dir, "march.csv")
	require.NoError(t, os.WriteFile(csvPath,
		[]byte("日期,原矿吨数,原矿金品位,尾液含金,尾固含金,备注\n2024-03-02,80,2,0.1,0.1,ok\n"), 0o600))
	out, _, err = execute(t, "import", csvPath)
	require.NoError(t, err)
	assert.Contains(t, out, "2 rows total, 2 computed")

	out, _, err = execute(t, "formula", "metal_calc", "tonnage * ore_grade * recovery_rate")
	require.NoError(t, err)
	assert.Contains(t, out, `column "metal_calc" set on 2 row(s)`)

	out, _, err = execute(t, "list", "--json")
	require.NoError(t, err)
	var tbl model.Table
	require.NoError(t, json.Unmarshal([]byte(out), &tbl))
	require.Equal(t, 2, tbl.Len())
	assert.True(t, tbl.HasColumn("metal_calc"))
	v, ok := tbl.Rows[0].Get("metal_calc").Float()
	require.True(t, ok)
	assert.InDelta(t, 192.0, v, 1e-9)

	out, _, err = execute(t, "edit", rowID, "tonnage=50")
	require.NoError(t, err)
	assert.Contains(t, out, rowID)

	exportPath := filepath.Join(dir, "out.xlsx")
	out, _, err = execute(t, "export", exportPath)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote 2 row(s)")
	assert.FileExists(t, exportPath)

	out, _, err = execute(t, "summary")
	require.NoError(t, err)
	assert.Contains(t, out, "Ore processed:")

	out, _, err = execute(t, "trend", "--from", "2024-03-02")
	require.NoError(t, err)
	assert.Contains(t, out, "2024-03-02")
	assert.NotContains(t, out, "2024-03-01")

	out, _, err = execute(t, "remove", rowID)
	require.NoError(t, err)
	assert.Contains(t, out, "removed 1 row(s)")

	out, _, err = execute(t, "recompute")
	require.NoError(t, err)
	assert.Contains(t, out, "1 rows: 1 computed")
}

func TestCLI_FormulaRejected(t *testing.T) {
	setupCLI(t)

	_, _, err := execute(t, "add", "tonnage=1")
	require.NoError(t, err)

	_, errOut, err := execute(t, "formula", "bad", "__import__('os')")
	require.Error(t, err)
	assert.Contains(t, errOut, "formula rejected:")

	_, _, err = execute(t, "formula", "check", "tonnage * 2")
	require.NoError(t, err)
}

func TestCLI_Schema(t *testing.T) {
	out, _, err := execute(t, "schema")
	require.NoError(t, err)
	assert.Contains(t, out, "name: recovery_rate")
	assert.Contains(t, out, "role: derived")
}
