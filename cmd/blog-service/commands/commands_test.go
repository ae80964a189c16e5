package commands

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, dir string, args ...string) string {
	t.Helper()
	out := &bytes.Buffer{}
	rootCmd.SetOut(out)
	rootCmd.SetArgs(append(args, "--env", filepath.Join(dir, "missing.env")))
	require.NoError(t, rootCmd.ExecuteContext(context.Background()), out.String())
	return out.String()
}

func TestAdministrationAgainstSQLite(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("STORAGE_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", filepath.Join(dir, "blog.db"))

	out := run(t, dir, "author", "list")
	assert.Contains(t, out, "no authors")

	out = run(t, dir, "user", "create", "alice")
	assert.Contains(t, out, "user 1 (alice) created")
	assert.Contains(t, out, "token: ")

	out = run(t, dir, "author", "create", "--name", "Alice", "--email", "alice@test.com", "--user-id", "1")
	assert.Contains(t, out, "author 1 (Alice) created")

	out = run(t, dir, "author", "list")
	assert.Contains(t, out, "EMAIL")
	assert.Regexp(t, `\|\s*1\s*\|\s*Alice\s*\|\s*alice@test\.com\s*\|\s*1\s*\|`, out)

	out = run(t, dir, "migrate", "version")
	assert.Contains(t, out, "version 2 (dirty: false)")

	out = run(t, dir, "author", "delete", "1")
	assert.Contains(t, out, "author 1 deleted")

	out = run(t, dir, "user", "delete", "1")
	assert.Contains(t, out, "user 1 deleted")
}
