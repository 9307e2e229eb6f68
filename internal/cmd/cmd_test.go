package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qargo/dashboard/internal/auth"
	"github.com/qargo/dashboard/internal/config"
)

// executeCommand runs a fresh root command with args and returns the
// captured output.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dashboard.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

// fileStoreConfig returns a config file pointing at a fresh file store.
func fileStoreConfig(t *testing.T) string {
	t.Helper()
	return writeConfig(t, "store:\n  driver: file\n  dir: "+t.TempDir()+"\n")
}

func TestRootCommand(t *testing.T) {
	root := NewRootCommand()
	assert.Equal(t, "dashboard", root.Use)

	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "wizard", "users", "version"} {
		assert.True(t, names[want], "missing subcommand %q", want)
	}
	assert.NotNil(t, root.PersistentFlags().Lookup("config"))
}

func TestVersionCommand(t *testing.T) {
	out, err := executeCommand(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "dashboard dev\n", out)
}

func TestServe_InvalidConfig(t *testing.T) {
	path := writeConfig(t, "logging:\n  level: loud\n")

	_, err := executeCommand(t, "serve", "--config", path)
	require.Error(t, err)

	var verrs config.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "logging.level", verrs[0].Field)
}

func TestServe_MissingConfigFile(t *testing.T) {
	_, err := executeCommand(t, "serve", "--config", filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestUsers_Lifecycle(t *testing.T) {
	cfg := fileStoreConfig(t)

	out, err := executeCommand(t, "users", "list", "-c", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "USERNAME")
	assert.Contains(t, out, auth.DefaultAdmin.Email)

	out, err = executeCommand(t, "users", "add", "grace", "grace@qargo.com", "-p", "hopper42", "-c", cfg)
	require.NoError(t, err)
	assert.Equal(t, "Added grace\n", out)

	_, err = executeCommand(t, "users", "add", "GRACE", "g@qargo.com", "-p", "x", "-c", cfg)
	assert.ErrorIs(t, err, auth.ErrUserExists)

	_, err = executeCommand(t, "users", "update", "1", "grace", "grace@navy.mil", "-p", "cobol59", "-c", cfg)
	require.NoError(t, err)

	out, err = executeCommand(t, "users", "list", "-c", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "grace@navy.mil")

	_, err = executeCommand(t, "users", "delete", "5", "-c", cfg)
	assert.ErrorIs(t, err, auth.ErrIndexOutOfRange)

	_, err = executeCommand(t, "users", "delete", "1", "-c", cfg)
	require.NoError(t, err)

	out, err = executeCommand(t, "users", "list", "-c", cfg)
	require.NoError(t, err)
	assert.NotContains(t, out, "grace")
}

func TestUsers_Import(t *testing.T) {
	cfg := fileStoreConfig(t)
	seed := writeConfig(t, `users:
  - username: ops
    email: ops@qargo.com
    password: s3cret
  - username: finance
    email: finance@qargo.com
    password: l3dger
`)

	out, err := executeCommand(t, "users", "import", seed, "-c", cfg)
	require.NoError(t, err)
	assert.Equal(t, "Imported 2 users\n", out)

	out, err = executeCommand(t, "users", "list", "-c", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "finance@qargo.com")
	assert.NotContains(t, out, auth.DefaultAdmin.Email)
}

func TestUsers_RequirePersistentStore(t *testing.T) {
	_, err := executeCommand(t, "users", "list", "-c", writeConfig(t, "store:\n  driver: memory\n"))
	assert.ErrorIs(t, err, ErrEphemeralStore)
}

func TestUsers_BadIndex(t *testing.T) {
	_, err := executeCommand(t, "users", "delete", "first", "-c", fileStoreConfig(t))
	assert.ErrorContains(t, err, `invalid index "first"`)
}

func TestUsers_AddRequiresPassword(t *testing.T) {
	_, err := executeCommand(t, "users", "add", "grace", "grace@qargo.com", "-c", fileStoreConfig(t))
	assert.ErrorContains(t, err, "password")
}
