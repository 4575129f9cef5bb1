package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klass-lk/miniblog/internal/config"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cfgFile, flags = "", config.Flags{}
	out := new(bytes.Buffer)
	rootCmd.SetOut(out)
	rootCmd.SetErr(out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	SetVersion("1.2.3")
	defer SetVersion("dev")

	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "miniblog 1.2.3\n", out)
}

func TestInitDB_MemoryStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "miniblog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("database:\n  driver: memory\nlog:\n  mode: prod\n"), 0644))

	out, err := run(t, "initdb", "--config", path, "--port", "4000")
	require.NoError(t, err)
	assert.Contains(t, out, "Database initialized successfully")
	assert.Equal(t, 4000, cfg.Server.Port)
}

func TestInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "miniblog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("database:\n  driver: oracle\n"), 0644))

	_, err := run(t, "initdb", "--config", path)
	assert.Error(t, err)

	_, err = run(t, "initdb", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
