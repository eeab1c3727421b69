package auth

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurrentMintsAndPersists(t *testing.T) {
	t.Setenv("LISTA_HOME", t.TempDir())
	t.Setenv("LISTA_SESSION", "")

	first, err := Current()
	require.NoError(t, err)
	assert.Equal(t, "file", first.Source)
	_, err = uuid.Parse(first.ID)
	assert.NoError(t, err, "minted id is a UUID")

	second, err := Current()
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "session is stable across loads")
}

func TestSessionFilePermissions(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("LISTA_HOME", dir)
	t.Setenv("LISTA_SESSION", "")

	_, err := Current()
	require.NoError(t, err)

	info, err := os.Stat(filepath.Join(dir, sessionFileName))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("LISTA_HOME", t.TempDir())
	t.Setenv("LISTA_SESSION", "env-session-id")

	s, err := Current()
	require.NoError(t, err)
	assert.Equal(t, "env-session-id", s.ID)
	assert.Equal(t, "env", s.Source)
}

func TestReset(t *testing.T) {
	t.Setenv("LISTA_HOME", t.TempDir())
	t.Setenv("LISTA_SESSION", "")

	first, err := Current()
	require.NoError(t, err)

	require.NoError(t, Reset())
	require.NoError(t, Reset(), "resetting twice is fine")

	second, err := Current()
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID, "a fresh session is minted after reset")
}
