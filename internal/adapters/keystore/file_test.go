package keystore_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playdex/playdex-chat/internal/adapters/keystore"
)

func TestSaveAndRead(t *testing.T) {
	ks, err := keystore.NewFileStore(t.TempDir())
	require.NoError(t, err)

	_, ok, err := ks.Read("chat.message-key")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, ks.Save("chat.message-key", "c2VjcmV0"))

	v, ok, err := ks.Read("chat.message-key")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "c2VjcmV0", v)
}

func TestValuesSurviveReopen(t *testing.T) {
	dir := t.TempDir()

	ks, err := keystore.NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, ks.Save("k1", "v1"))

	reopened, err := keystore.NewFileStore(dir)
	require.NoError(t, err)
	v, ok, err := reopened.Read("k1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "v1", v)
}

func TestSecretFileIsOwnerOnly(t *testing.T) {
	dir := t.TempDir()
	ks, err := keystore.NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, ks.Save("k1", "v1"))

	info, err := os.Stat(filepath.Join(dir, "keys.json"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestEmptyNameRejected(t *testing.T) {
	ks, err := keystore.NewFileStore(t.TempDir())
	require.NoError(t, err)

	require.Error(t, ks.Save("  ", "v"))
	_, _, err = ks.Read("")
	require.Error(t, err)
}
