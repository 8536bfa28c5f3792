package sqlite

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/playdex/playdex-chat/internal/adapters/keystore"
	"github.com/playdex/playdex-chat/internal/crypto"
)

func TestConnectionPragmas(t *testing.T) {
	dir := t.TempDir()
	ks, err := keystore.NewFileStore(filepath.Join(dir, "secrets"))
	require.NoError(t, err)
	cipher, err := crypto.NewBodyCipher(ks)
	require.NoError(t, err)

	store, err := New(filepath.Join(dir, "chat.db"), cipher)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	var mode string
	require.NoError(t, store.db.QueryRow("PRAGMA journal_mode").Scan(&mode))
	require.Equal(t, "wal", mode)

	var timeout int
	require.NoError(t, store.db.QueryRow("PRAGMA busy_timeout").Scan(&timeout))
	require.Equal(t, 5000, timeout)
}
