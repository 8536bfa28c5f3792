package crypto_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playdex/playdex-chat/internal/adapters/keystore"
	"github.com/playdex/playdex-chat/internal/crypto"
)

func newCipher(t *testing.T, dir string) *crypto.BodyCipher {
	t.Helper()
	ks, err := keystore.NewFileStore(dir)
	require.NoError(t, err)
	c, err := crypto.NewBodyCipher(ks)
	require.NoError(t, err)
	return c
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	c := newCipher(t, t.TempDir())

	bodies := []string{
		"what should I play next?",
		"",
		"line one\nline two\n\nline four",
		"emoji 🎮 and unicode – ok",
	}

	for _, body := range bodies {
		blob, err := c.Encrypt(body)
		require.NoError(t, err)

		got, err := c.Decrypt(blob)
		require.NoError(t, err)
		assert.Equal(t, body, got)
	}
}

func TestCiphertextIsOpaque(t *testing.T) {
	c := newCipher(t, t.TempDir())

	blob, err := c.Encrypt("secret history")
	require.NoError(t, err)
	assert.NotContains(t, string(blob), "secret history")

	// Nonces are random, so equal plaintexts never share ciphertext.
	blob2, err := c.Encrypt("secret history")
	require.NoError(t, err)
	assert.NotEqual(t, blob, blob2)
}

func TestKeyPersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()

	first := newCipher(t, dir)
	blob, err := first.Encrypt("remember me")
	require.NoError(t, err)

	second := newCipher(t, dir)
	got, err := second.Decrypt(blob)
	require.NoError(t, err)
	assert.Equal(t, "remember me", got)
}

func TestWrongKeyFailsToDecrypt(t *testing.T) {
	a := newCipher(t, t.TempDir())
	b := newCipher(t, t.TempDir())

	blob, err := a.Encrypt("keyed to a")
	require.NoError(t, err)

	_, err = b.Decrypt(blob)
	require.Error(t, err)
}

func TestDecryptRejectsTruncatedBlob(t *testing.T) {
	c := newCipher(t, t.TempDir())

	_, err := c.Decrypt([]byte{0x01, 0x02})
	require.Error(t, err)
}
