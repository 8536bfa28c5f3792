// Package crypto encrypts message bodies at rest. One process-wide 256-bit
// key, AES-GCM per body, nonce prefixed to the sealed blob.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/playdex/playdex-chat/internal/domain"
)

// KeyName is the key-store entry holding the message key.
const KeyName = "chat.message-key"

const keySize = 32

type BodyCipher struct {
	aead cipher.AEAD
}

// NewBodyCipher loads the message key from ks, generating and persisting a
// fresh one on first use. Losing the stored key makes existing bodies
// unreadable; they load as empty strings, not errors.
func NewBodyCipher(ks domain.KeyStore) (*BodyCipher, error) {
	key, err := loadOrCreateKey(ks)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("init body cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("init body cipher: %w", err)
	}

	return &BodyCipher{aead: aead}, nil
}

func loadOrCreateKey(ks domain.KeyStore) ([]byte, error) {
	enc, ok, err := ks.Read(KeyName)
	if err != nil {
		return nil, fmt.Errorf("read message key: %w", err)
	}
	if ok {
		key, err := base64.StdEncoding.DecodeString(enc)
		if err != nil {
			return nil, fmt.Errorf("decode message key: %w", err)
		}
		if len(key) != keySize {
			return nil, fmt.Errorf("message key has %d bytes, want %d", len(key), keySize)
		}
		return key, nil
	}

	key := make([]byte, keySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, fmt.Errorf("generate message key: %w", err)
	}
	if err := ks.Save(KeyName, base64.StdEncoding.EncodeToString(key)); err != nil {
		return nil, fmt.Errorf("persist message key: %w", err)
	}
	return key, nil
}

func (c *BodyCipher) Encrypt(plain string) ([]byte, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return c.aead.Seal(nonce, nonce, []byte(plain), nil), nil
}

func (c *BodyCipher) Decrypt(blob []byte) (string, error) {
	if len(blob) < c.aead.NonceSize() {
		return "", fmt.Errorf("ciphertext too short")
	}
	nonce := blob[:c.aead.NonceSize()]
	body := blob[c.aead.NonceSize():]
	plain, err := c.aead.Open(nil, nonce, body, nil)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}
