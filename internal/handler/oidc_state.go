package handler

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
)

// newLoginState builds the opaque anti-CSRF state carried through the OIDC
// login round trip. The state is a random payload sealed with AES-GCM under
// the configured encryption key.
func newLoginState(key []byte) (string, error) {
	payload := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, payload); err != nil {
		return "", err
	}

	gcm, err := newStateCipher(key)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	sealed := gcm.Seal(nonce, nonce, payload, nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// openLoginState checks that the state returned by the OIDC provider was
// sealed by newLoginState under the same key. Anything else is a forged or
// truncated callback.
func openLoginState(state string, key []byte) error {
	sealed, err := base64.RawURLEncoding.DecodeString(state)
	if err != nil {
		return err
	}

	gcm, err := newStateCipher(key)
	if err != nil {
		return err
	}

	if len(sealed) < gcm.NonceSize() {
		return errors.New("state is too short")
	}
	nonce, ciphertext := sealed[:gcm.NonceSize()], sealed[gcm.NonceSize():]
	if _, err := gcm.Open(nil, nonce, ciphertext, nil); err != nil {
		return err
	}
	return nil
}

func newStateCipher(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
