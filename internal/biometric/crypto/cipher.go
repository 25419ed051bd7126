package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"

	dErrors "github.com/sumithjaya/biometric-auth-backend/pkg/domain-errors"
)

// NonceSize is the standard GCM nonce length. A fresh random nonce is drawn
// per Encrypt call and must never be reused under the same key.
const NonceSize = 12

// Encrypt seals plaintext with AES-GCM under a fresh random nonce, no
// associated data. The returned ciphertext includes the 16-byte
// authentication tag; nonce and ciphertext travel together from here on.
func Encrypt(key, plaintext []byte) (ciphertext, nonce []byte, err error) {
	nonce = make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not draw nonce")
	}

	aead, err := newAEAD(key)
	if err != nil {
		return nil, nil, err
	}

	return aead.Seal(nil, nonce, plaintext, nil), nonce, nil
}

// Decrypt opens a ciphertext produced by Encrypt. Any tag mismatch (tampered
// ciphertext, wrong key, wrong nonce) is a hard failure: no partial or
// garbage plaintext is ever returned. The underlying cipher error is not
// wrapped into the message to keep key material out of error text.
func Decrypt(key, ciphertext, nonce []byte) ([]byte, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}

	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "descriptor authentication failed")
	}
	return plaintext, nil
}

func newAEAD(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "invalid cipher key")
	}
	return cipher.NewGCM(block)
}
