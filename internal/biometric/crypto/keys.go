// Package crypto holds the key derivation and authenticated encryption used
// to protect enrolled descriptors at rest. Descriptors are only ever stored
// as AES-256-GCM ciphertext; the raw vector never touches the database.
package crypto

import (
	"crypto/sha256"
	"encoding/base64"
	"sync"

	"golang.org/x/crypto/pbkdf2"

	dErrors "github.com/sumithjaya/biometric-auth-backend/pkg/domain-errors"
)

const (
	// Iterations for PBKDF2-HMAC-SHA256. Deliberately expensive: the derived
	// key is computed once per process, not per request.
	Iterations = 200_000

	// KeySize matches AES-256.
	KeySize = 32
)

// Keyring derives the process-wide symmetric key from the configured
// passphrase and salt. Derivation is memoized behind a sync.Once: the key is
// immutable after first use and safe for unsynchronized concurrent reads.
type Keyring struct {
	passphrase string
	saltB64    string

	once sync.Once
	key  []byte
	err  error
}

// NewKeyring captures the secret material without deriving anything yet.
// The first Key call pays the PBKDF2 cost.
func NewKeyring(passphrase, saltB64 string) *Keyring {
	return &Keyring{passphrase: passphrase, saltB64: saltB64}
}

// Key returns the derived 32-byte key, deriving it on first call.
func (k *Keyring) Key() ([]byte, error) {
	k.once.Do(func() {
		salt, err := base64.StdEncoding.DecodeString(k.saltB64)
		if err != nil {
			k.err = dErrors.Wrap(err, dErrors.CodeInternal, "salt is not valid base64")
			return
		}
		k.key = pbkdf2.Key([]byte(k.passphrase), salt, Iterations, KeySize, sha256.New)
	})
	return k.key, k.err
}
