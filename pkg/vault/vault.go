// Package vault protects the remote API bearer token at rest. A key is
// derived from the user's passphrase with PBKDF2 and the token is sealed
// with AES-256-GCM, so the stored blob is useless without the passphrase.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

// ErrAuthentication is returned when decryption fails. A wrong passphrase
// and a tampered ciphertext are intentionally indistinguishable.
var ErrAuthentication = errors.New("wrong passphrase or corrupted token")

const (
	saltSize   = 16
	nonceSize  = 12
	keySize    = 32
	iterations = 100_000
)

// Credential is the at-rest form of an encrypted token. The passphrase is
// never stored alongside it; callers must re-supply it on every Decrypt.
type Credential struct {
	Salt       []byte `json:"salt"`
	Nonce      []byte `json:"nonce"`
	Ciphertext []byte `json:"ct"` // includes the GCM authentication tag
}

// Vault derives keys and seals/opens credentials. It holds no per-user
// state: the passphrase is a call-time argument, never cached.
type Vault struct{}

func New() *Vault {
	return &Vault{}
}

// Encrypt seals token under a key derived from passphrase with a fresh
// random salt and nonce.
func (v *Vault) Encrypt(token, passphrase string) (Credential, error) {
	if passphrase == "" {
		return Credential{}, errors.New("passphrase must not be empty")
	}

	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return Credential{}, fmt.Errorf("failed to generate salt: %w", err)
	}
	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return Credential{}, fmt.Errorf("failed to generate nonce: %w", err)
	}

	aead, err := v.aead(passphrase, salt)
	if err != nil {
		return Credential{}, err
	}

	return Credential{
		Salt:       salt,
		Nonce:      nonce,
		Ciphertext: aead.Seal(nil, nonce, []byte(token), nil),
	}, nil
}

// Decrypt re-derives the key from the stored salt and the supplied
// passphrase and opens the credential. Any failure to authenticate is
// reported as ErrAuthentication without further detail.
func (v *Vault) Decrypt(cred Credential, passphrase string) (string, error) {
	if len(cred.Salt) != saltSize || len(cred.Nonce) != nonceSize {
		return "", ErrAuthentication
	}

	aead, err := v.aead(passphrase, cred.Salt)
	if err != nil {
		return "", err
	}

	plaintext, err := aead.Open(nil, cred.Nonce, cred.Ciphertext, nil)
	if err != nil {
		return "", ErrAuthentication
	}
	return string(plaintext), nil
}

func (v *Vault) aead(passphrase string, salt []byte) (cipher.AEAD, error) {
	key := pbkdf2.Key([]byte(passphrase), salt, iterations, keySize, sha256.New)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize GCM: %w", err)
	}
	return aead, nil
}
