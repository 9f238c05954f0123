package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// Mode selects how the Vault encrypts new values.
type Mode string

const (
	// ModeECB is deterministic AES-256-ECB, hex encoded. It leaks equality of
	// identical plaintexts and is only acceptable because every value is a
	// freshly generated random password.
	ModeECB Mode = "aes-ecb"

	// ModeGCM is AES-256-GCM with a random nonce, stored as
	// "gcm:" + hex(nonce || ciphertext).
	ModeGCM Mode = "aes-gcm"
)

const gcmPrefix = "gcm:"

// ErrDecrypt is returned for any ciphertext the Vault cannot open.
var ErrDecrypt = errors.New("cannot decrypt credential")

// Vault encrypts generated account passwords for storage at rest.
//
// The key is derived once from the configured secret. There is no key
// rotation: losing the secret makes every stored credential unrecoverable.
// Decrypt accepts both formats regardless of Mode, so a store may be moved
// from ECB to GCM without rewriting existing rows.
type Vault struct {
	block cipher.Block
	key   []byte
	mode  Mode
}

// NewVault derives the key from secret and prepares the cipher.
func NewVault(secret string, mode Mode) (*Vault, error) {
	if secret == "" {
		return nil, errors.New("empty vault secret")
	}
	if mode != ModeECB && mode != ModeGCM {
		return nil, fmt.Errorf("unsupported vault mode %q", mode)
	}

	key := DeriveKey(secret)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	return &Vault{block: block, key: key, mode: mode}, nil
}

// Encrypt returns the storable form of plaintext.
func (v *Vault) Encrypt(plaintext string) (string, error) {
	if v.mode == ModeGCM {
		ciphertext, nonce, err := sealGCM([]byte(plaintext), v.key)
		if err != nil {
			return "", err
		}
		return gcmPrefix + hex.EncodeToString(append(nonce, ciphertext...)), nil
	}

	return hex.EncodeToString(encryptECB(v.block, []byte(plaintext))), nil
}

// Decrypt reverses Encrypt for either storage format.
func (v *Vault) Decrypt(stored string) (string, error) {
	if rest, ok := strings.CutPrefix(stored, gcmPrefix); ok {
		raw, err := hex.DecodeString(rest)
		if err != nil || len(raw) < 12 {
			return "", ErrDecrypt
		}
		plaintext, err := openGCM(raw[12:], raw[:12], v.key)
		if err != nil {
			return "", ErrDecrypt
		}
		return string(plaintext), nil
	}

	raw, err := hex.DecodeString(stored)
	if err != nil {
		return "", ErrDecrypt
	}
	plaintext, err := decryptECB(v.block, raw)
	if err != nil {
		return "", ErrDecrypt
	}
	return string(plaintext), nil
}
