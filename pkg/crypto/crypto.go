// Package crypto seals small records with AES-256-GCM.
//
// A sealed blob is version byte 0x01, the GCM nonce, then the sealed bytes.
// The AES key is the SHA-256 of the key material, so any key length works.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
)

const version byte = 0x01

var (
	ErrEmptyKey           = errors.New("crypto: empty key")
	ErrUnsupportedVersion = errors.New("crypto: unsupported ciphertext version")
	ErrMalformed          = errors.New("crypto: malformed ciphertext")
	ErrAuthFailed         = errors.New("crypto: message authentication failed")
)

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) == 0 {
		return nil, ErrEmptyKey
	}
	h := sha256.Sum256(key)
	block, err := aes.NewCipher(h[:])
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func Encrypt(plain, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	ct := gcm.Seal(nil, nonce, plain, nil)
	out := make([]byte, 1+len(nonce)+len(ct))
	out[0] = version
	copy(out[1:1+len(nonce)], nonce)
	copy(out[1+len(nonce):], ct)
	return out, nil
}

func Decrypt(blob, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(blob) == 0 {
		return nil, ErrMalformed
	}
	if blob[0] != version {
		return nil, ErrUnsupportedVersion
	}
	ns := gcm.NonceSize()
	if len(blob) < 1+ns+gcm.Overhead() {
		return nil, ErrMalformed
	}
	plain, err := gcm.Open(nil, blob[1:1+ns], blob[1+ns:], nil)
	if err != nil {
		return nil, ErrAuthFailed
	}
	return plain, nil
}

// PlainEncoder is implemented by values holding masked secrets; their
// EncodeJSON output is what gets sealed.
type PlainEncoder interface {
	EncodeJSON() ([]byte, error)
}

// EncryptJSON seals the JSON encoding of v.
func EncryptJSON(v any, key []byte) ([]byte, error) {
	var plain []byte
	var err error
	if pe, ok := v.(PlainEncoder); ok {
		plain, err = pe.EncodeJSON()
	} else {
		plain, err = json.Marshal(v)
	}
	if err != nil {
		return nil, fmt.Errorf("crypto: encode: %w", err)
	}
	return Encrypt(plain, key)
}

// DecryptJSON opens blob and decodes it into v.
func DecryptJSON(blob, key []byte, v any) error {
	plain, err := Decrypt(blob, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(plain, v); err != nil {
		return fmt.Errorf("crypto: decode: %w", err)
	}
	return nil
}
