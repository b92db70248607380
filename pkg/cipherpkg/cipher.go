// Package cipherpkg encrypts card numbers for storage and masks them for display.
package cipherpkg

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
)

const keySize = 32

var (
	// ErrInvalidKeySize indicates that the configured key has the wrong length.
	ErrInvalidKeySize = errors.New("cipher key must be 32 bytes")
	// ErrInvalidCiphertext indicates a malformed, truncated or tampered blob.
	ErrInvalidCiphertext = errors.New("malformed or tampered ciphertext")
)

// Cipher seals and opens card numbers with AES-256-GCM under a single static key.
type Cipher struct {
	aead cipher.AEAD
}

// New returns a Cipher for the given 32-byte key.
func New(key string) (*Cipher, error) {
	if len(key) != keySize {
		return nil, ErrInvalidKeySize
	}

	block, err := aes.NewCipher([]byte(key))
	if err != nil {
		return nil, err
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	return &Cipher{aead: aead}, nil
}

// Encrypt seals the card number with a fresh random nonce and returns
// base64(nonce || ciphertext), so the blob alone is enough to decrypt.
func (c *Cipher) Encrypt(number string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	sealed := c.aead.Seal(nonce, nonce, []byte(number), nil)

	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a blob produced by Encrypt.
func (c *Cipher) Decrypt(blob string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return "", ErrInvalidCiphertext
	}

	if len(data) < c.aead.NonceSize() {
		return "", ErrInvalidCiphertext
	}

	nonce, ciphertext := data[:c.aead.NonceSize()], data[c.aead.NonceSize():]

	number, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", ErrInvalidCiphertext
	}

	return string(number), nil
}

// Mask returns the display form of a card number showing only the last four
// characters.
func Mask(number string) string {
	if len(number) < 4 {
		return "****"
	}

	return "**** **** **** " + number[len(number)-4:]
}
