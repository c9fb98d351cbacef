// Package sealbox encrypts small secrets at rest with NaCl secretbox.
package sealbox

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/nacl/secretbox"
)

const (
	keySize   = 32
	nonceSize = 24
)

var (
	ErrNoKey     = errors.New("sealbox: key not configured")
	ErrMalformed = errors.New("sealbox: malformed ciphertext")
	ErrOpen      = errors.New("sealbox: decryption failed")
)

type Box struct {
	key    *[keySize]byte
	random io.Reader
}

// New builds a box from a hex-encoded 32-byte key. An empty key yields a box
// that refuses to seal or open.
func New(hexKey string) (*Box, error) {
	hexKey = strings.TrimSpace(hexKey)
	if hexKey == "" {
		return &Box{random: rand.Reader}, nil
	}
	raw, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("sealbox: decode key: %w", err)
	}
	if len(raw) != keySize {
		return nil, fmt.Errorf("sealbox: key must be %d bytes, got %d", keySize, len(raw))
	}
	var key [keySize]byte
	copy(key[:], raw)
	return &Box{key: &key, random: rand.Reader}, nil
}

// Seal encrypts plaintext and returns base64(nonce || box).
func (b *Box) Seal(plaintext string) (string, error) {
	if b == nil || b.key == nil {
		return "", ErrNoKey
	}
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(b.random, nonce[:]); err != nil {
		return "", fmt.Errorf("sealbox: nonce: %w", err)
	}
	out := secretbox.Seal(nonce[:], []byte(plaintext), &nonce, b.key)
	return base64.StdEncoding.EncodeToString(out), nil
}

func (b *Box) Open(sealed string) (string, error) {
	if b == nil || b.key == nil {
		return "", ErrNoKey
	}
	raw, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil || len(raw) < nonceSize+secretbox.Overhead {
		return "", ErrMalformed
	}
	var nonce [nonceSize]byte
	copy(nonce[:], raw[:nonceSize])
	plain, ok := secretbox.Open(nil, raw[nonceSize:], &nonce, b.key)
	if !ok {
		return "", ErrOpen
	}
	return string(plain), nil
}
