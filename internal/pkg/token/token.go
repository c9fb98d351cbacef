// Package token issues opaque bearer tokens and maps them to one-way handles.
// Only the handle is ever persisted.
package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
)

const defaultSize = 32

// Hasher maps a raw token to its stored handle. It must be deterministic
// across processes.
type Hasher interface {
	Hash(raw string) string
}

// SHA256 hex-encodes the SHA-256 digest of the token.
type SHA256 struct{}

func (SHA256) Hash(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

type Issuer struct {
	Random io.Reader
	Hasher Hasher
	Size   int
}

// NewIssuer returns an issuer backed by crypto/rand and SHA-256.
func NewIssuer() Issuer {
	return Issuer{Random: rand.Reader, Hasher: SHA256{}, Size: defaultSize}
}

// Issue returns a new URL-safe raw token and its handle.
func (i Issuer) Issue() (raw, handle string, err error) {
	size := i.Size
	if size <= 0 {
		size = defaultSize
	}
	buf := make([]byte, size)
	if _, err := io.ReadFull(i.random(), buf); err != nil {
		return "", "", fmt.Errorf("read random: %w", err)
	}
	raw = base64.RawURLEncoding.EncodeToString(buf)
	return raw, i.Handle(raw), nil
}

// Handle returns the stored form of raw.
func (i Issuer) Handle(raw string) string {
	if i.Hasher == nil {
		return SHA256{}.Hash(raw)
	}
	return i.Hasher.Hash(raw)
}

func (i Issuer) random() io.Reader {
	if i.Random == nil {
		return rand.Reader
	}
	return i.Random
}
