// Package ident generates entity ids and session tokens.
package ident

import (
	"crypto/rand"

	"github.com/google/uuid"
)

const (
	alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	IDLength = 11

	// largest multiple of len(alphabet) that fits in a byte
	maxByte = 252
)

// NewID returns a random lowercase base-36 string of IDLength characters.
func NewID() (string, error) {
	out := make([]byte, 0, IDLength)
	buf := make([]byte, IDLength*2)

	for len(out) < IDLength {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if b >= maxByte {
				continue
			}
			out = append(out, alphabet[int(b)%len(alphabet)])
			if len(out) == IDLength {
				break
			}
		}
	}

	return string(out), nil
}

// NewToken returns a fresh opaque session token.
func NewToken() string {
	return uuid.NewString()
}
