package services

import (
	"crypto/rand"
	"fmt"
)

const (
	// TokenLength is the number of characters in a mapping token.
	TokenLength = 6

	tokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

	// Largest multiple of len(tokenAlphabet) that fits in a byte; bytes at or
	// above it are discarded so every symbol is equally likely.
	tokenByteCeil = 256 - 256%len(tokenAlphabet)
)

// NewToken returns a random mapping token of TokenLength characters drawn
// uniformly from [A-Za-z0-9]. Collisions are not checked: 62^6 tokens.
func NewToken() (string, error) {
	out := make([]byte, 0, TokenLength)
	buf := make([]byte, 2*TokenLength)
	for len(out) < TokenLength {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("token: %w", err)
		}
		for _, b := range buf {
			if int(b) >= tokenByteCeil {
				continue
			}
			out = append(out, tokenAlphabet[int(b)%len(tokenAlphabet)])
			if len(out) == TokenLength {
				break
			}
		}
	}
	return string(out), nil
}

// ValidToken reports whether s has the shape of a mapping token: 1 to 64
// ASCII letters or digits. Tokens minted here are always 6 characters, but
// older links may carry other lengths.
func ValidToken(s string) bool {
	if len(s) == 0 || len(s) > 64 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !('a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || '0' <= c && c <= '9') {
			return false
		}
	}
	return true
}
