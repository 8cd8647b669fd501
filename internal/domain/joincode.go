package domain

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// JoinCodeLength is the number of characters in a join code.
const JoinCodeLength = 6

// JoinCodeAlphabet excludes I, O, 0 and 1 so codes can be read aloud and
// typed without confusion. Its length (32) divides 256, so reducing a random
// byte modulo the length is unbiased.
const JoinCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// NewJoinCode draws a fresh join code from r.
// Production callers pass crypto/rand.Reader; tests pass a fixed reader.
func NewJoinCode(r io.Reader) (string, error) {
	buf := make([]byte, JoinCodeLength)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", fmt.Errorf("domain.NewJoinCode: %w", err)
	}
	var b strings.Builder
	b.Grow(JoinCodeLength)
	for _, v := range buf {
		b.WriteByte(JoinCodeAlphabet[int(v)%len(JoinCodeAlphabet)])
	}
	return b.String(), nil
}

// NormalizeJoinCode trims and upper-cases user input.
// Returns ErrInvalidJoinCode unless the result is exactly JoinCodeLength characters.
func NormalizeJoinCode(raw string) (string, error) {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if utf8.RuneCountInString(code) != JoinCodeLength {
		return "", ErrInvalidJoinCode
	}
	return code, nil
}
