package roomcode

import (
	"crypto/rand"
	"errors"
	"math/big"
	"strings"
)

const (
	// Alphabet excludes I, O, 0 and 1 so codes survive being read aloud.
	Alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	Length   = 5

	DefaultMaxAttempts = 64
)

var ErrExhausted = errors.New("no unused room code found")

// Generator draws random room codes.
type Generator struct {
	maxAttempts int
}

func NewGenerator(maxAttempts int) *Generator {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Generator{maxAttempts: maxAttempts}
}

// Generate draws candidates until claim accepts one. claim reports whether the
// candidate was free and is now held by the caller; an error from claim aborts
// generation. After maxAttempts rejected candidates ErrExhausted is returned.
func (g *Generator) Generate(claim func(code string) (bool, error)) (string, error) {
	for i := 0; i < g.maxAttempts; i++ {
		code, err := Candidate()
		if err != nil {
			return "", err
		}
		ok, err := claim(code)
		if err != nil {
			return "", err
		}
		if ok {
			return code, nil
		}
	}
	return "", ErrExhausted
}

// Candidate returns one uniformly sampled code without any uniqueness check.
func Candidate() (string, error) {
	var sb strings.Builder
	sb.Grow(Length)
	max := big.NewInt(int64(len(Alphabet)))
	for i := 0; i < Length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		sb.WriteByte(Alphabet[n.Int64()])
	}
	return sb.String(), nil
}

// Normalize trims the input and upper-cases it. It does not validate.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Valid reports whether code is a normalised code over the alphabet.
func Valid(code string) bool {
	if len(code) != Length {
		return false
	}
	for i := 0; i < len(code); i++ {
		if strings.IndexByte(Alphabet, code[i]) < 0 {
			return false
		}
	}
	return true
}
