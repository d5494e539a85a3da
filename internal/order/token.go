package order

import (
	"crypto/rand"
	"math/big"
	mrand "math/rand"
	"strings"
)

const (
	TokenLength   = 8
	TokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	secureTokenAttempts = 10
)

// TokenGenerator issues collection tokens for online orders. taken reports
// whether a candidate is already held by an open order; generators may
// ignore it.
type TokenGenerator interface {
	Generate(taken func(string) bool) (string, error)
}

// WeakGenerator draws from math/rand and never checks for collisions, the
// behaviour every dashboard has always had.
type WeakGenerator struct{}

func (WeakGenerator) Generate(func(string) bool) (string, error) {
	var b strings.Builder
	b.Grow(TokenLength)
	for i := 0; i < TokenLength; i++ {
		b.WriteByte(TokenAlphabet[mrand.Intn(len(TokenAlphabet))])
	}
	return b.String(), nil
}

// SecureGenerator draws from crypto/rand and retries on collision.
type SecureGenerator struct{}

func (SecureGenerator) Generate(taken func(string) bool) (string, error) {
	base := big.NewInt(int64(len(TokenAlphabet)))
	for attempt := 0; attempt < secureTokenAttempts; attempt++ {
		buf := make([]byte, TokenLength)
		for i := range buf {
			n, err := rand.Int(rand.Reader, base)
			if err != nil {
				return "", err
			}
			buf[i] = TokenAlphabet[n.Int64()]
		}
		token := string(buf)
		if taken == nil || !taken(token) {
			return token, nil
		}
	}
	return "", ErrTokenExhausted
}

// NormalizeToken trims and upper-cases user input and checks the length.
func NormalizeToken(raw string) (string, error) {
	t := strings.ToUpper(strings.TrimSpace(raw))
	if len(t) != TokenLength {
		return "", ErrMalformedToken
	}
	return t, nil
}
