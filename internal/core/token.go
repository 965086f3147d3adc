package core

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const tokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

const (
	channelTokenLen  = 8
	userTokenLen     = 16
	superpasswordLen = 10
)

// maxIssueRetries bounds collision retries. At 8+ random alphanumeric
// characters a collision is vanishingly rare, so hitting the bound means
// something is wrong with the entropy source rather than the namespace.
const maxIssueRetries = 64

// TokenIssuer mints collision-free random identifiers for channels and users.
type TokenIssuer struct{}

// NewTokenIssuer creates a token issuer.
func NewTokenIssuer() *TokenIssuer {
	return &TokenIssuer{}
}

// Generate returns a string of n characters drawn uniformly from the
// alphanumeric alphabet using a cryptographically secure source.
func (ti *TokenIssuer) Generate(n int) (string, error) {
	buf := make([]byte, n)
	alphabetLen := big.NewInt(int64(len(tokenAlphabet)))
	for i := range buf {
		idx, err := rand.Int(rand.Reader, alphabetLen)
		if err != nil {
			return "", fmt.Errorf("read random: %w", err)
		}
		buf[i] = tokenAlphabet[idx.Int64()]
	}
	return string(buf), nil
}

// ChannelToken mints a channel token unique within its kind's namespace.
// taken reports whether a candidate already exists.
func (ti *TokenIssuer) ChannelToken(taken func(string) bool) (string, error) {
	return ti.unique(channelTokenLen, taken)
}

// UserToken mints a user token unique within one channel.
func (ti *TokenIssuer) UserToken(taken func(string) bool) (string, error) {
	return ti.unique(userTokenLen, taken)
}

// Superpassword mints the channel creation secret.
func (ti *TokenIssuer) Superpassword() (string, error) {
	return ti.Generate(superpasswordLen)
}

func (ti *TokenIssuer) unique(length int, taken func(string) bool) (string, error) {
	for i := 0; i < maxIssueRetries; i++ {
		token, err := ti.Generate(length)
		if err != nil {
			return "", err
		}
		if !taken(token) {
			return token, nil
		}
	}
	return "", coreError(ErrCodeIssuanceExhausted, "token namespace exhausted")
}
