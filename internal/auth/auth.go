// Package auth issues and verifies the bearer tokens that identify players.
//
// Tokens are securecookie-encoded user ids: HMAC-signed, AES-encrypted when a
// block key is configured, and stamped with an issue time so they expire.
package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/gorilla/securecookie"
)

const tokenName = "queryquest-token"

// DefaultTokenTTL is used when NewTokens receives a non-positive ttl.
const DefaultTokenTTL = 7 * 24 * time.Hour

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrInvalidKey   = errors.New("auth key must be at least 32 bytes")
)

type claims struct {
	UserID string `json:"sub"`
}

type Tokens struct {
	codec *securecookie.SecureCookie
}

// NewTokens builds a token codec. hashKey signs tokens and must be at least
// 32 bytes; blockKey is optional and, when set, must be 16, 24 or 32 bytes.
func NewTokens(hashKey, blockKey []byte, ttl time.Duration) (*Tokens, error) {
	if len(hashKey) < 32 {
		return nil, ErrInvalidKey
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	codec := securecookie.New(hashKey, blockKey)
	codec.SetSerializer(securecookie.JSONEncoder{})
	codec.MaxAge(int(ttl / time.Second))
	// Bearer tokens travel in a header, not a cookie jar.
	codec.MaxLength(0)
	return &Tokens{codec: codec}, nil
}

// GenerateKey returns a random key suitable for NewTokens.
func GenerateKey() []byte {
	return securecookie.GenerateRandomKey(32)
}

func (t *Tokens) Issue(userID string) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", ErrInvalidToken
	}
	return t.codec.Encode(tokenName, claims{UserID: userID})
}

// Authenticate returns the user id carried by token.
func (t *Tokens) Authenticate(token string) (string, error) {
	if token == "" {
		return "", ErrMissingToken
	}

	var c claims
	if err := t.codec.Decode(tokenName, token, &c); err != nil {
		return "", ErrInvalidToken
	}
	if c.UserID == "" {
		return "", ErrInvalidToken
	}
	return c.UserID, nil
}
