// Package pid turns database ids into the opaque reference tokens ("pid")
// exchanged with clients instead of raw numeric ids.
//
// Tokens are deterministic: the same id always encodes to the same token, so
// a purchase header's pid and a detail line's parent pid compare equal.
package pid

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// ErrInvalid is returned for tokens that are malformed or were not produced
// with the codec's secret.
var ErrInvalid = errors.New("pid: invalid token")

// Codec encodes and decodes pid tokens.
type Codec struct {
	key []byte
}

// New derives a codec from a secret string.
func New(secret string) (*Codec, error) {
	if secret == "" {
		return nil, errors.New("pid: empty secret")
	}
	sum := sha256.Sum256([]byte(secret))
	key := sum[:]
	if _, err := chacha20poly1305.NewX(key); err != nil {
		return nil, fmt.Errorf("pid: %w", err)
	}
	return &Codec{key: key}, nil
}

// MustNew is New for static configuration.
func MustNew(secret string) *Codec {
	c, err := New(secret)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Codec) nonce(plain []byte) []byte {
	mac := hmac.New(sha256.New, c.key)
	mac.Write([]byte("pid-nonce"))
	mac.Write(plain)
	return mac.Sum(nil)[:chacha20poly1305.NonceSizeX]
}

// Encode returns the token for id.
func (c *Codec) Encode(id uint) string {
	plain := make([]byte, 8)
	binary.BigEndian.PutUint64(plain, uint64(id))
	aead, _ := chacha20poly1305.NewX(c.key)
	nonce := c.nonce(plain)
	sealed := aead.Seal(nil, nonce, plain, nil)
	return base64.RawURLEncoding.EncodeToString(append(nonce, sealed...))
}

// Decode returns the id carried by token.
func (c *Codec) Decode(token string) (uint, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil || len(raw) <= chacha20poly1305.NonceSizeX {
		return 0, ErrInvalid
	}
	aead, _ := chacha20poly1305.NewX(c.key)
	nonce, sealed := raw[:chacha20poly1305.NonceSizeX], raw[chacha20poly1305.NonceSizeX:]
	plain, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil || len(plain) != 8 {
		return 0, ErrInvalid
	}
	if !hmac.Equal(nonce, c.nonce(plain)) {
		return 0, ErrInvalid
	}
	id := binary.BigEndian.Uint64(plain)
	if id == 0 {
		return 0, ErrInvalid
	}
	return uint(id), nil
}
