package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"
	"strings"

	"golang.org/x/crypto/nacl/secretbox"
)

var (
	// ErrEmptyCredential is returned when a username, password or credential is blank.
	ErrEmptyCredential = errors.New("credential must not be empty")
	// ErrSealedCredential is returned when a sealed credential cannot be opened.
	ErrSealedCredential = errors.New("sealed credential is invalid")
)

// Credential is the opaque Basic-Auth encoding of a backend login. The password is
// never kept in clear text once encoded.
type Credential string

// NewBasicCredential encodes username:password for the Basic scheme.
func NewBasicCredential(username, password string) (Credential, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return "", ErrEmptyCredential
	}
	return Credential(base64.StdEncoding.EncodeToString([]byte(username + ":" + password))), nil
}

// IsZero reports whether the credential is empty.
func (c Credential) IsZero() bool {
	return strings.TrimSpace(string(c)) == ""
}

// Header returns the Authorization header value.
func (c Credential) Header() string {
	return "Basic " + string(c)
}

// Username decodes the user part of the credential, for logging.
func (c Credential) Username() string {
	raw, err := base64.StdEncoding.DecodeString(string(c))
	if err != nil {
		return ""
	}
	user, _, _ := strings.Cut(string(raw), ":")
	return user
}

// String hides the credential from accidental logging.
func (c Credential) String() string {
	if c.IsZero() {
		return ""
	}
	return "[redacted]"
}

// Sealer encrypts credentials at rest with NaCl secretbox.
type Sealer struct {
	key [32]byte
}

// NewSealer derives the box key from secret.
func NewSealer(secret string) *Sealer {
	return &Sealer{key: sha256.Sum256([]byte(secret))}
}

// Seal encrypts the credential and returns base64 text.
func (s *Sealer) Seal(cred Credential) (string, error) {
	if cred.IsZero() {
		return "", ErrEmptyCredential
	}
	var nonce [24]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", err
	}
	box := secretbox.Seal(nonce[:], []byte(cred), &nonce, &s.key)
	return base64.RawURLEncoding.EncodeToString(box), nil
}

// Open decrypts a value produced by Seal.
func (s *Sealer) Open(sealed string) (Credential, error) {
	raw, err := base64.RawURLEncoding.DecodeString(sealed)
	if err != nil || len(raw) < 24+secretbox.Overhead {
		return "", ErrSealedCredential
	}
	var nonce [24]byte
	copy(nonce[:], raw[:24])
	plain, ok := secretbox.Open(nil, raw[24:], &nonce, &s.key)
	if !ok {
		return "", ErrSealedCredential
	}
	return Credential(plain), nil
}
