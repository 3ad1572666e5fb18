package auth

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBasicCredential(t *testing.T) {
	cred, err := NewBasicCredential("jdoe", "s3cret")
	require.NoError(t, err)

	assert.Equal(t, Credential("amRvZTpzM2NyZXQ="), cred)
	assert.Equal(t, "Basic amRvZTpzM2NyZXQ=", cred.Header())
	assert.Equal(t, "jdoe", cred.Username())
	assert.Equal(t, "[redacted]", fmt.Sprint(cred))
}

func TestNewBasicCredential_RejectsBlank(t *testing.T) {
	_, err := NewBasicCredential(" ", "pw")
	assert.ErrorIs(t, err, ErrEmptyCredential)

	_, err = NewBasicCredential("jdoe", "")
	assert.ErrorIs(t, err, ErrEmptyCredential)
}

func TestSealer_RoundTrip(t *testing.T) {
	sealer := NewSealer("session-secret")
	cred, err := NewBasicCredential("jdoe", "s3cret")
	require.NoError(t, err)

	sealed, err := sealer.Seal(cred)
	require.NoError(t, err)
	assert.NotContains(t, sealed, string(cred))

	opened, err := sealer.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, cred, opened)
}

func TestSealer_NoncesDiffer(t *testing.T) {
	sealer := NewSealer("session-secret")
	a, err := sealer.Seal("abc")
	require.NoError(t, err)
	b, err := sealer.Seal("abc")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestSealer_RejectsWrongKeyAndTampering(t *testing.T) {
	sealed, err := NewSealer("one").Seal("abc")
	require.NoError(t, err)

	_, err = NewSealer("two").Open(sealed)
	assert.ErrorIs(t, err, ErrSealedCredential)

	_, err = NewSealer("one").Open("not-base64!")
	assert.ErrorIs(t, err, ErrSealedCredential)

	_, err = NewSealer("one").Open("c2hvcnQ")
	assert.ErrorIs(t, err, ErrSealedCredential)
}

func TestSealer_RejectsEmpty(t *testing.T) {
	_, err := NewSealer("one").Seal("")
	assert.ErrorIs(t, err, ErrEmptyCredential)
}
