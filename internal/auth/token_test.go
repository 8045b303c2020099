package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	issued := Principal{UID: "u1", Email: "dana@example.com"}

	token, err := IssueToken("secret", issued, time.Hour)
	require.NoError(t, err)

	parsed, err := ParseToken("secret", token)
	require.NoError(t, err)
	assert.Equal(t, issued, parsed)
}

func TestTokenCarriesAnonymity(t *testing.T) {
	token, err := IssueToken("secret", Principal{UID: "u2", Anonymous: true}, time.Hour)
	require.NoError(t, err)

	parsed, err := ParseToken("secret", token)
	require.NoError(t, err)
	assert.True(t, parsed.Anonymous)
	assert.Empty(t, parsed.Email)
}

func TestTokenRejectsWrongSecret(t *testing.T) {
	token, err := IssueToken("secret", Principal{UID: "u1"}, time.Hour)
	require.NoError(t, err)

	_, err = ParseToken("other-secret", token)
	assert.Error(t, err)
}

func TestTokenRejectsExpired(t *testing.T) {
	token, err := IssueToken("secret", Principal{UID: "u1"}, -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken("secret", token)
	assert.Error(t, err)
}

func TestTokenRejectsGarbage(t *testing.T) {
	_, err := ParseToken("secret", "not.a.token")
	assert.Error(t, err)
}
