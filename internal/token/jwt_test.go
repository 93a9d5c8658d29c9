package token

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paylinehq/adminctl/internal/errors"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	raw, err := tok.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return raw
}

func TestExpiryFromToken(t *testing.T) {
	exp := time.Now().Add(30 * time.Minute).Truncate(time.Second)
	raw := signedToken(t, jwt.MapClaims{
		"sub": "admin-1",
		"exp": exp.Unix(),
	})

	got, err := ExpiryFromToken(raw)
	require.NoError(t, err)
	assert.True(t, got.Equal(exp), "expiry = %v, want %v", got, exp)
}

func TestExpiryFromTokenRejectsBadStructure(t *testing.T) {
	payload := base64.RawURLEncoding.EncodeToString([]byte(`{"exp":123}`))

	tests := []struct {
		name string
		raw  string
	}{
		{name: "empty", raw: ""},
		{name: "one segment", raw: "abc"},
		{name: "two segments", raw: "abc.def"},
		{name: "four segments", raw: "a.b.c.d"},
		{name: "garbage payload", raw: "aaaa.!!!!.bbbb"},
		{name: "payload not json", raw: "aaaa." + base64.RawURLEncoding.EncodeToString([]byte("not json")) + ".bbbb"},
		{name: "valid-looking but unused", raw: "h." + payload},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ExpiryFromToken(tt.raw)
			require.Error(t, err)
			assert.Equal(t, errors.KindTokenInvalid, errors.KindOf(err))
		})
	}
}

func TestExpiryFromTokenRejectsMissingExp(t *testing.T) {
	raw := signedToken(t, jwt.MapClaims{"sub": "admin-1"})

	_, err := ExpiryFromToken(raw)
	require.Error(t, err)
	assert.Equal(t, errors.KindTokenInvalid, errors.KindOf(err))
	assert.Equal(t, errors.ErrCodeTokenNoExpiry, errors.CodeOf(err))
}

func TestExpiryFromTokenRejectsNonNumericExp(t *testing.T) {
	raw := signedToken(t, jwt.MapClaims{"sub": "admin-1", "exp": "tomorrow"})

	_, err := ExpiryFromToken(raw)
	require.Error(t, err)
	assert.Equal(t, errors.KindTokenInvalid, errors.KindOf(err))
}
