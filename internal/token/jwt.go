package token

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/paylinehq/adminctl/internal/errors"
)

// ExpiryFromToken derives the expiry instant from a bearer token without
// verifying its signature; the backend signed it, the client only needs the
// exp claim. A token that does not have exactly three dot-separated segments,
// or whose payload lacks a numeric exp claim, is structurally invalid and is
// rejected outright.
func ExpiryFromToken(raw string) (time.Time, error) {
	if strings.Count(raw, ".") != 2 {
		return time.Time{}, errors.NewTokenInvalidError("token must have exactly 3 segments")
	}

	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(raw, claims); err != nil {
		return time.Time{}, errors.Wrap(errors.ErrCodeTokenMalformed, "decode token payload", err).
			WithKind(errors.KindTokenInvalid)
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, errors.New(errors.ErrCodeTokenNoExpiry, "token has no numeric exp claim").
			WithKind(errors.KindTokenInvalid)
	}

	return exp.Time, nil
}
