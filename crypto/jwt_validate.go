package crypto

import (
	"github.com/golang-jwt/jwt/v5"
)

// ValidateClaims checks that the claims of an unverified token carry a
// non-empty user id and email and the expected type value. It runs before
// any database lookup so obviously malformed tokens are discarded cheaply.
// Expiry is not checked here; ParseJwt validates it after the signature.
func ValidateClaims(claims jwt.MapClaims, claimType string) error {
	userID, ok := claims[ClaimUserID].(string)
	if !ok || userID == "" {
		return ErrJwtInvalidToken
	}
	email, ok := claims[ClaimEmail].(string)
	if !ok || email == "" {
		return ErrJwtInvalidToken
	}
	if typ, ok := claims[ClaimType].(string); !ok || typ != claimType {
		return ErrJwtInvalidToken
	}
	return nil
}
