package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// MinKeyLength is the minimum required length for JWT signing keys.
	// 32 bytes (256 bits) is the minimum recommended length for HMAC-SHA256 keys
	// to provide sufficient security against brute force attacks.
	MinKeyLength = 32

	// JWT claim constants
	ClaimIssuedAt  = "iat"     // JWT Issued At claim key
	ClaimExpiresAt = "exp"     // JWT Expiration Time claim key
	ClaimUserID    = "user_id" // JWT User ID claim key
	ClaimEmail     = "email"
	ClaimType      = "type"

	// Values for the type claim distinguishing single-purpose tokens.
	ClaimTypeSession       = "session"
	ClaimTypeVerification  = "verification"
	ClaimTypePasswordReset = "password_reset"
)

var (
	// ErrJwtTokenExpired is returned when the token has expired
	ErrJwtTokenExpired = errors.New("token expired")
	// ErrJwtInvalidToken is returned when the token is invalid
	ErrJwtInvalidToken = errors.New("invalid token")
	// ErrJwtInvalidSigningMethod is returned when the signing method is not HS256
	ErrJwtInvalidSigningMethod = errors.New("unexpected signing method")
	// ErrJwtInvalidSecretLength is returned for invalid secret lengths
	ErrJwtInvalidSecretLength = errors.New("invalid secret length")
)

// ParseJwt verifies and parses JWT and returns its claims.
// returns a map map[string]any that you can access like any other Go map.
// 		 exp := claims["exp"].(float64)
func ParseJwt(token string, verificationKey []byte) (jwt.MapClaims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{"HS256"}))

	parsedToken, err := parser.Parse(token, func(t *jwt.Token) (any, error) {
		return verificationKey, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrJwtTokenExpired
		}
		if errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return nil, ErrJwtInvalidSigningMethod
		}
		return nil, fmt.Errorf("%w: %w", ErrJwtInvalidToken, err)
	}

	if claims, ok := parsedToken.Claims.(jwt.MapClaims); ok && parsedToken.Valid {
		return claims, nil
	}

	return nil, ErrJwtInvalidToken
}

// ParseJwtUnverified extracts claims without verifying the signature. Needed
// when the verification key itself depends on a claim (the user id selects
// the per-user signing key). Callers must follow up with ParseJwt.
func ParseJwtUnverified(token string) (jwt.MapClaims, error) {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrJwtInvalidToken, err)
	}
	return claims, nil
}

// NewJwt generates a new JWT token with the provided claims
// payload is jwt.MapClaims which is just map[string]any
// you can just call payload := map[string]any{"user_id": userID}
func NewJwt(payload jwt.MapClaims, signingKey []byte, duration time.Duration) (string, time.Time, error) {
	if len(signingKey) < MinKeyLength {
		return "", time.Time{}, ErrJwtInvalidSecretLength
	}

	// Set standard claims
	now := time.Now()
	expirationTime := now.Add(duration)
	payload[ClaimIssuedAt] = now.Unix()
	payload[ClaimExpiresAt] = expirationTime.Unix()

	// Create and sign the token
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, payload)
	tokenString, err := token.SignedString(signingKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, expirationTime, nil
}

// NewJwtSessionToken builds a session token for a user. The signing key is
// derived from the user's credentials, so credential changes invalidate all
// outstanding sessions without any server-side state.
func NewJwtSessionToken(userID, email, signingKeyPart string, secret []byte, duration time.Duration) (string, time.Time, error) {
	signingKey, err := NewJwtSigningKeyWithCredentials(email, signingKeyPart, secret)
	if err != nil {
		return "", time.Time{}, err
	}

	claims := jwt.MapClaims{
		ClaimUserID: userID,
		ClaimEmail:  email,
		ClaimType:   ClaimTypeSession,
	}
	return NewJwt(claims, signingKey, duration)
}

// NewJwtSigningKeyWithCredentials creates a JWT signing key using HMAC-SHA256.
//
// It derives a unique key by combining user-specific data (email, passwordHash)
// with a server secret. Tokens are invalidated when the user's email or
// password changes, or globally by rotating the secret.
//
// Using HMAC prevents length-extension attacks, unlike simple hash concatenation.
//
// The function uses a null byte (\x00) as a delimiter to prevent collisions
// between the email and passwordHash inputs.
func NewJwtSigningKeyWithCredentials(email, passwordHash string, secret []byte) ([]byte, error) {
	if email == "" || passwordHash == "" {
		return nil, ErrJwtInvalidSecretLength
	}

	if len(secret) < MinKeyLength {
		return nil, ErrJwtInvalidSecretLength
	}

	h := hmac.New(sha256.New, secret)
	h.Write([]byte(email))
	h.Write([]byte{0}) // Null byte to avoid collisions
	h.Write([]byte(passwordHash))

	return h.Sum(nil), nil
}
