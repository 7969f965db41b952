package core

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/caasmo/credkeeper/config"
	"github.com/caasmo/credkeeper/crypto"
	"github.com/caasmo/credkeeper/db"
)

// Authenticator defines the interface for authentication operations
type Authenticator interface {
	Authenticate(r *http.Request) (*db.User, error, jsonResponse)
}

// DefaultAuthenticator implements Authenticator using the standard
// per-user signing key flow: claims are read unverified first, the user's
// current credentials are loaded, and the signature is verified against a
// key derived from them. A password change or account deletion therefore
// invalidates every outstanding session token.
type DefaultAuthenticator struct {
	dbIdentity     db.DbIdentity
	logger         *slog.Logger
	configProvider *config.Provider
}

// NewDefaultAuthenticator creates a new DefaultAuthenticator instance
func NewDefaultAuthenticator(dbi db.DbIdentity, logger *slog.Logger, configProvider *config.Provider) *DefaultAuthenticator {
	return &DefaultAuthenticator{
		dbIdentity:     dbi,
		logger:         logger,
		configProvider: configProvider,
	}
}

// Authenticate implements the Authenticator interface. The error is always
// a generic "auth error" so callers cannot leak why authentication failed;
// the jsonResponse carries the client-facing details.
func (a *DefaultAuthenticator) Authenticate(r *http.Request) (*db.User, error, jsonResponse) {
	errAuth := errors.New("auth error")

	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return nil, errAuth, errorNoAuthHeader
	}

	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenString == authHeader {
		return nil, errAuth, errorInvalidTokenFormat
	}

	// Parse unverified token to get claims
	claims, err := crypto.ParseJwtUnverified(tokenString)
	if err != nil {
		return nil, errAuth, errorJwtInvalidToken
	}

	if err := crypto.ValidateClaims(claims, crypto.ClaimTypeSession); err != nil {
		return nil, errAuth, errorJwtInvalidToken
	}

	userID := claims[crypto.ClaimUserID].(string)
	user, err := a.dbIdentity.GetUserById(userID)
	if err != nil {
		return nil, errAuth, errorJwtInvalidToken
	}

	creds, err := a.dbIdentity.GetCredentials(user.ID)
	if err != nil {
		return nil, errAuth, errorJwtInvalidToken
	}

	cfg := a.configProvider.Get()
	signingKey, err := crypto.NewJwtSigningKeyWithCredentials(user.Email, db.SigningKeyPart(user, creds), []byte(cfg.Jwt.AuthSecret))
	if err != nil {
		// likely config issues (e.g. short secret) or bad user data
		return nil, errAuth, errorTokenGeneration
	}

	// Verify token signature and standard claims (like expiry)
	if _, err := crypto.ParseJwt(tokenString, signingKey); err != nil {
		if errors.Is(err, crypto.ErrJwtTokenExpired) {
			return nil, errAuth, errorJwtTokenExpired
		}
		if errors.Is(err, crypto.ErrJwtInvalidSigningMethod) {
			return nil, errAuth, errorJwtInvalidSignMethod
		}
		return nil, errAuth, errorJwtInvalidToken
	}

	return user, nil, jsonResponse{}
}
