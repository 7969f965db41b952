package core

import (
	"net/http"

	"github.com/caasmo/credkeeper/crypto"
	"github.com/caasmo/credkeeper/db"
)

// RefreshAuthHandler handles explicit JWT token refresh requests
// Endpoint: POST /api/auth-refresh
// Authenticated: Yes
// Allowed Mimetype: application/json
func (a *App) RefreshAuthHandler(w http.ResponseWriter, r *http.Request) {
	if err, resp := a.Validator().ContentType(r, MimeTypeJSON); err != nil {
		writeJsonError(w, resp)
		return
	}

	user, err, authResp := a.Auth().Authenticate(r)
	if err != nil {
		writeJsonError(w, authResp)
		return
	}

	creds, err := a.DbIdentity().GetCredentials(user.ID)
	if err != nil {
		writeJsonError(w, errorDatabase)
		return
	}

	cfg := a.Config()
	newToken, expiry, err := crypto.NewJwtSessionToken(user.ID, user.Email, db.SigningKeyPart(user, creds), []byte(cfg.Jwt.AuthSecret), cfg.Jwt.AuthTokenDuration.Duration)
	if err != nil {
		a.Logger().Error("failed to generate new token", "err", err)
		writeJsonError(w, errorTokenGeneration)
		return
	}

	writeAuthResponse(w, newToken, expiresIn(expiry), user)
}
