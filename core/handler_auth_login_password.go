package core

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/caasmo/credkeeper/crypto"
	"github.com/caasmo/credkeeper/db"
)

// expiresIn converts an absolute token expiry into the relative seconds
// reported in auth responses.
func expiresIn(expiry time.Time) int {
	return int(time.Until(expiry).Seconds())
}

// AuthWithPasswordHandler handles password-based authentication (login)
// Endpoint: POST /api/auth-with-password
// Authenticated: No
// Allowed Mimetype: application/json
func (a *App) AuthWithPasswordHandler(w http.ResponseWriter, r *http.Request) {
	if err, resp := a.Validator().ContentType(r, MimeTypeJSON); err != nil {
		writeJsonError(w, resp)
		return
	}

	var req struct {
		Identity string `json:"identity"` // email
		Password string `json:"password"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJsonError(w, errorInvalidRequest)
		return
	}

	if req.Identity == "" || req.Password == "" {
		writeJsonError(w, errorInvalidRequest)
		return
	}

	if err := ValidateEmail(req.Identity); err != nil {
		writeJsonError(w, errorInvalidRequest)
		return
	}

	// Unknown email, missing password credential and wrong password all
	// produce the same response so the endpoint cannot be used to probe
	// which accounts exist.
	user, err := a.DbIdentity().GetUserByEmail(req.Identity)
	if err != nil {
		writeJsonError(w, errorInvalidCredentials)
		return
	}

	creds, err := a.DbIdentity().GetCredentials(user.ID)
	if err != nil {
		writeJsonError(w, errorInvalidCredentials)
		return
	}

	hash := db.PasswordSecret(creds)
	if hash == "" || !crypto.CheckPassword(req.Password, hash) {
		writeJsonError(w, errorInvalidCredentials)
		return
	}

	cfg := a.Config()
	token, expiry, err := crypto.NewJwtSessionToken(user.ID, user.Email, hash, []byte(cfg.Jwt.AuthSecret), cfg.Jwt.AuthTokenDuration.Duration)
	if err != nil {
		writeJsonError(w, errorTokenGeneration)
		return
	}

	writeAuthResponse(w, token, expiresIn(expiry), user)
}
