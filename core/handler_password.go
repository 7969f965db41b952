package core

import (
	"encoding/json"
	"net/http"

	"github.com/caasmo/credkeeper/crypto"
	"github.com/caasmo/credkeeper/db"
	"github.com/caasmo/credkeeper/guard"
)

// SetPasswordHandler sets the initial password on an account that signed up
// through an OAuth2 provider. The snapshot check runs on the credentials
// read here; the store repeats it inside the write transaction, so a
// concurrent set still yields exactly one password credential.
// Endpoint: POST /api/set-password
// Authenticated: Yes
// Allowed Mimetype: application/json
func (a *App) SetPasswordHandler(w http.ResponseWriter, r *http.Request) {
	if err, resp := a.Validator().ContentType(r, MimeTypeJSON); err != nil {
		writeJsonError(w, resp)
		return
	}

	user, err, authResp := a.Auth().Authenticate(r)
	if err != nil {
		writeJsonError(w, authResp)
		return
	}

	var req struct {
		Password        string `json:"password"`
		PasswordConfirm string `json:"password_confirm"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJsonError(w, errorInvalidRequest)
		return
	}
	if req.Password == "" || req.PasswordConfirm == "" {
		writeJsonError(w, errorMissingFields)
		return
	}
	if req.Password != req.PasswordConfirm {
		writeJsonError(w, errorPasswordMismatch)
		return
	}
	if err := ValidatePassword(req.Password); err != nil {
		writeJsonError(w, errorPasswordComplexity)
		return
	}

	creds, err := a.DbIdentity().GetCredentials(user.ID)
	if err != nil {
		writeJsonError(w, errorDatabase)
		return
	}

	if decision := guard.SetInitialPassword(creds); !decision.Allowed {
		writeJsonError(w, guardDenyResponse(decision.Reason))
		return
	}

	hashedPassword, err := crypto.GenerateHash(req.Password)
	if err != nil {
		writeJsonError(w, errorDatabase)
		return
	}

	err = a.DbIdentity().InsertCredential(db.Credential{
		UserID:   user.ID,
		Provider: db.ProviderPassword,
		Secret:   string(hashedPassword),
	})
	if err != nil {
		writeJsonError(w, storeErrorResponse(err))
		return
	}

	writeJsonOk(w, okPasswordSet)
}

// ChangePasswordHandler replaces an existing password after verifying the
// current one. The session token the request authenticated with stops
// working once the hash changes.
// Endpoint: POST /api/change-password
// Authenticated: Yes
// Allowed Mimetype: application/json
func (a *App) ChangePasswordHandler(w http.ResponseWriter, r *http.Request) {
	if err, resp := a.Validator().ContentType(r, MimeTypeJSON); err != nil {
		writeJsonError(w, resp)
		return
	}

	user, err, authResp := a.Auth().Authenticate(r)
	if err != nil {
		writeJsonError(w, authResp)
		return
	}

	var req struct {
		CurrentPassword string `json:"current_password"`
		Password        string `json:"password"`
		PasswordConfirm string `json:"password_confirm"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJsonError(w, errorInvalidRequest)
		return
	}
	if req.CurrentPassword == "" || req.Password == "" || req.PasswordConfirm == "" {
		writeJsonError(w, errorMissingFields)
		return
	}
	if req.Password != req.PasswordConfirm {
		writeJsonError(w, errorPasswordMismatch)
		return
	}
	if err := ValidatePassword(req.Password); err != nil {
		writeJsonError(w, errorPasswordComplexity)
		return
	}

	creds, err := a.DbIdentity().GetCredentials(user.ID)
	if err != nil {
		writeJsonError(w, errorDatabase)
		return
	}

	currentValid := false
	if hash := db.PasswordSecret(creds); hash != "" {
		currentValid = crypto.CheckPassword(req.CurrentPassword, hash)
	}

	if decision := guard.ChangePassword(creds, currentValid); !decision.Allowed {
		writeJsonError(w, guardDenyResponse(decision.Reason))
		return
	}

	hashedPassword, err := crypto.GenerateHash(req.Password)
	if err != nil {
		writeJsonError(w, errorDatabase)
		return
	}

	if err := a.DbIdentity().UpdatePasswordSecret(user.ID, string(hashedPassword)); err != nil {
		writeJsonError(w, storeErrorResponse(err))
		return
	}

	writeJsonOk(w, okPasswordChanged)
}
