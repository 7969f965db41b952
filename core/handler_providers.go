package core

import (
	"encoding/json"
	"net/http"

	"github.com/caasmo/credkeeper/db"
	"github.com/caasmo/credkeeper/guard"
)

// LinkProviderHandler attaches an OAuth2 provider account to the
// authenticated user. The request carries a fresh authorization code; the
// handler exchanges it and links the resulting provider account. Whether
// that account already belongs to someone else is only reliably known to
// the store's write transaction, so the snapshot check here is advisory and
// the store verdict is final.
// Endpoint: POST /api/link-provider
// Authenticated: Yes
// Allowed Mimetype: application/json
func (a *App) LinkProviderHandler(w http.ResponseWriter, r *http.Request) {
	if err, resp := a.Validator().ContentType(r, MimeTypeJSON); err != nil {
		writeJsonError(w, resp)
		return
	}

	user, err, authResp := a.Auth().Authenticate(r)
	if err != nil {
		writeJsonError(w, authResp)
		return
	}

	var req oauth2Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJsonError(w, errorInvalidRequest)
		return
	}
	if req.Provider == "" || req.Code == "" || req.CodeVerifier == "" || req.RedirectURI == "" {
		writeJsonError(w, errorMissingFields)
		return
	}

	oauthUser, errResp := a.exchangeOAuth2Code(r.Context(), req)
	if oauthUser == nil {
		writeJsonError(w, errResp)
		return
	}

	creds, err := a.DbIdentity().GetCredentials(user.ID)
	if err != nil {
		writeJsonError(w, errorDatabase)
		return
	}

	if decision := guard.LinkProvider(creds, req.Provider, false); !decision.Allowed {
		writeJsonError(w, guardDenyResponse(decision.Reason))
		return
	}

	err = a.DbIdentity().InsertCredential(db.Credential{
		UserID:   user.ID,
		Provider: req.Provider,
		Secret:   oauthUser.AccountID,
	})
	if err != nil {
		writeJsonError(w, storeErrorResponse(err))
		return
	}

	writeJsonOk(w, okProviderLinked)
}

// UnlinkProviderHandler removes a provider credential. Removing the last
// remaining credential is rejected so the account never becomes
// unreachable; the store repeats the check inside its write transaction so
// two concurrent unlinks cannot strip the account bare.
// Endpoint: POST /api/unlink-provider
// Authenticated: Yes
// Allowed Mimetype: application/json
func (a *App) UnlinkProviderHandler(w http.ResponseWriter, r *http.Request) {
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
		Provider string `json:"provider"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJsonError(w, errorInvalidRequest)
		return
	}
	if req.Provider == "" {
		writeJsonError(w, errorMissingFields)
		return
	}

	creds, err := a.DbIdentity().GetCredentials(user.ID)
	if err != nil {
		writeJsonError(w, errorDatabase)
		return
	}

	if decision := guard.UnlinkProvider(creds, req.Provider); !decision.Allowed {
		writeJsonError(w, guardDenyResponse(decision.Reason))
		return
	}

	if err := a.DbIdentity().DeleteCredential(user.ID, req.Provider); err != nil {
		writeJsonError(w, storeErrorResponse(err))
		return
	}

	writeJsonOk(w, okProviderUnlinked)
}

// DeleteAccountHandler deletes the authenticated user, their credentials
// and their posts. The cascade removes every credential, so all outstanding
// session tokens stop verifying immediately.
// Endpoint: POST /api/delete-account
// Authenticated: Yes
// Allowed Mimetype: application/json
func (a *App) DeleteAccountHandler(w http.ResponseWriter, r *http.Request) {
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

	// Deletion is always permitted; the call documents the decision point.
	if decision := guard.DeleteAccount(creds); !decision.Allowed {
		writeJsonError(w, guardDenyResponse(decision.Reason))
		return
	}

	if err := a.DbIdentity().DeleteUser(user.ID); err != nil {
		writeJsonError(w, storeErrorResponse(err))
		return
	}

	writeJsonOk(w, okAccountDeleted)
}
