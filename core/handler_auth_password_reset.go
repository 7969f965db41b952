package core

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/caasmo/credkeeper/crypto"
	"github.com/caasmo/credkeeper/db"
	"github.com/caasmo/credkeeper/queue"
)

// RequestPasswordResetHandler queues a password reset email.
// Endpoint: POST /api/request-password-reset
// Authenticated: No
// Allowed Mimetype: application/json
func (a *App) RequestPasswordResetHandler(w http.ResponseWriter, r *http.Request) {
	if err, resp := a.Validator().ContentType(r, MimeTypeJSON); err != nil {
		writeJsonError(w, resp)
		return
	}

	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJsonError(w, errorInvalidRequest)
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" {
		writeJsonError(w, errorInvalidRequest)
		return
	}
	if err := ValidateEmail(req.Email); err != nil {
		writeJsonError(w, errorInvalidRequest)
		return
	}

	user, err := a.DbIdentity().GetUserByEmail(req.Email)
	if err != nil {
		// Same response for unknown addresses to prevent email enumeration.
		if errors.Is(err, db.ErrUserNotFound) {
			writeJsonOk(w, okPasswordResetRequested)
			return
		}
		writeJsonError(w, errorDatabase)
		return
	}

	cooldownBucket := queue.CoolDownBucket(a.Config().RateLimits.PasswordResetCooldown.Duration, time.Now())
	payload, _ := json.Marshal(queue.PayloadPasswordReset{
		Email:          user.Email,
		Locale:         requestLocale(r),
		CooldownBucket: cooldownBucket,
	})

	err = a.DbQueue().InsertJob(db.Job{
		JobType: queue.JobTypePasswordReset,
		Payload: payload,
	})
	if err != nil {
		if errors.Is(err, db.ErrConstraintUnique) {
			writeJsonError(w, errorPasswordResetRequested)
			return
		}
		writeJsonError(w, errorServiceUnavailable)
		return
	}

	writeJsonOk(w, okPasswordResetRequested)
}

// ConfirmPasswordResetHandler validates a reset token and replaces the
// password. Because the token's signing key mixes in the hash it was issued
// against, completing a reset invalidates every other outstanding reset
// token, and an OAuth2-only account cannot redeem one at all.
// Endpoint: POST /api/confirm-password-reset
// Authenticated: No
// Allowed Mimetype: application/json
func (a *App) ConfirmPasswordResetHandler(w http.ResponseWriter, r *http.Request) {
	if err, resp := a.Validator().ContentType(r, MimeTypeJSON); err != nil {
		writeJsonError(w, resp)
		return
	}

	var req struct {
		Token           string `json:"token"`
		Password        string `json:"password"`
		PasswordConfirm string `json:"password_confirm"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJsonError(w, errorInvalidRequest)
		return
	}

	if req.Token == "" || req.Password == "" || req.PasswordConfirm == "" {
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

	claims, err := crypto.ParseJwtUnverified(req.Token)
	if err != nil {
		writeJsonError(w, errorJwtInvalidCallbackToken)
		return
	}
	if err := crypto.ValidateClaims(claims, crypto.ClaimTypePasswordReset); err != nil {
		writeJsonError(w, errorJwtInvalidCallbackToken)
		return
	}

	user, err := a.DbIdentity().GetUserById(claims[crypto.ClaimUserID].(string))
	if err != nil {
		writeJsonError(w, errorNotFound)
		return
	}

	creds, err := a.DbIdentity().GetCredentials(user.ID)
	if err != nil {
		writeJsonError(w, errorDatabase)
		return
	}

	cfg := a.Config()
	signingKey, err := crypto.NewJwtSigningKeyWithCredentials(
		claims[crypto.ClaimEmail].(string),
		db.SigningKeyPart(user, creds),
		[]byte(cfg.Jwt.PasswordResetSecret),
	)
	if err != nil {
		writeJsonError(w, errorTokenGeneration)
		return
	}

	if _, err := crypto.ParseJwt(req.Token, signingKey); err != nil {
		writeJsonError(w, errorJwtInvalidCallbackToken)
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

	writeJsonOk(w, okPasswordReset)
}
