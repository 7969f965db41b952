package core

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/caasmo/credkeeper/crypto"
	"github.com/caasmo/credkeeper/db"
	"github.com/caasmo/credkeeper/mail"
	"github.com/caasmo/credkeeper/queue"
)

// requestLocale picks the locale for outbound email from the request.
func requestLocale(r *http.Request) mail.Locale {
	lang := r.Header.Get("Accept-Language")
	if strings.HasPrefix(lang, "zh") {
		return mail.LocaleZH
	}
	return mail.LocaleEN
}

// RequestEmailVerificationHandler queues a verification email for an
// unverified account.
// Endpoint: POST /api/request-verification
// Authenticated: No
// Allowed Mimetype: application/json
func (a *App) RequestEmailVerificationHandler(w http.ResponseWriter, r *http.Request) {
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
		// Report success for unknown addresses to prevent email enumeration.
		if errors.Is(err, db.ErrUserNotFound) {
			writeJsonOk(w, okVerificationRequested)
			return
		}
		writeJsonError(w, errorDatabase)
		return
	}

	if user.Verified {
		writeJsonOk(w, okAlreadyVerified)
		return
	}

	// The cooldown bucket makes the payload identical for all requests in
	// the same period, so the pending-job unique index rejects duplicates.
	cooldownBucket := queue.CoolDownBucket(a.Config().RateLimits.EmailVerificationCooldown.Duration, time.Now())
	payload, _ := json.Marshal(queue.PayloadEmailVerification{
		Email:          req.Email,
		Locale:         requestLocale(r),
		CooldownBucket: cooldownBucket,
	})

	err = a.DbQueue().InsertJob(db.Job{
		JobType: queue.JobTypeEmailVerification,
		Payload: payload,
	})
	if err != nil {
		if errors.Is(err, db.ErrConstraintUnique) {
			writeJsonError(w, errorVerificationRequested)
			return
		}
		writeJsonError(w, errorServiceUnavailable)
		return
	}

	writeJsonOk(w, okVerificationRequested)
}

// ConfirmEmailVerificationHandler validates a verification token from the
// email callback and marks the account verified. The token's signing key is
// derived from the user's current credentials, so it can only confirm the
// state it was issued for.
// Endpoint: POST /api/confirm-verification
// Authenticated: No
// Allowed Mimetype: application/json
func (a *App) ConfirmEmailVerificationHandler(w http.ResponseWriter, r *http.Request) {
	if err, resp := a.Validator().ContentType(r, MimeTypeJSON); err != nil {
		writeJsonError(w, resp)
		return
	}

	var req struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJsonError(w, errorInvalidRequest)
		return
	}

	// Parse unverified claims to discard malformed tokens fast.
	claims, err := crypto.ParseJwtUnverified(req.Token)
	if err != nil {
		writeJsonError(w, errorJwtInvalidCallbackToken)
		return
	}
	if err := crypto.ValidateClaims(claims, crypto.ClaimTypeVerification); err != nil {
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
		[]byte(cfg.Jwt.VerificationEmailSecret),
	)
	if err != nil {
		writeJsonError(w, errorTokenGeneration)
		return
	}

	if _, err := crypto.ParseJwt(req.Token, signingKey); err != nil {
		writeJsonError(w, errorJwtInvalidCallbackToken)
		return
	}

	if user.Verified {
		writeJsonOk(w, okAlreadyVerified)
		return
	}

	if err := a.DbIdentity().VerifyEmail(user.ID); err != nil {
		writeJsonError(w, errorDatabase)
		return
	}

	// Greet the user. Best effort, verification already succeeded.
	payload, _ := json.Marshal(queue.PayloadWelcome{Email: user.Email, Locale: requestLocale(r)})
	if err := a.DbQueue().InsertJob(db.Job{
		JobType: queue.JobTypeWelcome,
		Payload: payload,
	}); err != nil && !errors.Is(err, db.ErrConstraintUnique) {
		a.Logger().Error("failed to insert welcome job", "err", err)
	}

	writeJsonOk(w, okEmailVerified)
}
