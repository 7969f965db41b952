package core

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/caasmo/credkeeper/crypto"
	"github.com/caasmo/credkeeper/db"
	"github.com/caasmo/credkeeper/mail"
	"github.com/caasmo/credkeeper/queue"
)

// RegisterWithPasswordHandler handles password-based user registration.
// Endpoint: POST /api/register-with-password
// Authenticated: No
// Allowed Mimetype: application/json
func (a *App) RegisterWithPasswordHandler(w http.ResponseWriter, r *http.Request) {
	if err, resp := a.Validator().ContentType(r, MimeTypeJSON); err != nil {
		writeJsonError(w, resp)
		return
	}

	var req struct {
		Identity        string `json:"identity"`
		Password        string `json:"password"`
		PasswordConfirm string `json:"password_confirm"`
		Name            string `json:"name"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJsonError(w, errorInvalidRequest)
		return
	}

	req.Identity = strings.TrimSpace(req.Identity)
	if req.Identity == "" || req.Password == "" || req.PasswordConfirm == "" {
		writeJsonError(w, errorMissingFields)
		return
	}

	if err := ValidateEmail(req.Identity); err != nil {
		writeJsonError(w, errorInvalidRequest)
		return
	}

	// Constant-time comparison is not needed here: both values come from
	// the same request body.
	if req.Password != req.PasswordConfirm {
		writeJsonError(w, errorPasswordMismatch)
		return
	}

	if err := ValidatePassword(req.Password); err != nil {
		writeJsonError(w, errorPasswordComplexity)
		return
	}

	hashedPassword, err := crypto.GenerateHash(req.Password)
	if err != nil {
		a.Logger().Error("failed to hash password", "err", err)
		writeJsonError(w, errorDatabase)
		return
	}

	newUser := db.User{
		ID:       uuid.NewString(),
		Email:    req.Identity,
		Name:     strings.TrimSpace(req.Name),
		Verified: false,
	}
	cred := db.Credential{
		UserID:   newUser.ID,
		Provider: db.ProviderPassword,
		Secret:   string(hashedPassword),
	}

	user, err := a.DbIdentity().CreateUser(newUser, cred)
	if err != nil {
		if errors.Is(err, db.ErrConstraintUnique) {
			writeJsonError(w, errorEmailConflict)
			return
		}
		a.Logger().Error("failed to create user", "err", err)
		writeJsonError(w, errorDatabase)
		return
	}

	// Queue the verification email. Registration still succeeds if the
	// queue insert fails; the user can request a new verification email.
	payload, _ := json.Marshal(queue.PayloadEmailVerification{Email: user.Email, Locale: mail.LocaleEN})
	if err := a.DbQueue().InsertJob(db.Job{
		JobType: queue.JobTypeEmailVerification,
		Payload: payload,
	}); err != nil && !errors.Is(err, db.ErrConstraintUnique) {
		a.Logger().Error("failed to insert verification job", "err", err)
	}

	cfg := a.Config()
	token, expiry, err := crypto.NewJwtSessionToken(user.ID, user.Email, string(hashedPassword), []byte(cfg.Jwt.AuthSecret), cfg.Jwt.AuthTokenDuration.Duration)
	if err != nil {
		writeJsonError(w, errorTokenGeneration)
		return
	}

	writeAuthResponse(w, token, expiresIn(expiry), user)
}
