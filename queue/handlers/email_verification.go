package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/golang-jwt/jwt/v5"

	"github.com/caasmo/credkeeper/config"
	"github.com/caasmo/credkeeper/crypto"
	"github.com/caasmo/credkeeper/db"
	"github.com/caasmo/credkeeper/mail"
	"github.com/caasmo/credkeeper/queue"
)

// EmailVerificationHandler handles email verification jobs
type EmailVerificationHandler struct {
	db             db.DbIdentity
	configProvider *config.Provider
	mailer         mail.MailerInterface
	logger         *slog.Logger
}

// NewEmailVerificationHandler creates a new EmailVerificationHandler
func NewEmailVerificationHandler(dbi db.DbIdentity, provider *config.Provider, mailer mail.MailerInterface, logger *slog.Logger) *EmailVerificationHandler {
	return &EmailVerificationHandler{
		db:             dbi,
		configProvider: provider,
		mailer:         mailer,
		logger:         logger.With("job_handler", "email_verification"),
	}
}

// Handle implements the JobHandler interface for email verification
func (h *EmailVerificationHandler) Handle(ctx context.Context, job db.Job) error {
	var payload queue.PayloadEmailVerification
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("failed to parse email verification payload: %w", err)
	}

	user, err := h.db.GetUserByEmail(payload.Email)
	if err != nil {
		return fmt.Errorf("failed to get user by email: %w", err)
	}

	if user.Verified {
		h.logger.Info("email already verified, skipping", "email", user.Email)
		return nil
	}

	creds, err := h.db.GetCredentials(user.ID)
	if err != nil {
		return fmt.Errorf("failed to get credentials: %w", err)
	}

	cfg := h.configProvider.Get()
	token, err := singleUseToken(user, creds, crypto.ClaimTypeVerification,
		[]byte(cfg.Jwt.VerificationEmailSecret), cfg.Jwt.VerificationEmailTokenDuration)
	if err != nil {
		return fmt.Errorf("failed to create verification token: %w", err)
	}

	callbackURL := fmt.Sprintf("%s/api/confirm-verification?token=%s", cfg.Server.BaseURL, token)

	if err := h.mailer.SendVerificationEmail(ctx, user.Email, payload.Locale, callbackURL); err != nil {
		return fmt.Errorf("failed to send verification email: %w", err)
	}

	h.logger.Info("sent verification email", "email", user.Email)
	return nil
}

// singleUseToken builds a token whose signing key mixes in the user's
// credentials, so it stops verifying once those credentials change.
func singleUseToken(user *db.User, creds []db.Credential, claimType string, secret []byte, duration config.Duration) (string, error) {
	signingKey, err := crypto.NewJwtSigningKeyWithCredentials(user.Email, db.SigningKeyPart(user, creds), secret)
	if err != nil {
		return "", fmt.Errorf("failed to create signing key: %w", err)
	}

	claims := jwt.MapClaims{
		crypto.ClaimUserID: user.ID,
		crypto.ClaimEmail:  user.Email,
		crypto.ClaimType:   claimType,
	}

	token, _, err := crypto.NewJwt(claims, signingKey, duration.Duration)
	if err != nil {
		return "", fmt.Errorf("failed to create JWT: %w", err)
	}

	return token, nil
}
