package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/caasmo/credkeeper/config"
	"github.com/caasmo/credkeeper/crypto"
	"github.com/caasmo/credkeeper/db"
	"github.com/caasmo/credkeeper/mail"
	"github.com/caasmo/credkeeper/queue"
)

// PasswordResetHandler handles password reset email jobs
type PasswordResetHandler struct {
	db             db.DbIdentity
	configProvider *config.Provider
	mailer         mail.MailerInterface
	logger         *slog.Logger
}

func NewPasswordResetHandler(dbi db.DbIdentity, provider *config.Provider, mailer mail.MailerInterface, logger *slog.Logger) *PasswordResetHandler {
	return &PasswordResetHandler{
		db:             dbi,
		configProvider: provider,
		mailer:         mailer,
		logger:         logger.With("job_handler", "password_reset"),
	}
}

// Handle implements the JobHandler interface for password reset emails.
// The reset token's signing key mixes in the current password hash, so a
// completed reset invalidates any other outstanding reset tokens.
func (h *PasswordResetHandler) Handle(ctx context.Context, job db.Job) error {
	var payload queue.PayloadPasswordReset
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("failed to parse password reset payload: %w", err)
	}

	user, err := h.db.GetUserByEmail(payload.Email)
	if err != nil {
		return fmt.Errorf("failed to get user by email: %w", err)
	}

	creds, err := h.db.GetCredentials(user.ID)
	if err != nil {
		return fmt.Errorf("failed to get credentials: %w", err)
	}

	cfg := h.configProvider.Get()
	token, err := singleUseToken(user, creds, crypto.ClaimTypePasswordReset,
		[]byte(cfg.Jwt.PasswordResetSecret), cfg.Jwt.PasswordResetTokenDuration)
	if err != nil {
		return fmt.Errorf("failed to create password reset token: %w", err)
	}

	callbackURL := fmt.Sprintf("%s/api/confirm-password-reset?token=%s", cfg.Server.BaseURL, token)

	if err := h.mailer.SendPasswordResetEmail(ctx, user.Email, payload.Locale, callbackURL); err != nil {
		return fmt.Errorf("failed to send password reset email: %w", err)
	}

	h.logger.Info("sent password reset email", "email", user.Email)
	return nil
}
