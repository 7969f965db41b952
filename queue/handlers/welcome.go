package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/caasmo/credkeeper/config"
	"github.com/caasmo/credkeeper/db"
	"github.com/caasmo/credkeeper/mail"
	"github.com/caasmo/credkeeper/queue"
)

// WelcomeHandler sends the greeting email queued after email verification.
type WelcomeHandler struct {
	configProvider *config.Provider
	mailer         mail.MailerInterface
	logger         *slog.Logger
}

func NewWelcomeHandler(provider *config.Provider, mailer mail.MailerInterface, logger *slog.Logger) *WelcomeHandler {
	return &WelcomeHandler{
		configProvider: provider,
		mailer:         mailer,
		logger:         logger.With("job_handler", "welcome"),
	}
}

// Handle implements the JobHandler interface
func (h *WelcomeHandler) Handle(ctx context.Context, job db.Job) error {
	var payload queue.PayloadWelcome
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("failed to parse welcome payload: %w", err)
	}

	cfg := h.configProvider.Get()
	if err := h.mailer.SendWelcomeEmail(ctx, payload.Email, payload.Locale, cfg.Server.BaseURL); err != nil {
		return fmt.Errorf("failed to send welcome email: %w", err)
	}

	h.logger.Info("sent welcome email", "email", payload.Email)
	return nil
}
