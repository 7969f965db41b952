package handlers

import (
	"context"
	"io"
	"log/slog"

	"github.com/caasmo/credkeeper/mail"
)

// mailerMock is a mock implementation of mail.MailerInterface.
type mailerMock struct {
	SendVerificationEmailFunc  func(ctx context.Context, email string, locale mail.Locale, callbackURL string) error
	SendPasswordResetEmailFunc func(ctx context.Context, email string, locale mail.Locale, callbackURL string) error
	SendWelcomeEmailFunc       func(ctx context.Context, email string, locale mail.Locale, callbackURL string) error
}

func (m *mailerMock) SendVerificationEmail(ctx context.Context, email string, locale mail.Locale, callbackURL string) error {
	if m.SendVerificationEmailFunc != nil {
		return m.SendVerificationEmailFunc(ctx, email, locale, callbackURL)
	}
	return nil
}

func (m *mailerMock) SendPasswordResetEmail(ctx context.Context, email string, locale mail.Locale, callbackURL string) error {
	if m.SendPasswordResetEmailFunc != nil {
		return m.SendPasswordResetEmailFunc(ctx, email, locale, callbackURL)
	}
	return nil
}

func (m *mailerMock) SendWelcomeEmail(ctx context.Context, email string, locale mail.Locale, callbackURL string) error {
	if m.SendWelcomeEmailFunc != nil {
		return m.SendWelcomeEmailFunc(ctx, email, locale, callbackURL)
	}
	return nil
}

var _ mail.MailerInterface = (*mailerMock)(nil)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
