package mail

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/domodwyer/mailyak/v3"

	"github.com/caasmo/credkeeper/config"
)

// MailerInterface is what job handlers depend on, so tests can substitute
// the SMTP mailer.
type MailerInterface interface {
	SendVerificationEmail(ctx context.Context, email string, locale Locale, callbackURL string) error
	SendPasswordResetEmail(ctx context.Context, email string, locale Locale, callbackURL string) error
	SendWelcomeEmail(ctx context.Context, email string, locale Locale, callbackURL string) error
}

// Mailer sends transactional email over SMTP. Configuration is read from
// the provider on every send, so SMTP settings can be reloaded at runtime.
type Mailer struct {
	configProvider *config.Provider
}

var _ MailerInterface = (*Mailer)(nil)

// New creates a new Mailer instance
func New(provider *config.Provider) (*Mailer, error) {
	if provider == nil {
		return nil, fmt.Errorf("mail: config provider cannot be nil")
	}
	return &Mailer{configProvider: provider}, nil
}

// SendVerificationEmail sends an email verification message pointing at
// callbackURL.
func (m *Mailer) SendVerificationEmail(ctx context.Context, email string, locale Locale, callbackURL string) error {
	return m.send(ctx, email, TemplateVerification, locale, callbackURL)
}

// SendPasswordResetEmail sends a password reset message pointing at
// callbackURL.
func (m *Mailer) SendPasswordResetEmail(ctx context.Context, email string, locale Locale, callbackURL string) error {
	return m.send(ctx, email, TemplatePasswordReset, locale, callbackURL)
}

// SendWelcomeEmail greets a newly verified user.
func (m *Mailer) SendWelcomeEmail(ctx context.Context, email string, locale Locale, callbackURL string) error {
	return m.send(ctx, email, TemplateWelcome, locale, callbackURL)
}

func (m *Mailer) send(ctx context.Context, to string, kind TemplateKind, locale Locale, callbackURL string) error {
	cfg := m.configProvider.Get().Smtp
	text := copyFor(locale, kind)

	mail := mailyak.New(fmt.Sprintf("%s:%d", cfg.Host, cfg.Port), m.auth(cfg))

	mail.To(to)
	mail.From(cfg.FromAddress)
	mail.FromName(cfg.FromName)
	mail.Subject(fmt.Sprintf(text.Subject, cfg.FromName))
	mail.HTML().Set(fmt.Sprintf(`
		<h1>%s</h1>
		<p>%s</p>
		<p><a href="%s">%s</a></p>
	`, text.Heading, text.Body, callbackURL, text.Action))

	// mailyak has no context support, so the send runs in a goroutine and
	// the caller's deadline decides how long to wait.
	done := make(chan error, 1)
	go func() {
		done <- mail.Send()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to send email: %w", err)
		}
	}
	return nil
}

func (m *Mailer) auth(cfg config.Smtp) smtp.Auth {
	switch cfg.AuthMethod {
	case "cram-md5":
		return smtp.CRAMMD5Auth(cfg.Username, cfg.Password)
	default:
		return smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
}
