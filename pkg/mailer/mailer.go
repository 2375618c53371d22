// Package mailer sends transactional HTML email over SMTP.
package mailer

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"

	"github.com/Masterminds/sprig/v3"
	"gopkg.in/gomail.v2"

	"github.com/contactdesk/contacts-api/pkg/logger"
)

//go:embed templates/*.html
var templateFS embed.FS

// Config holds SMTP settings. An empty Host disables sending, which is
// the expected setup in development.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string

	// AppName and PublicURL feed the email templates.
	AppName   string
	PublicURL string

	// TokenTTL is rendered in the confirmation email as the link lifetime.
	TokenTTL string
}

// Mailer renders templated messages and delivers them via SMTP.
type Mailer struct {
	cfg       Config
	templates *template.Template
}

// NewMailer parses the embedded templates and returns a mailer.
func NewMailer(cfg Config) (*Mailer, error) {
	tmpl, err := template.New("").Funcs(sprig.HtmlFuncMap()).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse mail templates: %w", err)
	}
	return &Mailer{cfg: cfg, templates: tmpl}, nil
}

// SendConfirmation emails the account activation link.
func (m *Mailer) SendConfirmation(ctx context.Context, email, username, token string) error {
	data := map[string]any{
		"AppName":    m.cfg.AppName,
		"Username":   username,
		"ConfirmURL": fmt.Sprintf("%s/api/v1/auth/confirmed_email/%s", m.cfg.PublicURL, token),
		"ExpiresIn":  m.cfg.TokenTTL,
	}
	return m.send(ctx, email, "Confirm your email", "verify_email.html", data)
}

// SendPasswordReset emails the generated temporary password together
// with a fresh confirmation link.
func (m *Mailer) SendPasswordReset(ctx context.Context, email, username, newPassword, token string) error {
	data := map[string]any{
		"AppName":     m.cfg.AppName,
		"Username":    username,
		"NewPassword": newPassword,
		"ConfirmURL":  fmt.Sprintf("%s/api/v1/auth/confirmed_email/%s", m.cfg.PublicURL, token),
	}
	return m.send(ctx, email, "Your password was reset", "reset_password.html", data)
}

func (m *Mailer) send(ctx context.Context, to, subject, templateName string, data map[string]any) error {
	if m.cfg.Host == "" {
		logger.InfoWithContext(ctx, "mail delivery disabled, skipping message").
			String("to", to).
			String("subject", subject).
			Log()
		return nil
	}

	var body bytes.Buffer
	if err := m.templates.ExecuteTemplate(&body, templateName, data); err != nil {
		return fmt.Errorf("failed to render template %s: %w", templateName, err)
	}

	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", m.cfg.From, m.cfg.FromName)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body.String())

	dialer := gomail.NewDialer(m.cfg.Host, m.cfg.Port, m.cfg.Username, m.cfg.Password)
	if err := dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send mail to %s: %w", to, err)
	}

	logger.InfoWithContext(ctx, "mail delivered").
		String("to", to).
		String("subject", subject).
		Log()
	return nil
}
