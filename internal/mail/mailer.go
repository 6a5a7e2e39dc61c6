package mail

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"log"
	"net/url"
	"time"

	"gopkg.in/gomail.v2"
)

//go:embed templates/*.html
var templateFS embed.FS

const resetPasswordSubject = "Reset your password - TaskFlow"

// Mailer delivers account e-mails.
type Mailer interface {
	SendResetPasswordMail(ctx context.Context, email, token string) error
}

// ResetPasswordRenderer renders the reset-password e-mail body.
type ResetPasswordRenderer struct {
	tmpl       *template.Template
	backendURL string
	validFor   time.Duration
}

// NewResetPasswordRenderer parses the embedded template.
func NewResetPasswordRenderer(backendURL string, validFor time.Duration) (*ResetPasswordRenderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/reset_password.html")
	if err != nil {
		return nil, fmt.Errorf("parse reset password template: %w", err)
	}
	return &ResetPasswordRenderer{tmpl: tmpl, backendURL: backendURL, validFor: validFor}, nil
}

// ResetLink builds <backendURL>/reset-password?token=<token>.
func (r *ResetPasswordRenderer) ResetLink(token string) string {
	return r.backendURL + "/reset-password?token=" + url.QueryEscape(token)
}

// Render returns the HTML body for token.
func (r *ResetPasswordRenderer) Render(token string) (string, error) {
	var buf bytes.Buffer
	err := r.tmpl.Execute(&buf, struct {
		ResetLink    string
		ValidMinutes int
	}{
		ResetLink:    r.ResetLink(token),
		ValidMinutes: int(r.validFor / time.Minute),
	})
	if err != nil {
		return "", fmt.Errorf("render reset password mail: %w", err)
	}
	return buf.String(), nil
}

// SMTPConfig holds SMTP credentials.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPMailer sends mail through an SMTP relay.
type SMTPMailer struct {
	dialer   *gomail.Dialer
	from     string
	renderer *ResetPasswordRenderer
}

// NewSMTPMailer creates an SMTPMailer.
func NewSMTPMailer(cfg SMTPConfig, renderer *ResetPasswordRenderer) *SMTPMailer {
	return &SMTPMailer{
		dialer:   gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:     cfg.From,
		renderer: renderer,
	}
}

func (m *SMTPMailer) SendResetPasswordMail(ctx context.Context, email, token string) error {
	body, err := m.renderer.Render(token)
	if err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", email)
	msg.SetHeader("Subject", resetPasswordSubject)
	msg.SetBody("text/html", body)

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send reset password mail: %w", err)
	}
	return nil
}

// LogMailer writes the reset link to the log instead of sending it. Used when
// SMTP is not configured.
type LogMailer struct {
	renderer *ResetPasswordRenderer
}

func NewLogMailer(renderer *ResetPasswordRenderer) *LogMailer {
	return &LogMailer{renderer: renderer}
}

func (m *LogMailer) SendResetPasswordMail(_ context.Context, email, token string) error {
	log.Printf("mail: reset password link for %s: %s", email, m.renderer.ResetLink(token))
	return nil
}
