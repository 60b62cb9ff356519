// Package mail delivers transactional notifications over SMTP: the temporary
// password issued at registration and the login one-time code. Delivery
// failures are reported to callers but never fail the surrounding operation.
package mail

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"net"
	"net/smtp"
	"strconv"
	"strings"
)

//go:embed templates/*.html.tmpl
var templateFS embed.FS

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string // e.g. "LDTS System <no-reply@example.com>"
	BaseURL  string // login URL embedded in the welcome mail
}

// Mailer sends templated HTML mail over plain SMTP with AUTH PLAIN.
type Mailer struct {
	cfg  Config
	tmpl *template.Template
}

func NewMailer(cfg Config) (*Mailer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("mail: parse templates: %w", err)
	}
	return &Mailer{cfg: cfg, tmpl: tmpl}, nil
}

// SendTempPassword mails the temporary credential issued at registration.
func (m *Mailer) SendTempPassword(ctx context.Context, to, name, tempPassword string) error {
	var body bytes.Buffer
	err := m.tmpl.ExecuteTemplate(&body, "temp_password.html.tmpl", struct {
		Name         string
		TempPassword string
		BaseURL      string
	}{Name: name, TempPassword: tempPassword, BaseURL: m.cfg.BaseURL})
	if err != nil {
		return fmt.Errorf("mail: render temp password: %w", err)
	}
	return m.send(ctx, to, "Your Temporary Password", body.Bytes())
}

// SendOtp mails a login one-time code.
func (m *Mailer) SendOtp(ctx context.Context, to, lastname, code string) error {
	var body bytes.Buffer
	err := m.tmpl.ExecuteTemplate(&body, "otp.html.tmpl", struct {
		Lastname string
		Code     string
	}{Lastname: lastname, Code: code})
	if err != nil {
		return fmt.Errorf("mail: render otp: %w", err)
	}
	return m.send(ctx, to, "Your One-Time Password", body.Bytes())
}

func (m *Mailer) send(ctx context.Context, to, subject string, html []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := buildMessage(m.cfg.From, to, subject, html)
	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	if err := smtp.SendMail(addr, auth, envelopeAddr(m.cfg.From), []string{to}, msg); err != nil {
		return fmt.Errorf("mail: send to %s: %w", to, err)
	}
	return nil
}

func buildMessage(from, to, subject string, html []byte) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.Write(html)
	return b.Bytes()
}

// envelopeAddr strips a display name from a From header for the MAIL FROM
// command, e.g. `LDTS System <x@y>` becomes `x@y`.
func envelopeAddr(from string) string {
	if i := strings.LastIndex(from, "<"); i >= 0 {
		if j := strings.LastIndex(from, ">"); j > i {
			return from[i+1 : j]
		}
	}
	return from
}
