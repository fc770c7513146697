// Package mailer renders and sends account mails over SMTP.
package mailer

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"time"

	"github.com/opsdesk/shift-backend/internal/config"
	"github.com/opsdesk/shift-backend/internal/domain"
	"github.com/wneessen/go-mail"
)

//go:embed templates/*.html
var templateFS embed.FS

type Sender interface {
	Send(ctx context.Context, msg domain.MailMessage) error
}

type mailTemplate struct {
	file    string
	subject string
}

var mailTemplates = map[domain.MailType]mailTemplate{
	domain.MailNewAccount:    {file: "templates/new_account.html", subject: "Shift Manager - Account information"},
	domain.MailResetPassword: {file: "templates/reset_password.html", subject: "Shift Manager - Reset password"},
	domain.MailChangeEmail:   {file: "templates/change_email.html", subject: "Shift Manager - Confirm new email"},
}

type Mailer struct {
	from      string
	client    *mail.Client
	templates map[domain.MailType]*template.Template
}

func New(cfg *config.Config) (*Mailer, error) {
	client, err := mail.NewClient(cfg.Email.SMTP.Host,
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithSSL(),
		mail.WithPort(cfg.Email.SMTP.Port),
		mail.WithUsername(cfg.Email.SMTP.Username),
		mail.WithPassword(cfg.Email.SMTP.Password),
		mail.WithTimeout(time.Duration(cfg.Email.SMTP.DialTimeout)*time.Second),
	)
	if err != nil {
		return nil, err
	}

	templates, err := parseTemplates()
	if err != nil {
		return nil, err
	}

	return &Mailer{
		from:      cfg.Email.SMTP.Username,
		client:    client,
		templates: templates,
	}, nil
}

func parseTemplates() (map[domain.MailType]*template.Template, error) {
	templates := make(map[domain.MailType]*template.Template, len(mailTemplates))
	for typ, t := range mailTemplates {
		tmpl, err := template.ParseFS(templateFS, t.file)
		if err != nil {
			return nil, err
		}
		templates[typ] = tmpl
	}
	return templates, nil
}

func buildMessage(from string, templates map[domain.MailType]*template.Template, msg domain.MailMessage) (*mail.Msg, error) {
	tmpl, ok := templates[msg.Type]
	if !ok {
		return nil, fmt.Errorf("unsupported mail type %q", msg.Type)
	}

	m := mail.NewMsg()
	if err := m.From(from); err != nil {
		return nil, err
	}
	if err := m.To(msg.To); err != nil {
		return nil, err
	}
	if err := m.SetBodyHTMLTemplate(tmpl, msg.Data); err != nil {
		return nil, err
	}
	m.Subject(mailTemplates[msg.Type].subject)

	return m, nil
}

// Send renders msg and delivers it before returning.
func (m *Mailer) Send(ctx context.Context, msg domain.MailMessage) error {
	message, err := buildMessage(m.from, m.templates, msg)
	if err != nil {
		return err
	}
	return m.client.DialAndSendWithContext(ctx, message)
}

// LogSender writes mails to the log instead of sending them. It stands in
// for Mailer when no SMTP host is configured.
type LogSender struct {
	Logger *slog.Logger
}

func (s LogSender) Send(_ context.Context, msg domain.MailMessage) error {
	s.Logger.Info("mail not sent, no SMTP host configured", "type", msg.Type, "to", msg.To, "data", msg.Data)
	return nil
}
