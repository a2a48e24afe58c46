// Package notice sends account lifecycle emails. Delivery failures are the
// caller's to log; they never affect the outcome of the account operation
// that triggered them.
package notice

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"text/template"

	"github.com/wneessen/go-mail"
)

// Kind names an account lifecycle event worth announcing.
type Kind string

const (
	AccountCreated  Kind = "account_created"
	PasswordChanged Kind = "password_changed"
)

// Notifier announces an account lifecycle event to the given address.
type Notifier interface {
	Notify(ctx context.Context, kind Kind, to string) error
}

type noopNotifier struct{}

func (noopNotifier) Notify(ctx context.Context, kind Kind, to string) error {
	return nil
}

// Noop returns a notifier that silently discards every notice.
func Noop() Notifier {
	return noopNotifier{}
}

// SMTPConfig holds email delivery configuration.
type SMTPConfig struct {
	Host     string
	Port     int
	TLS      bool
	Username string
	Password string
	From     string
}

type noticeTemplate struct {
	Subject string
	Body    string
}

var templates = map[Kind]noticeTemplate{
	AccountCreated: {
		Subject: "Your account has been created",
		Body:    "An account for {{.Email}} has been created by an administrator.\n",
	},
	PasswordChanged: {
		Subject: "Your password has been changed",
		Body:    "The password for {{.Email}} has been changed by an administrator.\nIf this was not expected, contact your administrator.\n",
	},
}

// EmailNotifier delivers notices over SMTP.
type EmailNotifier struct {
	config SMTPConfig
	client *mail.Client
}

// NewEmailNotifier creates an SMTP-backed notifier.
func NewEmailNotifier(config SMTPConfig) (*EmailNotifier, error) {
	opts := []mail.Option{
		mail.WithPort(config.Port),
		mail.WithTimeout(30),
	}

	if config.Username != "" && config.Password != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthLogin),
			mail.WithUsername(config.Username),
			mail.WithPassword(config.Password),
		)
	}

	if !config.TLS {
		opts = append(opts,
			mail.WithTLSConfig(&tls.Config{InsecureSkipVerify: true}),
			mail.WithTLSPolicy(mail.NoTLS),
		)
	} else {
		opts = append(opts,
			mail.WithTLSConfig(&tls.Config{InsecureSkipVerify: true}),
			mail.WithTLSPolicy(mail.TLSMandatory),
		)
	}

	slog.Info("Creating mail client", "Host", config.Host, "Port", config.Port)
	client, err := mail.NewClient(config.Host, opts...)
	if err != nil {
		slog.Error("Failed to create mail client", "err", err)
		return nil, err
	}

	return &EmailNotifier{config: config, client: client}, nil
}

// Notify renders the template for kind and sends it to the given address.
func (e *EmailNotifier) Notify(ctx context.Context, kind Kind, to string) error {
	if to == "" {
		return fmt.Errorf("email notice requires 'To' address")
	}
	tmpl, ok := templates[kind]
	if !ok {
		return fmt.Errorf("no template registered for notice %s", kind)
	}

	body, err := renderBody(tmpl.Body, to)
	if err != nil {
		return err
	}

	msg := mail.NewMsg()
	if err := msg.From(e.config.From); err != nil {
		return err
	}
	if err := msg.To(to); err != nil {
		return err
	}
	msg.Subject(tmpl.Subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	return e.client.DialAndSendWithContext(ctx, msg)
}

func renderBody(text, email string) (string, error) {
	tmpl, err := template.New("notice").Parse(text)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, struct{ Email string }{Email: email}); err != nil {
		return "", err
	}
	return buf.String(), nil
}
