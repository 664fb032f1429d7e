package mailer

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/wneessen/go-mail"
)

var _ Sender = (*SMTPSender)(nil)

// SMTPSender delivers mail over SMTP. Transient delivery failures are
// retried once with a short backoff before being surfaced.
type SMTPSender struct {
	host     string
	port     int
	username string
	password string
	from     string
	baseURL  string
}

// NewSMTPSender creates a sender. baseURL is the public address of the API,
// used to build confirmation and reset links.
func NewSMTPSender(host string, port int, username, password, from, baseURL string) *SMTPSender {
	return &SMTPSender{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
		baseURL:  baseURL,
	}
}

// SendVerification emails a confirm-your-email link.
func (s *SMTPSender) SendVerification(ctx context.Context, to, username, token string) error {
	body := fmt.Sprintf(
		`<p>Hi %s,</p>
<p>Please confirm your email address by following this link:</p>
<p><a href="%s/api/auth/confirm/%s">Confirm email</a></p>`,
		username, s.baseURL, token,
	)
	return s.send(ctx, to, "Confirm your email", body)
}

// SendPasswordReset emails a password reset link.
func (s *SMTPSender) SendPasswordReset(ctx context.Context, to, username, token string) error {
	body := fmt.Sprintf(
		`<p>Hi %s,</p>
<p>A password reset was requested for your account. Use the token below:</p>
<p><code>%s</code></p>
<p>If you did not request this, ignore this message.</p>`,
		username, token,
	)
	return s.send(ctx, to, "Password reset request", body)
}

func (s *SMTPSender) send(ctx context.Context, to, subject, htmlBody string) error {
	msg := mail.NewMsg()
	if err := msg.From(s.from); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("mail to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)

	opts := []mail.Option{
		mail.WithPort(s.port),
		mail.WithTimeout(10 * time.Second),
	}
	if s.username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.username),
			mail.WithPassword(s.password),
		)
	}

	client, err := mail.NewClient(s.host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	backoff := retry.WithMaxRetries(1, retry.NewConstant(2*time.Second))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := client.DialAndSendWithContext(ctx, msg); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
}
