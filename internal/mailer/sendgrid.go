package mailer

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Mailer delivers outbound transactional mail.
type Mailer interface {
	SendPasswordReset(ctx context.Context, toEmail, toName, resetURL string) error
}

// SendGridMailer sends mail through the SendGrid API.
type SendGridMailer struct {
	client   *sendgrid.Client
	fromAddr string
	fromName string
}

// NewSendGridMailer builds a Mailer using the given API key and sender.
func NewSendGridMailer(apiKey, fromAddr, fromName string) *SendGridMailer {
	return &SendGridMailer{
		client:   sendgrid.NewSendClient(apiKey),
		fromAddr: fromAddr,
		fromName: fromName,
	}
}

func (m *SendGridMailer) SendPasswordReset(ctx context.Context, toEmail, toName, resetURL string) error {
	from := mail.NewEmail(m.fromName, m.fromAddr)
	to := mail.NewEmail(toName, toEmail)
	subject := "Reset your StreetWalk password"
	plain := fmt.Sprintf(
		"Someone requested a password reset for this address.\n\n"+
			"If that was you, open the link below within the next hour:\n\n%s\n\n"+
			"If it wasn't, you can ignore this email.", resetURL)
	message := mail.NewSingleEmail(from, subject, to, plain, "")

	resp, err := m.client.SendWithContext(ctx, message)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid returned status %d", resp.StatusCode)
	}
	return nil
}
