package mailer

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/mailersend/mailersend-go"
)

type MailerSendClient struct {
	client  *mailersend.Mailersend
	from    mailersend.From
	enabled bool
}

func NewMailerSend(apiKey, fromName, fromEmail string) *MailerSendClient {
	m := &MailerSendClient{
		enabled: apiKey != "" && fromEmail != "",
		from: mailersend.From{
			Name:  fromName,
			Email: fromEmail,
		},
	}

	if m.enabled {
		m.client = mailersend.NewMailersend(apiKey)
	}

	return m
}

func (m *MailerSendClient) Enabled() bool { return m.enabled }

func (m *MailerSendClient) SendVerificationEmail(toEmail, toName, verifyURL, token string) error {
	return m.send(toEmail, toName, verificationMessage(toName, verifyURL, token))
}

func (m *MailerSendClient) SendPasswordResetEmail(toEmail, toName, code string) error {
	return m.send(toEmail, toName, passwordResetMessage(toName, code))
}

func (m *MailerSendClient) send(toEmail, toName string, content message) error {
	if !m.enabled {
		return errors.New("mailersend not configured (missing MAILERSEND_API_KEY or SMTP_FROM)")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	msg := m.client.Email.NewMessage()
	msg.SetFrom(m.from)
	msg.SetRecipients([]mailersend.Recipient{{Name: toName, Email: toEmail}})
	msg.SetSubject(content.Subject)

	if strings.TrimSpace(content.Text) != "" {
		msg.SetText(content.Text)
	}
	if strings.TrimSpace(content.HTML) != "" {
		msg.SetHTML(content.HTML)
	}

	// The client turns non-2xx responses into errors.
	_, err := m.client.Email.Send(ctx, msg)
	return err
}
