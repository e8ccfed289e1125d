package mailer

import (
	"github.com/aicharya/aicharya-backend/pkg/logger"
)

// DevMailer writes emails to the log instead of sending them.
type DevMailer struct{}

func NewDevMailer() *DevMailer {
	return &DevMailer{}
}

func (d *DevMailer) SendVerificationEmail(toEmail, toName, verifyURL, token string) error {
	msg := verificationMessage(toName, verifyURL, token)
	logger.Info("[DEV MAIL] Verification Email",
		"to", toEmail,
		"name", toName,
		"subject", msg.Subject,
		"verify_url", verifyURL,
		"token", token,
	)
	return nil
}

func (d *DevMailer) SendPasswordResetEmail(toEmail, toName, code string) error {
	msg := passwordResetMessage(toName, code)
	logger.Info("[DEV MAIL] Password Reset Email",
		"to", toEmail,
		"name", toName,
		"subject", msg.Subject,
		"code", code,
	)
	return nil
}
