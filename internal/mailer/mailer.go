package mailer

import (
	"github.com/aicharya/aicharya-backend/pkg/config"
	"github.com/aicharya/aicharya-backend/pkg/logger"
)

// New picks the transport from config: dev logging, then MailerSend when an
// API key is set, then SMTP.
func New(cfg config.EmailConfig) Service {
	if cfg.DevMode {
		logger.Info("Using development mailer (emails will be logged)")
		return NewDevMailer()
	}

	if cfg.MailerSendKey != "" {
		ms := NewMailerSend(cfg.MailerSendKey, cfg.FromName, cfg.SMTPFrom)
		if ms.Enabled() {
			logger.Info("Using MailerSend for email delivery")
			return ms
		}
		logger.Warn("MailerSend key set but SMTP_FROM is empty, falling back to SMTP")
	}

	logger.Info("Using SMTP mailer", "host", cfg.SMTPHost, "port", cfg.SMTPPort)
	return NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPUseTLS)
}
