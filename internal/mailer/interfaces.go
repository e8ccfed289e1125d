package mailer

type Service interface {
	SendVerificationEmail(toEmail, toName, verifyURL, token string) error
	SendPasswordResetEmail(toEmail, toName, code string) error
}

// message is a rendered email ready for any transport.
type message struct {
	Subject string
	Text    string
	HTML    string
}
