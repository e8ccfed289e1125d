package mailer

import (
	"fmt"
	"html"
)

func verificationMessage(toName, verifyURL, token string) message {
	name := toName
	if name == "" {
		name = "there"
	}
	return message{
		Subject: "Verify your Aicharya account",
		Text: fmt.Sprintf("Hi %s,\n\nPlease verify your email by opening this link: %s\n\nOr use this verification code: %s\n\nThe link expires soon. If you didn't create an account, ignore this email.",
			name, verifyURL, token),
		HTML: fmt.Sprintf(`
		<h2>Welcome to Aicharya!</h2>
		<p>Hi %s,</p>
		<p>Please verify your email address by clicking the link below:</p>
		<p><a href="%s">Verify Email</a></p>
		<p>Or use this verification code: <strong>%s</strong></p>
		<p>If you didn't create an account with us, please ignore this email.</p>
	`, html.EscapeString(name), html.EscapeString(verifyURL), html.EscapeString(token)),
	}
}

func passwordResetMessage(toName, code string) message {
	name := toName
	if name == "" {
		name = "there"
	}
	return message{
		Subject: "Your Aicharya password reset code",
		Text: fmt.Sprintf("Hi %s,\n\nYour password reset code is: %s\n\nIf you didn't ask to reset your password, ignore this email.",
			name, code),
		HTML: fmt.Sprintf(`
		<h2>Password reset</h2>
		<p>Hi %s,</p>
		<p>Your reset code is: <strong style="font-size: 24px;">%s</strong></p>
		<p>If you didn't ask to reset your password, ignore this email.</p>
	`, html.EscapeString(name), html.EscapeString(code)),
	}
}
