package mailer

import (
	"fmt"
	"strings"
)

func link(frontendURL, path, token string) string {
	return strings.TrimRight(frontendURL, "/") + path + token
}

func PasswordResetMessage(frontendURL, to, username, token string) Message {
	url := link(frontendURL, "/reset-password/", token)
	return Message{
		To:      to,
		Subject: "Reset your password",
		Text: fmt.Sprintf("Hello %s,\n\nWe received a request to reset your password. "+
			"Open the link below within one hour to choose a new one:\n\n%s\n\n"+
			"If you did not ask for this, you can ignore this email.", username, url),
		HTML: fmt.Sprintf(`<p>Hello %s,</p><p>We received a request to reset your password. `+
			`Open the link below within one hour to choose a new one:</p><p><a href="%s">Reset password</a></p>`+
			`<p>If you did not ask for this, you can ignore this email.</p>`, username, url),
	}
}

func VerificationMessage(frontendURL, to, username, token string) Message {
	url := link(frontendURL, "/verify-email/", token)
	return Message{
		To:      to,
		Subject: "Verify your email address",
		Text: fmt.Sprintf("Hello %s,\n\nPlease confirm your email address by opening the link below "+
			"within 24 hours:\n\n%s", username, url),
		HTML: fmt.Sprintf(`<p>Hello %s,</p><p>Please confirm your email address by opening the link below `+
			`within 24 hours:</p><p><a href="%s">Verify email</a></p>`, username, url),
	}
}
