package mailer

import (
	"context"
	"fmt"
	"time"
)

// Message is a single outbound email.
type Message struct {
	ToName  string
	ToEmail string
	Subject string
	Text    string
	HTML    string
}

// Mailer delivers email. Implementations must honour ctx cancellation.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// PasswordResetMessage renders the OTP email.
func PasswordResetMessage(toName, toEmail, code string, ttl time.Duration) Message {
	minutes := int(ttl.Minutes())
	return Message{
		ToName:  toName,
		ToEmail: toEmail,
		Subject: "Your password reset code",
		Text:    fmt.Sprintf("Your password reset code is %s. It expires in %d minutes.", code, minutes),
		HTML:    fmt.Sprintf("<p>Your password reset code is <strong>%s</strong>.</p><p>It expires in %d minutes.</p>", code, minutes),
	}
}
