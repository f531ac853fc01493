package mockapi

import (
	"context"
	"log/slog"
)

type OTPPurpose string

const (
	PurposeVerify OTPPurpose = "verify"
	PurposeReset  OTPPurpose = "reset"
)

// Mailer delivers one-time passwords.
type Mailer interface {
	SendOTP(ctx context.Context, email string, purpose OTPPurpose, code string) error
}

// LogMailer prints codes to the log, there is no outbound email.
type LogMailer struct{}

func (LogMailer) SendOTP(ctx context.Context, email string, purpose OTPPurpose, code string) error {
	slog.InfoContext(ctx, "otp issued", "email", email, "purpose", purpose, "code", code)
	return nil
}
