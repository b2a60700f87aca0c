package email

import (
	"context"
	"errors"
	"time"
)

// Sender define la interfaz para correos transaccionales.
type Sender interface {
	SendVerificationCode(ctx context.Context, toEmail string, code string, expiresAt time.Time) error
	SendPasswordReset(ctx context.Context, toEmail string, resetURL string, expiresAt time.Time) error
	SendNotification(ctx context.Context, toEmail string, subject string, message string) error
}

type disabledSender struct {
	reason string
}

func NewDisabledSender(reason string) Sender {
	return &disabledSender{reason: reason}
}

func (s *disabledSender) err() error {
	if s.reason == "" {
		return errors.New("email sender disabled")
	}
	return errors.New(s.reason)
}

func (s *disabledSender) SendVerificationCode(_ context.Context, _ string, _ string, _ time.Time) error {
	return s.err()
}

func (s *disabledSender) SendPasswordReset(_ context.Context, _ string, _ string, _ time.Time) error {
	return s.err()
}

func (s *disabledSender) SendNotification(_ context.Context, _ string, _ string, _ string) error {
	return s.err()
}
