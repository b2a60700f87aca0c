package service

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"collabhub/internal/domain"
)

func newVerificationFixture() (*VerificationService, *mockUserRepo, *mockVerificationRepo, *mockEmailSender) {
	users := newMockUserRepo(domain.User{ID: "u-1", Email: "ana@example.com", FirstName: "Ana"})
	codes := newMockVerificationRepo(users)
	sender := newMockEmailSender()
	jwtSvc := NewJWTService("test-secret", time.Minute, time.Hour)
	svc := NewVerificationService(zap.NewNop(), users, codes, sender, NewMemoryRateLimiter(time.Minute, 10), jwtSvc, nil, "https://app.example.com/")
	return svc, users, codes, sender
}

func TestConfirmEmail_WithSentCode(t *testing.T) {
	svc, users, _, sender := newVerificationFixture()
	ctx := context.Background()

	if err := svc.SendCode(ctx, "ana@example.com"); err != nil {
		t.Fatalf("send code: %v", err)
	}
	code := sender.codeFor("ana@example.com")
	if len(code) != 6 {
		t.Fatalf("expected 6 digit code, got %q", code)
	}
	if err := svc.ConfirmEmail(ctx, "ana@example.com", code); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if !users.users["u-1"].IsVerified {
		t.Fatalf("user should be verified")
	}
	if err := svc.SendCode(ctx, "ana@example.com"); !errors.Is(err, ErrAlreadyVerified) {
		t.Fatalf("expected already verified, got %v", err)
	}
}

func TestConfirmEmail_EntryLimit(t *testing.T) {
	svc, _, codes, _ := newVerificationFixture()
	ctx := context.Background()
	if err := svc.SendCode(ctx, "ana@example.com"); err != nil {
		t.Fatalf("send code: %v", err)
	}
	for i := 0; i < maxCodeEntries; i++ {
		if err := svc.ConfirmEmail(ctx, "ana@example.com", "abc"); !errors.Is(err, ErrInvalidCode) {
			t.Fatalf("attempt %d: expected invalid code, got %v", i+1, err)
		}
	}
	if codes.entries["u-1"] != maxCodeEntries {
		t.Fatalf("entries = %d, want %d", codes.entries["u-1"], maxCodeEntries)
	}
	if err := svc.ConfirmEmail(ctx, "ana@example.com", "123456"); !errors.Is(err, ErrCodeEntriesLimit) {
		t.Fatalf("expected entries limit, got %v", err)
	}
}

func TestConfirmEmail_Expired(t *testing.T) {
	svc, _, codes, sender := newVerificationFixture()
	ctx := context.Background()
	if err := svc.SendCode(ctx, "ana@example.com"); err != nil {
		t.Fatalf("send code: %v", err)
	}
	later := time.Now().UTC().Add(otpTTL + time.Minute)
	svc.now = func() time.Time { return later }
	if err := svc.ConfirmEmail(ctx, "ana@example.com", sender.codeFor("ana@example.com")); !errors.Is(err, ErrCodeExpired) {
		t.Fatalf("expected expired code, got %v", err)
	}
	if _, ok := codes.codes["u-1"]; ok {
		t.Fatalf("expired code should be deleted")
	}
}

func TestSendCode_EmailFailure(t *testing.T) {
	svc, _, _, sender := newVerificationFixture()
	sender.err = errors.New("smtp down")
	if err := svc.SendCode(context.Background(), "ana@example.com"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
}

func TestPasswordReset(t *testing.T) {
	svc, users, _, sender := newVerificationFixture()
	ctx := context.Background()

	if err := svc.RequestPasswordReset(ctx, "ghost@example.com"); err != nil {
		t.Fatalf("unknown email should succeed silently, got %v", err)
	}
	if err := svc.RequestPasswordReset(ctx, "ana@example.com"); err != nil {
		t.Fatalf("request reset: %v", err)
	}
	link, err := url.Parse(sender.resets["ana@example.com"])
	if err != nil {
		t.Fatalf("parse link: %v", err)
	}
	if link.Path != "/reset-password" {
		t.Fatalf("unexpected reset path %q", link.Path)
	}
	token := link.Query().Get("token")

	if err := svc.ResetPassword(ctx, token, "weak", ""); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected weak password, got %v", err)
	}
	if err := svc.ResetPassword(ctx, token, "NewPass1!", ""); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(users.users["u-1"].PasswordHash), []byte("NewPass1!")) != nil {
		t.Fatalf("password hash not updated")
	}
	if err := svc.ResetPassword(ctx, token, "NewPass2!", ""); !errors.Is(err, ErrResetTokenInvalid) {
		t.Fatalf("token must be single use, got %v", err)
	}
}

func TestPasswordReset_RequestLimit(t *testing.T) {
	svc, _, _, _ := newVerificationFixture()
	ctx := context.Background()
	for i := 0; i < maxResetRequests; i++ {
		if err := svc.RequestPasswordReset(ctx, "ana@example.com"); err != nil {
			t.Fatalf("request %d: %v", i+1, err)
		}
	}
	if err := svc.RequestPasswordReset(ctx, "ana@example.com"); !errors.Is(err, ErrResetRequestsLimit) {
		t.Fatalf("expected request limit, got %v", err)
	}
}
