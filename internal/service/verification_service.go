package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"collabhub/internal/domain"
	"collabhub/internal/email"
	"collabhub/internal/repository"
)

const (
	otpTTL             = 10 * time.Minute
	maxCodeEntries     = 5
	resetRequestWindow = 24 * time.Hour
	maxResetRequests   = 5
)

var (
	ErrInvalidCode        = badRequest("Invalid verification code")
	ErrCodeExpired        = badRequest("Verification code has expired")
	ErrAlreadyVerified    = badRequest("Email is already confirmed")
	ErrInvalidEmail       = badRequest("Invalid email address")
	ErrWeakPassword       = badRequest("Password must be 8-20 characters and include a digit, a lowercase letter, an uppercase letter and a special character")
	ErrResetTokenInvalid  = badRequest("Invalid or expired token")
	ErrCodeEntriesLimit   = newError(ErrTooManyRequests, "Too many invalid code entries")
	ErrCodeResendLimit    = newError(ErrTooManyRequests, "Too many verification code requests. Try again later")
	ErrResetRequestsLimit = newError(ErrTooManyRequests, "Too many password reset requests. Try again later")
)

// VerificationService gestiona los códigos de confirmación de email y el reset de contraseña.
type VerificationService struct {
	logger      *zap.Logger
	users       repository.UserRepository
	codes       repository.VerificationRepository
	emailSender email.Sender
	limiter     RateLimiter
	jwt         *JWTService
	audit       *AuditService
	resetURL    string
	now         func() time.Time
}

func NewVerificationService(
	logger *zap.Logger,
	users repository.UserRepository,
	codes repository.VerificationRepository,
	emailSender email.Sender,
	limiter RateLimiter,
	jwt *JWTService,
	audit *AuditService,
	frontendBaseURL string,
) *VerificationService {
	if limiter == nil {
		limiter = NewMemoryRateLimiter(otpTTL, 3)
	}
	return &VerificationService{
		logger:      logger,
		users:       users,
		codes:       codes,
		emailSender: emailSender,
		limiter:     limiter,
		jwt:         jwt,
		audit:       audit,
		resetURL:    strings.TrimRight(frontendBaseURL, "/") + "/reset-password",
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// SendCode regenera el código de 6 dígitos del usuario y lo envía por email.
func (s *VerificationService) SendCode(ctx context.Context, emailAddr string) error {
	emailAddr = normalizeEmail(emailAddr)
	if !validEmail(emailAddr) {
		return ErrInvalidEmail
	}
	user, err := s.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if user.IsVerified {
		return ErrAlreadyVerified
	}
	if !s.limiter.Allow(ctx, emailAddr) {
		return ErrCodeResendLimit
	}

	code, hash, expiresAt, err := generateOTP(s.now())
	if err != nil {
		return err
	}
	if err := s.codes.UpsertCode(ctx, user.ID, hash, expiresAt); err != nil {
		return err
	}
	if s.emailSender == nil {
		return ErrEmailSendFailure
	}
	if err := s.emailSender.SendVerificationCode(ctx, emailAddr, code, expiresAt); err != nil {
		s.logger.Warn("send verification code failed", zap.Error(err), zap.String("email", emailAddr))
		return ErrEmailSendFailure
	}
	return nil
}

// ConfirmEmail valida el código y marca el email como verificado.
func (s *VerificationService) ConfirmEmail(ctx context.Context, emailAddr, code string) error {
	emailAddr = normalizeEmail(emailAddr)
	code = strings.TrimSpace(code)

	user, err := s.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if user.IsVerified {
		return ErrAlreadyVerified
	}

	entries, err := s.codes.GetEntryAttempts(ctx, user.ID)
	if err != nil {
		return err
	}
	if entries >= maxCodeEntries {
		return ErrCodeEntriesLimit
	}

	now := s.now()
	stored, err := s.codes.GetCode(ctx, user.ID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	if err != nil || !isValidOTPCode(code) || !verifyOTP(code, stored.CodeHash) {
		if _, incErr := s.codes.IncrementEntryAttempts(ctx, user.ID, now); incErr != nil {
			return incErr
		}
		return ErrInvalidCode
	}
	if stored.ExpiresAt.Before(now) {
		if err := s.codes.DeleteCode(ctx, user.ID); err != nil {
			return err
		}
		return ErrCodeExpired
	}

	return s.codes.ConfirmEmail(ctx, user.ID, now)
}

// RequestPasswordReset envía un enlace de reset. Un email desconocido no revela nada.
func (s *VerificationService) RequestPasswordReset(ctx context.Context, emailAddr string) error {
	emailAddr = normalizeEmail(emailAddr)
	if !validEmail(emailAddr) {
		return ErrInvalidEmail
	}
	user, err := s.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return err
	}

	now := s.now()
	requests, err := s.codes.CountResetRequest(ctx, user.ID, now, now.Add(-resetRequestWindow))
	if err != nil {
		return err
	}
	if requests > maxResetRequests {
		return ErrResetRequestsLimit
	}

	token, expiresAt, err := s.jwt.GenerateResetToken(user)
	if err != nil {
		return err
	}
	if err := s.codes.SaveResetToken(ctx, user.ID, tokenKey(token), expiresAt); err != nil {
		return err
	}

	if s.emailSender == nil {
		return ErrEmailSendFailure
	}
	link := s.resetURL + "?token=" + url.QueryEscape(token)
	if err := s.emailSender.SendPasswordReset(ctx, emailAddr, link, expiresAt); err != nil {
		s.logger.Warn("send password reset failed", zap.Error(err), zap.String("user_id", user.ID))
		return ErrEmailSendFailure
	}
	return nil
}

// ResetPassword consume el token de reset y reemplaza la contraseña.
func (s *VerificationService) ResetPassword(ctx context.Context, token, password, ip string) error {
	if !validPassword(password) {
		return ErrWeakPassword
	}
	claims, err := s.jwt.ParseResetToken(token)
	if err != nil {
		return ErrResetTokenInvalid
	}

	stored, err := s.codes.GetResetToken(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrResetTokenInvalid
		}
		return err
	}
	now := s.now()
	if stored.TokenHash == "" || stored.ExpiresAt == nil || stored.ExpiresAt.Before(now) {
		return ErrResetTokenInvalid
	}
	if subtle.ConstantTimeCompare([]byte(stored.TokenHash), []byte(tokenKey(token))) != 1 {
		return ErrResetTokenInvalid
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.codes.CompletePasswordReset(ctx, claims.UserID, string(hash), now); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrResetTokenInvalid
		}
		return err
	}
	s.audit.Record(ctx, domain.EventPasswordReset, claims.UserID, "", ip)
	return nil
}

func generateOTP(now time.Time) (string, string, time.Time, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", "", time.Time{}, err
	}
	code := fmt.Sprintf("%06d", n.Int64())

	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", "", time.Time{}, err
	}
	saltStr := base64.StdEncoding.EncodeToString(salt)
	hashBytes := sha256.Sum256([]byte(saltStr + ":" + code))
	hash := base64.StdEncoding.EncodeToString(hashBytes[:])

	return code, saltStr + ":" + hash, now.Add(otpTTL), nil
}

func verifyOTP(code, stored string) bool {
	parts := strings.Split(stored, ":")
	if len(parts) != 2 {
		return false
	}
	hashBytes := sha256.Sum256([]byte(parts[0] + ":" + code))
	hash := base64.StdEncoding.EncodeToString(hashBytes[:])
	return subtle.ConstantTimeCompare([]byte(hash), []byte(parts[1])) == 1
}
