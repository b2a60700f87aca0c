package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"collabhub/internal/domain"
	"collabhub/internal/repository"
)

var (
	ErrInvalidName   = badRequest("Name must be 2-50 letters")
	ErrOAuthProfile  = badRequest("Google account has no verified email")
	ErrTokenRequired = newError(ErrUnauthorized, "Refresh token is missing")
)

// AuthService aplica la política de credenciales y emite sesiones.
type AuthService struct {
	logger       *zap.Logger
	users        repository.UserRepository
	attempts     repository.LoginAttemptRepository
	verification repository.VerificationRepository
	jwt          *JWTService
	denylist     TokenDenylist
	codes        *VerificationService
	audit        *AuditService
	now          func() time.Time
}

func NewAuthService(
	logger *zap.Logger,
	users repository.UserRepository,
	attempts repository.LoginAttemptRepository,
	verification repository.VerificationRepository,
	jwt *JWTService,
	denylist TokenDenylist,
	codes *VerificationService,
	audit *AuditService,
) *AuthService {
	if denylist == nil {
		denylist = NewMemoryTokenDenylist()
	}
	return &AuthService{
		logger:       logger,
		users:        users,
		attempts:     attempts,
		verification: verification,
		jwt:          jwt,
		denylist:     denylist,
		codes:        codes,
		audit:        audit,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// AuthResult agrupa el usuario autenticado con su par de tokens.
type AuthResult struct {
	User   domain.User
	Tokens TokenPair
}

// GoogleProfile son los datos mínimos devueltos por el proveedor OAuth.
type GoogleProfile struct {
	Subject       string
	Email         string
	EmailVerified bool
	GivenName     string
	FamilyName    string
	Picture       string
}

// Register crea un usuario sin verificar y dispara el envío del código.
func (s *AuthService) Register(ctx context.Context, input RegisterInput, ip string) (AuthResult, error) {
	emailAddr := normalizeEmail(input.Email)
	firstName := strings.TrimSpace(input.FirstName)
	lastName := strings.TrimSpace(input.LastName)
	if !validEmail(emailAddr) {
		return AuthResult{}, ErrInvalidEmail
	}
	if !validPassword(input.Password) {
		return AuthResult{}, ErrWeakPassword
	}
	if !validName(firstName) || !validName(lastName) {
		return AuthResult{}, ErrInvalidName
	}

	blocked, err := s.verification.IsEmailBlocked(ctx, emailAddr)
	if err != nil {
		return AuthResult{}, err
	}
	if blocked {
		return AuthResult{}, ErrEmailBlocked
	}
	exists, err := s.users.EmailExists(ctx, emailAddr)
	if err != nil {
		return AuthResult{}, err
	}
	if exists {
		return AuthResult{}, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return AuthResult{}, err
	}
	now := s.now()
	user := domain.User{
		ID:           uuid.NewString(),
		Email:        emailAddr,
		PasswordHash: string(hash),
		FirstName:    firstName,
		LastName:     lastName,
		Role:         domain.UserRoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return AuthResult{}, ErrEmailTaken
		}
		return AuthResult{}, err
	}

	tokens, err := s.jwt.GeneratePair(user)
	if err != nil {
		return AuthResult{}, err
	}
	s.audit.Record(ctx, domain.EventRegister, user.ID, "", ip)
	s.sendCodeAsync(user.Email)
	return AuthResult{User: user, Tokens: tokens}, nil
}

func (s *AuthService) sendCodeAsync(emailAddr string) {
	if s.codes == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.codes.SendCode(ctx, emailAddr); err != nil {
			s.logger.Warn("async verification code failed", zap.String("email", emailAddr), zap.Error(err))
		}
	}()
}

// Authenticate valida las credenciales aplicando el bloqueo progresivo.
func (s *AuthService) Authenticate(ctx context.Context, emailAddr, password string) (domain.User, error) {
	emailAddr = normalizeEmail(emailAddr)
	if emailAddr == "" || password == "" {
		return domain.User{}, ErrWrongCredentials
	}
	user, err := s.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.User{}, ErrWrongCredentials
		}
		return domain.User{}, err
	}

	now := s.now()
	current, err := s.attempts.Get(ctx, user.ID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return domain.User{}, err
	}
	if err == nil && current.Blocked(now) {
		return domain.User{}, &LockoutError{Attempts: current.Attempts, BlockedUntil: *current.BlockedUntil}
	}

	if user.PasswordHash != "" && bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil {
		if err := s.attempts.Reset(ctx, user.ID); err != nil {
			return domain.User{}, err
		}
		return user, nil
	}

	updated, err := s.attempts.RecordFailure(ctx, user.ID, now, lockoutFor)
	if err != nil {
		return domain.User{}, err
	}
	if d := lockoutFor(updated.Attempts); d > 0 {
		until := now.Add(d)
		if updated.BlockedUntil != nil {
			until = *updated.BlockedUntil
		}
		return domain.User{}, &LockoutError{Attempts: updated.Attempts, BlockedUntil: until}
	}
	return domain.User{}, ErrWrongCredentials
}

// Login autentica y emite access y refresh token.
func (s *AuthService) Login(ctx context.Context, emailAddr, password, ip string) (AuthResult, error) {
	user, err := s.Authenticate(ctx, emailAddr, password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) || errors.Is(err, ErrTooManyRequests) {
			s.audit.Record(ctx, domain.EventFailedLogin, "", normalizeEmail(emailAddr), ip)
		}
		return AuthResult{}, err
	}
	tokens, err := s.jwt.GeneratePair(user)
	if err != nil {
		return AuthResult{}, err
	}
	s.audit.Record(ctx, domain.EventLogin, user.ID, "", ip)
	return AuthResult{User: user, Tokens: tokens}, nil
}

// Refresh emite un nuevo access token; el refresh token no rota.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return "", ErrTokenRequired
	}
	claims, err := s.jwt.ParseRefreshToken(refreshToken)
	if err != nil {
		return "", ErrInvalidToken
	}
	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrInvalidToken
		}
		return "", err
	}
	return s.jwt.GenerateAccessToken(user)
}

// Logout revoca el access token durante lo que le queda de vida.
func (s *AuthService) Logout(ctx context.Context, accessToken, ip string) error {
	claims, err := s.jwt.ParseAccessToken(accessToken)
	if err != nil {
		// un token vencido o inválido ya no se puede reutilizar
		return nil
	}
	if ttl := s.jwt.RemainingLifetime(claims); ttl > 0 {
		if err := s.denylist.Add(ctx, accessToken, ttl); err != nil {
			return err
		}
	}
	s.audit.Record(ctx, domain.EventLogout, claims.UserID, "", ip)
	return nil
}

// ValidateAccessToken verifica firma, tipo y que el token no esté revocado.
func (s *AuthService) ValidateAccessToken(ctx context.Context, token string) (Claims, error) {
	claims, err := s.jwt.ParseAccessToken(token)
	if err != nil {
		return Claims{}, ErrInvalidToken
	}
	revoked, err := s.denylist.Contains(ctx, token)
	if err != nil {
		return Claims{}, err
	}
	if revoked {
		return Claims{}, ErrInvalidToken
	}
	return claims, nil
}

// LoginWithGoogle crea o vincula la cuenta por email y emite la sesión.
func (s *AuthService) LoginWithGoogle(ctx context.Context, profile GoogleProfile, ip string) (AuthResult, error) {
	emailAddr := normalizeEmail(profile.Email)
	if emailAddr == "" || !profile.EmailVerified {
		return AuthResult{}, ErrOAuthProfile
	}
	blocked, err := s.verification.IsEmailBlocked(ctx, emailAddr)
	if err != nil {
		return AuthResult{}, err
	}
	if blocked {
		return AuthResult{}, ErrEmailBlocked
	}

	now := s.now()
	user, err := s.users.UpsertGoogle(ctx, domain.User{
		ID:        uuid.NewString(),
		Email:     emailAddr,
		FirstName: strings.TrimSpace(profile.GivenName),
		LastName:  strings.TrimSpace(profile.FamilyName),
		GoogleID:  strings.TrimSpace(profile.Subject),
		AvatarURL: strings.TrimSpace(profile.Picture),
		Role:      domain.UserRoleUser,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return AuthResult{}, err
	}
	tokens, err := s.jwt.GeneratePair(user)
	if err != nil {
		return AuthResult{}, err
	}
	s.audit.Record(ctx, domain.EventLogin, user.ID, "google", ip)
	return AuthResult{User: user, Tokens: tokens}, nil
}
