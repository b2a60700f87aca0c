package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"collabhub/internal/domain"
	"collabhub/internal/oauth"
	"collabhub/internal/service"
)

const (
	refreshCookieName = "refreshToken"
	stateCookieName   = "oauth_state"
	stateCookieTTL    = 10 * time.Minute
)

// Authenticator cubre las operaciones de sesión que expone AuthHandler.
type Authenticator interface {
	Register(ctx context.Context, input service.RegisterInput, ip string) (service.AuthResult, error)
	Login(ctx context.Context, email, password, ip string) (service.AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
	Logout(ctx context.Context, accessToken, ip string) error
	LoginWithGoogle(ctx context.Context, profile service.GoogleProfile, ip string) (service.AuthResult, error)
}

// GoogleOAuth es el proveedor del flujo authorization code.
type GoogleOAuth interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (oauth.Profile, error)
}

// CookieConfig define los atributos de la cookie del refresh token.
type CookieConfig struct {
	Domain string
	Secure bool
}

// AuthHandler mantiene dependencias para endpoints de /auth.
type AuthHandler struct {
	logger  *zap.Logger
	auth    Authenticator
	google  GoogleOAuth
	cookies CookieConfig
}

// NewAuthHandler crea el handler; google puede ser nil si OAuth no está configurado.
func NewAuthHandler(logger *zap.Logger, auth Authenticator, google GoogleOAuth, cookies CookieConfig) *AuthHandler {
	return &AuthHandler{logger: logger, auth: auth, google: google, cookies: cookies}
}

type authResponse struct {
	User        domain.User `json:"user"`
	AccessToken string      `json:"accessToken"`
	ExpiresIn   int64       `json:"expiresIn"`
	Success     bool        `json:"success"`
}

// Register maneja POST /auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Email     string `json:"email" binding:"required"`
		Password  string `json:"password" binding:"required"`
		FirstName string `json:"firstName" binding:"required"`
		LastName  string `json:"lastName" binding:"required"`
	}
	if err := bindJSON(c, &req); err != nil {
		badRequest(c, h.logger, "register", err)
		return
	}

	result, err := h.auth.Register(c.Request.Context(), service.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	}, c.ClientIP())
	if err != nil {
		writeError(c, h.logger, "register", err)
		return
	}
	h.respondWithSession(c, http.StatusCreated, result)
}

// Login maneja POST /auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := bindJSON(c, &req); err != nil {
		badRequest(c, h.logger, "login", err)
		return
	}

	result, err := h.auth.Login(c.Request.Context(), req.Email, req.Password, c.ClientIP())
	if err != nil {
		writeError(c, h.logger, "login", err)
		return
	}
	h.respondWithSession(c, http.StatusOK, result)
}

// RefreshToken maneja POST /auth/refresh-token leyendo la cookie httpOnly.
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	token, _ := c.Cookie(refreshCookieName)
	access, err := h.auth.Refresh(c.Request.Context(), token)
	if err != nil {
		writeError(c, h.logger, "refresh token", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"accessToken": access, "success": true})
}

// Logout maneja POST /auth/logout; revoca el access token y borra la cookie.
func (h *AuthHandler) Logout(c *gin.Context) {
	token, _ := bearerToken(c)
	if err := h.auth.Logout(c.Request.Context(), token, c.ClientIP()); err != nil {
		writeError(c, h.logger, "logout", err)
		return
	}
	h.clearCookie(c, refreshCookieName)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GoogleLogin maneja GET /auth/google redirigiendo al consentimiento.
func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	if h.google == nil {
		writeError(c, h.logger, "google login", service.ErrServiceUnavailable)
		return
	}
	state, err := oauth.NewState()
	if err != nil {
		writeError(c, h.logger, "google login", err)
		return
	}
	h.setCookie(c, stateCookieName, state, time.Now().Add(stateCookieTTL))
	c.Redirect(http.StatusFound, h.google.AuthCodeURL(state))
}

// GoogleCallback maneja GET /auth/google/callback.
func (h *AuthHandler) GoogleCallback(c *gin.Context) {
	if h.google == nil {
		writeError(c, h.logger, "google callback", service.ErrServiceUnavailable)
		return
	}
	expected, _ := c.Cookie(stateCookieName)
	h.clearCookie(c, stateCookieName)
	if expected == "" || c.Query("state") != expected {
		h.logger.Warn("oauth state mismatch", zap.String("request_id", requestID(c)))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid oauth state"})
		return
	}
	code := c.Query("code")
	if code == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "missing code"})
		return
	}

	profile, err := h.google.Exchange(c.Request.Context(), code)
	if err != nil {
		h.logger.Warn("oauth exchange failed", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "google authentication failed"})
		return
	}
	result, err := h.auth.LoginWithGoogle(c.Request.Context(), service.GoogleProfile{
		Subject:       profile.Subject,
		Email:         profile.Email,
		EmailVerified: profile.EmailVerified,
		GivenName:     profile.GivenName,
		FamilyName:    profile.FamilyName,
		Picture:       profile.Picture,
	}, c.ClientIP())
	if err != nil {
		writeError(c, h.logger, "google callback", err)
		return
	}
	h.respondWithSession(c, http.StatusOK, result)
}

func (h *AuthHandler) respondWithSession(c *gin.Context, status int, result service.AuthResult) {
	h.setCookie(c, refreshCookieName, result.Tokens.RefreshToken, result.Tokens.RefreshExpiresAt)
	c.JSON(status, authResponse{
		User:        result.User,
		AccessToken: result.Tokens.AccessToken,
		ExpiresIn:   result.Tokens.ExpiresIn,
		Success:     true,
	})
}

func (h *AuthHandler) setCookie(c *gin.Context, name, value string, expires time.Time) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   h.cookies.Domain,
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: h.sameSite(),
	})
}

func (h *AuthHandler) clearCookie(c *gin.Context, name string) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   h.cookies.Domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: h.sameSite(),
	})
}

// sameSite usa None sólo con cookies seguras.
func (h *AuthHandler) sameSite() http.SameSite {
	if h.cookies.Secure {
		return http.SameSiteNoneMode
	}
	return http.SameSiteLaxMode
}
