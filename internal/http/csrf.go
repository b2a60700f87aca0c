package http

import (
	"crypto/rand"
	"crypto/sha256"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/csrf"
	"go.uber.org/zap"
)

const (
	csrfCookieName = "_csrf"
	csrfHeaderName = "X-CSRF-Token"
)

// CSRFConfig agrupa las opciones del token CSRF de doble envío.
type CSRFConfig struct {
	Secret         string
	Secure         bool
	Plaintext      bool
	Domain         string
	TrustedOrigins []string
}

// CSRFProtect envuelve el handler con gorilla/csrf; los métodos seguros quedan exentos.
func CSRFProtect(logger *zap.Logger, cfg CSRFConfig, next http.Handler) http.Handler {
	key := sha256.Sum256([]byte(cfg.Secret))
	if cfg.Secret == "" {
		logger.Warn("CSRF_SECRET not set, using a random key")
		if _, err := rand.Read(key[:]); err != nil {
			logger.Fatal("csrf key", zap.Error(err))
		}
	}

	sameSite := csrf.SameSiteNoneMode
	if !cfg.Secure {
		sameSite = csrf.SameSiteLaxMode
	}
	opts := []csrf.Option{
		csrf.CookieName(csrfCookieName),
		csrf.RequestHeader(csrfHeaderName),
		csrf.Path("/"),
		csrf.Secure(cfg.Secure),
		csrf.HttpOnly(true),
		csrf.SameSite(sameSite),
		csrf.TrustedOrigins(originHosts(cfg.TrustedOrigins)),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger.Warn("csrf rejected", zap.String("path", r.URL.Path), zap.Error(csrf.FailureReason(r)))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"error":"invalid csrf token"}`))
		})),
	}
	if cfg.Domain != "" {
		opts = append(opts, csrf.Domain(cfg.Domain))
	}
	protected := csrf.Protect(key[:], opts...)(next)
	if !cfg.Plaintext {
		return protected
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		protected.ServeHTTP(w, csrf.PlaintextHTTPRequest(r))
	})
}

// originHosts convierte orígenes completos en los hosts que espera gorilla/csrf.
func originHosts(origins []string) []string {
	hosts := make([]string, 0, len(origins))
	for _, origin := range origins {
		u, err := url.Parse(origin)
		if err != nil || u.Host == "" {
			hosts = append(hosts, origin)
			continue
		}
		hosts = append(hosts, u.Host)
	}
	return hosts
}

// CSRFToken devuelve el token para el header X-CSRF-Token.
func CSRFToken(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"csrfToken": csrf.Token(c.Request)})
}
