package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func csrfServer() http.Handler {
	r := gin.New()
	r.GET("/csrf", CSRFToken)
	r.POST("/auth/login", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return CSRFProtect(zap.NewNop(), CSRFConfig{
		Secret:         "test-secret",
		Plaintext:      true,
		TrustedOrigins: []string{"http://localhost:3000"},
	}, r)
}

func TestCSRFProtect_RejectsMissingToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := csrfServer()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login", nil))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid csrf token")
}

func TestCSRFProtect_AcceptsIssuedToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := csrfServer()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/csrf", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		CSRFToken string `json:"csrfToken"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(t, body.CSRFToken)

	var cookie *http.Cookie
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == csrfCookieName {
			cookie = ck
		}
	}
	require.NotNil(t, cookie, "csrf cookie must be issued")

	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req.AddCookie(cookie)
	req.Header.Set(csrfHeaderName, body.CSRFToken)
	req.Header.Set("Origin", "http://localhost:3000")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req.AddCookie(cookie)
	req.Header.Set(csrfHeaderName, body.CSRFToken)
	req.Header.Set("Origin", "http://evil.example.com")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestOriginHosts(t *testing.T) {
	got := originHosts([]string{"https://app.example.com", "http://localhost:3000", "bare.example.com"})
	assert.Equal(t, []string{"app.example.com", "localhost:3000", "bare.example.com"}, got)
}
