package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"collabhub/internal/service"
)

// statusFor traduce la categoría del error de servicio a un código HTTP.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, service.ErrUnauthorized), errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrTooManyRequests):
		return http.StatusTooManyRequests
	case errors.Is(err, service.ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError responde con el mensaje estable del error o con un 500 genérico.
func writeError(c *gin.Context, logger *zap.Logger, op string, err error) {
	status := statusFor(err)
	msg, ok := service.PublicMessage(err)
	if status == http.StatusInternalServerError || !ok {
		logger.Error(op+" failed", zap.Error(err), zap.String("request_id", requestID(c)))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	body := gin.H{"error": msg}
	var lock *service.LockoutError
	if errors.As(err, &lock) {
		body["attempts"] = lock.Attempts
		body["blockedUntil"] = lock.BlockedUntil
	}
	c.AbortWithStatusJSON(status, body)
}

func badRequest(c *gin.Context, logger *zap.Logger, op string, err error) {
	logger.Warn("invalid "+op+" request", zap.Error(err))
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
}
