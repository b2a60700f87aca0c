package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"collabhub/internal/domain"
	"collabhub/internal/repository"
)

// AuditService registra eventos de autenticación en log_events.
type AuditService struct {
	logger *zap.Logger
	repo   repository.AuditRepository
}

func NewAuditService(logger *zap.Logger, repo repository.AuditRepository) *AuditService {
	return &AuditService{logger: logger, repo: repo}
}

// Record es best-effort: un fallo se registra y no se propaga.
func (s *AuditService) Record(ctx context.Context, eventType, userID, details, ip string) {
	if s == nil || s.repo == nil {
		return
	}
	event := domain.LogEvent{
		ID:        uuid.NewString(),
		EventType: eventType,
		UserID:    userID,
		Details:   details,
		IPAddress: ip,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.Record(ctx, event); err != nil && s.logger != nil {
		s.logger.Warn("record audit event failed",
			zap.String("event", eventType),
			zap.String("user_id", userID),
			zap.Error(err),
		)
	}
}
