package service

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"collabhub/internal/repository"
)

const (
	hygieneRetention = 24 * time.Hour
	hygieneTimeout   = 30 * time.Second

	scheduleEveryMinute = "@every 1m"
	scheduleMidnight    = "0 0 * * *"
)

// HygieneService programa las limpiezas periódicas de cuentas y registros vencidos.
type HygieneService struct {
	logger *zap.Logger
	repo   repository.HygieneRepository
	cron   *cron.Cron
	now    func() time.Time
}

func NewHygieneService(logger *zap.Logger, repo repository.HygieneRepository) *HygieneService {
	return &HygieneService{
		logger: logger,
		repo:   repo,
		cron:   cron.New(cron.WithLocation(time.UTC)),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Start registra los jobs y arranca el scheduler en segundo plano.
func (s *HygieneService) Start() error {
	if _, err := s.cron.AddFunc(scheduleEveryMinute, s.RunMinutely); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(scheduleMidnight, s.RunDaily); err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("hygiene scheduler started")
	return nil
}

// Stop espera a que terminen los jobs en curso.
func (s *HygieneService) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn("hygiene scheduler stop timed out")
		return
	}
	s.logger.Info("hygiene scheduler stopped")
}

// RunMinutely ejecuta las limpiezas de cada minuto; cada una es independiente.
func (s *HygieneService) RunMinutely() {
	ctx, cancel := context.WithTimeout(context.Background(), hygieneTimeout)
	defer cancel()

	now := s.now()
	threshold := now.Add(-hygieneRetention)
	s.run(ctx, "block_exhausted_users", func(ctx context.Context) (int64, error) {
		return s.repo.BlockExhaustedUsers(ctx, now, maxCodeEntries)
	})
	s.run(ctx, "unverified_users", func(ctx context.Context) (int64, error) {
		return s.repo.DeleteUnverifiedUsers(ctx, threshold)
	})
	s.run(ctx, "code_entry_attempts", func(ctx context.Context) (int64, error) {
		return s.repo.DeleteStaleCodeEntryAttempts(ctx, threshold)
	})
	s.run(ctx, "login_attempts", func(ctx context.Context) (int64, error) {
		return s.repo.DeleteStaleLoginAttempts(ctx, threshold, now)
	})
	s.run(ctx, "blocked_emails", func(ctx context.Context) (int64, error) {
		return s.repo.DeleteStaleBlockedEmails(ctx, threshold)
	})
}

// RunDaily borra los códigos de verificación vencidos.
func (s *HygieneService) RunDaily() {
	ctx, cancel := context.WithTimeout(context.Background(), hygieneTimeout)
	defer cancel()

	now := s.now()
	s.run(ctx, "expired_codes", func(ctx context.Context) (int64, error) {
		return s.repo.DeleteExpiredCodes(ctx, now)
	})
}

func (s *HygieneService) run(ctx context.Context, job string, fn func(context.Context) (int64, error)) {
	n, err := fn(ctx)
	if err != nil {
		s.logger.Error("hygiene job failed", zap.String("job", job), zap.Error(err))
		return
	}
	if n > 0 {
		s.logger.Info("hygiene job removed rows", zap.String("job", job), zap.Int64("rows", n))
	}
}
