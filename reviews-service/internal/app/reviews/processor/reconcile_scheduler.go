package processor

import (
	"context"
	"time"

	"productreviews/pkg/logger"
	"productreviews/pkg/metrics"
	"productreviews/reviews-service/internal/app/reviews/service"

	"github.com/robfig/cron/v3"
)

// ReconcileScheduler периодически пересчитывает рейтинги всех товаров.
// Закрывает окно, когда статус отзыва уже сменился, а пересчет упал
type ReconcileScheduler struct {
	cron       *cron.Cron
	aggregator service.RatingRecomputer
	timeout    time.Duration
}

func NewReconcileScheduler(aggregator service.RatingRecomputer, timeout time.Duration) *ReconcileScheduler {
	zl := logger.With().Str("component", "reconcile_scheduler").Logger()
	cronLogger := cron.PrintfLogger(&zl)

	c := cron.New(
		cron.WithLogger(cronLogger),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)

	return &ReconcileScheduler{
		cron:       c,
		aggregator: aggregator,
		timeout:    timeout,
	}
}

// Start регистрирует задачу и запускает планировщик.
// Пустое расписание отключает сверку
func (s *ReconcileScheduler) Start(schedule string) error {
	if schedule == "" {
		logger.Info().Msg("Rating reconciliation disabled")
		return nil
	}

	_, err := s.cron.AddFunc(schedule, func() {
		s.RunOnce(context.Background())
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	logger.Info().Str("schedule", schedule).Msg("Rating reconciliation scheduler started")
	return nil
}

// RunOnce - один проход сверки с ограничением по времени
func (s *ReconcileScheduler) RunOnce(ctx context.Context) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	fixed, err := s.aggregator.RecomputeAll(ctx)
	if err != nil {
		metrics.RatingReconcileRuns.WithLabelValues("failed").Inc()
		logger.Error().
			Err(err).
			Int("products_recomputed", fixed).
			Dur("duration", time.Since(start)).
			Msg("Rating reconciliation finished with errors")
		return
	}

	metrics.RatingReconcileRuns.WithLabelValues("success").Inc()
	logger.Info().
		Int("products_recomputed", fixed).
		Dur("duration", time.Since(start)).
		Msg("Rating reconciliation completed")
}

func (s *ReconcileScheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info().Msg("Rating reconciliation scheduler stopped")
}

func (s *ReconcileScheduler) Entries() []cron.Entry {
	return s.cron.Entries()
}
