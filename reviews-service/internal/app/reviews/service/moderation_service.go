package service

import (
	"context"
	"errors"
	"time"

	"productreviews/pkg/logger"
	"productreviews/pkg/metrics"
	"productreviews/reviews-service/internal/app/reviews/entity"
	"productreviews/reviews-service/internal/app/reviews/infrastructure"
	"productreviews/reviews-service/internal/app/reviews/repository"
)

// ModerationService меняет статус отзыва и приводит рейтинг товара в соответствие.
//
// Шаги не обернуты в транзакцию: если после смены статуса пересчет не удался,
// статус остается новым, а рейтинг товара старым до следующего пересчета
// (сверка по расписанию или консьюмер событий)
type ModerationService struct {
	reviewRepo    repository.ReviewRepository
	aggregator    RatingRecomputer
	auditRepo     repository.AuditRepository
	kafkaProducer infrastructure.MessagePublisher
}

func NewModerationService(
	reviewRepo repository.ReviewRepository,
	aggregator RatingRecomputer,
	auditRepo repository.AuditRepository,
	kafkaProducer infrastructure.MessagePublisher,
) *ModerationService {
	return &ModerationService{
		reviewRepo:    reviewRepo,
		aggregator:    aggregator,
		auditRepo:     auditRepo,
		kafkaProducer: kafkaProducer,
	}
}

// Transition переводит отзыв в newStatus. Разрешен переход между любыми статусами.
// 1. Проверяет статус
// 2. Сохраняет статус (0 строк - ErrReviewNotFound, рейтинг не трогаем)
// 3. Определяет товар отзыва (при неудаче - успех без пересчета)
// 4. Пересчитывает рейтинг (при неудаче - успех, ratingRecomputed=false)
func (s *ModerationService) Transition(
	ctx context.Context,
	actor entity.Actor,
	reviewID int64,
	newStatus entity.ReviewStatus,
) (*entity.TransitionResult, error) {
	if reviewID <= 0 {
		return nil, validationError("review ID is required")
	}
	if !newStatus.Valid() {
		return nil, validationError("invalid status, must be pending, approved, or rejected")
	}

	if _, err := s.reviewRepo.SetStatus(ctx, reviewID, newStatus); err != nil {
		if errors.Is(err, repository.ErrReviewNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, storageError("update review status", err)
	}

	metrics.RecordModeration(string(newStatus))

	result := &entity.TransitionResult{
		ReviewID:  reviewID,
		NewStatus: newStatus,
	}

	productID, err := s.reviewRepo.GetProductID(ctx, reviewID)
	if err != nil || productID <= 0 {
		metrics.RecordRatingRecompute(recomputeSkipped, 0)
		logger.Warn().
			Err(err).
			Int64("review_id", reviewID).
			Msg("Review status updated, but product lookup failed; rating not recomputed")
		s.afterTransition(ctx, actor, result)
		return result, nil
	}
	result.ProductID = productID

	snapshot, err := s.aggregator.Recompute(ctx, productID)
	if err != nil {
		logger.Error().
			Err(err).
			Int64("review_id", reviewID).
			Int64("product_id", productID).
			Msg("Review status updated, but rating recompute failed")
	} else {
		result.RatingRecomputed = true
		result.Rating = snapshot
	}

	logger.Info().
		Int64("review_id", reviewID).
		Int64("product_id", productID).
		Str("new_status", string(newStatus)).
		Int64("actor_id", actor.ID).
		Bool("rating_recomputed", result.RatingRecomputed).
		Msg("Review status changed")

	s.afterTransition(ctx, actor, result)
	return result, nil
}

// History возвращает журнал модерации отзыва из MongoDB
func (s *ModerationService) History(ctx context.Context, reviewID int64) ([]entity.ModerationRecord, error) {
	if reviewID <= 0 {
		return nil, validationError("review ID is required")
	}
	if s.auditRepo == nil {
		return []entity.ModerationRecord{}, nil
	}

	records, err := s.auditRepo.ListByReview(ctx, reviewID)
	if err != nil {
		return nil, storageError("list moderation history", err)
	}
	return records, nil
}

// afterTransition публикует REVIEW_STATUS_CHANGED и пишет запись в журнал.
// Обе операции best-effort: ошибки только логируются
func (s *ModerationService) afterTransition(ctx context.Context, actor entity.Actor, result *entity.TransitionResult) {
	now := time.Now().UTC()

	event := entity.ReviewEvent{
		EventID:   newEventID(),
		EventType: entity.EventReviewStatusChanged,
		ReviewID:  result.ReviewID,
		ProductID: result.ProductID,
		Status:    result.NewStatus,
		Timestamp: now,
	}
	if err := publishEvent(ctx, s.kafkaProducer, result.ProductID, event); err != nil {
		logger.Warn().Err(err).Int64("review_id", result.ReviewID).Msg("Failed to publish status changed event")
	}

	if s.auditRepo == nil {
		return
	}

	record := &entity.ModerationRecord{
		ReviewID:         result.ReviewID,
		ProductID:        result.ProductID,
		NewStatus:        result.NewStatus,
		ActorID:          actor.ID,
		ActorEmail:       actor.Email,
		RatingRecomputed: result.RatingRecomputed,
		CreatedAt:        now,
	}
	if result.Rating != nil {
		record.AverageRating = result.Rating.AverageRating
		record.ReviewCount = result.Rating.ReviewCount
	}

	if err := s.auditRepo.Insert(ctx, record); err != nil {
		logger.Warn().Err(err).Int64("review_id", result.ReviewID).Msg("Failed to write moderation audit record")
	}
}
