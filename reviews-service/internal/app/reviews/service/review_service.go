package service

import (
	"context"
	"strings"
	"time"

	"productreviews/pkg/logger"
	"productreviews/pkg/metrics"
	"productreviews/reviews-service/internal/app/reviews/entity"
	"productreviews/reviews-service/internal/app/reviews/infrastructure"
	"productreviews/reviews-service/internal/app/reviews/repository"
)

// ReviewService - операции хранилища отзывов: создание и выборки.
// Рейтинг товара здесь не трогается, это зона модерации
type ReviewService struct {
	reviewRepo    repository.ReviewRepository
	kafkaProducer infrastructure.MessagePublisher
}

// NewReviewService создает новый сервис отзывов с внедрением зависимостей
func NewReviewService(
	reviewRepo repository.ReviewRepository,
	kafkaProducer infrastructure.MessagePublisher,
) *ReviewService {
	return &ReviewService{
		reviewRepo:    reviewRepo,
		kafkaProducer: kafkaProducer,
	}
}

// CreateReview создает отзыв в статусе pending
// 1. Проверяет productId, comment и rating (1..5) до обращения к БД
// 2. Сохраняет отзыв
// 3. Отправляет REVIEW_CREATED в Kafka (ошибка Kafka не прерывает запрос)
func (s *ReviewService) CreateReview(ctx context.Context, req *entity.CreateReviewRequest, customerID *int64) (*entity.Review, error) {
	if req.ProductID <= 0 {
		return nil, validationError("product ID is required")
	}
	if strings.TrimSpace(req.Comment) == "" {
		return nil, validationError("comment is required")
	}
	if req.Rating < entity.MinRating || req.Rating > entity.MaxRating {
		return nil, validationError("rating must be between %d and %d", entity.MinRating, entity.MaxRating)
	}

	name := strings.TrimSpace(req.CustomerName)
	if name == "" {
		name = entity.DefaultCustomerName
	}

	review := &entity.Review{
		ProductID:    req.ProductID,
		CustomerID:   customerID,
		CustomerName: name,
		Rating:       req.Rating,
		Comment:      req.Comment,
	}

	if err := s.reviewRepo.Create(ctx, review); err != nil {
		return nil, storageError("create review", err)
	}

	metrics.RecordReviewCreated(review.Rating)
	logger.Info().
		Int64("review_id", review.ID).
		Int64("product_id", review.ProductID).
		Int("rating", review.Rating).
		Msg("Review submitted for moderation")

	event := entity.ReviewEvent{
		EventID:   newEventID(),
		EventType: entity.EventReviewCreated,
		ReviewID:  review.ID,
		ProductID: review.ProductID,
		Status:    review.Status,
		Rating:    review.Rating,
		Timestamp: time.Now().UTC(),
	}
	if err := publishEvent(ctx, s.kafkaProducer, review.ProductID, event); err != nil {
		logger.Warn().Err(err).Int64("review_id", review.ID).Msg("Failed to publish review created event")
	}

	return review, nil
}

// ListApproved - публичный список одобренных отзывов товара
func (s *ReviewService) ListApproved(ctx context.Context, productID int64) ([]entity.Review, error) {
	if productID <= 0 {
		return nil, validationError("product ID is required")
	}

	reviews, err := s.reviewRepo.ListApproved(ctx, productID)
	if err != nil {
		return nil, storageError("list approved reviews", err)
	}
	return reviews, nil
}

// ListForModeration - все отзывы товара в любом статусе
func (s *ReviewService) ListForModeration(ctx context.Context, productID int64) ([]entity.Review, error) {
	if productID <= 0 {
		return nil, validationError("product ID is required")
	}

	reviews, err := s.reviewRepo.ListByProduct(ctx, productID)
	if err != nil {
		return nil, storageError("list product reviews", err)
	}
	return reviews, nil
}

// ListAll - глобальный список. Пустой фильтр и "all" означают все статусы,
// неизвестное значение фильтра - ошибка валидации
func (s *ReviewService) ListAll(ctx context.Context, statusFilter string) ([]entity.Review, error) {
	var status *entity.ReviewStatus

	filter := strings.ToLower(strings.TrimSpace(statusFilter))
	if filter != "" && filter != "all" {
		st := entity.ReviewStatus(filter)
		if !st.Valid() {
			return nil, validationError("invalid status filter %q", statusFilter)
		}
		status = &st
	}

	reviews, err := s.reviewRepo.ListAll(ctx, status)
	if err != nil {
		return nil, storageError("list reviews", err)
	}
	return reviews, nil
}
