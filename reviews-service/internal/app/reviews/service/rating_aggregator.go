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

const (
	recomputeSuccess = "success"
	recomputeFailed  = "failed"
	recomputeSkipped = "skipped"
)

// RatingAggregator пересчитывает averageRating/reviewCount товара
// по текущему множеству одобренных отзывов.
// Пересчеты одного товара сериализуются внутри процесса
type RatingAggregator struct {
	reviewRepo    repository.ReviewRepository
	productRepo   repository.ProductRepository
	kafkaProducer infrastructure.MessagePublisher
	locks         *keyedMutex
}

func NewRatingAggregator(
	reviewRepo repository.ReviewRepository,
	productRepo repository.ProductRepository,
	kafkaProducer infrastructure.MessagePublisher,
) *RatingAggregator {
	return &RatingAggregator{
		reviewRepo:    reviewRepo,
		productRepo:   productRepo,
		kafkaProducer: kafkaProducer,
		locks:         newKeyedMutex(),
	}
}

// Recompute идемпотентен: повторный вызов без смены статусов дает тот же снимок.
// Оба поля товара пишутся одним UPDATE
func (a *RatingAggregator) Recompute(ctx context.Context, productID int64) (*entity.RatingSnapshot, error) {
	snapshot, err := a.recomputeLocked(ctx, productID)
	if err != nil {
		return nil, err
	}

	// Событие публикуется уже без блокировки товара
	event := entity.RatingEvent{
		EventID:       newEventID(),
		EventType:     entity.EventProductRatingUpdated,
		ProductID:     productID,
		AverageRating: snapshot.AverageRating,
		ReviewCount:   snapshot.ReviewCount,
		Timestamp:     time.Now().UTC(),
	}
	if err := publishEvent(ctx, a.kafkaProducer, productID, event); err != nil {
		logger.Warn().Err(err).Int64("product_id", productID).Msg("Failed to publish rating updated event")
	}

	return snapshot, nil
}

// recomputeLocked читает агрегат и пишет его в товар под блокировкой productId
func (a *RatingAggregator) recomputeLocked(ctx context.Context, productID int64) (*entity.RatingSnapshot, error) {
	unlock := a.locks.Lock(productID)
	defer unlock()

	start := time.Now()

	snapshot, err := a.reviewRepo.ApprovedStats(ctx, productID)
	if err != nil {
		metrics.RecordRatingRecompute(recomputeFailed, time.Since(start))
		return nil, storageError("aggregate approved reviews", err)
	}

	if err := a.productRepo.UpdateRating(ctx, productID, snapshot.AverageRating, snapshot.ReviewCount); err != nil {
		metrics.RecordRatingRecompute(recomputeFailed, time.Since(start))
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, storageError("update product rating", err)
	}

	metrics.RecordRatingRecompute(recomputeSuccess, time.Since(start))
	logger.Debug().
		Int64("product_id", productID).
		Float64("average_rating", snapshot.AverageRating).
		Int("review_count", snapshot.ReviewCount).
		Msg("Product rating recomputed")

	return snapshot, nil
}

// RecomputeAll проходит по всем товарам и возвращает число успешно пересчитанных.
// Ошибка по одному товару не останавливает проход, наружу уходит первая
func (a *RatingAggregator) RecomputeAll(ctx context.Context) (int, error) {
	ids, err := a.productRepo.ListIDs(ctx)
	if err != nil {
		return 0, storageError("list product ids", err)
	}

	var (
		fixed    int
		firstErr error
	)
	for _, id := range ids {
		if ctx.Err() != nil {
			if firstErr == nil {
				firstErr = ctx.Err()
			}
			break
		}

		if _, err := a.Recompute(ctx, id); err != nil {
			logger.Error().Err(err).Int64("product_id", id).Msg("Failed to recompute product rating")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		fixed++
	}

	return fixed, firstErr
}
