package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"productreviews/pkg/metrics"
	"productreviews/reviews-service/internal/app/reviews/entity"

	"github.com/jackc/pgx/v5"
)

const serviceName = "reviews-service"

const reviewColumns = `id, product_id, customer_id, customer_name, rating, comment, status, created_at`

type reviewRepository struct {
	db DBTX
}

// NewReviewRepository создает репозиторий отзывов поверх пула pgx
func NewReviewRepository(db DBTX) ReviewRepository {
	return &reviewRepository{db: db}
}

// Create вставляет отзыв в статусе pending и заполняет ID и CreatedAt.
// Рейтинг товара здесь не пересчитывается
func (r *reviewRepository) Create(ctx context.Context, review *entity.Review) error {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpInsert, "reviews")
	defer timer.ObserveDuration()

	review.Status = entity.StatusPending
	review.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO reviews (product_id, customer_id, customer_name, rating, comment, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	err := r.db.QueryRow(ctx, query,
		review.ProductID, review.CustomerID, review.CustomerName,
		review.Rating, review.Comment, review.Status, review.CreatedAt,
	).Scan(&review.ID)
	if err != nil {
		metrics.RecordDbError(serviceName, metrics.DbOpInsert)
		return fmt.Errorf("failed to create review: %w", err)
	}

	return nil
}

// ListApproved - публичный список: только одобренные отзывы товара
func (r *reviewRepository) ListApproved(ctx context.Context, productID int64) ([]entity.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews
		WHERE product_id = $1 AND status = $2
		ORDER BY created_at DESC`

	return r.list(ctx, query, productID, entity.StatusApproved)
}

// ListByProduct - все отзывы товара в любом статусе (для модерации)
func (r *reviewRepository) ListByProduct(ctx context.Context, productID int64) ([]entity.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews
		WHERE product_id = $1
		ORDER BY created_at DESC`

	return r.list(ctx, query, productID)
}

// ListAll - все отзывы, при status != nil только в этом статусе
func (r *reviewRepository) ListAll(ctx context.Context, status *entity.ReviewStatus) ([]entity.Review, error) {
	if status == nil {
		return r.list(ctx, `SELECT `+reviewColumns+` FROM reviews ORDER BY created_at DESC`)
	}

	query := `SELECT ` + reviewColumns + ` FROM reviews
		WHERE status = $1
		ORDER BY created_at DESC`

	return r.list(ctx, query, *status)
}

// SetStatus меняет статус и возвращает число затронутых строк.
// 0 строк - ErrReviewNotFound
func (r *reviewRepository) SetStatus(ctx context.Context, reviewID int64, status entity.ReviewStatus) (int64, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpUpdate, "reviews")
	defer timer.ObserveDuration()

	result, err := r.db.Exec(ctx, `UPDATE reviews SET status = $1 WHERE id = $2`, status, reviewID)
	if err != nil {
		metrics.RecordDbError(serviceName, metrics.DbOpUpdate)
		return 0, fmt.Errorf("failed to update review status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return 0, ErrReviewNotFound
	}

	return result.RowsAffected(), nil
}

func (r *reviewRepository) GetProductID(ctx context.Context, reviewID int64) (int64, error) {
	var productID int64
	err := r.db.QueryRow(ctx, `SELECT product_id FROM reviews WHERE id = $1`, reviewID).Scan(&productID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrReviewNotFound
		}
		return 0, fmt.Errorf("failed to get product id of review: %w", err)
	}

	return productID, nil
}

// ApprovedStats считает среднее и количество одобренных отзывов.
// Для товара без одобренных отзывов возвращает 0.0/0, а не NULL
func (r *reviewRepository) ApprovedStats(ctx context.Context, productID int64) (*entity.RatingSnapshot, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, "reviews")
	defer timer.ObserveDuration()

	query := `
		SELECT COALESCE(AVG(rating), 0)::float8, COUNT(*)
		FROM reviews
		WHERE product_id = $1 AND status = $2
	`

	var (
		avg   float64
		count int64
	)
	if err := r.db.QueryRow(ctx, query, productID, entity.StatusApproved).Scan(&avg, &count); err != nil {
		metrics.RecordDbError(serviceName, metrics.DbOpSelect)
		return nil, fmt.Errorf("failed to aggregate approved reviews: %w", err)
	}

	return &entity.RatingSnapshot{
		ProductID:     productID,
		AverageRating: avg,
		ReviewCount:   int(count),
	}, nil
}

func (r *reviewRepository) list(ctx context.Context, query string, args ...any) ([]entity.Review, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, "reviews")
	defer timer.ObserveDuration()

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		metrics.RecordDbError(serviceName, metrics.DbOpSelect)
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer rows.Close()

	reviews := make([]entity.Review, 0)
	for rows.Next() {
		var rv entity.Review
		if err := rows.Scan(
			&rv.ID,
			&rv.ProductID,
			&rv.CustomerID,
			&rv.CustomerName,
			&rv.Rating,
			&rv.Comment,
			&rv.Status,
			&rv.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, rv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reviews: %w", err)
	}

	return reviews, nil
}
