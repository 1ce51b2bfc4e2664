package repository

import (
	"context"
	"errors"

	"productreviews/reviews-service/internal/app/reviews/entity"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// Стандартные ошибки репозитория для обработки в service layer
	ErrReviewNotFound  = errors.New("review not found")
	ErrProductNotFound = errors.New("product not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrUserExists      = errors.New("user with this email already exists")
)

// DBTX - общий интерфейс *pgxpool.Pool и pgx.Tx.
// В тестах вместо пула подставляется pgxmock
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ReviewRepository - хранилище отзывов (PostgreSQL через pgx)
// Списки всегда возвращают непустой срез, отсортированный по created_at DESC
type ReviewRepository interface {
	Create(ctx context.Context, review *entity.Review) error
	ListApproved(ctx context.Context, productID int64) ([]entity.Review, error)
	ListByProduct(ctx context.Context, productID int64) ([]entity.Review, error)
	ListAll(ctx context.Context, status *entity.ReviewStatus) ([]entity.Review, error)
	SetStatus(ctx context.Context, reviewID int64, status entity.ReviewStatus) (int64, error)
	GetProductID(ctx context.Context, reviewID int64) (int64, error)
	ApprovedStats(ctx context.Context, productID int64) (*entity.RatingSnapshot, error)
}

// ProductRepository - товары (PostgreSQL через gorm)
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id int64) (*entity.Product, error)
	GetAll(ctx context.Context) ([]entity.Product, error)
	ListIDs(ctx context.Context) ([]int64, error)
	UpdateRating(ctx context.Context, id int64, averageRating float64, reviewCount int) error
}

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
}

// AuditRepository - журнал модерации (MongoDB)
type AuditRepository interface {
	Insert(ctx context.Context, record *entity.ModerationRecord) error
	ListByReview(ctx context.Context, reviewID int64) ([]entity.ModerationRecord, error)
}
