package service

import (
	"context"

	"productreviews/reviews-service/internal/app/reviews/entity"
)

// RatingRecomputer - то, что нужно модерации и фоновым задачам от агрегатора
type RatingRecomputer interface {
	Recompute(ctx context.Context, productID int64) (*entity.RatingSnapshot, error)
	RecomputeAll(ctx context.Context) (int, error)
}

type ReviewServiceInterface interface {
	CreateReview(ctx context.Context, req *entity.CreateReviewRequest, customerID *int64) (*entity.Review, error)
	ListApproved(ctx context.Context, productID int64) ([]entity.Review, error)
	ListForModeration(ctx context.Context, productID int64) ([]entity.Review, error)
	ListAll(ctx context.Context, statusFilter string) ([]entity.Review, error)
}

type ModerationServiceInterface interface {
	Transition(ctx context.Context, actor entity.Actor, reviewID int64, newStatus entity.ReviewStatus) (*entity.TransitionResult, error)
	History(ctx context.Context, reviewID int64) ([]entity.ModerationRecord, error)
}

type ProductServiceInterface interface {
	ListProducts(ctx context.Context) ([]entity.Product, error)
	GetProduct(ctx context.Context, id int64) (*entity.Product, error)
	CreateProduct(ctx context.Context, req *entity.CreateProductRequest) (*entity.Product, error)
	RecomputeRating(ctx context.Context, productID int64) (*entity.RatingSnapshot, error)
}

type AuthServiceInterface interface {
	Register(ctx context.Context, req *entity.RegisterRequest) (*entity.User, error)
	Login(ctx context.Context, req *entity.LoginRequest) (*entity.AuthResponse, error)
}
