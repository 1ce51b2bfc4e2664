//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"productreviews/reviews-service/internal/app/reviews/entity"
	"productreviews/reviews-service/internal/app/reviews/handler"
	"productreviews/reviews-service/internal/app/reviews/repository"
	"productreviews/reviews-service/internal/app/reviews/service"
	"productreviews/reviews-service/internal/app/reviews/util"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// ReviewsIntegrationTestSuite поднимает весь HTTP стек над настоящим PostgreSQL.
// DSN берется из TEST_DATABASE_DSN, без него тесты пропускаются
type ReviewsIntegrationTestSuite struct {
	suite.Suite
	pool       *pgxpool.Pool
	gormDB     *gorm.DB
	router     *gin.Engine
	jwtManager *util.JWTManager
	adminToken string
}

func TestReviewsIntegrationSuite(t *testing.T) {
	if os.Getenv("TEST_DATABASE_DSN") == "" {
		t.Skip("TEST_DATABASE_DSN not set")
	}
	suite.Run(t, new(ReviewsIntegrationTestSuite))
}

func (s *ReviewsIntegrationTestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	ctx := context.Background()
	dsn := os.Getenv("TEST_DATABASE_DSN")

	var err error
	s.pool, err = pgxpool.New(ctx, dsn)
	s.Require().NoError(err)
	s.Require().NoError(repository.EnsureSchema(ctx, s.pool))

	s.gormDB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	s.Require().NoError(err)

	reviewRepo := repository.NewReviewRepository(s.pool)
	productRepo := repository.NewProductRepository(s.gormDB)
	userRepo := repository.NewUserRepository(s.pool)

	aggregator := service.NewRatingAggregator(reviewRepo, productRepo, nil)
	s.jwtManager = util.NewJWTManager("integration-secret", time.Hour)

	s.router = handler.SetupRoutes(
		handler.Handlers{
			Auth:    handler.NewAuthHandler(service.NewAuthService(userRepo, s.jwtManager)),
			Product: handler.NewProductHandler(service.NewProductService(productRepo, aggregator)),
			Review: handler.NewReviewHandler(
				service.NewReviewService(reviewRepo, nil),
				service.NewModerationService(reviewRepo, aggregator, nil, nil),
			),
		},
		handler.NewAuthMiddleware(s.jwtManager),
		nil,
		handler.HealthChecks{},
	)

	s.adminToken, err = s.jwtManager.GenerateToken(&entity.User{ID: 1, Email: "admin@example.com", Role: entity.RoleAdmin})
	s.Require().NoError(err)
}

func (s *ReviewsIntegrationTestSuite) SetupTest() {
	_, err := s.pool.Exec(context.Background(), "TRUNCATE reviews, products, users RESTART IDENTITY")
	s.Require().NoError(err)
}

func (s *ReviewsIntegrationTestSuite) TearDownSuite() {
	if sqlDB, err := s.gormDB.DB(); err == nil {
		sqlDB.Close()
	}
	s.pool.Close()
}

func (s *ReviewsIntegrationTestSuite) request(method, path string, body any, token string) *httptest.ResponseRecorder {
	payload, _ := json.Marshal(body)
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *ReviewsIntegrationTestSuite) createProduct() entity.Product {
	rec := s.request(http.MethodPost, "/api/products",
		map[string]any{"name": "Headphones", "price": 99.99}, s.adminToken)
	s.Require().Equal(http.StatusCreated, rec.Code)

	var product entity.Product
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &product))
	return product
}

func (s *ReviewsIntegrationTestSuite) createReview(productID int64, rating int) entity.Review {
	rec := s.request(http.MethodPost, "/api/reviews",
		map[string]any{"productId": productID, "rating": rating, "comment": "integration"}, "")
	s.Require().Equal(http.StatusCreated, rec.Code)

	var review entity.Review
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &review))
	return review
}

func (s *ReviewsIntegrationTestSuite) setStatus(reviewID int64, status entity.ReviewStatus) int {
	return s.request(http.MethodPut, "/api/reviews/status",
		map[string]any{"reviewId": reviewID, "status": status}, s.adminToken).Code
}

func (s *ReviewsIntegrationTestSuite) product(id int64) entity.Product {
	rec := s.request(http.MethodPost, "/api/products/details", map[string]any{"id": id}, "")
	s.Require().Equal(http.StatusOK, rec.Code)

	var product entity.Product
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &product))
	return product
}

func (s *ReviewsIntegrationTestSuite) TestRatingFollowsModeration() {
	product := s.createProduct()
	s.Equal(0.0, product.AverageRating)

	r1 := s.createReview(product.ID, 5)
	r2 := s.createReview(product.ID, 3)
	s.Equal(entity.StatusPending, r1.Status)
	s.Equal(0, s.product(product.ID).ReviewCount)

	s.Equal(http.StatusOK, s.setStatus(r1.ID, entity.StatusApproved))
	s.Equal(5.0, s.product(product.ID).AverageRating)
	s.Equal(1, s.product(product.ID).ReviewCount)

	s.Equal(http.StatusOK, s.setStatus(r2.ID, entity.StatusApproved))
	s.Equal(4.0, s.product(product.ID).AverageRating)
	s.Equal(2, s.product(product.ID).ReviewCount)

	s.Equal(http.StatusOK, s.setStatus(r1.ID, entity.StatusRejected))
	s.Equal(3.0, s.product(product.ID).AverageRating)
	s.Equal(1, s.product(product.ID).ReviewCount)

	s.Equal(http.StatusNotFound, s.setStatus(99999, entity.StatusApproved))
	s.Equal(3.0, s.product(product.ID).AverageRating)
}

func (s *ReviewsIntegrationTestSuite) TestApprovedListing() {
	product := s.createProduct()
	approved := s.createReview(product.ID, 4)
	s.createReview(product.ID, 1)
	s.Equal(http.StatusOK, s.setStatus(approved.ID, entity.StatusApproved))

	rec := s.request(http.MethodPost, "/api/products/reviews/approved", map[string]any{"productId": product.ID}, "")
	s.Require().Equal(http.StatusOK, rec.Code)

	var reviews []entity.Review
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &reviews))
	s.Require().Len(reviews, 1)
	s.Equal(approved.ID, reviews[0].ID)

	rec = s.request(http.MethodPost, "/api/products/reviews/moderation", map[string]any{"productId": product.ID}, s.adminToken)
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &reviews))
	s.Len(reviews, 2)
}

func (s *ReviewsIntegrationTestSuite) TestRegisterAndLogin() {
	rec := s.request(http.MethodPost, "/api/auth/register",
		map[string]any{"email": "it@example.com", "password": "secret123", "name": "IT"}, "")
	s.Require().Equal(http.StatusCreated, rec.Code)

	rec = s.request(http.MethodPost, "/api/auth/register",
		map[string]any{"email": "it@example.com", "password": "secret123", "name": "IT"}, "")
	s.Equal(http.StatusConflict, rec.Code)

	rec = s.request(http.MethodPost, "/api/auth/login",
		map[string]any{"email": "it@example.com", "password": "secret123"}, "")
	s.Require().Equal(http.StatusOK, rec.Code)

	var resp entity.AuthResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	claims, err := s.jwtManager.ValidateToken(resp.Token)
	s.Require().NoError(err)
	s.Equal(entity.RoleCustomer, claims.Role)
}
