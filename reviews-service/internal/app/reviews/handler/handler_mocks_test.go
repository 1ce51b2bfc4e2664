package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"productreviews/reviews-service/internal/app/reviews/entity"
	"productreviews/reviews-service/internal/app/reviews/util"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testSecret = "test-secret-key"

type MockReviewService struct {
	mock.Mock
}

func (m *MockReviewService) CreateReview(ctx context.Context, req *entity.CreateReviewRequest, customerID *int64) (*entity.Review, error) {
	args := m.Called(ctx, req, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Review), args.Error(1)
}

func (m *MockReviewService) ListApproved(ctx context.Context, productID int64) ([]entity.Review, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Review), args.Error(1)
}

func (m *MockReviewService) ListForModeration(ctx context.Context, productID int64) ([]entity.Review, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Review), args.Error(1)
}

func (m *MockReviewService) ListAll(ctx context.Context, statusFilter string) ([]entity.Review, error) {
	args := m.Called(ctx, statusFilter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Review), args.Error(1)
}

type MockModerationService struct {
	mock.Mock
}

func (m *MockModerationService) Transition(ctx context.Context, actor entity.Actor, reviewID int64, newStatus entity.ReviewStatus) (*entity.TransitionResult, error) {
	args := m.Called(ctx, actor, reviewID, newStatus)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.TransitionResult), args.Error(1)
}

func (m *MockModerationService) History(ctx context.Context, reviewID int64) ([]entity.ModerationRecord, error) {
	args := m.Called(ctx, reviewID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.ModerationRecord), args.Error(1)
}

type MockProductService struct {
	mock.Mock
}

func (m *MockProductService) ListProducts(ctx context.Context) ([]entity.Product, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Product), args.Error(1)
}

func (m *MockProductService) GetProduct(ctx context.Context, id int64) (*entity.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Product), args.Error(1)
}

func (m *MockProductService) CreateProduct(ctx context.Context, req *entity.CreateProductRequest) (*entity.Product, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Product), args.Error(1)
}

func (m *MockProductService) RecomputeRating(ctx context.Context, productID int64) (*entity.RatingSnapshot, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.RatingSnapshot), args.Error(1)
}

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, req *entity.RegisterRequest) (*entity.User, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, req *entity.LoginRequest) (*entity.AuthResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.AuthResponse), args.Error(1)
}

// testAPI - роутер со всеми маршрутами и моками сервисов
type testAPI struct {
	router     *gin.Engine
	jwtManager *util.JWTManager
	reviews    *MockReviewService
	moderation *MockModerationService
	products   *MockProductService
	auth       *MockAuthService
}

func newTestAPI() *testAPI {
	api := &testAPI{
		jwtManager: util.NewJWTManager(testSecret, time.Hour),
		reviews:    new(MockReviewService),
		moderation: new(MockModerationService),
		products:   new(MockProductService),
		auth:       new(MockAuthService),
	}

	api.router = SetupRoutes(
		Handlers{
			Auth:    NewAuthHandler(api.auth),
			Product: NewProductHandler(api.products),
			Review:  NewReviewHandler(api.reviews, api.moderation),
		},
		NewAuthMiddleware(api.jwtManager),
		nil,
		HealthChecks{},
	)
	return api
}

func (a *testAPI) token(t *testing.T, id int64, role entity.Role) string {
	t.Helper()
	token, err := a.jwtManager.GenerateToken(&entity.User{ID: id, Email: "user@example.com", Role: role})
	require.NoError(t, err)
	return token
}

func (a *testAPI) do(method, path string, body any, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			_ = json.NewEncoder(&buf).Encode(b)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) entity.ErrorResponse {
	t.Helper()
	var resp entity.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}
