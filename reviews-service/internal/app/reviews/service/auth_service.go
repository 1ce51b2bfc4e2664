package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"productreviews/pkg/logger"
	"productreviews/pkg/metrics"
	"productreviews/reviews-service/internal/app/reviews/entity"
	"productreviews/reviews-service/internal/app/reviews/repository"
	"productreviews/reviews-service/internal/app/reviews/util"
)

// AuthService - регистрация и вход, выдает JWT для Access Gate
type AuthService struct {
	userRepo   repository.UserRepository
	jwtManager *util.JWTManager
}

// NewAuthService создает новый сервис аутентификации
func NewAuthService(userRepo repository.UserRepository, jwtManager *util.JWTManager) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		jwtManager: jwtManager,
	}
}

// Register регистрирует пользователя, роль по умолчанию customer
func (s *AuthService) Register(ctx context.Context, req *entity.RegisterRequest) (*entity.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" || strings.TrimSpace(req.Name) == "" {
		return nil, validationError("email, password, and name are required")
	}

	role := req.Role
	if role == "" {
		role = entity.RoleCustomer
	}
	if !role.Valid() {
		return nil, validationError("invalid role, must be admin or customer")
	}

	passwordHash, err := util.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &entity.User{
		Email:    email,
		Password: passwordHash,
		Name:     req.Name,
		Role:     role,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUserExists) {
			return nil, ErrUserExists
		}
		return nil, storageError("create user", err)
	}

	metrics.AuthRegistrations.Inc()
	logger.Info().Int64("user_id", user.ID).Str("role", string(user.Role)).Msg("User registered")

	return user, nil
}

// Login проверяет пароль и выдает токен на время жизни из конфигурации
func (s *AuthService) Login(ctx context.Context, req *entity.LoginRequest) (*entity.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			metrics.AuthLogins.WithLabelValues("failed").Inc()
			return nil, ErrInvalidCredentials
		}
		return nil, storageError("get user", err)
	}

	if !util.CheckPassword(req.Password, user.Password) {
		metrics.AuthLogins.WithLabelValues("failed").Inc()
		return nil, ErrInvalidCredentials
	}

	token, err := s.jwtManager.GenerateToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	metrics.AuthLogins.WithLabelValues("success").Inc()

	return &entity.AuthResponse{
		User:  *user,
		Token: token,
	}, nil
}
