package handler

import (
	"errors"
	"net/http"
	"strings"

	"productreviews/reviews-service/internal/app/reviews/entity"
	"productreviews/reviews-service/internal/app/reviews/util"

	"github.com/gin-gonic/gin"
)

// Ключи контекста gin, которые выставляет Access Gate
const (
	ContextUserID = "user_id"
	ContextEmail  = "email"
	ContextRole   = "role"
	ContextActor  = "actor"
)

// AuthMiddleware - Access Gate: проверка Bearer JWT и роли
type AuthMiddleware struct {
	jwtManager *util.JWTManager
}

func NewAuthMiddleware(jwtManager *util.JWTManager) *AuthMiddleware {
	return &AuthMiddleware{
		jwtManager: jwtManager,
	}
}

// Authenticate: нет заголовка - 401, плохой или просроченный токен - 403
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			respondError(c, http.StatusUnauthorized, "Access token required")
			c.Abort()
			return
		}

		token, ok := bearerToken(authHeader)
		if !ok {
			respondError(c, http.StatusForbidden, "Invalid authorization header format")
			c.Abort()
			return
		}

		claims, err := m.jwtManager.ValidateToken(token)
		if err != nil {
			message := "Invalid token"
			if errors.Is(err, util.ErrExpiredToken) {
				message = "Token has expired"
			}
			respondError(c, http.StatusForbidden, message)
			c.Abort()
			return
		}

		setClaims(c, claims)
		c.Next()
	}
}

// OptionalAuth выставляет пользователя, если передан валидный токен.
// Без токена или с невалидным токеном запрос идет анонимно
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := bearerToken(c.GetHeader("Authorization")); ok {
			if claims, err := m.jwtManager.ValidateToken(token); err == nil {
				setClaims(c, claims)
			}
		}
		c.Next()
	}
}

func (m *AuthMiddleware) RequireRole(roles ...entity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		value, exists := c.Get(ContextRole)
		if !exists {
			respondError(c, http.StatusUnauthorized, "Access token required")
			c.Abort()
			return
		}

		role, _ := value.(entity.Role)
		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}

		respondError(c, http.StatusForbidden, "Insufficient permissions")
		c.Abort()
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func setClaims(c *gin.Context, claims *util.JWTClaims) {
	c.Set(ContextUserID, claims.UserID)
	c.Set(ContextEmail, claims.Email)
	c.Set(ContextRole, claims.Role)
	c.Set(ContextActor, claims.Actor())
}

// actorFromContext возвращает пользователя после Authenticate, без токена - пустой Actor
func actorFromContext(c *gin.Context) entity.Actor {
	value, ok := c.Get(ContextActor)
	if !ok {
		return entity.Actor{}
	}
	actor, _ := value.(entity.Actor)
	return actor
}

// customerIDFromContext - id пользователя, если запрос аутентифицирован
func customerIDFromContext(c *gin.Context) *int64 {
	if _, ok := c.Get(ContextUserID); !ok {
		return nil
	}
	id := c.GetInt64(ContextUserID)
	return &id
}
