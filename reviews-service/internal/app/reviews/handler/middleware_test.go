package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"productreviews/reviews-service/internal/app/reviews/entity"
	"productreviews/reviews-service/internal/app/reviews/util"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProtectedRouter(m *AuthMiddleware, handlers ...gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.GET("/protected", append([]gin.HandlerFunc{m.Authenticate()}, handlers...)...)
	return router
}

func serve(router *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestAuthMiddleware_Authenticate_Success(t *testing.T) {
	// Arrange
	jwtManager := util.NewJWTManager(testSecret, time.Hour)
	token, err := jwtManager.GenerateToken(&entity.User{ID: 42, Email: "admin@example.com", Role: entity.RoleAdmin})
	require.NoError(t, err)

	router := newProtectedRouter(NewAuthMiddleware(jwtManager), func(c *gin.Context) {
		actor := actorFromContext(c)
		assert.Equal(t, int64(42), actor.ID)
		assert.Equal(t, "admin@example.com", actor.Email)
		assert.Equal(t, entity.RoleAdmin, actor.Role)
		c.String(http.StatusOK, "OK")
	})

	// Act
	rec := serve(router, "Bearer "+token)

	// Assert
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestActorFromContext_WithoutAuthIsEmpty(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	assert.Equal(t, entity.Actor{}, actorFromContext(c))
	assert.Nil(t, customerIDFromContext(c))
}

func TestAuthMiddleware_Authenticate_NoAuthHeader(t *testing.T) {
	router := newProtectedRouter(NewAuthMiddleware(util.NewJWTManager(testSecret, time.Hour)), func(c *gin.Context) {
		t.Error("Handler should not be called")
	})

	rec := serve(router, "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Unauthorized", decodeError(t, rec).Error)
}

func TestAuthMiddleware_Authenticate_BadFormat(t *testing.T) {
	router := newProtectedRouter(NewAuthMiddleware(util.NewJWTManager(testSecret, time.Hour)))

	for _, header := range []string{"Token abc", "Bearer", "Bearer a b", "Bearer "} {
		rec := serve(router, header)
		assert.Equal(t, http.StatusForbidden, rec.Code, header)
	}
}

func TestAuthMiddleware_Authenticate_InvalidToken(t *testing.T) {
	router := newProtectedRouter(NewAuthMiddleware(util.NewJWTManager(testSecret, time.Hour)))

	rec := serve(router, "Bearer not.a.jwt")

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Invalid token", decodeError(t, rec).Message)
}

func TestAuthMiddleware_Authenticate_WrongSecret(t *testing.T) {
	other := util.NewJWTManager("another-secret", time.Hour)
	token, err := other.GenerateToken(&entity.User{ID: 1, Role: entity.RoleAdmin})
	require.NoError(t, err)

	router := newProtectedRouter(NewAuthMiddleware(util.NewJWTManager(testSecret, time.Hour)))

	rec := serve(router, "Bearer "+token)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAuthMiddleware_Authenticate_ExpiredToken(t *testing.T) {
	expired := util.NewJWTManager(testSecret, -time.Minute)
	token, err := expired.GenerateToken(&entity.User{ID: 1, Role: entity.RoleAdmin})
	require.NoError(t, err)

	router := newProtectedRouter(NewAuthMiddleware(util.NewJWTManager(testSecret, time.Hour)))

	rec := serve(router, "Bearer "+token)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Token has expired", decodeError(t, rec).Message)
}

func TestAuthMiddleware_RequireRole(t *testing.T) {
	jwtManager := util.NewJWTManager(testSecret, time.Hour)
	m := NewAuthMiddleware(jwtManager)
	router := newProtectedRouter(m, m.RequireRole(entity.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	adminToken, _ := jwtManager.GenerateToken(&entity.User{ID: 1, Role: entity.RoleAdmin})
	customerToken, _ := jwtManager.GenerateToken(&entity.User{ID: 2, Role: entity.RoleCustomer})

	assert.Equal(t, http.StatusNoContent, serve(router, "Bearer "+adminToken).Code)

	rec := serve(router, "Bearer "+customerToken)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Insufficient permissions", decodeError(t, rec).Message)
}

func TestAuthMiddleware_RequireRole_WithoutAuthenticate(t *testing.T) {
	m := NewAuthMiddleware(util.NewJWTManager(testSecret, time.Hour))
	router := gin.New()
	router.GET("/protected", m.RequireRole(entity.RoleAdmin), func(c *gin.Context) {
		t.Error("Handler should not be called")
	})

	rec := serve(router, "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddleware_OptionalAuth(t *testing.T) {
	jwtManager := util.NewJWTManager(testSecret, time.Hour)
	m := NewAuthMiddleware(jwtManager)

	var got *int64
	router := gin.New()
	router.GET("/protected", m.OptionalAuth(), func(c *gin.Context) {
		got = customerIDFromContext(c)
		c.Status(http.StatusOK)
	})

	token, _ := jwtManager.GenerateToken(&entity.User{ID: 9, Role: entity.RoleCustomer})

	rec := serve(router, "Bearer "+token)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, got)
	assert.Equal(t, int64(9), *got)

	rec = serve(router, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, got)

	rec = serve(router, "Bearer garbage")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, got)
}
