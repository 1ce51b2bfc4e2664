package handler

import (
	"context"
	"net/http"
	"time"

	"productreviews/pkg/logger"
	"productreviews/pkg/metrics"
	"productreviews/reviews-service/internal/app/reviews/entity"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

type Handlers struct {
	Auth    *AuthHandler
	Product *ProductHandler
	Review  *ReviewHandler
}

// HealthChecks - зависимости, которые опрашивает /health. Пустые поля пропускаются
type HealthChecks struct {
	Redis   *redis.Client
	DBStats func() (idle, inUse int32)
}

// SetupRoutes настраивает все маршруты API. rateLimiter может быть nil
func SetupRoutes(h Handlers, authMiddleware *AuthMiddleware, rateLimiter *RateLimiter, health HealthChecks) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(logger.GinLoggerMiddleware())
	router.Use(metrics.GinPrometheusMiddleware(serviceName))

	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:    []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposeHeaders:   []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		MaxAge:          300,
	}))

	router.GET("/health", healthHandler(health))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	requireAuth := authMiddleware.Authenticate()
	requireAdmin := authMiddleware.RequireRole(entity.RoleAdmin)

	api := router.Group("/api")

	auth := api.Group("/auth")
	{
		auth.POST("/login", rateLimiter.Limit("login"), h.Auth.Login)
		auth.POST("/register", rateLimiter.Limit("register"), h.Auth.Register)
	}

	products := api.Group("/products")
	{
		products.GET("", h.Product.ListProducts)
		products.POST("/details", h.Product.GetProduct)
		products.POST("/reviews/approved", h.Review.ListApproved)

		products.POST("", requireAuth, requireAdmin, h.Product.CreateProduct)
		products.POST("/reviews/moderation", requireAuth, requireAdmin, h.Review.ListForModeration)
		products.POST("/rating/recompute", requireAuth, requireAdmin, h.Product.RecomputeRating)
	}

	reviews := api.Group("/reviews")
	{
		reviews.POST("", authMiddleware.OptionalAuth(), h.Review.CreateReview)

		reviews.PUT("/status", requireAuth, requireAdmin, h.Review.UpdateStatus)
		reviews.POST("/all", requireAuth, requireAdmin, h.Review.ListAll)
		reviews.POST("/history", requireAuth, requireAdmin, h.Review.History)
	}

	return router
}

// healthHandler - liveness; Redis и пул БД проверяются, но на статус ответа не влияют
func healthHandler(checks HealthChecks) gin.HandlerFunc {
	return func(c *gin.Context) {
		body := gin.H{
			"status":  "ok",
			"service": serviceName,
		}

		if checks.DBStats != nil {
			idle, inUse := checks.DBStats()
			metrics.RecordDbConnections(serviceName, idle, inUse)
			body["database"] = gin.H{"idle": idle, "in_use": inUse}
		}

		if redisClient := checks.Redis; redisClient != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
			defer cancel()

			timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpPing)
			err := redisClient.Ping(ctx).Err()
			timer.ObserveDuration()

			if err != nil {
				metrics.RecordRedisError(serviceName, metrics.RedisOpPing)
				body["redis"] = "unavailable"
			} else {
				body["redis"] = "ok"
			}
		}

		c.JSON(http.StatusOK, body)
	}
}
