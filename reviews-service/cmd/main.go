package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"productreviews/pkg/logger"
	"productreviews/reviews-service/internal/app/reviews/config"
	"productreviews/reviews-service/internal/app/reviews/handler"
	"productreviews/reviews-service/internal/app/reviews/infrastructure/messaging"
	"productreviews/reviews-service/internal/app/reviews/processor"
	"productreviews/reviews-service/internal/app/reviews/repository"
	"productreviews/reviews-service/internal/app/reviews/service"
	"productreviews/reviews-service/internal/app/reviews/util"
)

const (
	serviceName      = "reviews-service"
	seedUserPassword = "password123"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(serviceName, cfg.Log.Level)

	if cfg.Log.LogstashAddr != "" {
		if err := logger.InitLogstash(cfg.Log.LogstashAddr, serviceName, cfg.Log.Level); err != nil {
			logger.Warn().Err(err).Msg("Failed to connect to Logstash, using stdout only")
		} else {
			logger.Info().Str("logstash_addr", cfg.Log.LogstashAddr).Msg("Connected to Logstash")
		}
	}

	ctx := context.Background()

	// ========== PostgreSQL ==========
	pool, err := connectDB(ctx, cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	logger.Info().Str("database", cfg.Database.DBName).Msg("Connected to PostgreSQL")

	if err := repository.EnsureSchema(ctx, pool); err != nil {
		logger.Fatal().Err(err).Msg("Failed to create schema")
	}

	if cfg.Seed.Enabled {
		passwordHash, err := util.HashPassword(seedUserPassword)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to hash seed password")
		}
		if err := repository.SeedData(ctx, pool, passwordHash); err != nil {
			logger.Fatal().Err(err).Msg("Failed to seed data")
		}
		logger.Info().Msg("Seed data ensured")
	}

	gormDB, err := connectGorm(cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to open gorm connection")
	}
	if sqlDB, err := gormDB.DB(); err == nil {
		defer sqlDB.Close()
	}

	// ========== Redis ==========
	redisClient := connectRedis(cfg.Redis)
	defer redisClient.Close()

	pingCtx, pingCancel := context.WithTimeout(ctx, 3*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		logger.Warn().Err(err).Msg("Redis unavailable, rate limiting will fail open")
	} else {
		logger.Info().Str("address", cfg.Redis.Address()).Msg("Connected to Redis")
	}
	pingCancel()

	// ========== MongoDB (журнал модерации) ==========
	var auditRepo repository.AuditRepository
	mongoClient, err := connectMongoDB(cfg.MongoDB)
	if err != nil {
		logger.Warn().Err(err).Msg("MongoDB unavailable, moderation audit disabled")
	} else {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := mongoClient.Disconnect(ctx); err != nil {
				logger.Error().Err(err).Msg("Error disconnecting from MongoDB")
			}
		}()

		collection := mongoClient.Database(cfg.MongoDB.Database).Collection(cfg.MongoDB.Collection)
		if err := repository.EnsureAuditIndexes(ctx, collection); err != nil {
			logger.Warn().Err(err).Msg("Failed to create audit indexes")
		}
		auditRepo = repository.NewAuditRepository(collection)
		logger.Info().Str("database", cfg.MongoDB.Database).Msg("Connected to MongoDB")
	}

	// ========== Kafka ==========
	reviewProducer := messaging.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.ReviewTopic)
	defer reviewProducer.Close()
	ratingProducer := messaging.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.RatingTopic)
	defer ratingProducer.Close()
	logger.Info().
		Strs("brokers", cfg.Kafka.Brokers).
		Str("review_topic", cfg.Kafka.ReviewTopic).
		Str("rating_topic", cfg.Kafka.RatingTopic).
		Msg("Initialized Kafka producers")

	// ========== Сервисы ==========
	reviewRepo := repository.NewReviewRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	productRepo := repository.NewProductRepository(gormDB)

	aggregator := service.NewRatingAggregator(reviewRepo, productRepo, ratingProducer)
	reviewService := service.NewReviewService(reviewRepo, reviewProducer)
	moderationService := service.NewModerationService(reviewRepo, aggregator, auditRepo, reviewProducer)
	productService := service.NewProductService(productRepo, aggregator)

	jwtManager := util.NewJWTManager(cfg.JWT.Secret, cfg.JWT.TokenTTL)
	authService := service.NewAuthService(userRepo, jwtManager)

	// ========== Фоновые задачи ==========
	scheduler := processor.NewReconcileScheduler(aggregator, cfg.Reconcile.Timeout)
	// сверка при старте: seed-данные содержат устаревшие рейтинги
	scheduler.RunOnce(ctx)
	if err := scheduler.Start(cfg.Reconcile.Schedule); err != nil {
		logger.Fatal().Err(err).Str("schedule", cfg.Reconcile.Schedule).Msg("Invalid reconcile schedule")
	}
	defer scheduler.Stop()

	if cfg.Kafka.ConsumerEnabled {
		consumer := processor.NewRatingConsumer(cfg.Kafka.Brokers, cfg.Kafka.ReviewTopic, cfg.Kafka.ConsumerGroup, aggregator)
		consumer.Start(ctx)
		defer consumer.Stop()
	}

	// ========== HTTP ==========
	var rateLimiter *handler.RateLimiter
	if cfg.RateLimit.Enabled {
		rateLimiter = handler.NewRateLimiter(redisClient, cfg.RateLimit.Requests, cfg.RateLimit.Window)
	}

	router := handler.SetupRoutes(
		handler.Handlers{
			Auth:    handler.NewAuthHandler(authService),
			Product: handler.NewProductHandler(productService),
			Review:  handler.NewReviewHandler(reviewService, moderationService),
		},
		handler.NewAuthMiddleware(jwtManager),
		rateLimiter,
		handler.HealthChecks{
			Redis: redisClient,
			DBStats: func() (int32, int32) {
				stat := pool.Stat()
				return stat.IdleConns(), stat.AcquiredConns()
			},
		},
	)

	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("Starting Reviews Service")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down Reviews Service...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Reviews Service stopped gracefully")
}

func connectDB(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse pool config: %w", err)
	}

	poolConfig.MaxConns = 25
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = 5 * time.Minute
	poolConfig.MaxConnIdleTime = time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	// PostgreSQL в Docker может стартовать позже сервиса
	var pool *pgxpool.Pool
	for i := 0; i < 10; i++ {
		pool, err = pgxpool.NewWithConfig(ctx, poolConfig)
		if err == nil {
			if err = pool.Ping(ctx); err == nil {
				return pool, nil
			}
			pool.Close()
		}
		logger.Warn().
			Int("attempt", i+1).
			Err(err).
			Msg("Failed to connect to database, retrying...")
		time.Sleep(3 * time.Second)
	}

	return nil, fmt.Errorf("failed to connect after 10 attempts: %w", err)
}

// connectGorm открывает второе подключение к той же БД для репозитория товаров
func connectGorm(cfg config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(2)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)
	sqlDB.SetConnMaxIdleTime(time.Minute)

	return db, nil
}

func connectRedis(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         cfg.Address(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})
}

func connectMongoDB(cfg config.MongoDBConfig) (*mongo.Client, error) {
	clientOptions := options.Client().ApplyURI(cfg.URI)

	var client *mongo.Client
	var err error

	for i := 0; i < 5; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		client, err = mongo.Connect(ctx, clientOptions)
		cancel()

		if err == nil {
			pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
			err = client.Ping(pingCtx, nil)
			pingCancel()
			if err == nil {
				return client, nil
			}
			_ = client.Disconnect(context.Background())
		}

		logger.Warn().
			Int("attempt", i+1).
			Err(err).
			Msg("Failed to connect to MongoDB, retrying...")
		time.Sleep(3 * time.Second)
	}

	return nil, err
}
