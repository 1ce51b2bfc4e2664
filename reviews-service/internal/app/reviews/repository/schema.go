package repository

import (
	"context"
	"fmt"
	"time"
)

// Идемпотентная инициализация схемы: CREATE ... IF NOT EXISTS, без миграций
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password TEXT NOT NULL,
		name TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'customer'
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT,
		price DOUBLE PRECISION NOT NULL,
		image_url TEXT,
		average_rating DOUBLE PRECISION NOT NULL DEFAULT 0,
		review_count INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS reviews (
		id BIGSERIAL PRIMARY KEY,
		product_id BIGINT NOT NULL,
		customer_id BIGINT,
		customer_name TEXT NOT NULL,
		rating INTEGER NOT NULL CHECK (rating >= 1 AND rating <= 5),
		comment TEXT,
		status TEXT NOT NULL DEFAULT 'pending',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS reviews_product_status_idx ON reviews (product_id, status)`,
}

// EnsureSchema создает таблицы users, products и reviews
func EnsureSchema(ctx context.Context, db DBTX) error {
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

type seedUser struct {
	id    int64
	email string
	name  string
	role  string
}

type seedProduct struct {
	id            int64
	name          string
	description   string
	price         float64
	imageURL      string
	averageRating float64
	reviewCount   int
}

type seedReview struct {
	id           int64
	productID    int64
	customerID   int64
	customerName string
	rating       int
	comment      string
	status       string
	age          time.Duration
}

var seedUsers = []seedUser{
	{1, "admin@example.com", "Admin User", "admin"},
	{2, "customer@example.com", "Customer User", "customer"},
}

// Рейтинги товаров заведомо устаревшие: их исправляет сверка при старте
var seedProducts = []seedProduct{
	{1, "Wireless Headphones", "High-quality wireless headphones with noise cancellation", 99.99, "https://via.placeholder.com/300x300?text=Headphones", 4.5, 120},
	{2, "Smartphone X", "Latest smartphone with advanced camera features and AI", 599.99, "https://via.placeholder.com/300x300?text=Smartphone", 4.2, 89},
	{3, "Smart Watch Pro", "Fitness tracker and smartwatch with long battery life", 199.99, "https://via.placeholder.com/300x300?text=SmartWatch", 3.8, 45},
}

var seedReviews = []seedReview{
	{1, 1, 2, "Jane Smith", 5, "Excellent product! Highly recommended, great sound.", "approved", 0},
	{2, 1, 2, "Bob Johnson", 4, "Good headphones, comfortable but bass could be stronger.", "pending", 48 * time.Hour},
	{3, 1, 2, "Alice Green", 2, "Broke after a week, very disappointed with the build quality.", "rejected", 120 * time.Hour},
	{4, 2, 1, "John Doe", 5, "The Smartphone X is incredible! Best camera on the market.", "approved", 72 * time.Hour},
}

// SeedData добавляет демо-данные, существующие строки не трогает.
// passwordHash - bcrypt-хеш общего пароля демо-пользователей
func SeedData(ctx context.Context, db DBTX, passwordHash string) error {
	for _, u := range seedUsers {
		_, err := db.Exec(ctx,
			`INSERT INTO users (id, email, password, name, role) VALUES ($1, $2, $3, $4, $5) ON CONFLICT DO NOTHING`,
			u.id, u.email, passwordHash, u.name, u.role,
		)
		if err != nil {
			return fmt.Errorf("failed to seed user %s: %w", u.email, err)
		}
	}

	for _, p := range seedProducts {
		_, err := db.Exec(ctx,
			`INSERT INTO products (id, name, description, price, image_url, average_rating, review_count)
			VALUES ($1, $2, $3, $4, $5, $6, $7) ON CONFLICT (id) DO NOTHING`,
			p.id, p.name, p.description, p.price, p.imageURL, p.averageRating, p.reviewCount,
		)
		if err != nil {
			return fmt.Errorf("failed to seed product %d: %w", p.id, err)
		}
	}

	now := time.Now().UTC()
	for _, r := range seedReviews {
		_, err := db.Exec(ctx,
			`INSERT INTO reviews (id, product_id, customer_id, customer_name, rating, comment, status, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8) ON CONFLICT (id) DO NOTHING`,
			r.id, r.productID, r.customerID, r.customerName, r.rating, r.comment, r.status, now.Add(-r.age),
		)
		if err != nil {
			return fmt.Errorf("failed to seed review %d: %w", r.id, err)
		}
	}

	// После вставки с явными id сдвигаем последовательности, иначе следующий INSERT упадет на 23505
	for _, table := range []string{"users", "products", "reviews"} {
		stmt := fmt.Sprintf(
			`SELECT setval(pg_get_serial_sequence('%s', 'id'), COALESCE((SELECT MAX(id) FROM %s), 1))`,
			table, table,
		)
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to reset %s sequence: %w", table, err)
		}
	}

	return nil
}
