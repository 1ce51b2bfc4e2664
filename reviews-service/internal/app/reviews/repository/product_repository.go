package repository

import (
	"context"
	"errors"

	"productreviews/reviews-service/internal/app/reviews/entity"

	"gorm.io/gorm"
)

type productRepository struct {
	db *gorm.DB
}

// NewProductRepository создает новый репозиторий товаров
func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

// Create создает новый товар, рейтинг всегда стартует с 0.0/0
func (r *productRepository) Create(ctx context.Context, product *entity.Product) error {
	product.AverageRating = 0
	product.ReviewCount = 0
	return r.db.WithContext(ctx).Create(product).Error
}

// GetByID получает товар по ID
func (r *productRepository) GetByID(ctx context.Context, id int64) (*entity.Product, error) {
	var product entity.Product
	result := r.db.WithContext(ctx).First(&product, "id = ?", id)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, result.Error
	}

	return &product, nil
}

// GetAll получает все товары
func (r *productRepository) GetAll(ctx context.Context) ([]entity.Product, error) {
	products := make([]entity.Product, 0)
	result := r.db.WithContext(ctx).Order("id ASC").Find(&products)

	if result.Error != nil {
		return nil, result.Error
	}

	return products, nil
}

// ListIDs возвращает идентификаторы всех товаров для фоновой сверки рейтингов
func (r *productRepository) ListIDs(ctx context.Context) ([]int64, error) {
	ids := make([]int64, 0)
	result := r.db.WithContext(ctx).Model(&entity.Product{}).Order("id ASC").Pluck("id", &ids)

	if result.Error != nil {
		return nil, result.Error
	}

	return ids, nil
}

// UpdateRating пишет оба производных поля одним UPDATE
func (r *productRepository) UpdateRating(ctx context.Context, id int64, averageRating float64, reviewCount int) error {
	result := r.db.WithContext(ctx).Model(&entity.Product{}).Where("id = ?", id).Updates(map[string]interface{}{
		"average_rating": averageRating,
		"review_count":   reviewCount,
	})

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}
