package service

import (
	"context"
	"errors"
	"strings"

	"productreviews/pkg/logger"
	"productreviews/reviews-service/internal/app/reviews/entity"
	"productreviews/reviews-service/internal/app/reviews/repository"
)

// ProductService - каталог товаров. Поля рейтинга только читаются,
// пишет их RatingAggregator
type ProductService struct {
	productRepo repository.ProductRepository
	aggregator  RatingRecomputer
}

func NewProductService(productRepo repository.ProductRepository, aggregator RatingRecomputer) *ProductService {
	return &ProductService{
		productRepo: productRepo,
		aggregator:  aggregator,
	}
}

func (s *ProductService) ListProducts(ctx context.Context) ([]entity.Product, error) {
	products, err := s.productRepo.GetAll(ctx)
	if err != nil {
		return nil, storageError("list products", err)
	}
	return products, nil
}

func (s *ProductService) GetProduct(ctx context.Context, id int64) (*entity.Product, error) {
	if id <= 0 {
		return nil, validationError("product ID is required")
	}

	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, storageError("get product", err)
	}
	return product, nil
}

// CreateProduct создает товар с рейтингом 0.0/0
func (s *ProductService) CreateProduct(ctx context.Context, req *entity.CreateProductRequest) (*entity.Product, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, validationError("product name is required")
	}
	if req.Price <= 0 {
		return nil, validationError("product price must be positive")
	}

	product := &entity.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		ImageURL:    req.ImageURL,
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, storageError("create product", err)
	}

	logger.Info().Int64("product_id", product.ID).Str("name", product.Name).Msg("Product created")
	return product, nil
}

// RecomputeRating - ручной пересчет рейтинга товара администратором
func (s *ProductService) RecomputeRating(ctx context.Context, productID int64) (*entity.RatingSnapshot, error) {
	if productID <= 0 {
		return nil, validationError("product ID is required")
	}
	return s.aggregator.Recompute(ctx, productID)
}
