package handler

import (
	"net/http"

	"productreviews/reviews-service/internal/app/reviews/entity"
	"productreviews/reviews-service/internal/app/reviews/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type ProductHandler struct {
	productService service.ProductServiceInterface
	validator      *validator.Validate
}

func NewProductHandler(productService service.ProductServiceInterface) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		validator:      newValidator(),
	}
}

func (h *ProductHandler) ListProducts(c *gin.Context) {
	products, err := h.productService.ListProducts(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "Failed to fetch products")
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *ProductHandler) GetProduct(c *gin.Context) {
	var req entity.ProductIDRequest
	if !bindAndValidate(c, h.validator, &req) {
		return
	}

	product, err := h.productService.GetProduct(c.Request.Context(), req.ID)
	if err != nil {
		respondServiceError(c, err, "Failed to fetch product")
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req entity.CreateProductRequest
	if !bindAndValidate(c, h.validator, &req) {
		return
	}

	product, err := h.productService.CreateProduct(c.Request.Context(), &req)
	if err != nil {
		respondServiceError(c, err, "Failed to create product")
		return
	}
	c.JSON(http.StatusCreated, product)
}

// RecomputeRating - ручной пересчет рейтинга (admin)
func (h *ProductHandler) RecomputeRating(c *gin.Context) {
	var req entity.RecomputeRequest
	if !bindAndValidate(c, h.validator, &req) {
		return
	}

	snapshot, err := h.productService.RecomputeRating(c.Request.Context(), req.ProductID)
	if err != nil {
		respondServiceError(c, err, "Failed to recompute rating")
		return
	}
	c.JSON(http.StatusOK, snapshot)
}
