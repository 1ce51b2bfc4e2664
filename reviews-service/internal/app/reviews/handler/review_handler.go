package handler

import (
	"errors"
	"io"
	"net/http"

	"productreviews/reviews-service/internal/app/reviews/entity"
	"productreviews/reviews-service/internal/app/reviews/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type ReviewHandler struct {
	reviewService     service.ReviewServiceInterface
	moderationService service.ModerationServiceInterface
	validator         *validator.Validate
}

func NewReviewHandler(
	reviewService service.ReviewServiceInterface,
	moderationService service.ModerationServiceInterface,
) *ReviewHandler {
	return &ReviewHandler{
		reviewService:     reviewService,
		moderationService: moderationService,
		validator:         newValidator(),
	}
}

// CreateReview принимает отзыв от любого клиента, статус всегда pending.
// Если передан валидный токен, отзыв привязывается к пользователю
func (h *ReviewHandler) CreateReview(c *gin.Context) {
	var req entity.CreateReviewRequest
	if !bindAndValidate(c, h.validator, &req) {
		return
	}

	review, err := h.reviewService.CreateReview(c.Request.Context(), &req, customerIDFromContext(c))
	if err != nil {
		respondServiceError(c, err, "Failed to create review")
		return
	}
	c.JSON(http.StatusCreated, review)
}

func (h *ReviewHandler) ListApproved(c *gin.Context) {
	var req entity.ProductReviewsRequest
	if !bindAndValidate(c, h.validator, &req) {
		return
	}

	reviews, err := h.reviewService.ListApproved(c.Request.Context(), req.ProductID)
	if err != nil {
		respondServiceError(c, err, "Failed to fetch reviews")
		return
	}
	c.JSON(http.StatusOK, reviews)
}

func (h *ReviewHandler) ListForModeration(c *gin.Context) {
	var req entity.ProductReviewsRequest
	if !bindAndValidate(c, h.validator, &req) {
		return
	}

	reviews, err := h.reviewService.ListForModeration(c.Request.Context(), req.ProductID)
	if err != nil {
		respondServiceError(c, err, "Failed to fetch reviews")
		return
	}
	c.JSON(http.StatusOK, reviews)
}

func (h *ReviewHandler) ListAll(c *gin.Context) {
	var req entity.AllReviewsRequest
	// пустое тело допустимо: фильтр не задан
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	reviews, err := h.reviewService.ListAll(c.Request.Context(), req.StatusFilter)
	if err != nil {
		respondServiceError(c, err, "Failed to fetch reviews")
		return
	}
	c.JSON(http.StatusOK, reviews)
}

// UpdateStatus - модерация отзыва. Ответ не раскрывает, пересчитан ли рейтинг
func (h *ReviewHandler) UpdateStatus(c *gin.Context) {
	var req entity.UpdateStatusRequest
	if !bindAndValidate(c, h.validator, &req) {
		return
	}

	result, err := h.moderationService.Transition(c.Request.Context(), actorFromContext(c), req.ReviewID, req.Status)
	if err != nil {
		respondServiceError(c, err, "Failed to update review status")
		return
	}

	c.JSON(http.StatusOK, entity.UpdateStatusResponse{
		Message:   "Review status updated successfully",
		ReviewID:  result.ReviewID,
		NewStatus: result.NewStatus,
	})
}

func (h *ReviewHandler) History(c *gin.Context) {
	var req entity.ReviewHistoryRequest
	if !bindAndValidate(c, h.validator, &req) {
		return
	}

	records, err := h.moderationService.History(c.Request.Context(), req.ReviewID)
	if err != nil {
		respondServiceError(c, err, "Failed to fetch moderation history")
		return
	}
	c.JSON(http.StatusOK, records)
}
