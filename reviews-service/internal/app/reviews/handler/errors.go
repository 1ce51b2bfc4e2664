package handler

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"productreviews/pkg/logger"
	"productreviews/reviews-service/internal/app/reviews/entity"
	"productreviews/reviews-service/internal/app/reviews/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

const serviceName = "reviews-service"

// respondError пишет {"error": <текст статуса>, "message": <сообщение>}
func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, entity.ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
	})
}

// respondServiceError переводит ошибки сервисного слоя в HTTP статус.
// Детали ошибок хранилища клиенту не отдаются
func respondServiceError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrValidation):
		respondError(c, http.StatusBadRequest, validationMessage(err))
	case errors.Is(err, service.ErrInvalidCredentials):
		respondError(c, http.StatusBadRequest, "Invalid email or password")
	case errors.Is(err, service.ErrReviewNotFound):
		respondError(c, http.StatusNotFound, "Review not found")
	case errors.Is(err, service.ErrProductNotFound):
		respondError(c, http.StatusNotFound, "Product not found")
	case errors.Is(err, service.ErrUserExists):
		respondError(c, http.StatusConflict, "User with this email already exists")
	default:
		logger.Error().Err(err).Str("path", c.FullPath()).Msg(fallback)
		respondError(c, http.StatusInternalServerError, fallback)
	}
}

// validationMessage убирает префикс "validation error: "
func validationMessage(err error) string {
	return strings.TrimPrefix(err.Error(), service.ErrValidation.Error()+": ")
}

func formatValidationError(err error) string {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, fieldError := range validationErrors {
			switch fieldError.Tag() {
			case "required":
				return fieldError.Field() + " is required"
			case "oneof":
				return fieldError.Field() + " must be one of: " + fieldError.Param()
			case "gt":
				return fieldError.Field() + " must be greater than " + fieldError.Param()
			case "min", "gte":
				return fieldError.Field() + " must be at least " + fieldError.Param()
			case "max", "lte":
				return fieldError.Field() + " must be at most " + fieldError.Param()
			default:
				return fieldError.Field() + " is invalid"
			}
		}
	}
	return "Validation failed"
}

// newValidator возвращает validator, который называет поля по json-тегам
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// bindAndValidate читает JSON тело и проверяет теги validate
func bindAndValidate(c *gin.Context, v *validator.Validate, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if err := v.Struct(req); err != nil {
		respondError(c, http.StatusBadRequest, formatValidationError(err))
		return false
	}
	return true
}
