package handler

import (
	"net/http"

	"productreviews/reviews-service/internal/app/reviews/entity"
	"productreviews/reviews-service/internal/app/reviews/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type AuthHandler struct {
	authService service.AuthServiceInterface
	validator   *validator.Validate
}

func NewAuthHandler(authService service.AuthServiceInterface) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validator:   newValidator(),
	}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req entity.RegisterRequest
	if !bindAndValidate(c, h.validator, &req) {
		return
	}

	user, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		respondServiceError(c, err, "Failed to register user")
		return
	}

	c.JSON(http.StatusCreated, entity.RegisterResponse{
		Message: "User registered successfully",
		User:    *user,
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req entity.LoginRequest
	if !bindAndValidate(c, h.validator, &req) {
		return
	}

	resp, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		respondServiceError(c, err, "Failed to login")
		return
	}

	c.JSON(http.StatusOK, resp)
}
