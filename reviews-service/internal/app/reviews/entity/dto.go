package entity

// LoginRequest - запрос на вход
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest - запрос на регистрацию, роль по умолчанию customer.
// Формат email и длина пароля не проверяются, только наличие полей
type RegisterRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
	Name     string `json:"name" validate:"required"`
	Role     Role   `json:"role" validate:"omitempty,oneof=admin customer"`
}

type AuthResponse struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

type RegisterResponse struct {
	Message string `json:"message"`
	User    User   `json:"user"`
}

type ProductIDRequest struct {
	ID int64 `json:"id" validate:"required,gt=0"`
}

// CreateProductRequest не содержит полей рейтинга: их пишет только агрегатор
type CreateProductRequest struct {
	Name        string  `json:"name" validate:"required"`
	Description string  `json:"description"`
	Price       float64 `json:"price" validate:"required,gt=0"`
	ImageURL    string  `json:"imageUrl"`
}

// CreateReviewRequest - запрос на создание отзыва, статус всегда pending
type CreateReviewRequest struct {
	ProductID    int64  `json:"productId" validate:"required,gt=0"`
	CustomerName string `json:"customerName"`
	Rating       int    `json:"rating" validate:"required,min=1,max=5"`
	Comment      string `json:"comment" validate:"required"`
}

type ProductReviewsRequest struct {
	ProductID int64 `json:"productId" validate:"required,gt=0"`
}

type UpdateStatusRequest struct {
	ReviewID int64        `json:"reviewId" validate:"required,gt=0"`
	Status   ReviewStatus `json:"status" validate:"required,oneof=pending approved rejected"`
}

type UpdateStatusResponse struct {
	Message   string       `json:"message"`
	ReviewID  int64        `json:"reviewId"`
	NewStatus ReviewStatus `json:"newStatus"`
}

// AllReviewsRequest - пустой фильтр или "all" означает все статусы
type AllReviewsRequest struct {
	StatusFilter string `json:"statusFilter"`
}

type ReviewHistoryRequest struct {
	ReviewID int64 `json:"reviewId" validate:"required,gt=0"`
}

type RecomputeRequest struct {
	ProductID int64 `json:"productId" validate:"required,gt=0"`
}

// ErrorResponse - стандартный ответ об ошибке
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
