package entity

import (
	"time"
)

type ReviewStatus string

const (
	StatusPending  ReviewStatus = "pending"
	StatusApproved ReviewStatus = "approved"
	StatusRejected ReviewStatus = "rejected"
)

// Valid проверяет, что статус входит в множество состояний модерации.
// Переходы разрешены между любыми двумя состояниями
func (s ReviewStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleCustomer Role = "customer"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleCustomer
}

const (
	DefaultCustomerName = "Anonymous"
	MinRating           = 1
	MaxRating           = 5
)

// Product хранится через gorm. AverageRating и ReviewCount производные:
// их пишет только агрегатор рейтинга
type Product struct {
	ID            int64   `json:"id" gorm:"primaryKey;column:id"`
	Name          string  `json:"name" gorm:"column:name"`
	Description   string  `json:"description" gorm:"column:description"`
	Price         float64 `json:"price" gorm:"column:price"`
	ImageURL      string  `json:"imageUrl" gorm:"column:image_url"`
	AverageRating float64 `json:"averageRating" gorm:"column:average_rating"`
	ReviewCount   int     `json:"reviewCount" gorm:"column:review_count"`
}

func (Product) TableName() string {
	return "products"
}

type Review struct {
	ID           int64        `json:"id"`
	ProductID    int64        `json:"productId"`
	CustomerID   *int64       `json:"customerId,omitempty"` // nil для анонимных отзывов
	CustomerName string       `json:"customerName"`
	Rating       int          `json:"rating"` // Оценка от 1 до 5
	Comment      string       `json:"comment"`
	Status       ReviewStatus `json:"status"`
	CreatedAt    time.Time    `json:"createdAt"`
}

type User struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	Password string `json:"-"` // bcrypt hash
	Name     string `json:"name"`
	Role     Role   `json:"role"`
}

// RatingSnapshot - агрегат по одобренным отзывам товара (0.0/0, если их нет)
type RatingSnapshot struct {
	ProductID     int64   `json:"productId"`
	AverageRating float64 `json:"averageRating"`
	ReviewCount   int     `json:"reviewCount"`
}

// TransitionResult - итог смены статуса отзыва.
// RatingRecomputed=false означает, что статус сохранён, а рейтинг товара остался прежним
type TransitionResult struct {
	ReviewID         int64           `json:"reviewId"`
	NewStatus        ReviewStatus    `json:"newStatus"`
	ProductID        int64           `json:"productId"`
	RatingRecomputed bool            `json:"ratingRecomputed"`
	Rating           *RatingSnapshot `json:"rating,omitempty"`
}

// ModerationRecord - запись журнала модерации в MongoDB
type ModerationRecord struct {
	ReviewID         int64        `json:"reviewId" bson:"review_id"`
	ProductID        int64        `json:"productId" bson:"product_id"` // 0, если товар не удалось определить
	NewStatus        ReviewStatus `json:"newStatus" bson:"new_status"`
	ActorID          int64        `json:"actorId" bson:"actor_id"`
	ActorEmail       string       `json:"actorEmail" bson:"actor_email"`
	RatingRecomputed bool         `json:"ratingRecomputed" bson:"rating_recomputed"`
	AverageRating    float64      `json:"averageRating" bson:"average_rating"`
	ReviewCount      int          `json:"reviewCount" bson:"review_count"`
	CreatedAt        time.Time    `json:"createdAt" bson:"created_at"`
}

// Actor - аутентифицированный пользователь из JWT claims
type Actor struct {
	ID    int64
	Email string
	Role  Role
}
