package entity

import "time"

const (
	EventReviewCreated        = "REVIEW_CREATED"
	EventReviewStatusChanged  = "REVIEW_STATUS_CHANGED"
	EventProductRatingUpdated = "PRODUCT_RATING_UPDATED"
)

// ReviewEvent публикуется в топик отзывов, ключ сообщения - productId
type ReviewEvent struct {
	EventID   string       `json:"eventId"`
	EventType string       `json:"eventType"`
	ReviewID  int64        `json:"reviewId"`
	ProductID int64        `json:"productId"`
	Status    ReviewStatus `json:"status"`
	Rating    int          `json:"rating,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}

type RatingEvent struct {
	EventID       string    `json:"eventId"`
	EventType     string    `json:"eventType"`
	ProductID     int64     `json:"productId"`
	AverageRating float64   `json:"averageRating"`
	ReviewCount   int       `json:"reviewCount"`
	Timestamp     time.Time `json:"timestamp"`
}
