package repository

import (
	"context"
	"fmt"
	"time"

	"productreviews/reviews-service/internal/app/reviews/entity"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type auditRepository struct {
	collection *mongo.Collection
}

// NewAuditRepository создает журнал модерации поверх коллекции MongoDB
func NewAuditRepository(collection *mongo.Collection) AuditRepository {
	return &auditRepository{collection: collection}
}

// EnsureAuditIndexes создает индекс по review_id для выборки истории отзыва
func EnsureAuditIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexModel := mongo.IndexModel{
		Keys: bson.D{
			{Key: "review_id", Value: 1},
			{Key: "created_at", Value: -1},
		},
		Options: options.Index().SetName("review_id_created_at_idx"),
	}

	if _, err := collection.Indexes().CreateOne(ctx, indexModel); err != nil {
		return fmt.Errorf("failed to create audit index: %w", err)
	}

	return nil
}

// Insert добавляет запись о смене статуса
func (r *auditRepository) Insert(ctx context.Context, record *entity.ModerationRecord) error {
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	if _, err := r.collection.InsertOne(ctx, record); err != nil {
		return fmt.Errorf("failed to insert moderation record: %w", err)
	}

	return nil
}

// ListByReview возвращает историю модерации отзыва, новые записи первыми
func (r *auditRepository) ListByReview(ctx context.Context, reviewID int64) ([]entity.ModerationRecord, error) {
	filter := bson.M{"review_id": reviewID}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find moderation records: %w", err)
	}
	defer cursor.Close(ctx)

	records := make([]entity.ModerationRecord, 0)
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode moderation records: %w", err)
	}

	return records, nil
}
