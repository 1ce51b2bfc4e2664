package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"productreviews/reviews-service/internal/app/reviews/infrastructure"

	"github.com/google/uuid"
)

const publishTimeout = 5 * time.Second

// publishEvent сериализует событие и отправляет его с ключом productId.
// nil publisher допустим: Kafka может быть отключена
func publishEvent(ctx context.Context, publisher infrastructure.MessagePublisher, productID int64, event any) error {
	if publisher == nil {
		return nil
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := publisher.PublishMessage(ctx, strconv.FormatInt(productID, 10), payload); err != nil {
		return fmt.Errorf("failed to publish to kafka: %w", err)
	}

	return nil
}

func newEventID() string {
	return uuid.NewString()
}
