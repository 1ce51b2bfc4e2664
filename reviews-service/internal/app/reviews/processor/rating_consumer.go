package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"productreviews/pkg/logger"
	"productreviews/pkg/metrics"
	"productreviews/reviews-service/internal/app/reviews/entity"
	"productreviews/reviews-service/internal/app/reviews/service"

	"github.com/segmentio/kafka-go"
)

const serviceName = "reviews-service"

// messageReader - подмножество kafka.Reader, нужное консьюмеру
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// RatingConsumer читает REVIEW_STATUS_CHANGED из топика отзывов
// и повторно пересчитывает рейтинг товара. Пересчет идемпотентен,
// поэтому доставка at-least-once безопасна
type RatingConsumer struct {
	reader     messageReader
	aggregator service.RatingRecomputer
	topic      string
	groupID    string
	cancel     context.CancelFunc
	doneChan   chan struct{}
}

func NewRatingConsumer(brokers []string, topic, groupID string, aggregator service.RatingRecomputer) *RatingConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       10e6,
		StartOffset:    kafka.LastOffset,
		CommitInterval: time.Second,
		ReadBackoffMin: 100 * time.Millisecond,
		ReadBackoffMax: time.Second,
	})

	return newRatingConsumerWithReader(reader, topic, groupID, aggregator)
}

func newRatingConsumerWithReader(reader messageReader, topic, groupID string, aggregator service.RatingRecomputer) *RatingConsumer {
	return &RatingConsumer{
		reader:     reader,
		aggregator: aggregator,
		topic:      topic,
		groupID:    groupID,
		doneChan:   make(chan struct{}),
	}
}

// Start запускает чтение в отдельной горутине
func (c *RatingConsumer) Start(ctx context.Context) {
	ctx, c.cancel = context.WithCancel(ctx)
	logger.Info().Str("topic", c.topic).Str("group", c.groupID).Msg("Starting rating consumer")
	go c.consume(ctx)
}

// Stop дожидается завершения текущего сообщения и закрывает reader
func (c *RatingConsumer) Stop() {
	if c.cancel != nil {
		c.cancel()
		<-c.doneChan
	}
	if err := c.reader.Close(); err != nil {
		logger.Warn().Err(err).Msg("Failed to close kafka reader")
	}
	logger.Info().Msg("Rating consumer stopped")
}

func (c *RatingConsumer) consume(ctx context.Context) {
	defer close(c.doneChan)

	for {
		message, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			metrics.RecordKafkaError(serviceName, c.topic, "fetch")
			logger.Warn().Err(err).Msg("Error fetching message")

			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}

		start := time.Now()
		if err := c.processMessage(ctx, message); err != nil {
			// offset не коммитим, сообщение будет прочитано повторно
			metrics.RecordKafkaError(serviceName, c.topic, "process")
			logger.Error().
				Err(err).
				Int64("offset", message.Offset).
				Int("partition", message.Partition).
				Msg("Error processing message")
			continue
		}
		metrics.RecordKafkaMessageConsumed(serviceName, c.topic, c.groupID, time.Since(start))

		if err := c.reader.CommitMessages(ctx, message); err != nil {
			metrics.RecordKafkaError(serviceName, c.topic, "commit")
			logger.Warn().Err(err).Msg("Error committing message")
		}
	}
}

// processMessage возвращает ошибку только если сообщение стоит перечитать
func (c *RatingConsumer) processMessage(ctx context.Context, message kafka.Message) error {
	var event entity.ReviewEvent
	if err := json.Unmarshal(message.Value, &event); err != nil {
		logger.Warn().Err(err).Int64("offset", message.Offset).Msg("Skipping malformed review event")
		return nil
	}

	if event.EventType != entity.EventReviewStatusChanged || event.ProductID <= 0 {
		return nil
	}

	snapshot, err := c.aggregator.Recompute(ctx, event.ProductID)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			logger.Warn().Int64("product_id", event.ProductID).Msg("Review event for unknown product")
			return nil
		}
		return fmt.Errorf("failed to recompute rating for product %d: %w", event.ProductID, err)
	}

	logger.Debug().
		Int64("review_id", event.ReviewID).
		Int64("product_id", event.ProductID).
		Float64("average_rating", snapshot.AverageRating).
		Int("review_count", snapshot.ReviewCount).
		Msg("Rating repaired from status event")
	return nil
}
