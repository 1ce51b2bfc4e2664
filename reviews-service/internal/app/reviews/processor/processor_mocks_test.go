package processor

import (
	"context"
	"sync"

	"productreviews/reviews-service/internal/app/reviews/entity"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/mock"
)

// MockRatingRecomputer мок для service.RatingRecomputer
type MockRatingRecomputer struct {
	mock.Mock
}

func (m *MockRatingRecomputer) Recompute(ctx context.Context, productID int64) (*entity.RatingSnapshot, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.RatingSnapshot), args.Error(1)
}

func (m *MockRatingRecomputer) RecomputeAll(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// fakeReader отдает сообщения из канала, затем блокируется до отмены контекста
type fakeReader struct {
	messages chan kafka.Message

	mu        sync.Mutex
	committed []kafka.Message
	closed    bool
}

func newFakeReader(messages ...kafka.Message) *fakeReader {
	r := &fakeReader{messages: make(chan kafka.Message, len(messages))}
	for _, m := range messages {
		r.messages <- m
	}
	return r
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case m := <-r.messages:
		return m, nil
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	}
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.committed = append(r.committed, msgs...)
	return nil
}

func (r *fakeReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func (r *fakeReader) committedOffsets() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]int64, 0, len(r.committed))
	for _, m := range r.committed {
		out = append(out, m.Offset)
	}
	return out
}
