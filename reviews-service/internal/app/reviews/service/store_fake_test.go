package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"productreviews/reviews-service/internal/app/reviews/entity"
	"productreviews/reviews-service/internal/app/reviews/repository"
)

// memoryStore - in-memory реализация ReviewRepository и ProductRepository
// для проверки инвариантов рейтинга без БД
type memoryStore struct {
	mu       sync.Mutex
	nextID   int64
	reviews  map[int64]*entity.Review
	products map[int64]*entity.Product

	// statsDelay расширяет окно между чтением агрегата и записью рейтинга
	statsDelay time.Duration
	updates    int
}

func newMemoryStore(productIDs ...int64) *memoryStore {
	s := &memoryStore{
		reviews:  make(map[int64]*entity.Review),
		products: make(map[int64]*entity.Product),
	}
	for _, id := range productIDs {
		s.products[id] = &entity.Product{ID: id, Name: "product"}
	}
	return s
}

func (s *memoryStore) Create(_ context.Context, review *entity.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	review.ID = s.nextID
	review.Status = entity.StatusPending
	review.CreatedAt = time.Now()
	cp := *review
	s.reviews[review.ID] = &cp
	return nil
}

func (s *memoryStore) filter(keep func(*entity.Review) bool) []entity.Review {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]entity.Review, 0)
	for _, r := range s.reviews {
		if keep(r) {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (s *memoryStore) ListApproved(_ context.Context, productID int64) ([]entity.Review, error) {
	return s.filter(func(r *entity.Review) bool {
		return r.ProductID == productID && r.Status == entity.StatusApproved
	}), nil
}

func (s *memoryStore) ListByProduct(_ context.Context, productID int64) ([]entity.Review, error) {
	return s.filter(func(r *entity.Review) bool { return r.ProductID == productID }), nil
}

func (s *memoryStore) ListAll(_ context.Context, status *entity.ReviewStatus) ([]entity.Review, error) {
	return s.filter(func(r *entity.Review) bool { return status == nil || r.Status == *status }), nil
}

func (s *memoryStore) SetStatus(_ context.Context, reviewID int64, status entity.ReviewStatus) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reviews[reviewID]
	if !ok {
		return 0, repository.ErrReviewNotFound
	}
	r.Status = status
	return 1, nil
}

func (s *memoryStore) GetProductID(_ context.Context, reviewID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reviews[reviewID]
	if !ok {
		return 0, repository.ErrReviewNotFound
	}
	return r.ProductID, nil
}

func (s *memoryStore) ApprovedStats(_ context.Context, productID int64) (*entity.RatingSnapshot, error) {
	s.mu.Lock()
	var sum, count int
	for _, r := range s.reviews {
		if r.ProductID == productID && r.Status == entity.StatusApproved {
			sum += r.Rating
			count++
		}
	}
	delay := s.statsDelay
	s.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}

	snapshot := &entity.RatingSnapshot{ProductID: productID}
	if count > 0 {
		snapshot.AverageRating = float64(sum) / float64(count)
		snapshot.ReviewCount = count
	}
	return snapshot, nil
}

// productRepo возвращает представление хранилища как ProductRepository
func (s *memoryStore) productRepo() repository.ProductRepository {
	return memoryProducts{s}
}

type memoryProducts struct {
	s *memoryStore
}

func (p memoryProducts) Create(_ context.Context, product *entity.Product) error {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	product.ID = int64(len(p.s.products) + 1)
	cp := *product
	p.s.products[product.ID] = &cp
	return nil
}

func (p memoryProducts) GetByID(_ context.Context, id int64) (*entity.Product, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	product, ok := p.s.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	cp := *product
	return &cp, nil
}

func (p memoryProducts) GetAll(_ context.Context) ([]entity.Product, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	out := make([]entity.Product, 0, len(p.s.products))
	for _, product := range p.s.products {
		out = append(out, *product)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (p memoryProducts) ListIDs(ctx context.Context) ([]int64, error) {
	products, _ := p.GetAll(ctx)
	ids := make([]int64, 0, len(products))
	for _, product := range products {
		ids = append(ids, product.ID)
	}
	return ids, nil
}

func (p memoryProducts) UpdateRating(_ context.Context, id int64, averageRating float64, reviewCount int) error {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	product, ok := p.s.products[id]
	if !ok {
		return repository.ErrProductNotFound
	}
	product.AverageRating = averageRating
	product.ReviewCount = reviewCount
	p.s.updates++
	return nil
}

func (s *memoryStore) product(id int64) entity.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.products[id]
}
