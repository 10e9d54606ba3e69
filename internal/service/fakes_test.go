package service_test

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/iyhunko/wallart-storefront/internal/model"
	"github.com/iyhunko/wallart-storefront/internal/repository"
)

// memoryStore is an in-memory datastore without transactions: every write commits on its own.
type memoryStore struct {
	mu       sync.Mutex
	products map[uuid.UUID]*model.Product
	variants []*model.ProductVariant
	events   []*model.Event

	failProduct  error
	failVariants error
	failEvent    error

	variantCalls int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{products: map[uuid.UUID]*model.Product{}}
}

func (s *memoryStore) CreateProduct(_ context.Context, product *model.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failProduct != nil {
		return s.failProduct
	}
	stored := *product
	stored.Variants = nil
	s.products[product.ID] = &stored
	return nil
}

func (s *memoryStore) CreateVariants(_ context.Context, variants []*model.ProductVariant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.variantCalls++
	if s.failVariants != nil {
		return s.failVariants
	}
	for _, v := range variants {
		if _, ok := s.products[v.ProductID]; !ok {
			return &repository.ForeignKeyError{Detail: v.ProductID.String()}
		}
	}
	for _, v := range variants {
		stored := *v
		stored.ID = uuid.New()
		v.ID = stored.ID
		s.variants = append(s.variants, &stored)
	}
	return nil
}

func (s *memoryStore) DeleteProduct(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[id]; !ok {
		return fmt.Errorf("product not found: %w", repository.ErrNotFound)
	}
	delete(s.products, id)
	kept := s.variants[:0]
	for _, v := range s.variants {
		if v.ProductID != id {
			kept = append(kept, v)
		}
	}
	s.variants = kept
	return nil
}

func (s *memoryStore) CreateEvent(_ context.Context, event *model.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failEvent != nil {
		return s.failEvent
	}
	event.InitMeta()
	s.events = append(s.events, event)
	return nil
}

func (s *memoryStore) ListProducts(_ context.Context, query repository.Query) ([]*model.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var products []*model.Product
	for _, p := range s.products {
		if category, ok := query.Values[repository.CategoryField]; ok && p.Category != category {
			continue
		}
		products = append(products, s.withVariants(p))
	}
	sort.Slice(products, func(i, j int) bool { return products[i].CreatedAt.After(products[j].CreatedAt) })
	return products, nil
}

func (s *memoryStore) FindProduct(_ context.Context, id uuid.UUID) (*model.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return nil, fmt.Errorf("product not found: %w", repository.ErrNotFound)
	}
	return s.withVariants(p), nil
}

func (s *memoryStore) ListCategories(_ context.Context) ([]model.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := map[string]int{}
	for _, p := range s.products {
		counts[p.Category]++
	}
	var categories []model.Category
	for name, count := range counts {
		categories = append(categories, model.Category{Name: name, ProductCount: count})
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].Name < categories[j].Name })
	return categories, nil
}

func (s *memoryStore) ListPendingEvents(_ context.Context, limit int) ([]*model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var pending []*model.Event
	for _, e := range s.events {
		if e.Status == model.EventStatusPending && len(pending) < limit {
			pending = append(pending, e)
		}
	}
	return pending, nil
}

func (s *memoryStore) UpdateEventStatus(_ context.Context, id uuid.UUID, status model.EventStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.events {
		if e.ID == id {
			e.Status = status
			return nil
		}
	}
	return repository.ErrNotFound
}

func (s *memoryStore) withVariants(p *model.Product) *model.Product {
	out := *p
	out.Variants = []*model.ProductVariant{}
	for _, v := range s.variants {
		if v.ProductID == p.ID {
			out.Variants = append(out.Variants, v)
		}
	}
	return &out
}

func (s *memoryStore) variantsOf(id uuid.UUID) []*model.ProductVariant {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.withVariants(&model.Product{ID: id}).Variants
}

type memorySnapshot struct {
	products map[uuid.UUID]*model.Product
	variants []*model.ProductVariant
	events   []*model.Event
}

func (s *memoryStore) snapshot() memorySnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	products := make(map[uuid.UUID]*model.Product, len(s.products))
	for id, p := range s.products {
		products[id] = p
	}
	return memorySnapshot{
		products: products,
		variants: append([]*model.ProductVariant(nil), s.variants...),
		events:   append([]*model.Event(nil), s.events...),
	}
}

func (s *memoryStore) restore(snap memorySnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = snap.products
	s.variants = snap.variants
	s.events = snap.events
}

// txMemoryStore adds all-or-nothing transactions on top of memoryStore.
type txMemoryStore struct {
	*memoryStore
	commits   int
	rollbacks int
}

func newTxMemoryStore() *txMemoryStore {
	return &txMemoryStore{memoryStore: newMemoryStore()}
}

func (s *txMemoryStore) WithinTransaction(_ context.Context, fn func(ds repository.Datastore) error) error {
	snap := s.snapshot()
	if err := fn(s.memoryStore); err != nil {
		s.restore(snap)
		s.rollbacks++
		return err
	}
	s.commits++
	return nil
}
