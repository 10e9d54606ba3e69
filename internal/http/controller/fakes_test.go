package controller_test

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"net/url"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/iyhunko/wallart-storefront/internal/auth"
	"github.com/iyhunko/wallart-storefront/internal/model"
	"github.com/iyhunko/wallart-storefront/internal/repository"
)

var errInjected = errors.New("connection reset by peer")

// catalogStore is a non-transactional datastore and catalog kept in memory.
type catalogStore struct {
	mu           sync.Mutex
	products     map[uuid.UUID]*model.Product
	events       []*model.Event
	failProduct  bool
	failVariants bool
	failReads    bool
}

func newCatalogStore() *catalogStore {
	return &catalogStore{products: map[uuid.UUID]*model.Product{}}
}

func (s *catalogStore) CreateProduct(_ context.Context, product *model.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failProduct {
		return errInjected
	}
	stored := *product
	stored.Variants = []*model.ProductVariant{}
	s.products[product.ID] = &stored
	return nil
}

func (s *catalogStore) CreateVariants(_ context.Context, variants []*model.ProductVariant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failVariants {
		return errInjected
	}
	for _, v := range variants {
		p, ok := s.products[v.ProductID]
		if !ok {
			return &repository.ForeignKeyError{Detail: v.ProductID.String()}
		}
		if v.ID == uuid.Nil {
			v.InitMeta()
		}
		p.Variants = append(p.Variants, v)
	}
	return nil
}

func (s *catalogStore) DeleteProduct(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.products, id)
	return nil
}

func (s *catalogStore) CreateEvent(_ context.Context, event *model.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *catalogStore) ListProducts(_ context.Context, query repository.Query) ([]*model.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failReads {
		return nil, errInjected
	}
	category := query.Values[repository.CategoryField]
	products := []*model.Product{}
	for _, p := range s.products {
		if category != "" && p.Category != category {
			continue
		}
		products = append(products, p)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].CreatedAt.After(products[j].CreatedAt) })
	if len(products) > query.Limit {
		products = products[:query.Limit]
	}
	return products, nil
}

func (s *catalogStore) FindProduct(_ context.Context, id uuid.UUID) (*model.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failReads {
		return nil, errInjected
	}
	p, ok := s.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return p, nil
}

func (s *catalogStore) ListCategories(context.Context) ([]model.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failReads {
		return nil, errInjected
	}
	counts := map[string]int{}
	for _, p := range s.products {
		counts[p.Category]++
	}
	categories := []model.Category{}
	for name, n := range counts {
		categories = append(categories, model.Category{Name: name, ProductCount: n})
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].Name < categories[j].Name })
	return categories, nil
}

func (s *catalogStore) add(p *model.Product) *model.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.InitMeta()
	if p.Variants == nil {
		p.Variants = []*model.ProductVariant{}
	}
	s.products[p.ID] = p
	return p
}

func (s *catalogStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.products)
}

// fakeAuth accepts a single email/password pair.
type fakeAuth struct {
	email, password string
	err             error
	cleared         int
}

func (f *fakeAuth) SignIn(_ context.Context, email, password string) (*auth.Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	if email != f.email || password != f.password {
		return nil, auth.ErrInvalidCredentials
	}
	return &auth.Session{UserID: uuid.New(), Email: email, Role: model.RoleAdmin, Token: "signed-token"}, nil
}

func (f *fakeAuth) Authenticate(*http.Request) (*auth.Session, error) {
	return nil, auth.ErrNoSession
}

func (f *fakeAuth) IssueCookie(w http.ResponseWriter, session *auth.Session) {
	http.SetCookie(w, &http.Cookie{Name: "test_session", Value: session.Token, Path: "/"})
}

func (f *fakeAuth) ClearCookie(w http.ResponseWriter) {
	f.cleared++
	http.SetCookie(w, &http.Cookie{Name: "test_session", Value: "", Path: "/", MaxAge: -1})
}

// multipartBody encodes values the way a browser submits a form with enctype multipart/form-data.
func multipartBody(values url.Values) (*bytes.Buffer, string) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for key, vals := range values {
		for _, v := range vals {
			_ = writer.WriteField(key, v)
		}
	}
	_ = writer.Close()
	return body, writer.FormDataContentType()
}
