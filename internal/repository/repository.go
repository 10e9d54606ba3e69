package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/iyhunko/wallart-storefront/internal/model"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("resource not found")

// Datastore is the write side of the catalog.
type Datastore interface {
	CreateProduct(ctx context.Context, product *model.Product) error
	CreateVariants(ctx context.Context, variants []*model.ProductVariant) error
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	CreateEvent(ctx context.Context, event *model.Event) error
}

// Transactor is implemented by datastores that can run several writes atomically.
// fn receives a Datastore bound to the transaction; returning an error rolls it back.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ds Datastore) error) error
}

// Catalog is the read side of the catalog. Products are returned with their variants.
type Catalog interface {
	ListProducts(ctx context.Context, query Query) ([]*model.Product, error)
	FindProduct(ctx context.Context, id uuid.UUID) (*model.Product, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
}

// UserStore persists admin accounts.
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	FindUserByEmail(ctx context.Context, email string) (*model.User, error)
}

// EventStore gives the outbox worker access to pending events.
type EventStore interface {
	ListPendingEvents(ctx context.Context, limit int) ([]*model.Event, error)
	UpdateEventStatus(ctx context.Context, id uuid.UUID, status model.EventStatus) error
}

// UniqueConstraintError represents a database unique constraint violation error.
type UniqueConstraintError struct {
	Detail string
}

func (u *UniqueConstraintError) Error() string {
	return "resource must be unique: " + u.Detail
}

// ForeignKeyError represents a write that referenced a missing parent row.
type ForeignKeyError struct {
	Detail string
}

func (f *ForeignKeyError) Error() string {
	return "referenced resource does not exist: " + f.Detail
}
