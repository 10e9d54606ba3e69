package sql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/iyhunko/wallart-storefront/internal/model"
	"github.com/iyhunko/wallart-storefront/internal/repository"
)

// TransactionalRepository ties the product, variant and event repositories together so that
// a submission can write all of its rows in a single transaction.
// It implements repository.Datastore, repository.Transactor, repository.Catalog and repository.EventStore.
type TransactionalRepository struct {
	db       *sql.DB
	txn      *sql.Tx
	products *ProductRepository
	variants *VariantRepository
	events   *EventRepository
}

// NewTransactionalRepository creates a new TransactionalRepository
func NewTransactionalRepository(db *sql.DB) *TransactionalRepository {
	return newBoundRepository(db, nil)
}

func newBoundRepository(db *sql.DB, txn *sql.Tx) *TransactionalRepository {
	return &TransactionalRepository{
		db:       db,
		txn:      txn,
		products: &ProductRepository{db: db, txn: txn},
		variants: &VariantRepository{db: db, txn: txn},
		events:   &EventRepository{db: db, txn: txn},
	}
}

// WithinTransaction executes fn within a database transaction.
// The transaction is committed when fn returns nil and rolled back otherwise.
func (tr *TransactionalRepository) WithinTransaction(ctx context.Context, fn func(ds repository.Datastore) error) error {
	if tr.txn != nil {
		// already inside a transaction: join it
		return fn(tr)
	}

	tx, err := tr.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(newBoundRepository(tr.db, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("failed to rollback transaction: %w (original error: %v)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// CreateProduct inserts the product row.
func (tr *TransactionalRepository) CreateProduct(ctx context.Context, product *model.Product) error {
	return tr.products.Create(ctx, product)
}

// CreateVariants inserts all variant rows in one statement.
func (tr *TransactionalRepository) CreateVariants(ctx context.Context, variants []*model.ProductVariant) error {
	return tr.variants.CreateBatch(ctx, variants)
}

// DeleteProduct removes the product and, through the foreign key, its variants.
func (tr *TransactionalRepository) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	return tr.products.DeleteByID(ctx, id)
}

// CreateEvent records an outbox event.
func (tr *TransactionalRepository) CreateEvent(ctx context.Context, event *model.Event) error {
	return tr.events.Create(ctx, event)
}

// ListProducts returns products matching query with their variants attached.
func (tr *TransactionalRepository) ListProducts(ctx context.Context, query repository.Query) ([]*model.Product, error) {
	products, err := tr.products.List(ctx, query)
	if err != nil {
		return nil, err
	}
	if err := tr.attachVariants(ctx, products); err != nil {
		return nil, err
	}
	return products, nil
}

// FindProduct returns one product with its variants.
func (tr *TransactionalRepository) FindProduct(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	product, err := tr.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := tr.attachVariants(ctx, []*model.Product{product}); err != nil {
		return nil, err
	}
	return product, nil
}

// ListCategories returns the distinct product categories.
func (tr *TransactionalRepository) ListCategories(ctx context.Context) ([]model.Category, error) {
	return tr.products.Categories(ctx)
}

// ListPendingEvents returns outbox events waiting to be published.
func (tr *TransactionalRepository) ListPendingEvents(ctx context.Context, limit int) ([]*model.Event, error) {
	return tr.events.ListPending(ctx, limit)
}

// UpdateEventStatus marks an outbox event as processed or failed.
func (tr *TransactionalRepository) UpdateEventStatus(ctx context.Context, id uuid.UUID, status model.EventStatus) error {
	return tr.events.UpdateStatus(ctx, id, status)
}

func (tr *TransactionalRepository) attachVariants(ctx context.Context, products []*model.Product) error {
	if len(products) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, len(products))
	for i, p := range products {
		ids[i] = p.ID
	}

	variants, err := tr.variants.ListByProductIDs(ctx, ids)
	if err != nil {
		return err
	}

	for _, p := range products {
		p.Variants = variants[p.ID]
		if p.Variants == nil {
			p.Variants = []*model.ProductVariant{}
		}
	}
	return nil
}
