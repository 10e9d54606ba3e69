package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/iyhunko/wallart-storefront/internal/form"
	"github.com/iyhunko/wallart-storefront/internal/metrics"
	"github.com/iyhunko/wallart-storefront/internal/model"
	"github.com/iyhunko/wallart-storefront/internal/repository"
)

// Submission stages, used as the metrics label for failures.
const (
	stageProduct  = "product"
	stageVariants = "variants"
	stageEvent    = "event"
	stageCommit   = "commit"
)

// Event actions published to the broker.
const (
	ActionCreated = "created"
	ActionDeleted = "deleted"
)

type CatalogService struct {
	store   repository.Datastore
	catalog repository.Catalog
}

// NewCatalogService wires the write side and the read side of the catalog.
// When store also implements repository.Transactor, submissions and deletions are atomic.
func NewCatalogService(store repository.Datastore, catalog repository.Catalog) *CatalogService {
	return &CatalogService{
		store:   store,
		catalog: catalog,
	}
}

// SubmitProduct persists one product and the qualifying subset of its variants.
//
// Scalar fields are expected to be validated by the caller. Non-qualifying variants are
// left out and reported in SubmissionResult.Dropped; they never fail the submission.
func (cs *CatalogService) SubmitProduct(ctx context.Context, sub form.Submission) (*SubmissionResult, error) {
	product := &model.Product{
		Title:       strings.TrimSpace(sub.Title),
		Description: strings.TrimSpace(sub.Description),
		ImageURL:    strings.TrimSpace(sub.ImageURL),
		Category:    strings.TrimSpace(sub.Category),
		Tags:        ParseTags(sub.Tags),
		Featured:    false,
	}
	product.InitMeta()

	variants, dropped := QualifyVariants(product.ID, sub.Variants)
	for _, d := range dropped {
		metrics.VariantsDropped.WithLabelValues(d.Reason).Inc()
	}

	var err error
	if tx, ok := cs.store.(repository.Transactor); ok {
		err = cs.submitAtomically(ctx, tx, product, variants)
	} else {
		err = cs.submitSequentially(ctx, product, variants)
	}
	if err != nil {
		return nil, err
	}

	product.Variants = variants
	metrics.ProductsCreated.Inc()
	metrics.VariantsPersisted.Add(float64(len(variants)))

	slog.Info("Product submitted",
		slog.String("product_id", product.ID.String()),
		slog.Int("variants", len(variants)),
		slog.Int("dropped", len(dropped)))

	return &SubmissionResult{Product: product, Dropped: dropped}, nil
}

func (cs *CatalogService) submitAtomically(ctx context.Context, tx repository.Transactor, product *model.Product, variants []*model.ProductVariant) error {
	stage := stageProduct
	err := tx.WithinTransaction(ctx, func(ds repository.Datastore) error {
		if err := ds.CreateProduct(ctx, product); err != nil {
			return fmt.Errorf("failed to create product: %w", err)
		}

		if len(variants) > 0 {
			stage = stageVariants
			if err := ds.CreateVariants(ctx, variants); err != nil {
				return fmt.Errorf("failed to create variants: %w", err)
			}
		}

		stage = stageEvent
		event, err := createdEvent(product, variants)
		if err != nil {
			return err
		}
		if err := ds.CreateEvent(ctx, event); err != nil {
			return fmt.Errorf("failed to create event: %w", err)
		}

		stage = stageCommit
		return nil
	})
	if err != nil {
		metrics.SubmissionFailures.WithLabelValues(stage).Inc()
		return err
	}
	return nil
}

// submitSequentially writes each row on its own. A variant failure leaves the product behind
// and is reported as a PartialCommitError. The outbox event is best effort.
func (cs *CatalogService) submitSequentially(ctx context.Context, product *model.Product, variants []*model.ProductVariant) error {
	if err := cs.store.CreateProduct(ctx, product); err != nil {
		metrics.SubmissionFailures.WithLabelValues(stageProduct).Inc()
		return fmt.Errorf("failed to create product: %w", err)
	}

	if len(variants) > 0 {
		if err := cs.store.CreateVariants(ctx, variants); err != nil {
			metrics.SubmissionFailures.WithLabelValues(stageVariants).Inc()
			return &PartialCommitError{ProductID: product.ID, Err: err}
		}
	}

	event, err := createdEvent(product, variants)
	if err == nil {
		err = cs.store.CreateEvent(ctx, event)
	}
	if err != nil {
		metrics.SubmissionFailures.WithLabelValues(stageEvent).Inc()
		slog.Error("Failed to record product event", slog.Any("err", err), slog.String("product_id", product.ID.String()))
	}
	return nil
}

func createdEvent(product *model.Product, variants []*model.ProductVariant) (*model.Event, error) {
	snapshot := *product
	snapshot.Variants = variants
	event, err := model.NewEvent(model.EventProductCreated, model.NewProductMessage(ActionCreated, &snapshot))
	if err != nil {
		return nil, fmt.Errorf("failed to build event: %w", err)
	}
	return event, nil
}

// DeleteProduct removes a product and its variants and records a product.deleted event.
func (cs *CatalogService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	product, err := cs.catalog.FindProduct(ctx, id)
	if err != nil {
		return err
	}

	event, err := model.NewEvent(model.EventProductDeleted, model.NewProductMessage(ActionDeleted, product))
	if err != nil {
		return fmt.Errorf("failed to build event: %w", err)
	}

	if tx, ok := cs.store.(repository.Transactor); ok {
		err = tx.WithinTransaction(ctx, func(ds repository.Datastore) error {
			if err := ds.DeleteProduct(ctx, id); err != nil {
				return err
			}
			return ds.CreateEvent(ctx, event)
		})
		if err != nil {
			return err
		}
	} else {
		if err := cs.store.DeleteProduct(ctx, id); err != nil {
			return err
		}
		if err := cs.store.CreateEvent(ctx, event); err != nil {
			slog.Error("Failed to record product event", slog.Any("err", err), slog.String("product_id", id.String()))
		}
	}

	metrics.ProductsDeleted.Inc()
	return nil
}

// ListProducts returns products matching query, newest first, with their variants.
func (cs *CatalogService) ListProducts(ctx context.Context, query repository.Query) ([]*model.Product, error) {
	products, err := cs.catalog.ListProducts(ctx, query)
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []*model.Product{}
	}
	return products, nil
}

// GetProduct returns one product with its variants, or repository.ErrNotFound.
func (cs *CatalogService) GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	return cs.catalog.FindProduct(ctx, id)
}

// ListCategories returns the distinct categories with product counts.
func (cs *CatalogService) ListCategories(ctx context.Context) ([]model.Category, error) {
	categories, err := cs.catalog.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	if categories == nil {
		categories = []model.Category{}
	}
	return categories, nil
}
