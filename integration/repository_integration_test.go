package integration

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/iyhunko/wallart-storefront/internal/model"
	"github.com/iyhunko/wallart-storefront/internal/repository"
	reposql "github.com/iyhunko/wallart-storefront/internal/repository/sql"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProduct(title, category string, featured bool) *model.Product {
	return &model.Product{
		Title:       title,
		Description: "Giclee print on archival paper",
		ImageURL:    "https://cdn.example.com/" + title + ".jpg",
		Category:    category,
		Tags:        []string{"print"},
		Featured:    featured,
	}
}

func newVariant(productID uuid.UUID, size, price string) *model.ProductVariant {
	return &model.ProductVariant{
		ProductID:  productID,
		Size:       size,
		Price:      decimal.RequireFromString(price),
		Dimensions: size,
		AmazonLink: "https://amazon.com/dp/" + size,
	}
}

func TestTransactionalRepository_WithinTransaction_Integration(t *testing.T) {
	testDB := SetupTestDB(t)
	defer testDB.Cleanup(t)

	ctx := context.Background()
	store := reposql.NewTransactionalRepository(testDB.DB)

	t.Run("commits product, variants and event together", func(t *testing.T) {
		testDB.TruncateTables(t)

		product := newProduct("Mountain Sunset", "Landscapes", false)
		err := store.WithinTransaction(ctx, func(ds repository.Datastore) error {
			if err := ds.CreateProduct(ctx, product); err != nil {
				return err
			}
			if err := ds.CreateVariants(ctx, []*model.ProductVariant{
				newVariant(product.ID, "12x16", "49.99"),
				newVariant(product.ID, "18x24", "79.00"),
			}); err != nil {
				return err
			}
			event, err := model.NewEvent(model.EventProductCreated, model.NewProductMessage("created", product))
			if err != nil {
				return err
			}
			return ds.CreateEvent(ctx, event)
		})
		require.NoError(t, err)

		found, err := store.FindProduct(ctx, product.ID)
		require.NoError(t, err)
		assert.Equal(t, "Mountain Sunset", found.Title)
		assert.Equal(t, []string{"print"}, found.Tags)
		require.Len(t, found.Variants, 2)
		assert.True(t, decimal.RequireFromString("49.99").Equal(found.Variants[0].Price))

		pending, err := store.ListPendingEvents(ctx, 10)
		require.NoError(t, err)
		assert.Len(t, pending, 1)
	})

	t.Run("rolls back the product when a variant violates a constraint", func(t *testing.T) {
		testDB.TruncateTables(t)

		product := newProduct("Ocean Waves", "Seascapes", false)
		err := store.WithinTransaction(ctx, func(ds repository.Datastore) error {
			if err := ds.CreateProduct(ctx, product); err != nil {
				return err
			}
			// price CHECK (price > 0) rejects this row
			return ds.CreateVariants(ctx, []*model.ProductVariant{newVariant(product.ID, "A4", "-1")})
		})
		require.Error(t, err)

		_, err = store.FindProduct(ctx, product.ID)
		assert.ErrorIs(t, err, repository.ErrNotFound)
		assert.Equal(t, 0, testDB.count(t, "SELECT COUNT(*) FROM products"))
	})

	t.Run("rolls back everything when the callback fails", func(t *testing.T) {
		testDB.TruncateTables(t)

		errAbort := errors.New("abort")
		product := newProduct("City Lights", "Urban", false)
		err := store.WithinTransaction(ctx, func(ds repository.Datastore) error {
			if err := ds.CreateProduct(ctx, product); err != nil {
				return err
			}
			return errAbort
		})
		assert.ErrorIs(t, err, errAbort)
		assert.Equal(t, 0, testDB.count(t, "SELECT COUNT(*) FROM products"))
	})

	t.Run("stores free-text size and dimensions of any length", func(t *testing.T) {
		testDB.TruncateTables(t)

		product := newProduct("Long Caption", "Abstract", false)
		long := newVariant(product.ID, strings.Repeat("s", 101), "10")
		long.Dimensions = strings.Repeat("d", 150)
		err := store.WithinTransaction(ctx, func(ds repository.Datastore) error {
			if err := ds.CreateProduct(ctx, product); err != nil {
				return err
			}
			return ds.CreateVariants(ctx, []*model.ProductVariant{long, newVariant(product.ID, "A4", "24.99")})
		})
		require.NoError(t, err)

		found, err := store.FindProduct(ctx, product.ID)
		require.NoError(t, err)
		require.Len(t, found.Variants, 2)
		assert.Equal(t, 101, len(found.Variants[0].Size))
		assert.Equal(t, 150, len(found.Variants[0].Dimensions))
	})

	t.Run("title and category at their column bounds", func(t *testing.T) {
		testDB.TruncateTables(t)

		product := newProduct("t", "c", false)
		product.Title = strings.Repeat("é", 255)
		product.Category = strings.Repeat("ü", 100)
		require.NoError(t, store.CreateProduct(ctx, product))

		tooLong := newProduct("t", "c", false)
		tooLong.Title = strings.Repeat("é", 256)
		assert.Error(t, store.CreateProduct(ctx, tooLong))
	})

	t.Run("variant for a missing product maps to ForeignKeyError", func(t *testing.T) {
		testDB.TruncateTables(t)

		err := store.CreateVariants(ctx, []*model.ProductVariant{newVariant(uuid.New(), "A3", "10")})
		var fkErr *repository.ForeignKeyError
		assert.ErrorAs(t, err, &fkErr)
	})
}

func TestTransactionalRepository_Catalog_Integration(t *testing.T) {
	testDB := SetupTestDB(t)
	defer testDB.Cleanup(t)

	ctx := context.Background()
	store := reposql.NewTransactionalRepository(testDB.DB)
	testDB.TruncateTables(t)

	seed := []*model.Product{
		newProduct("Mountain Sunset", "Landscapes", true),
		newProduct("Foggy Valley", "Landscapes", false),
		newProduct("Ocean Waves", "Seascapes", true),
	}
	for _, p := range seed {
		require.NoError(t, store.CreateProduct(ctx, p))
		require.NoError(t, store.CreateVariants(ctx, []*model.ProductVariant{newVariant(p.ID, "12x16", "25")}))
	}

	t.Run("lists every product with variants", func(t *testing.T) {
		products, err := store.ListProducts(ctx, *repository.NewQuery())
		require.NoError(t, err)
		require.Len(t, products, 3)
		for _, p := range products {
			assert.Len(t, p.Variants, 1)
		}
	})

	t.Run("filters by category", func(t *testing.T) {
		query := repository.NewQuery().With(repository.CategoryField, "Landscapes")
		products, err := store.ListProducts(ctx, *query)
		require.NoError(t, err)
		assert.Len(t, products, 2)
	})

	t.Run("filters by featured", func(t *testing.T) {
		query := repository.NewQuery().With(repository.FeaturedField, "true")
		products, err := store.ListProducts(ctx, *query)
		require.NoError(t, err)
		require.Len(t, products, 2)
		for _, p := range products {
			assert.True(t, p.Featured)
		}
	})

	t.Run("applies the limit", func(t *testing.T) {
		query := repository.NewQuery()
		query.ApplyLimit(1)
		products, err := store.ListProducts(ctx, *query)
		require.NoError(t, err)
		assert.Len(t, products, 1)
	})

	t.Run("counts categories", func(t *testing.T) {
		categories, err := store.ListCategories(ctx)
		require.NoError(t, err)
		assert.ElementsMatch(t, []model.Category{
			{Name: "Landscapes", ProductCount: 2},
			{Name: "Seascapes", ProductCount: 1},
		}, categories)
	})

	t.Run("delete cascades to variants", func(t *testing.T) {
		target := seed[0]
		require.NoError(t, store.DeleteProduct(ctx, target.ID))

		assert.Equal(t, 0, testDB.count(t, "SELECT COUNT(*) FROM product_variants WHERE product_id = $1", target.ID))
		assert.ErrorIs(t, store.DeleteProduct(ctx, target.ID), repository.ErrNotFound)
	})
}

func TestEventRepository_Integration(t *testing.T) {
	testDB := SetupTestDB(t)
	defer testDB.Cleanup(t)

	ctx := context.Background()
	events := reposql.NewEventRepository(testDB.DB)
	testDB.TruncateTables(t)

	first, err := model.NewEvent(model.EventProductCreated, model.ProductMessage{Action: "created", ProductID: uuid.NewString()})
	require.NoError(t, err)
	second, err := model.NewEvent(model.EventProductDeleted, model.ProductMessage{Action: "deleted", ProductID: uuid.NewString()})
	require.NoError(t, err)
	require.NoError(t, events.Create(ctx, first))
	require.NoError(t, events.Create(ctx, second))

	pending, err := events.ListPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.ElementsMatch(t, []uuid.UUID{first.ID, second.ID}, []uuid.UUID{pending[0].ID, pending[1].ID})

	require.NoError(t, events.UpdateStatus(ctx, first.ID, model.EventStatusProcessed))

	processed, err := events.FindByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, model.EventStatusProcessed, processed.Status)
	assert.NotNil(t, processed.ProcessedAt)

	pending, err = events.ListPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, second.ID, pending[0].ID)

	assert.ErrorIs(t, events.UpdateStatus(ctx, uuid.New(), model.EventStatusFailed), repository.ErrNotFound)
}

func TestUserRepository_Integration(t *testing.T) {
	testDB := SetupTestDB(t)
	defer testDB.Cleanup(t)

	ctx := context.Background()
	users := reposql.NewUserRepository(testDB.DB)
	testDB.TruncateTables(t)

	user := &model.User{Email: "admin@example.com", PasswordHash: "hash", Role: model.RoleAdmin}
	require.NoError(t, users.CreateUser(ctx, user))

	found, err := users.FindUserByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	err = users.CreateUser(ctx, &model.User{Email: "admin@example.com", PasswordHash: "other", Role: model.RoleAdmin})
	var uniqueErr *repository.UniqueConstraintError
	assert.ErrorAs(t, err, &uniqueErr)

	_, err = users.FindUserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
