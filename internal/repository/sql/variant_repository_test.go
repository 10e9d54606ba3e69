package sql

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/iyhunko/wallart-storefront/internal/model"
	"github.com/iyhunko/wallart-storefront/internal/repository"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVariantRepository_CreateBatch(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewVariantRepository(db)
	ctx := context.Background()

	t.Run("inserts all variants in one statement", func(t *testing.T) {
		productID := uuid.New()
		variants := []*model.ProductVariant{
			{ProductID: productID, Size: "small", Price: decimal.RequireFromString("24.99"), Dimensions: "8x10", AmazonLink: "https://amazon.example/s"},
			{ProductID: productID, Size: "large", Price: decimal.RequireFromString("59.99"), Dimensions: "24x36", AmazonLink: "https://amazon.example/l"},
		}

		mock.ExpectPrepare("INSERT INTO product_variants \\(id, product_id, size, price, dimensions, amazon_link\\) VALUES "+
			"\\(\\$1, \\$2, \\$3, \\$4, \\$5, \\$6\\), \\(\\$7, \\$8, \\$9, \\$10, \\$11, \\$12\\)").
			ExpectExec().
			WithArgs(
				sqlmock.AnyArg(), productID, "small", decimal.RequireFromString("24.99"), "8x10", "https://amazon.example/s",
				sqlmock.AnyArg(), productID, "large", decimal.RequireFromString("59.99"), "24x36", "https://amazon.example/l",
			).
			WillReturnResult(sqlmock.NewResult(0, 2))

		require.NoError(t, repo.CreateBatch(ctx, variants))
		for _, v := range variants {
			assert.NotEqual(t, uuid.Nil, v.ID)
		}

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty batch is a no-op", func(t *testing.T) {
		require.NoError(t, repo.CreateBatch(ctx, nil))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing product maps to foreign key error", func(t *testing.T) {
		variants := []*model.ProductVariant{{ProductID: uuid.New(), Size: "small", Price: decimal.NewFromInt(10), AmazonLink: "x"}}

		mock.ExpectPrepare("INSERT INTO product_variants").
			ExpectExec().
			WillReturnError(&pq.Error{Code: "23503", Detail: "Key (product_id) is not present."})

		err := repo.CreateBatch(ctx, variants)
		var fkErr *repository.ForeignKeyError
		require.ErrorAs(t, err, &fkErr)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestVariantRepository_ListByProductIDs(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewVariantRepository(db)
	ctx := context.Background()

	t.Run("groups variants by product", func(t *testing.T) {
		p1 := uuid.New()
		p2 := uuid.New()

		rows := sqlmock.NewRows([]string{"id", "product_id", "size", "price", "dimensions", "amazon_link"}).
			AddRow(uuid.NewString(), p1.String(), "small", "24.99", "8x10", "https://amazon.example/1s").
			AddRow(uuid.NewString(), p1.String(), "large", "59.99", "24x36", "https://amazon.example/1l").
			AddRow(uuid.NewString(), p2.String(), "medium", "39.00", "16x20", "https://amazon.example/2m")

		mock.ExpectPrepare("SELECT (.+) FROM product_variants WHERE product_id = ANY\\(\\$1::uuid\\[\\]\\)").
			ExpectQuery().
			WithArgs(pq.Array([]string{p1.String(), p2.String()})).
			WillReturnRows(rows)

		result, err := repo.ListByProductIDs(ctx, []uuid.UUID{p1, p2})
		require.NoError(t, err)

		require.Len(t, result[p1], 2)
		require.Len(t, result[p2], 1)
		assert.Equal(t, "small", result[p1][0].Size)
		assert.True(t, decimal.RequireFromString("59.99").Equal(result[p1][1].Price))
		assert.Equal(t, "16x20", result[p2][0].Dimensions)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no ids means no query", func(t *testing.T) {
		result, err := repo.ListByProductIDs(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, result)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
