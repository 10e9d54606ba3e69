package sql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/iyhunko/wallart-storefront/internal/model"
	"github.com/lib/pq"
)

const variantColumnCount = 6

// VariantRepository stores rows of the product_variants table.
type VariantRepository struct {
	db  *sql.DB
	txn *sql.Tx
}

// NewVariantRepository creates a new VariantRepository instance.
func NewVariantRepository(db *sql.DB) *VariantRepository {
	return &VariantRepository{db: db}
}

func (r *VariantRepository) getExecutor() dbExecutor {
	return executorFor(r.db, r.txn)
}

// CreateBatch inserts all variants with a single multi-row INSERT.
// An empty batch is a no-op.
func (r *VariantRepository) CreateBatch(ctx context.Context, variants []*model.ProductVariant) error {
	if len(variants) == 0 {
		return nil
	}

	var queryBuilder strings.Builder
	queryBuilder.WriteString("INSERT INTO product_variants (id, product_id, size, price, dimensions, amazon_link) VALUES ")

	args := make([]interface{}, 0, len(variants)*variantColumnCount)
	for i, variant := range variants {
		if variant.ID == uuid.Nil {
			variant.InitMeta()
		}
		if i > 0 {
			queryBuilder.WriteString(", ")
		}
		base := i * variantColumnCount
		queryBuilder.WriteString(fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6))
		args = append(args, variant.ID, variant.ProductID, variant.Size, variant.Price, variant.Dimensions, variant.AmazonLink)
	}

	executor := r.getExecutor()
	stmt, err := executor.PrepareContext(ctx, queryBuilder.String())
	if err != nil {
		return fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	defer stmt.Close()

	if _, err = stmt.ExecContext(ctx, args...); err != nil {
		if mapped := mapConstraintError(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("failed to insert variants: %w", err)
	}

	return nil
}

// ListByProductIDs returns the variants of the given products, grouped by product ID and ordered by price.
func (r *VariantRepository) ListByProductIDs(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID][]*model.ProductVariant, error) {
	result := make(map[uuid.UUID][]*model.ProductVariant, len(productIDs))
	if len(productIDs) == 0 {
		return result, nil
	}

	ids := make([]string, len(productIDs))
	for i, id := range productIDs {
		ids[i] = id.String()
	}

	query := `SELECT id, product_id, size, price, dimensions, amazon_link
	          FROM product_variants
	          WHERE product_id = ANY($1::uuid[])
	          ORDER BY product_id, price, id`

	executor := r.getExecutor()
	stmt, err := executor.PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare select statement: %w", err)
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to query variants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var variant model.ProductVariant
		err := rows.Scan(&variant.ID, &variant.ProductID, &variant.Size, &variant.Price, &variant.Dimensions, &variant.AmazonLink)
		if err != nil {
			return nil, fmt.Errorf("failed to scan variant: %w", err)
		}
		result[variant.ProductID] = append(result[variant.ProductID], &variant)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return result, nil
}
