package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product represents a wall-art product listed in the catalog.
type Product struct {
	ID          uuid.UUID
	Title       string
	Description string
	ImageURL    string
	Category    string
	Tags        []string
	Featured    bool
	Variants    []*ProductVariant
	UpdatedAt   time.Time
	CreatedAt   time.Time
}

// InitMeta initializes the product metadata including ID and timestamps.
func (p *Product) InitMeta() {
	p.ID = uuid.New()
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
}

// ProductVariant is one purchasable size of a product, sold through an external marketplace link.
// Size is free text.
type ProductVariant struct {
	ID         uuid.UUID
	ProductID  uuid.UUID
	Size       string
	Price      decimal.Decimal
	Dimensions string
	AmazonLink string
}

// InitMeta assigns the variant ID.
func (v *ProductVariant) InitMeta() {
	v.ID = uuid.New()
}

// Category is a distinct product category together with the number of products in it.
type Category struct {
	Name         string
	ProductCount int
}
