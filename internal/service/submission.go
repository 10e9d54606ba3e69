package service

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/iyhunko/wallart-storefront/internal/form"
	"github.com/iyhunko/wallart-storefront/internal/model"
	"github.com/shopspring/decimal"
)

// Reasons a submitted variant is dropped.
const (
	ReasonMissingSize       = "missing_size"
	ReasonInvalidPrice      = "invalid_price"
	ReasonMissingAmazonLink = "missing_amazon_link"
)

// maxPrice is the first value NUMERIC(10,2) cannot hold.
var maxPrice = decimal.New(1, 8)

// DroppedVariant identifies a submitted variant that was not persisted.
type DroppedVariant struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// SubmissionResult is the outcome of a successful product submission.
// Product.Variants holds exactly the variants that were persisted.
type SubmissionResult struct {
	Product *model.Product
	Dropped []DroppedVariant
}

// PartialCommitError is returned when the product row was committed but its variants were not.
// It only occurs on datastores without transactions.
type PartialCommitError struct {
	ProductID uuid.UUID
	Err       error
}

func (e *PartialCommitError) Error() string {
	return fmt.Sprintf("product %s committed without its variants: %v", e.ProductID, e.Err)
}

func (e *PartialCommitError) Unwrap() error {
	return e.Err
}

// ParseTags splits a comma-separated tag list. Tokens are trimmed, empty tokens discarded
// and duplicates removed, keeping the order of first appearance.
func ParseTags(raw string) []string {
	tags := []string{}
	seen := map[string]struct{}{}
	for _, token := range strings.Split(raw, ",") {
		tag := strings.TrimSpace(token)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}
	return tags
}

// QualifyVariants converts submitted drafts into variants of productID.
// A draft qualifies iff its size is non-blank, its price is a decimal that is still greater than
// zero (and below 10^8) after rounding to cents, and its amazonLink is non-blank. So "0.004" is
// dropped as invalid_price while "0.005" is kept as 0.01. Size and dimensions are free text of any
// length. Everything else is returned as dropped.
func QualifyVariants(productID uuid.UUID, drafts []form.Variant) ([]*model.ProductVariant, []DroppedVariant) {
	variants := []*model.ProductVariant{}
	dropped := []DroppedVariant{}
	for i, draft := range drafts {
		variant, reason := qualify(draft)
		if reason != "" {
			dropped = append(dropped, DroppedVariant{Index: i, Reason: reason})
			continue
		}
		variant.ProductID = productID
		variants = append(variants, variant)
	}
	return variants, dropped
}

func qualify(draft form.Variant) (*model.ProductVariant, string) {
	size := strings.TrimSpace(draft.Size)
	if size == "" {
		return nil, ReasonMissingSize
	}

	price, err := decimal.NewFromString(strings.TrimSpace(draft.Price))
	if err != nil {
		return nil, ReasonInvalidPrice
	}
	price = price.Round(2)
	if !price.IsPositive() || price.GreaterThanOrEqual(maxPrice) {
		return nil, ReasonInvalidPrice
	}

	link := strings.TrimSpace(draft.AmazonLink)
	if link == "" {
		return nil, ReasonMissingAmazonLink
	}

	return &model.ProductVariant{
		Size:       size,
		Price:      price,
		Dimensions: strings.TrimSpace(draft.Dimensions),
		AmazonLink: link,
	}, ""
}
