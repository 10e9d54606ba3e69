package controller

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"
	"github.com/iyhunko/wallart-storefront/internal/form"
	"github.com/iyhunko/wallart-storefront/internal/model"
	"github.com/iyhunko/wallart-storefront/internal/repository"
	"github.com/iyhunko/wallart-storefront/internal/service"
)

const (
	msgProductAdded       = "Product added successfully"
	msgFailedToAdd        = "Failed to add product"
	msgInvalidProductID   = "invalid product ID"
	msgProductNotFound    = "product not found"
	msgInvalidFields      = "invalid product fields"
	msgFailedToList       = "failed to list products"
	msgFailedToLoad       = "failed to load product"
	msgFailedToDelete     = "failed to delete product"
	msgFailedCategories   = "failed to list categories"
	msgProductDeleted     = "product deleted successfully"
	timestampFormatLayout = time.RFC3339
)

// Catalog is what the product endpoints need from the catalog service.
type Catalog interface {
	SubmitProduct(ctx context.Context, sub form.Submission) (*service.SubmissionResult, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	ListProducts(ctx context.Context, query repository.Query) ([]*model.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
}

// ProductController handles HTTP requests for product operations.
type ProductController struct {
	catalog    Catalog
	validation *Validation
}

// NewProductController creates a new ProductController with the given catalog service.
func NewProductController(catalog Catalog) *ProductController {
	return &ProductController{
		catalog:    catalog,
		validation: NewValidation(),
	}
}

// SubmitProductRequest holds the product-level fields of a submission form.
// Variant fields are read separately through the form package.
type SubmitProductRequest struct {
	Title       string `form:"title" validate:"notblank,max=255"`
	Description string `form:"description" validate:"notblank"`
	Category    string `form:"category" validate:"notblank,max=100"`
	ImageURL    string `form:"imageUrl" validate:"notblank,url"`
	Tags        string `form:"tags"`
}

// VariantResponse represents a persisted product variant.
type VariantResponse struct {
	ID         string  `json:"id"`
	ProductID  string  `json:"product_id"`
	Size       string  `json:"size"`
	Price      float64 `json:"price"`
	Dimensions string  `json:"dimensions"`
	AmazonLink string  `json:"amazon_link"`
}

// ProductResponse represents the response body for a product.
type ProductResponse struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	ImageURL    string            `json:"image_url"`
	Category    string            `json:"category"`
	Tags        []string          `json:"tags"`
	Featured    bool              `json:"featured"`
	CreatedAt   string            `json:"created_at"`
	UpdatedAt   string            `json:"updated_at"`
	Variants    []VariantResponse `json:"variants"`
}

// SubmitProductResponse is returned with 201 after a submission.
type SubmitProductResponse struct {
	Message string                   `json:"message"`
	Product ProductResponse          `json:"product"`
	Dropped []service.DroppedVariant `json:"dropped"`
}

// CategoryResponse represents one category and how many products it holds.
type CategoryResponse struct {
	Name         string `json:"name"`
	ProductCount int    `json:"product_count"`
}

// SubmitProduct handles the multipart POST that creates a product with its variants.
func (pc *ProductController) SubmitProduct(c *gin.Context) {
	var req SubmitProductRequest
	if err := c.ShouldBindWith(&req, binding.Form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid form: " + err.Error()})
		return
	}
	if fieldErrs := pc.validation.Validate(req); len(fieldErrs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgInvalidFields, "fields": fieldErrs})
		return
	}

	sub, err := form.Decode(c.PostForm)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := pc.catalog.SubmitProduct(c.Request.Context(), sub)
	if err != nil {
		var partial *service.PartialCommitError
		if errors.As(err, &partial) {
			slog.Error("Product committed without variants",
				slog.Any("err", err), slog.String("product_id", partial.ProductID.String()))
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":     msgFailedToAdd,
				"partial":   true,
				"productId": partial.ProductID.String(),
			})
			return
		}
		slog.Error("Failed to add product", slog.Any("err", err), slog.String("title", sub.Title))
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgFailedToAdd})
		return
	}

	c.JSON(http.StatusCreated, SubmitProductResponse{
		Message: msgProductAdded,
		Product: toProductResponse(result.Product),
		Dropped: result.Dropped,
	})
}

// DeleteProduct handles the HTTP DELETE request for deleting a product by ID.
func (pc *ProductController) DeleteProduct(c *gin.Context) {
	id, ok := parseProductID(c)
	if !ok {
		return
	}

	if err := pc.catalog.DeleteProduct(c.Request.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": msgProductNotFound})
			return
		}
		slog.Error("Failed to delete product", slog.Any("err", err), slog.String("product_id", id.String()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgFailedToDelete})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": msgProductDeleted})
}

// GetProduct handles the HTTP GET request for a single product with its variants.
func (pc *ProductController) GetProduct(c *gin.Context) {
	id, ok := parseProductID(c)
	if !ok {
		return
	}

	product, err := pc.catalog.GetProduct(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": msgProductNotFound})
			return
		}
		slog.Error("Failed to load product", slog.Any("err", err), slog.String("product_id", id.String()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgFailedToLoad})
		return
	}

	c.JSON(http.StatusOK, toProductResponse(product))
}

// ListProductsRequest represents the query parameters for listing products.
type ListProductsRequest struct {
	Category string `form:"category"`
	Featured string `form:"featured"`
	Limit    int32  `form:"limit"`
}

// ListProductsResponse represents the response body for listing products.
type ListProductsResponse struct {
	Products []ProductResponse `json:"products"`
}

// ListProducts handles the HTTP GET request for listing products, newest first.
func (pc *ProductController) ListProducts(c *gin.Context) {
	var req ListProductsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	query := repository.NewQuery().
		With(repository.CategoryField, strings.TrimSpace(req.Category)).
		With(repository.FeaturedField, strings.TrimSpace(req.Featured))
	query.ApplyLimit(req.Limit)
	if _, _, err := query.Featured(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	products, err := pc.catalog.ListProducts(c.Request.Context(), *query)
	if err != nil {
		slog.Error("Failed to list products", slog.Any("err", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgFailedToList})
		return
	}

	c.JSON(http.StatusOK, ListProductsResponse{Products: toProductResponses(products)})
}

// ListCategories handles the HTTP GET request for the distinct product categories.
func (pc *ProductController) ListCategories(c *gin.Context) {
	categories, err := pc.catalog.ListCategories(c.Request.Context())
	if err != nil {
		slog.Error("Failed to list categories", slog.Any("err", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgFailedCategories})
		return
	}

	c.JSON(http.StatusOK, gin.H{"categories": toCategoryResponses(categories)})
}

func parseProductID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgInvalidProductID})
		return uuid.Nil, false
	}
	return id, true
}

func toProductResponse(product *model.Product) ProductResponse {
	variants := make([]VariantResponse, 0, len(product.Variants))
	for _, v := range product.Variants {
		variants = append(variants, VariantResponse{
			ID:         v.ID.String(),
			ProductID:  v.ProductID.String(),
			Size:       v.Size,
			Price:      v.Price.InexactFloat64(),
			Dimensions: v.Dimensions,
			AmazonLink: v.AmazonLink,
		})
	}

	tags := product.Tags
	if tags == nil {
		tags = []string{}
	}

	return ProductResponse{
		ID:          product.ID.String(),
		Title:       product.Title,
		Description: product.Description,
		ImageURL:    product.ImageURL,
		Category:    product.Category,
		Tags:        tags,
		Featured:    product.Featured,
		CreatedAt:   product.CreatedAt.Format(timestampFormatLayout),
		UpdatedAt:   product.UpdatedAt.Format(timestampFormatLayout),
		Variants:    variants,
	}
}

func toProductResponses(products []*model.Product) []ProductResponse {
	responses := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		responses = append(responses, toProductResponse(p))
	}
	return responses
}

func toCategoryResponses(categories []model.Category) []CategoryResponse {
	responses := make([]CategoryResponse, 0, len(categories))
	for _, category := range categories {
		responses = append(responses, CategoryResponse{Name: category.Name, ProductCount: category.ProductCount})
	}
	return responses
}
