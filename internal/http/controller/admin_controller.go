package controller

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/iyhunko/wallart-storefront/internal/http/middleware"
	"github.com/iyhunko/wallart-storefront/internal/repository"
)

// AdminController serves the gated admin area.
type AdminController struct {
	catalog Catalog
}

// NewAdminController creates a new AdminController.
func NewAdminController(catalog Catalog) *AdminController {
	return &AdminController{catalog: catalog}
}

// DashboardResponse summarizes the catalog for the signed-in admin.
type DashboardResponse struct {
	Admin        string             `json:"admin"`
	ProductCount int                `json:"product_count"`
	Categories   []CategoryResponse `json:"categories"`
	Links        map[string]string  `json:"links"`
}

// Dashboard handles GET /admin.
func (ac *AdminController) Dashboard(c *gin.Context) {
	categories, err := ac.catalog.ListCategories(c.Request.Context())
	if err != nil {
		slog.Error("Failed to load dashboard", slog.Any("err", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgFailedCategories})
		return
	}

	total := 0
	for _, category := range categories {
		total += category.ProductCount
	}

	resp := DashboardResponse{
		ProductCount: total,
		Categories:   toCategoryResponses(categories),
		Links: map[string]string{
			"products":    middleware.AdminPath + "/products",
			"add_product": "/api/products",
			"logout":      "/logout",
		},
	}
	if session, ok := middleware.SessionFrom(c); ok {
		resp.Admin = session.Email
	}

	c.JSON(http.StatusOK, resp)
}

// Products handles GET /admin/products, listing the newest products with their variants.
func (ac *AdminController) Products(c *gin.Context) {
	query := repository.NewQuery()
	products, err := ac.catalog.ListProducts(c.Request.Context(), *query)
	if err != nil {
		slog.Error("Failed to list admin products", slog.Any("err", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgFailedToList})
		return
	}

	c.JSON(http.StatusOK, ListProductsResponse{Products: toProductResponses(products)})
}
