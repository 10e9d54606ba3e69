package http

import (
	"github.com/gin-gonic/gin"
	"github.com/iyhunko/wallart-storefront/internal/http/controller"
	"github.com/iyhunko/wallart-storefront/internal/http/middleware"
)

// Controllers groups the handlers InitRouter mounts.
type Controllers struct {
	General *controller.Controller
	Product *controller.ProductController
	Auth    *controller.AuthController
	Admin   *controller.AdminController
}

func InitRouter(httpMiddleware *middleware.Middleware, server *gin.Engine, ctrs Controllers) *gin.Engine {
	// Recovery first so panics in any later middleware are caught too.
	server.Use(middleware.Recovery())
	server.Use(middleware.RequestLogger())
	server.Use(middleware.CORS())
	server.Use(httpMiddleware.SessionGate())

	server.GET("/health", ctrs.General.Ping)

	// Catalog API
	api := server.Group("/api")
	{
		api.GET("/products", ctrs.Product.ListProducts)
		api.GET("/products/:id", ctrs.Product.GetProduct)
		api.GET("/categories", ctrs.Product.ListCategories)

		write := api.Group("", httpMiddleware.RequireSession())
		write.POST("/products", ctrs.Product.SubmitProduct)
		write.DELETE("/products/:id", ctrs.Product.DeleteProduct)
	}

	// Session endpoints
	server.GET(middleware.LoginPath, ctrs.Auth.LoginPage)
	server.POST(middleware.LoginPath, ctrs.Auth.Login)
	server.POST("/logout", ctrs.Auth.Logout)

	// Admin area, gated by SessionGate
	admin := server.Group(middleware.AdminPath)
	{
		admin.GET("", ctrs.Admin.Dashboard)
		admin.GET("/products", ctrs.Admin.Products)
	}

	return server
}
