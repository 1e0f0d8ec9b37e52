// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/storefront-labs/storefront-api/internal/config"
	"github.com/storefront-labs/storefront-api/internal/interfaces/http/handlers"
	"github.com/storefront-labs/storefront-api/internal/interfaces/http/middleware"
	"github.com/storefront-labs/storefront-api/internal/pkg/auth"
)

// Handlers groups the HTTP handlers served under /api/v1
type Handlers struct {
	Products *handlers.ProductHandler
	Cart     *handlers.CartHandler
	Checkout *handlers.CheckoutHandler
	Orders   *handlers.OrderHandler
}

// SetupProductRoutes sets up catalog routes
func SetupProductRoutes(rg *gin.RouterGroup, h *handlers.ProductHandler, jwtManager *auth.JWTManager) {
	products := rg.Group("/products")
	products.Use(middleware.OptionalAuthMiddleware(jwtManager))
	{
		products.GET("", h.GetProducts)
		products.GET("/featured", h.GetFeaturedProducts)
		products.GET("/:slug", h.GetProductBySlug)
	}

	rg.GET("/categories", h.GetCategories)
}

// SetupCartRoutes sets up cart and voucher routes. Guests shop through
// the session cookie; merging needs a signed-in user.
func SetupCartRoutes(rg *gin.RouterGroup, h Handlers, jwtManager *auth.JWTManager, cfg *config.Config) {
	cartGroup := rg.Group("/cart")
	cartGroup.Use(middleware.Session(cfg.Session))
	cartGroup.Use(middleware.OptionalAuthMiddleware(jwtManager))
	{
		cartGroup.GET("", h.Cart.GetCart)
		cartGroup.POST("/items", h.Cart.AddToCart)
		cartGroup.PATCH("/items/:id", h.Cart.UpdateCartItem)
		cartGroup.DELETE("/items/:id", h.Cart.RemoveFromCart)

		cartGroup.POST("/voucher", h.Checkout.ApplyVoucher)
		cartGroup.DELETE("/voucher", h.Checkout.RemoveVoucher)
	}

	rg.POST("/cart/merge",
		middleware.Session(cfg.Session),
		middleware.AuthMiddleware(jwtManager),
		h.Cart.MergeCart,
	)
}

// SetupCheckoutRoutes sets up checkout routes
func SetupCheckoutRoutes(rg *gin.RouterGroup, h *handlers.CheckoutHandler, jwtManager *auth.JWTManager, cfg *config.Config) {
	checkoutGroup := rg.Group("/checkout")
	checkoutGroup.Use(middleware.Session(cfg.Session))
	checkoutGroup.Use(middleware.AuthMiddleware(jwtManager))
	{
		checkoutGroup.GET("", h.GetCheckout)
		checkoutGroup.POST("", h.PlaceOrder)
	}
}

// SetupOrderRoutes sets up order history routes
func SetupOrderRoutes(rg *gin.RouterGroup, h *handlers.OrderHandler, jwtManager *auth.JWTManager) {
	orders := rg.Group("/orders")
	orders.Use(middleware.AuthMiddleware(jwtManager))
	{
		orders.GET("", h.GetOrders)
		orders.GET("/:number", h.GetOrder)
	}
}

// SetupRoutes sets up all API routes
func SetupRoutes(rg *gin.RouterGroup, h Handlers, jwtManager *auth.JWTManager, cfg *config.Config) {
	SetupProductRoutes(rg, h.Products, jwtManager)
	SetupCartRoutes(rg, h, jwtManager, cfg)
	SetupCheckoutRoutes(rg, h.Checkout, jwtManager, cfg)
	SetupOrderRoutes(rg, h.Orders, jwtManager)
}
