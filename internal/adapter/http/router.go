package http

import (
	"log/slog"
	"net/http"

	"github.com/aq2208/gorder-storefront/internal/adapter/http/middleware"
	"github.com/aq2208/gorder-storefront/internal/logging"
	"github.com/aq2208/gorder-storefront/internal/security"
	"github.com/aq2208/gorder-storefront/internal/session"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Handlers struct {
	Catalog  *CatalogHandler
	Cart     *CartHandler
	Checkout *CheckoutHandler
	Orders   *OrderHandler
	Tokens   *TokenHandler
}

func NewRouter(h Handlers, sessions *session.Manager, authz *middleware.Authz, log *slog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.Metrics(), middleware.BodyLimit(middleware.DefaultBodyLimit), middleware.Logging(log))

	r.GET("/healthz", func(c *gin.Context) {
		logging.From(c).Debug("health check")
		c.JSON(http.StatusOK, gin.H{"ok": true, "sessions": sessions.Len()})
	})
	// Prometheus endpoint (scraped by Prometheus)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/v1")
	{
		v1.POST("/token", h.Tokens.IssueToken)

		cat := v1.Group("/catalog")
		cat.GET("/products", h.Catalog.ListProducts)
		cat.GET("/products/:id", h.Catalog.GetProduct)
		cat.GET("/categories", h.Catalog.ListCategories)

		v1.POST("/sessions", h.Cart.CreateSession)

		visitor := v1.Group("", RequireSession(sessions))
		visitor.DELETE("/sessions", h.Cart.EndSession)

		visitor.GET("/cart", h.Cart.GetCart)
		visitor.DELETE("/cart", h.Cart.ClearCart)
		visitor.POST("/cart/items", h.Cart.AddItem)
		visitor.PUT("/cart/items/:id", h.Cart.UpdateQuantity)
		visitor.PUT("/cart/items/:id/instructions", h.Cart.UpdateInstructions)
		visitor.DELETE("/cart/items/:id", h.Cart.RemoveItem)

		visitor.POST("/checkout", h.Checkout.Open)
		visitor.GET("/checkout", h.Checkout.Get)
		visitor.DELETE("/checkout", h.Checkout.Close)
		visitor.PUT("/checkout/form", h.Checkout.UpdateForm)
		visitor.POST("/checkout/submit", h.Checkout.Submit)

		v1.GET("/orders/:id", authz.Require(security.PermOrdersRead), h.Orders.GetOrderByID)
		v1.PATCH("/orders/:id/status", authz.Require(security.PermOrdersWrite), h.Orders.AdvanceStatus)
	}

	return r
}
