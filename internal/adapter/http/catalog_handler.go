package http

import (
	"net/http"
	"strconv"

	"github.com/aq2208/gorder-storefront/internal/catalog"
	"github.com/gin-gonic/gin"
)

type CatalogHandler struct {
	catalog *catalog.Catalog
}

func NewCatalogHandler(c *catalog.Catalog) *CatalogHandler {
	return &CatalogHandler{catalog: c}
}

// GET /v1/catalog/products?category=&q=&popular=
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	if popular, _ := strconv.ParseBool(c.Query("popular")); popular {
		c.JSON(http.StatusOK, gin.H{"products": h.catalog.Popular()})
		return
	}
	products := h.catalog.Filter(catalog.Query{
		Category: c.Query("category"),
		Search:   c.Query("q"),
	})
	c.JSON(http.StatusOK, gin.H{"products": products, "count": len(products)})
}

func (h *CatalogHandler) GetProduct(c *gin.Context) {
	p, err := h.catalog.Get(c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *CatalogHandler) ListCategories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"categories": catalog.Categories()})
}
