package http

import (
	"net/http"

	"github.com/aq2208/gorder-storefront/internal/adapter/observ"
	"github.com/aq2208/gorder-storefront/internal/catalog"
	"github.com/aq2208/gorder-storefront/internal/logging"
	"github.com/aq2208/gorder-storefront/internal/session"
	"github.com/gin-gonic/gin"
)

const (
	SessionHeader = "X-Session-Id"
	sessionKey    = "storefront.session"
)

// RequireSession resolves the X-Session-Id header to a live session.
func RequireSession(m *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, err := m.Get(c.GetHeader(SessionHeader))
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.Set(sessionKey, s)
		logging.With(c, logging.From(c).With("session_id", s.ID))
		c.Next()
	}
}

func currentSession(c *gin.Context) *session.Session {
	return c.MustGet(sessionKey).(*session.Session)
}

type CartHandler struct {
	sessions *session.Manager
	catalog  *catalog.Catalog
}

func NewCartHandler(sessions *session.Manager, c *catalog.Catalog) *CartHandler {
	return &CartHandler{sessions: sessions, catalog: c}
}

// POST /v1/sessions
func (h *CartHandler) CreateSession(c *gin.Context) {
	s := h.sessions.Create()
	c.Header(SessionHeader, s.ID)
	c.JSON(http.StatusCreated, gin.H{"session_id": s.ID, "created_at": s.CreatedAt})
}

// DELETE /v1/sessions
func (h *CartHandler) EndSession(c *gin.Context) {
	h.sessions.Delete(currentSession(c).ID)
	c.Status(http.StatusNoContent)
}

func (h *CartHandler) GetCart(c *gin.Context) {
	c.JSON(http.StatusOK, newCartView(currentSession(c)))
}

type addItemReq struct {
	ProductID string `json:"product_id" binding:"required"`
}

func (h *CartHandler) AddItem(c *gin.Context) {
	var req addItemReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p, err := h.catalog.Get(req.ProductID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	h.mutate(c, "add", func(s *session.Session) error { return s.AddItem(p) })
}

type quantityReq struct {
	Quantity *int `json:"quantity" binding:"required"`
}

func (h *CartHandler) UpdateQuantity(c *gin.Context) {
	var req quantityReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	id := c.Param("id")
	h.mutate(c, "set_quantity", func(s *session.Session) error { return s.UpdateQuantity(id, *req.Quantity) })
}

type instructionsReq struct {
	SpecialInstructions string `json:"special_instructions"`
}

func (h *CartHandler) UpdateInstructions(c *gin.Context) {
	var req instructionsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	id := c.Param("id")
	h.mutate(c, "set_instructions", func(s *session.Session) error {
		return s.UpdateSpecialInstructions(id, req.SpecialInstructions)
	})
}

func (h *CartHandler) RemoveItem(c *gin.Context) {
	id := c.Param("id")
	h.mutate(c, "remove", func(s *session.Session) error { return s.RemoveItem(id) })
}

func (h *CartHandler) ClearCart(c *gin.Context) {
	h.mutate(c, "clear", func(s *session.Session) error { return s.ClearCart() })
}

func (h *CartHandler) mutate(c *gin.Context, action string, fn func(*session.Session) error) {
	s := currentSession(c)
	if err := fn(s); err != nil {
		abortWithError(c, err)
		return
	}
	observ.CartMutation(action)
	c.JSON(http.StatusOK, newCartView(s))
}
