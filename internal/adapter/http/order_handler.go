package http

import (
	"context"
	"net/http"
	"time"

	"github.com/aq2208/gorder-storefront/internal/usecase"
	"github.com/gin-gonic/gin"
)

// OrderHandler serves the staff-only order endpoints.
type OrderHandler struct {
	orders  *usecase.PlaceOrder
	advance *usecase.AdvanceStatus
}

func NewOrderHandler(orders *usecase.PlaceOrder, advance *usecase.AdvanceStatus) *OrderHandler {
	return &OrderHandler{orders: orders, advance: advance}
}

func (h *OrderHandler) GetOrderByID(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	o, err := h.orders.GetOrder(ctx, c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, newOrderView(o))
}

type advanceStatusReq struct {
	Status string `json:"status" binding:"required"`
}

// PATCH /v1/orders/:id/status
func (h *OrderHandler) AdvanceStatus(c *gin.Context) {
	var req advanceStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	id := c.Param("id")
	if err := h.advance.Execute(ctx, id, req.Status); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "status": req.Status})
}
