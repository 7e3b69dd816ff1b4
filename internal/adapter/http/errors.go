package http

import (
	"errors"
	"net/http"

	"github.com/aq2208/gorder-storefront/internal/catalog"
	"github.com/aq2208/gorder-storefront/internal/checkout"
	domain "github.com/aq2208/gorder-storefront/internal/entity"
	"github.com/aq2208/gorder-storefront/internal/logging"
	"github.com/aq2208/gorder-storefront/internal/session"
	"github.com/aq2208/gorder-storefront/internal/usecase"
	"github.com/gin-gonic/gin"
)

type errorMapping struct {
	err    error
	status int
	code   string
}

var errorTable = []errorMapping{
	{session.ErrNotFound, http.StatusNotFound, "session_not_found"},
	{session.ErrNoCheckout, http.StatusNotFound, "checkout_not_open"},
	{catalog.ErrNotFound, http.StatusNotFound, "product_not_found"},
	{usecase.ErrOrderNotFound, http.StatusNotFound, "order_not_found"},
	{session.ErrCheckoutBusy, http.StatusConflict, "checkout_busy"},
	{checkout.ErrBusy, http.StatusConflict, "checkout_busy"},
	{checkout.ErrEmptyCart, http.StatusConflict, "cart_empty"},
	{checkout.ErrFinished, http.StatusConflict, "checkout_finished"},
	{checkout.ErrClosed, http.StatusConflict, "checkout_closed"},
	{usecase.ErrDuplicate, http.StatusConflict, "duplicate_request"},
	{usecase.ErrStaleTransition, http.StatusConflict, "stale_transition"},
	{usecase.ErrConcurrentWrite, http.StatusConflict, "concurrent_update"},
	{checkout.ErrInvalidForm, http.StatusUnprocessableEntity, "invalid_form"},
	{domain.ErrUnknownOrderType, http.StatusUnprocessableEntity, "invalid_order_type"},
	{usecase.ErrUnknownStatus, http.StatusUnprocessableEntity, "invalid_status"},
}

func statusFor(err error) (int, string) {
	for _, m := range errorTable {
		if errors.Is(err, m.err) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, "server_error"
}

func abortWithError(c *gin.Context, err error, extra ...any) {
	status, code := statusFor(err)
	body := gin.H{"error": code, "message": err.Error()}
	for i := 0; i+1 < len(extra); i += 2 {
		if k, ok := extra[i].(string); ok {
			body[k] = extra[i+1]
		}
	}
	if status >= http.StatusInternalServerError {
		logging.From(c).Error("request_failed", "error", err)
		body["message"] = "internal error"
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, body)
}

func badRequest(c *gin.Context, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "bad_request", "message": err.Error()})
}
