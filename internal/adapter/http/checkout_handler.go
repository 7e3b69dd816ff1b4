package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/aq2208/gorder-storefront/internal/adapter/observ"
	"github.com/aq2208/gorder-storefront/internal/checkout"
	domain "github.com/aq2208/gorder-storefront/internal/entity"
	"github.com/aq2208/gorder-storefront/internal/logging"
	"github.com/aq2208/gorder-storefront/internal/usecase"
	"github.com/gin-gonic/gin"
)

type CheckoutHandler struct {
	submit *usecase.SubmitCheckout
}

func NewCheckoutHandler(submit *usecase.SubmitCheckout) *CheckoutHandler {
	return &CheckoutHandler{submit: submit}
}

// POST /v1/checkout opens (or resumes) the session's checkout.
func (h *CheckoutHandler) Open(c *gin.Context) {
	s := currentSession(c)
	f := s.OpenCheckout()
	c.JSON(http.StatusCreated, newCheckoutView(s, f))
}

func (h *CheckoutHandler) Get(c *gin.Context) {
	s := currentSession(c)
	f, err := s.Checkout()
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, newCheckoutView(s, f))
}

// DELETE /v1/checkout; refused with 409 while a submission is pending.
func (h *CheckoutHandler) Close(c *gin.Context) {
	if err := currentSession(c).CloseCheckout(); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type formReq struct {
	OrderType *string              `json:"order_type"`
	Customer  *domain.CustomerInfo `json:"customer"`
}

// PUT /v1/checkout/form. order_type and customer are each optional and an
// omitted one keeps its current value; a customer object replaces the stored
// customer as a unit.
func (h *CheckoutHandler) UpdateForm(c *gin.Context) {
	var req formReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	s := currentSession(c)
	f, err := s.Checkout()
	if err != nil {
		abortWithError(c, err)
		return
	}

	if req.OrderType != nil {
		t, err := domain.ParseOrderType(*req.OrderType)
		if err != nil {
			abortWithError(c, err)
			return
		}
		if err := f.SetOrderType(t); err != nil {
			abortWithError(c, err)
			return
		}
	}
	if req.Customer != nil {
		if err := f.UpdateCustomer(*req.Customer); err != nil {
			abortWithError(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, newCheckoutView(s, f))
}

// POST /v1/checkout/submit honours X-Idempotency-Key.
func (h *CheckoutHandler) Submit(c *gin.Context) {
	s := currentSession(c)
	f, err := s.Checkout()
	if err != nil {
		abortWithError(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	err = h.submit.Execute(ctx, usecase.SubmitCheckoutInput{
		Scope:          s.ID,
		IdempotencyKey: c.GetHeader("X-Idempotency-Key"),
		Target:         s,
	})
	if err != nil {
		observ.CheckoutSubmission(submissionOutcome(err))
		if errors.Is(err, checkout.ErrInvalidForm) {
			abortWithError(c, err, "missing", f.Form().Missing())
			return
		}
		abortWithError(c, err)
		return
	}

	observ.CheckoutSubmission(observ.OutcomeAccepted)
	logging.From(c).Info("checkout_submitted")
	c.JSON(http.StatusAccepted, newCheckoutView(s, f))
}

func submissionOutcome(err error) string {
	if errors.Is(err, usecase.ErrDuplicate) {
		return observ.OutcomeDuplicate
	}
	return observ.OutcomeRefused
}
