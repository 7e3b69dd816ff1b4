package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aq2208/gorder-storefront/configs"
	"github.com/aq2208/gorder-storefront/internal/adapter/cache"
	"github.com/aq2208/gorder-storefront/internal/adapter/http/middleware"
	"github.com/aq2208/gorder-storefront/internal/adapter/repo"
	"github.com/aq2208/gorder-storefront/internal/catalog"
	"github.com/aq2208/gorder-storefront/internal/checkout"
	domain "github.com/aq2208/gorder-storefront/internal/entity"
	"github.com/aq2208/gorder-storefront/internal/logging"
	"github.com/aq2208/gorder-storefront/internal/security"
	"github.com/aq2208/gorder-storefront/internal/session"
	"github.com/aq2208/gorder-storefront/internal/usecase"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type testServer struct {
	t         *testing.T
	router    *gin.Engine
	orders    *repo.MemoryOrderRepo
	completed chan domain.Order
}

func testConfig() configs.Config {
	var cfg configs.Config
	cfg.Security.JWTSecret = "test-secret"
	cfg.Security.Issuer = "storefront"
	cfg.Security.Audience = "storefront-staff"
	cfg.Security.TTL = time.Minute
	return cfg
}

// newTestServer wires the in-memory stack; wrap, when given, decorates the
// order submitter.
func newTestServer(t *testing.T, wrap ...func(checkout.Submitter) checkout.Submitter) *testServer {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)

	orders := repo.NewMemoryOrderRepo()
	place := usecase.NewPlaceOrder(orders, nil, nil).WithLogger(logging.Discard())
	advance := usecase.NewAdvanceStatus(orders, nil).WithLogger(logging.Discard())
	completed := make(chan domain.Order, 4)
	var submitter checkout.Submitter = place
	for _, w := range wrap {
		submitter = w(submitter)
	}

	sessions := session.NewManager(
		session.WithLogger(logging.Discard()),
		session.WithFlowFactory(func(s *session.Session) *checkout.Flow {
			return checkout.New(s.Cart(),
				checkout.WithDelays(200*time.Millisecond, 50*time.Millisecond),
				checkout.WithSubmitter(submitter),
				checkout.WithLogger(logging.Discard()),
				checkout.OnComplete(func(o domain.Order) { completed <- o }),
			)
		}),
	)
	t.Cleanup(sessions.Shutdown)

	cfg := testConfig()
	router := NewRouter(Handlers{
		Catalog:  NewCatalogHandler(cat),
		Cart:     NewCartHandler(sessions, cat),
		Checkout: NewCheckoutHandler(usecase.NewSubmitCheckout(cache.NewMemoryIdempotencyStore(time.Hour))),
		Orders:   NewOrderHandler(place, advance),
		Tokens:   NewTokenHandler(cfg, security.Clients),
	}, sessions, middleware.NewAuthz(cfg), logging.Discard())

	return &testServer{t: t, router: router, orders: orders, completed: completed}
}

func (s *testServer) do(method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	s.t.Helper()
	var rdr *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(s.t, err)
		rdr = bytes.NewReader(b)
	} else {
		rdr = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func (s *testServer) newSession() string {
	rec := s.do(http.MethodPost, "/v1/sessions", nil)
	require.Equal(s.t, http.StatusCreated, rec.Code)
	id := decode(s.t, rec)["session_id"].(string)
	require.NotEmpty(s.t, id)
	return id
}

func (s *testServer) token(clientID, secret string) string {
	form := url.Values{"client_id": {clientID}, "client_secret": {secret}}
	req := httptest.NewRequest(http.MethodPost, "/v1/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	require.Equal(s.t, http.StatusOK, rec.Code, rec.Body.String())
	return decode(s.t, rec)["access_token"].(string)
}

func TestCatalogRoutes(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/v1/catalog/products?category=bebidas", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 4, decode(t, rec)["count"])

	rec = s.do(http.MethodGet, "/v1/catalog/products?q=GUACAMOLE", nil)
	assert.EqualValues(t, 2, decode(t, rec)["count"])

	rec = s.do(http.MethodGet, "/v1/catalog/products", nil)
	assert.EqualValues(t, 13, decode(t, rec)["count"])

	rec = s.do(http.MethodGet, "/v1/catalog/products?popular=true", nil)
	assert.Len(t, decode(t, rec)["products"], 3)

	rec = s.do(http.MethodGet, "/v1/catalog/products/la-mazorca", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 16900, decode(t, rec)["price"])

	rec = s.do(http.MethodGet, "/v1/catalog/products/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "product_not_found", decode(t, rec)["error"])

	rec = s.do(http.MethodGet, "/v1/catalog/categories", nil)
	assert.Len(t, decode(t, rec)["categories"], 4)
}

func TestCartRoutes(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/v1/cart", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = s.do(http.MethodGet, "/v1/cart", nil, SessionHeader, "unknown")
	assert.Equal(t, "session_not_found", decode(t, rec)["error"])

	sid := s.newSession()
	hdr := []string{SessionHeader, sid}

	for i := 0; i < 2; i++ {
		rec = s.do(http.MethodPost, "/v1/cart/items", gin.H{"product_id": "la-mazorca"}, hdr...)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec = s.do(http.MethodPost, "/v1/cart/items", gin.H{"product_id": "limonada-coco"}, hdr...)
	cart := decode(t, rec)
	assert.EqualValues(t, 3, cart["total_items"])
	assert.Len(t, cart["items"], 2)

	rec = s.do(http.MethodPost, "/v1/cart/items", gin.H{"product_id": "ghost"}, hdr...)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = s.do(http.MethodPost, "/v1/cart/items", gin.H{}, hdr...)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPut, "/v1/cart/items/la-mazorca/instructions", gin.H{"special_instructions": "sin cebolla"}, hdr...)
	require.Equal(t, http.StatusOK, rec.Code)
	first := decode(t, rec)["items"].([]any)[0].(map[string]any)
	assert.Equal(t, "sin cebolla", first["special_instructions"])
	assert.EqualValues(t, 33800, first["subtotal"])
	assert.Equal(t, "$ 33.800", first["subtotal_formatted"])

	rec = s.do(http.MethodPut, "/v1/cart/items/limonada-coco", gin.H{"quantity": 0}, hdr...)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["items"], 1)

	rec = s.do(http.MethodPut, "/v1/cart/items/la-mazorca", gin.H{}, hdr...)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodDelete, "/v1/cart/items/la-mazorca", nil, hdr...)
	assert.EqualValues(t, 0, decode(t, rec)["total_items"])

	// sessions do not share carts
	other := s.newSession()
	s.do(http.MethodPost, "/v1/cart/items", gin.H{"product_id": "la-mazorca"}, SessionHeader, other)
	rec = s.do(http.MethodGet, "/v1/cart", nil, hdr...)
	assert.EqualValues(t, 0, decode(t, rec)["total_items"])

	rec = s.do(http.MethodDelete, "/v1/cart", nil, SessionHeader, other)
	assert.EqualValues(t, 0, decode(t, rec)["total_items"])

	rec = s.do(http.MethodDelete, "/v1/sessions", nil, hdr...)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = s.do(http.MethodGet, "/v1/cart", nil, hdr...)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCheckoutAndStaffRoutes(t *testing.T) {
	s := newTestServer(t)
	sid := s.newSession()
	hdr := []string{SessionHeader, sid}

	rec := s.do(http.MethodGet, "/v1/checkout", nil, hdr...)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	s.do(http.MethodPost, "/v1/cart/items", gin.H{"product_id": "la-mazorca"}, hdr...)
	s.do(http.MethodPost, "/v1/cart/items", gin.H{"product_id": "la-mazorca"}, hdr...)

	rec = s.do(http.MethodPost, "/v1/checkout", nil, hdr...)
	require.Equal(t, http.StatusCreated, rec.Code)
	view := decode(t, rec)
	assert.Equal(t, "idle", view["state"])
	assert.Equal(t, false, view["can_submit"])

	rec = s.do(http.MethodPost, "/v1/checkout/submit", nil, hdr...)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.ElementsMatch(t, []any{"name", "phone", "table_number"}, decode(t, rec)["missing"])

	rec = s.do(http.MethodPut, "/v1/checkout/form", gin.H{"order_type": "pickup"}, hdr...)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = s.do(http.MethodPut, "/v1/checkout/form", gin.H{
		"order_type": "domicilio",
		"customer":   gin.H{"name": "Ana", "phone": "3001234567", "address": "Calle 10 #5-20"},
	}, hdr...)
	require.Equal(t, http.StatusOK, rec.Code)
	view = decode(t, rec)
	assert.Equal(t, true, view["can_submit"])
	assert.Equal(t, "delivery", view["form"].(map[string]any)["order_type"])

	submitHdr := append([]string{"X-Idempotency-Key", "k-1"}, hdr...)
	rec = s.do(http.MethodPost, "/v1/checkout/submit", nil, submitHdr...)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	assert.Equal(t, "submitting", decode(t, rec)["state"])

	// retried request and a second submit are both refused
	rec = s.do(http.MethodPost, "/v1/checkout/submit", nil, submitHdr...)
	assert.Equal(t, "duplicate_request", decode(t, rec)["error"])
	rec = s.do(http.MethodPost, "/v1/checkout/submit", nil, hdr...)
	assert.Equal(t, "checkout_busy", decode(t, rec)["error"])

	// cart and checkout are locked while submitting
	rec = s.do(http.MethodPost, "/v1/cart/items", gin.H{"product_id": "limonada-coco"}, hdr...)
	assert.Equal(t, http.StatusConflict, rec.Code)
	rec = s.do(http.MethodDelete, "/v1/checkout", nil, hdr...)
	assert.Equal(t, http.StatusConflict, rec.Code)

	var order domain.Order
	select {
	case order = <-s.completed:
	case <-time.After(2 * time.Second):
		t.Fatal("checkout did not complete")
	}
	assert.EqualValues(t, 33800, order.Total)
	assert.Equal(t, "30-45 minutes", order.EstimatedTime)

	require.Eventually(t, func() bool {
		v := decode(t, s.do(http.MethodGet, "/v1/checkout", nil, hdr...))
		return v["state"] == "idle" && v["order"] != nil
	}, 2*time.Second, 5*time.Millisecond)

	rec = s.do(http.MethodGet, "/v1/cart", nil, hdr...)
	assert.EqualValues(t, 0, decode(t, rec)["total_items"])
	assert.Equal(t, 1, s.orders.Len())

	// staff endpoints
	path := "/v1/orders/" + order.ID
	rec = s.do(http.MethodGet, path, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	desk := s.token("front-desk", "front-desk-secret")
	rec = s.do(http.MethodGet, path, nil, "Authorization", "Bearer "+desk)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode(t, rec)
	assert.Equal(t, "pending", got["status"])
	assert.Equal(t, "$ 33.800", got["total_formatted"])

	rec = s.do(http.MethodGet, "/v1/orders/ORD-missing", nil, "Authorization", "Bearer "+desk)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodPatch, path+"/status", gin.H{"status": "preparing"}, "Authorization", "Bearer "+desk)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	kitchen := s.token("kitchen-display", "kitchen-secret")
	rec = s.do(http.MethodPatch, path+"/status", gin.H{"status": "preparing"}, "Authorization", "Bearer "+kitchen)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(http.MethodPatch, path+"/status", gin.H{"status": "confirmed"}, "Authorization", "Bearer "+kitchen)
	assert.Equal(t, http.StatusConflict, rec.Code)
	rec = s.do(http.MethodPatch, path+"/status", gin.H{"status": "burnt"}, "Authorization", "Bearer "+kitchen)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	// a finished checkout can be replaced with a fresh one
	rec = s.do(http.MethodPost, "/v1/checkout", nil, hdr...)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Nil(t, decode(t, rec)["order"])
	rec = s.do(http.MethodDelete, "/v1/checkout", nil, hdr...)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestCheckoutSubmit_EmptyCart(t *testing.T) {
	s := newTestServer(t)
	hdr := []string{SessionHeader, s.newSession()}

	s.do(http.MethodPost, "/v1/checkout", nil, hdr...)
	s.do(http.MethodPut, "/v1/checkout/form", gin.H{
		"customer": gin.H{"name": "Luis", "phone": "3000000000", "table_number": "4"},
	}, hdr...)

	rec := s.do(http.MethodPost, "/v1/checkout/submit", nil, "X-Idempotency-Key", "k", SessionHeader, hdr[1])
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "cart_empty", decode(t, rec)["error"])

	// the refused key is released
	s.do(http.MethodPost, "/v1/cart/items", gin.H{"product_id": "la-mazorca"}, hdr...)
	rec = s.do(http.MethodPost, "/v1/checkout/submit", nil, "X-Idempotency-Key", "k", SessionHeader, hdr[1])
	assert.Equal(t, http.StatusAccepted, rec.Code)

	select {
	case o := <-s.completed:
		assert.Equal(t, domain.OrderTypeDineIn, o.Type)
	case <-time.After(2 * time.Second):
		t.Fatal("checkout did not complete")
	}
	_, err := s.orders.GetByID(context.Background(), "nope")
	assert.ErrorIs(t, err, usecase.ErrOrderNotFound)
}

func TestCheckoutSubmit_RejectedSubmissionCanRetrySameKey(t *testing.T) {
	var calls atomic.Int32
	s := newTestServer(t, func(next checkout.Submitter) checkout.Submitter {
		return checkout.SubmitterFunc(func(ctx context.Context, o domain.Order) error {
			if calls.Add(1) == 1 {
				return errors.New("backend unreachable")
			}
			return next.Submit(ctx, o)
		})
	})
	hdr := []string{SessionHeader, s.newSession()}
	submitHdr := append([]string{"X-Idempotency-Key", "retry-me"}, hdr...)

	s.do(http.MethodPost, "/v1/cart/items", gin.H{"product_id": "la-mazorca"}, hdr...)
	s.do(http.MethodPost, "/v1/checkout", nil, hdr...)
	s.do(http.MethodPut, "/v1/checkout/form", gin.H{
		"customer": gin.H{"name": "Luis", "phone": "3000000000", "table_number": "4"},
	}, hdr...)

	rec := s.do(http.MethodPost, "/v1/checkout/submit", nil, submitHdr...)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	require.Eventually(t, func() bool {
		v := decode(t, s.do(http.MethodGet, "/v1/checkout", nil, hdr...))
		return v["state"] == "idle" && v["error"] != nil
	}, 2*time.Second, 5*time.Millisecond)

	rec = s.do(http.MethodPost, "/v1/checkout/submit", nil, submitHdr...)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	select {
	case o := <-s.completed:
		assert.EqualValues(t, 16900, o.Total)
	case <-time.After(2 * time.Second):
		t.Fatal("checkout did not complete")
	}
	assert.EqualValues(t, 2, calls.Load())
	assert.Equal(t, 1, s.orders.Len())
}

func TestCheckoutForm_CustomerReplacedAsUnit(t *testing.T) {
	s := newTestServer(t)
	hdr := []string{SessionHeader, s.newSession()}
	s.do(http.MethodPost, "/v1/checkout", nil, hdr...)

	s.do(http.MethodPut, "/v1/checkout/form", gin.H{
		"customer": gin.H{"name": "Luis", "phone": "3000000000", "table_number": "4"},
	}, hdr...)
	rec := s.do(http.MethodPut, "/v1/checkout/form", gin.H{"order_type": "delivery"}, hdr...)
	require.Equal(t, http.StatusOK, rec.Code)
	customer := decode(t, rec)["form"].(map[string]any)["customer"].(map[string]any)
	assert.Equal(t, "Luis", customer["name"])

	rec = s.do(http.MethodPut, "/v1/checkout/form", gin.H{"customer": gin.H{"name": "Ana"}}, hdr...)
	require.Equal(t, http.StatusOK, rec.Code)
	view := decode(t, rec)
	customer = view["form"].(map[string]any)["customer"].(map[string]any)
	assert.Equal(t, "Ana", customer["name"])
	assert.Empty(t, customer["phone"])
	assert.ElementsMatch(t, []any{"phone", "address"}, view["missing"])
}

func TestTokenRoute(t *testing.T) {
	s := newTestServer(t)

	form := url.Values{"client_id": {"kitchen-display"}, "client_secret": {"kitchen-secret"}, "scope": {"orders.read"}}
	req := httptest.NewRequest(http.MethodPost, "/v1/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "orders.read", body["scope"])
	assert.EqualValues(t, 60, body["expires_in"])

	// narrowed token cannot write
	tok := body["access_token"].(string)
	rec = s.do(http.MethodPatch, "/v1/orders/x/status", gin.H{"status": "ready"}, "Authorization", "Bearer "+tok)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	form.Set("client_secret", "wrong")
	req = httptest.NewRequest(http.MethodPost, "/v1/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)
	s.newSession()

	rec := s.do(http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode(t, rec)["sessions"])

	rec = s.do(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "storefront_http_requests_total")
}
