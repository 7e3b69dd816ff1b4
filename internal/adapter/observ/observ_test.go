package observ

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(cartMutations.WithLabelValues("add"))
	CartMutation("add")
	CartMutation("add")
	assert.Equal(t, before+2, testutil.ToFloat64(cartMutations.WithLabelValues("add")))

	before = testutil.ToFloat64(checkoutSubmissions.WithLabelValues(OutcomeDuplicate))
	CheckoutSubmission(OutcomeDuplicate)
	assert.Equal(t, before+1, testutil.ToFloat64(checkoutSubmissions.WithLabelValues(OutcomeDuplicate)))

	beforeRevenue := testutil.ToFloat64(orderRevenue)
	OrderCompleted("delivery", 33800)
	assert.Equal(t, beforeRevenue+33800, testutil.ToFloat64(orderRevenue))
}

func TestRegisterSessionGauge_Idempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		RegisterSessionGauge(func() int { return 3 })
		RegisterSessionGauge(func() int { return 4 })
	})
}

func TestTracing_ExportsRequestSpans(t *testing.T) {
	var out bytes.Buffer
	shutdown, err := InitTracing("storefront-test", "test", &out)
	require.NoError(t, err)

	h := Traced(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}), "storefront-test", "/healthz")

	for _, path := range []string{"/v1/cart", "/healthz"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	}

	require.NoError(t, shutdown(context.Background()))
	assert.Contains(t, out.String(), "HTTP GET /v1/cart")
	assert.Contains(t, out.String(), "storefront-test")
	assert.NotContains(t, out.String(), "HTTP GET /healthz")
}
