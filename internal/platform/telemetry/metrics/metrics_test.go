package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/api/vesting/milestones/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/api/vesting/milestones/{id}", "418"))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/vesting/milestones/7", nil))
	require.Equal(t, http.StatusTeapot, rec.Code)

	after := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/api/vesting/milestones/{id}", "418"))
	assert.Equal(t, before+1, after)
	assert.Equal(t, float64(0), testutil.ToFloat64(HTTPRequestsInFlight))
}

func TestRecordOperation(t *testing.T) {
	before := testutil.ToFloat64(RejectionsTotal.WithLabelValues("RAISE_OUT_OF_WINDOW"))

	RecordOperation("contribute", "rejected", "RAISE_OUT_OF_WINDOW", time.Millisecond)
	RecordOperation("contribute", "accepted", "", time.Millisecond)

	assert.Equal(t, before+1, testutil.ToFloat64(RejectionsTotal.WithLabelValues("RAISE_OUT_OF_WINDOW")))
}

func TestSetBalances(t *testing.T) {
	SetBalances(Snapshot{TotalRaised: 300, Contributors: 3, CapitalReleased: 50, CapitalRemaining: 100})

	assert.Equal(t, float64(300), testutil.ToFloat64(RaiseTotalRaised))
	assert.Equal(t, float64(3), testutil.ToFloat64(RaiseContributors))
	assert.Equal(t, float64(50), testutil.ToFloat64(VestingCapitalReleased))
	assert.Equal(t, float64(100), testutil.ToFloat64(VestingCapitalRemaining))
}
