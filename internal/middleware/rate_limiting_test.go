package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/2beens/gymcoach/internal/telemetry/metrics"

	"github.com/go-redis/redis_rate/v9"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
)

func TestRateLimit(t *testing.T) {
	ctrl := gomock.NewController(t)
	limiterMock := NewMockRequestRateLimiter(ctrl)
	metricsManager := metrics.NewTestManager()

	nextCalls := 0
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nextCalls++
	})
	handler := RateLimit(limiterMock, "workout", 2, metricsManager)(next)

	limit := redis_rate.PerMinute(2)
	gomock.InOrder(
		limiterMock.EXPECT().Allow(gomock.Any(), "workout", limit).Return(&redis_rate.Result{Limit: limit, Allowed: 1, Remaining: 1}, nil),
		limiterMock.EXPECT().Allow(gomock.Any(), "workout", limit).Return(&redis_rate.Result{Limit: limit, Allowed: 0, RetryAfter: 20 * time.Second}, nil),
		limiterMock.EXPECT().Allow(gomock.Any(), "workout", limit).Return(nil, errors.New("redis down")),
	)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/workout", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 1, nextCalls)

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/workout", nil))
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "20", rr.Header().Get("Retry-After"))
	assert.Equal(t, 1, nextCalls)
	assert.Equal(t, float64(1), testutil.ToFloat64(metricsManager.CounterRateLimitedRequests))

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/workout", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, 1, nextCalls)
}
