package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func benchMetrics(b *testing.B) *Metrics {
	b.Helper()
	m := NewMetrics()
	reg := prometheus.NewRegistry()
	if err := m.Register(reg); err != nil {
		b.Fatalf("Register() failed: %v", err)
	}
	return m
}

// BenchmarkHTTPMetrics_ListShares compares a bare share-listing handler with
// the same handler behind the metrics middleware.
func BenchmarkHTTPMetrics_ListShares(b *testing.B) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"success":true,"data":[]}`))
	})

	b.Run("bare", func(b *testing.B) {
		req := httptest.NewRequest(http.MethodGet, "/shares", nil)
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
		}
	})

	b.Run("instrumented", func(b *testing.B) {
		wrapped := HTTPMetrics(benchMetrics(b))(handler)
		req := httptest.NewRequest(http.MethodGet, "/shares", nil)
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			rec := httptest.NewRecorder()
			wrapped.ServeHTTP(rec, req)
		}
	})
}

// BenchmarkHTTPMetrics_HealthExclusion exercises the /health short-circuit,
// which liveness checks hit far more often than any API route.
func BenchmarkHTTPMetrics_HealthExclusion(b *testing.B) {
	wrapped := HTTPMetrics(benchMetrics(b))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(http.MethodGet, "/health", nil)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rec := httptest.NewRecorder()
		wrapped.ServeHTTP(rec, req)
	}
}

// BenchmarkHTTPMetrics_PathNormalization drives the normalizer with the
// ID-bearing routes, where every request carries a distinct raw path.
func BenchmarkHTTPMetrics_PathNormalization(b *testing.B) {
	wrapped := HTTPMetrics(benchMetrics(b))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		path := fmt.Sprintf("/groups/g%d/analytics/vibes", i%64)
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		wrapped.ServeHTTP(rec, req)
	}
}
