package middleware

import (
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/go-chi/chi/v5"
)

// MetricsCollector counts requests and errors, overall and per route pattern.
type MetricsCollector struct {
	requestCount *atomic.Int64
	errorCount   *atomic.Int64

	mu     sync.Mutex
	routes map[string]int64
}

func NewMetricsCollector(requestCount, errorCount *atomic.Int64) *MetricsCollector {
	return &MetricsCollector{
		requestCount: requestCount,
		errorCount:   errorCount,
		routes:       make(map[string]int64),
	}
}

// Middleware returns middleware that counts requests and errors.
func (mc *MetricsCollector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mc.requestCount.Add(1)

		rw := newResponseWriter(w)
		next.ServeHTTP(rw, r)

		// 4xx and 5xx
		if rw.statusCode >= 400 {
			mc.errorCount.Add(1)
		}

		// The pattern is only known once chi has routed the request.
		pattern := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			pattern = r.Method + " " + rctx.RoutePattern()
		}
		mc.mu.Lock()
		mc.routes[pattern]++
		mc.mu.Unlock()
	})
}

// RouteCounts returns a snapshot of request counts keyed by "METHOD pattern".
func (mc *MetricsCollector) RouteCounts() map[string]int64 {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	out := make(map[string]int64, len(mc.routes))
	for k, v := range mc.routes {
		out[k] = v
	}
	return out
}
