package middleware

import (
	"net/http"
	"time"

	"clinic-booking/pkg/metrics"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// statusRecorder captures the status code written by a handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// RequestLogger logs every request and records its latency by route template.
type RequestLogger struct {
	log     *logrus.Logger
	metrics *metrics.Metrics
}

func NewRequestLogger(log *logrus.Logger, m *metrics.Metrics) *RequestLogger {
	return &RequestLogger{log: log, metrics: m}
}

func (l *RequestLogger) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		elapsed := time.Since(start)
		route := r.URL.Path
		if current := mux.CurrentRoute(r); current != nil {
			if tmpl, err := current.GetPathTemplate(); err == nil {
				route = tmpl
			}
		}

		l.metrics.ObserveHTTPRequest(r.Method, route, rec.status, elapsed)

		entry := l.log.WithFields(logrus.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"route":       route,
			"status":      rec.status,
			"duration_ms": elapsed.Milliseconds(),
			"remote_addr": r.RemoteAddr,
		})
		if rec.status >= http.StatusInternalServerError {
			entry.Error("request failed")
			return
		}
		entry.Info("request handled")
	})
}
