package middleware

import "net/http"

const (
	corsAllowMethods = "GET, POST, PUT, DELETE, OPTIONS"
	corsAllowHeaders = "Content-Type, Authorization"
	corsMaxAge       = "600"
)

// CORSMiddleware answers preflight requests itself. With no origins or "*"
// every origin is allowed, as the booking frontend expects.
type CORSMiddleware struct {
	allowAll bool
	origins  map[string]bool
}

func NewCORSMiddleware(allowedOrigins []string) *CORSMiddleware {
	m := &CORSMiddleware{origins: make(map[string]bool, len(allowedOrigins))}
	for _, origin := range allowedOrigins {
		if origin == "*" {
			m.allowAll = true
		}
		m.origins[origin] = true
	}
	if len(allowedOrigins) == 0 {
		m.allowAll = true
	}
	return m
}

func (m *CORSMiddleware) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		origin := req.Header.Get("Origin")
		switch {
		case m.allowAll:
			w.Header().Set("Access-Control-Allow-Origin", "*")
		case origin != "" && m.origins[origin]:
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
		}
		w.Header().Set("Access-Control-Allow-Methods", corsAllowMethods)
		w.Header().Set("Access-Control-Allow-Headers", corsAllowHeaders)

		if req.Method == http.MethodOptions && req.Header.Get("Access-Control-Request-Method") != "" {
			w.Header().Set("Access-Control-Max-Age", corsMaxAge)
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, req)
	})
}
