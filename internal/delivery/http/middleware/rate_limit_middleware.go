package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"clinic-booking/pkg/response"

	"golang.org/x/time/rate"
)

const limiterIdleTimeout = 10 * time.Minute

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter throttles requests per client IP with a token bucket. The
// client IP is the peer address; X-Forwarded-For is only read when the peer
// is a trusted proxy.
type RateLimiter struct {
	mu        sync.Mutex
	clients   map[string]*clientLimiter
	rps       rate.Limit
	burst     int
	trusted   []*net.IPNet
	lastSweep time.Time
	now       func() time.Time
}

// NewRateLimiter accepts trusted proxies as single IPs or CIDR ranges.
func NewRateLimiter(rps float64, burst int, trustedProxies []string) (*RateLimiter, error) {
	if burst < 1 {
		burst = 1
	}

	trusted, err := parseTrustedProxies(trustedProxies)
	if err != nil {
		return nil, err
	}

	return &RateLimiter{
		clients: make(map[string]*clientLimiter),
		rps:     rate.Limit(rps),
		burst:   burst,
		trusted: trusted,
		now:     time.Now,
	}, nil
}

func parseTrustedProxies(values []string) ([]*net.IPNet, error) {
	var nets []*net.IPNet
	for _, value := range values {
		if !strings.Contains(value, "/") {
			ip := net.ParseIP(value)
			if ip == nil {
				return nil, fmt.Errorf("invalid trusted proxy %q", value)
			}
			bits := 8 * net.IPv6len
			if ip4 := ip.To4(); ip4 != nil {
				ip, bits = ip4, 8*net.IPv4len
			}
			nets = append(nets, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
			continue
		}
		_, ipNet, err := net.ParseCIDR(value)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy %q: %w", value, err)
		}
		nets = append(nets, ipNet)
	}
	return nets, nil
}

func (l *RateLimiter) Allow(key string) bool {
	ok, _ := l.reserve(key)
	return ok
}

// reserve takes a token for key, or reports how long until one is available.
func (l *RateLimiter) reserve(key string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) > limiterIdleTimeout {
		l.sweep(now)
	}

	c, ok := l.clients[key]
	if !ok {
		c = &clientLimiter{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.clients[key] = c
	}
	c.lastSeen = now

	r := c.limiter.ReserveN(now, 1)
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// sweep drops idle clients. Callers hold mu.
func (l *RateLimiter) sweep(now time.Time) {
	for k, c := range l.clients {
		if now.Sub(c.lastSeen) > limiterIdleTimeout {
			delete(l.clients, k)
		}
	}
	l.lastSweep = now
}

func (l *RateLimiter) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ok, retryAfter := l.reserve(l.clientIP(r)); !ok {
			response.TooManyRequests(w, "Too many login attempts, please try again later", retryAfter)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP walks X-Forwarded-For from the right, past trusted proxies, and
// returns the first address a trusted hop vouched for.
func (l *RateLimiter) clientIP(r *http.Request) string {
	peer := remoteHost(r)
	if !l.isTrusted(peer) {
		return peer
	}

	hops := strings.Split(r.Header.Get("X-Forwarded-For"), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		if hop == "" {
			continue
		}
		if net.ParseIP(hop) == nil {
			break
		}
		if !l.isTrusted(hop) {
			return hop
		}
		peer = hop
	}
	return peer
}

func (l *RateLimiter) isTrusted(host string) bool {
	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}
	for _, n := range l.trusted {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
