package ratelimit

import (
	"fmt"
	"math"
	"net"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"
)

type Options struct {
	// TrustHeaders uses the X-Forwarded-For and X-Real-Ip headers to identify clients
	TrustHeaders bool
	Interval     time.Duration
	MaxBurst     int
	CacheSize    int
	CacheTTL     time.Duration
	// Methods restricts the limiter to the given request methods, all methods when empty
	Methods []string
}

// Middleware limits the rate of requests each client can issue, ie the
// submission of new jobs.
func Middleware(opts Options) func(http.Handler) http.Handler {
	clients := expirable.NewLRU[string, *rate.Limiter](opts.CacheSize, nil, opts.CacheTTL)

	getLimiter := func(remoteAddr string) *rate.Limiter {
		limiter, exists := clients.Get(remoteAddr)
		if !exists {
			limiter = rate.NewLimiter(rate.Every(opts.Interval), opts.MaxBurst)
			clients.Add(remoteAddr, limiter)
		}

		return limiter
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(opts.Methods) > 0 && !slices.Contains(opts.Methods, r.Method) {
				next.ServeHTTP(w, r)
				return
			}

			limiter := getLimiter(remoteAddr(r, opts.TrustHeaders))

			reservation := limiter.Reserve()
			if !reservation.OK() {
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			}

			if delay := reservation.Delay(); delay > 0 {
				reservation.Cancel()

				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(delay.Seconds()))))
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(opts.MaxBurst))
			w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%.0f", limiter.Tokens()))

			next.ServeHTTP(w, r)
		})
	}
}

func remoteAddr(r *http.Request, trustHeaders bool) string {
	if trustHeaders {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			ip, _, _ := strings.Cut(xff, ",")
			return strings.TrimSpace(ip)
		}

		if xri := r.Header.Get("X-Real-Ip"); xri != "" {
			return xri
		}
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return ip
}
