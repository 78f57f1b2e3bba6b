package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"

	"github.com/goswami-rohit/salesman-cms-sub001/internal/pkg/response"
)

// KeyFunc derives a rate-limit bucket from a request. An empty key falls
// back to the client IP.
type KeyFunc func(r *http.Request) string

// MutationLimit caps state-changing requests per key per minute. Reads pass
// through untouched.
func MutationLimit(perMinute int, key KeyFunc) func(http.Handler) http.Handler {
	limiter := httprate.Limit(
		perMinute,
		time.Minute,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			if key != nil {
				if k := key(r); k != "" {
					return "actor:" + k, nil
				}
			}
			ip, err := httprate.KeyByIP(r)
			return "ip:" + ip, err
		}),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			response.TooManyRequests(w)
		}),
	)

	return func(next http.Handler) http.Handler {
		limited := limiter(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
			default:
				limited.ServeHTTP(w, r)
			}
		})
	}
}
