package middleware

import (
	"net/http"
	"time"

	h "eventhub/internal/delivery/http/helpers"

	"github.com/go-chi/httprate"
)

// RateLimit caps each client IP, as resolved by ClientAddress, at requests per window.
// Rejected requests get a JSON 429. A non-positive limit disables the limiter.
func RateLimit(requests int, window time.Duration) func(http.Handler) http.Handler {
	if requests <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(requests, window,
		httprate.WithKeyFuncs(keyByClientIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			h.WriteJSONError(w, http.StatusTooManyRequests, h.ErrCodeTooManyRequests, "rate limit exceeded, retry later")
		}),
	)
}

func keyByClientIP(r *http.Request) (string, error) {
	return ClientIP(r), nil
}
