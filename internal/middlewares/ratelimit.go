package middlewares

import (
	"context"
	"encoding/json"
	"net"
	"net/http"

	"github.com/mpetrashov/user-geo-service/internal/logger"
	"github.com/mpetrashov/user-geo-service/internal/models"
)

// RateLimiter counts requests per client within the current window.
type RateLimiter interface {
	Hit(ctx context.Context, clientID string) (int64, error)
}

// RateLimitMiddleware rejects requests beyond limit per window per client
// address with 429. Counter failures fail open: the request proceeds so the
// API does not depend on the counter backend being up.
func RateLimitMiddleware(limiter RateLimiter, limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				ip = r.RemoteAddr
			}

			count, err := limiter.Hit(r.Context(), ip)
			if err != nil {
				logger.Log.Errorw("rate limit check failed", "client", ip, "error", err)
				next.ServeHTTP(w, r)
				return
			}

			if count > limit {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(models.ErrorResponse{
					Error: models.ErrorBody{
						Message: "Too many requests",
						Status:  http.StatusTooManyRequests,
					},
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
