package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/httprate"

	appErrors "github.com/noah-isme/lms-access-api/pkg/errors"
	"github.com/noah-isme/lms-access-api/pkg/response"
)

type ginContextKey struct{}

// RateLimit throttles requests per client IP using a sliding window counter.
// A non-positive limit disables throttling.
func RateLimit(limit int, window time.Duration) gin.HandlerFunc {
	if limit <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	limiter := httprate.Limit(limit, window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			c, ok := r.Context().Value(ginContextKey{}).(*gin.Context)
			if !ok {
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			response.Error(c, appErrors.Clone(appErrors.ErrTooManyRequests, "too many login attempts, retry later"))
		}),
	)

	return func(c *gin.Context) {
		passed := false
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			passed = true
			c.Request = r
			c.Next()
		})
		limiter(next).ServeHTTP(c.Writer, c.Request.WithContext(contextWithGin(c)))
		if !passed {
			c.Abort()
		}
	}
}

func contextWithGin(c *gin.Context) context.Context {
	return context.WithValue(c.Request.Context(), ginContextKey{}, c)
}
