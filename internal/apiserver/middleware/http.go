package middleware

import (
	"context"
	"net/http"

	"github.com/amoylab/choirhub/internal/common/config"
	"github.com/amoylab/choirhub/internal/common/errorx"
	"github.com/gin-gonic/gin"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
)

type ginContextKey struct{}

// WrapHTTP runs a net/http middleware inside the gin chain. The gin chain
// continues only if the wrapped middleware calls its next handler.
func WrapHTTP(mw func(http.Handler) http.Handler) gin.HandlerFunc {
	return func(c *gin.Context) {
		called := false
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
			c.Request = r
			c.Next()
		})
		req := c.Request.WithContext(context.WithValue(c.Request.Context(), ginContextKey{}, c))
		mw(next).ServeHTTP(c.Writer, req)
		if !called {
			c.Abort()
		}
	}
}

func ginContext(r *http.Request) *gin.Context {
	c, _ := r.Context().Value(ginContextKey{}).(*gin.Context)
	return c
}

// CORS allows the configured origins. An empty list allows any origin
// without credentials.
func CORS(cfg *config.ServerConfig) gin.HandlerFunc {
	origins := cfg.AllowedOrigins()
	opts := cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Range", "X-Lang", "X-Trace-Id"},
		ExposedHeaders:   []string{"Content-Length", "Content-Range", "Accept-Ranges", "X-Trace-Id"},
		AllowCredentials: len(origins) > 0,
		MaxAge:           300,
	}
	if len(origins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	return WrapHTTP(cors.Handler(opts))
}

// RateLimit limits requests per client IP with a structured 429 response
func RateLimit(requests int, cfg config.RateLimitConfig, errs *errorx.ErrorHandler) gin.HandlerFunc {
	if !cfg.Enabled || requests <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	return WrapHTTP(httprate.Limit(requests, cfg.Window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			if c := ginContext(r); c != nil {
				errs.HandleError(c, errorx.ErrRateLimitExceeded)
				return
			}
			http.Error(w, errorx.ErrRateLimitExceeded.Message, http.StatusTooManyRequests)
		}),
	))
}
