package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/wellness360/app/routes"
	"github.com/shashiranjanraj/wellness360/config"
	"github.com/shashiranjanraj/wellness360/pkg/cache"
	"github.com/shashiranjanraj/wellness360/pkg/database"
	"github.com/shashiranjanraj/wellness360/pkg/metrics"
	"github.com/shashiranjanraj/wellness360/pkg/middleware"
	"github.com/shashiranjanraj/wellness360/pkg/reqid"
	"github.com/shashiranjanraj/wellness360/pkg/response"
	"github.com/shashiranjanraj/wellness360/pkg/router"
	"github.com/shashiranjanraj/wellness360/pkg/session"
	"github.com/shashiranjanraj/wellness360/pkg/storage"
	"github.com/shashiranjanraj/wellness360/pkg/tracing"
	"github.com/shashiranjanraj/wellness360/pkg/ws"
)

// NewRouter builds the router with the global middleware stack and every
// route. hub may be nil, in which case /ws/community is not mounted.
func NewRouter(db *gorm.DB, app *routes.App, hub *ws.Hub) *router.Router {
	opts := session.DefaultOptions()
	r := router.New()

	// Outermost first. The span and request id exist before anything logs.
	r.Use(metrics.Middleware())
	r.Use(middleware.Recovery)
	r.Use(tracing.Middleware())
	r.Use(reqid.Middleware())
	r.Use(middleware.Logger)
	r.Use(middleware.CORS(config.CORSAllowedOrigins()))
	r.Use(middleware.RateLimitWith(rateCounter(), config.RateLimitPerMinute(), time.Minute))
	r.Use(session.Middleware(opts))
	r.Use(middleware.Identity)
	r.Use(middleware.CSRF(opts))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Get("/health", "health", health(db))
	r.Get("/metrics", "metrics", metrics.Handler())
	r.Get("/uploads/*", "uploads", serveUploads)
	if hub != nil {
		r.Get("/ws/community", "ws.community", hub.ServeHTTP)
	}

	routes.RegisterAPI(r, app)
	routes.RegisterWeb(r, app)
	return r
}

func health(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		out := map[string]string{"status": "ok", "database": "ok", "cache": cache.Driver()}
		code := http.StatusOK
		if err := database.Ping(ctx, db); err != nil {
			out["status"], out["database"] = "degraded", "down"
			code = http.StatusServiceUnavailable
		}
		if err := cache.Ping(ctx); err != nil {
			out["cache"] = "down"
		}
		response.JSON(w, code, out)
	}
}

// serveUploads streams files from the local uploads root. Paths that
// resolve outside it are reported as missing.
func serveUploads(w http.ResponseWriter, r *http.Request) {
	local, ok := storage.LocalDisk()
	if !ok {
		response.Error(w, http.StatusNotFound, "Not found")
		return
	}
	key := strings.TrimPrefix(r.URL.Path, "/uploads/")
	p, err := local.Resolve(key)
	if err != nil {
		if !errors.Is(err, storage.ErrOutsideRoot) {
			response.Internal(w, r, err)
			return
		}
		response.Error(w, http.StatusNotFound, "Not found")
		return
	}
	w.Header().Set("X-Content-Type-Options", "nosniff")
	http.ServeFile(w, r, p)
}

// rateCounter shares limits across instances when Redis is connected.
func rateCounter() middleware.HitCounter {
	if cache.RDB != nil {
		return middleware.NewRedisCounter(cache.RDB)
	}
	return middleware.NewMemoryCounter()
}
