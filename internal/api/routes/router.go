package routes

import (
	"net/http"

	"github.com/zatekoja/adminconsole/internal/api/handlers"
	"github.com/zatekoja/adminconsole/internal/api/middleware"
	"github.com/zatekoja/adminconsole/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	listHandler *handlers.ListHandler
	sortHandler *handlers.SortHandler

	allowedOrigins []string
	metrics        *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	listHandler *handlers.ListHandler,
	sortHandler *handlers.SortHandler,
	allowedOrigins []string,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:            http.NewServeMux(),
		listHandler:    listHandler,
		sortHandler:    sortHandler,
		allowedOrigins: allowedOrigins,
		metrics:        metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// List endpoints
	r.mux.HandleFunc("GET /api/lists/{listID}", r.listHandler.GetList)
	r.mux.HandleFunc("POST /api/lists/{listID}/invalidate", r.listHandler.Invalidate)

	// Sort preference endpoints
	if r.sortHandler != nil {
		r.mux.HandleFunc("GET /api/lists/{listID}/sort", r.sortHandler.GetSort)
		r.mux.HandleFunc("PUT /api/lists/{listID}/sort", r.sortHandler.PutSort)
	}

	// Apply middleware in reverse order (last middleware wraps first)
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.ResponseOptimization(handler)
	handler = middleware.RequestID(handler)

	// CORS wraps everything so headers are set on every response
	handler = middleware.CORSMiddleware(r.allowedOrigins)(handler)

	return handler
}
