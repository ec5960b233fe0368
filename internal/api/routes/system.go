package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"Flock/internal/api/middleware"
	"Flock/internal/metrics"
	"Flock/internal/realtime"
)

// RegisterSystemRoutes registers health, metrics and the websocket endpoint
func RegisterSystemRoutes(r chi.Router, ws *realtime.Server, authMiddleware *middleware.JWTAuthMiddleware) {
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", metrics.Handler())
	r.With(authMiddleware.RequireAuth).Get("/ws", ws.ServeHTTP)
}

// CORS creates the CORS middleware for browser clients
func CORS(allowedOrigins []string) func(next http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{
			"Accept",
			"Authorization",
			"Content-Type",
		},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	})
}
