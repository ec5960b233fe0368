package routes

import (
	"github.com/go-chi/chi/v5"

	"Flock/internal/api/handlers/feed"
	"Flock/internal/api/handlers/post"
	"Flock/internal/api/handlers/social"
	"Flock/internal/api/handlers/user"
	"Flock/internal/api/middleware"
	feedCore "Flock/internal/core/feed"
	"Flock/internal/core/graph"
	"Flock/internal/core/posts"
	"Flock/internal/core/users"
)

// RegisterUserRoutes registers registration, profile, search and follow endpoints
func RegisterUserRoutes(r chi.Router, userService users.UserService, graphService graph.Service,
	authMiddleware *middleware.JWTAuthMiddleware, tokenSecret string,
) {
	userHandler := user.NewHandler(userService, func(userID string) (string, error) {
		return middleware.IssueAccessToken(tokenSecret, userID, middleware.DefaultTokenTTL)
	})
	socialHandler := social.NewHandler(graphService)

	// Registration is the only anonymous write. 5 per minute per IP.
	registerLimiter := middleware.NewRateLimiter(5.0/60, 5)
	r.With(registerLimiter.Middleware).Post("/users", userHandler.HandleRegister)
	r.Get("/users/find", userHandler.HandleFind)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.RequireAuth)

		r.Put("/users/update", userHandler.HandleUpdate)
		r.Get("/users/suggested", userHandler.HandleSuggested)
		r.Get("/users/suggested/{max}", userHandler.HandleSuggested)
	})

	// {user} is a username for the profile and a user id for the toggle
	r.Route("/users/{user}", func(r chi.Router) {
		r.With(authMiddleware.OptionalAuth).Get("/", userHandler.HandleGetProfile)
		r.With(authMiddleware.RequireAuth).Put("/toggle-follow", socialHandler.HandleToggleFollow)
	})
}

// RegisterPostRoutes registers post, comment, like and feed endpoints
func RegisterPostRoutes(r chi.Router, postService posts.Service, graphService graph.Service,
	feedService feedCore.Service, authMiddleware *middleware.JWTAuthMiddleware,
) {
	postHandler := post.NewHandler(postService)
	socialHandler := social.NewHandler(graphService)
	feedHandler := feed.NewHandler(feedService)

	r.Get("/posts", postHandler.HandleList)
	r.Get("/posts/{id}", postHandler.HandleGet)
	r.Get("/posts/user/{id}", postHandler.HandleListByUser)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.RequireAuth)

		r.Post("/posts", postHandler.HandleCreate)
		r.Delete("/posts/{id}", postHandler.HandleDelete)
		r.Post("/posts/{id}/toggle-like", socialHandler.HandleToggleLike)
		r.Post("/posts/{id}/comments", postHandler.HandleComment)
		r.Get("/posts/feed/{offset}", feedHandler.HandleFeed)
	})
}
