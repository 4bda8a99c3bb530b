/**
 * @description
 * This file sets up the HTTP router for the user-service using the go-chi/chi
 * router. It defines the API routes, applies middleware for logging, CORS, and
 * authentication, and maps the routes to their corresponding handler functions.
 */
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/transfa/user-service/internal/app"
	"github.com/transfa/user-service/internal/config"
)

// NewRouter creates and configures a new HTTP router.
func NewRouter(cfg *config.Config, service *app.UserService) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("User service is healthy"))
	})

	userHandler := NewUserHandler(service)

	r.Post("/signup", userHandler.Signup)
	r.Post("/signin", userHandler.Signin)

	// Routes that require a valid session token
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware([]byte(cfg.JWTSecret)))

		r.Put("/", userHandler.UpdateUser)
		r.Get("/bulk", userHandler.ListUsers)
		r.Get("/me", userHandler.GetMe)
		r.Get("/balance", userHandler.GetBalance)
	})

	return r
}
