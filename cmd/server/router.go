package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/openmotors/car-users-api/internal/api"
	apiMiddleware "github.com/openmotors/car-users-api/internal/api/middleware"
)

// setupRouter creates and configures the application router with all routes
// and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware(app.logger))

	authHandler := api.NewAuthHandler(app.userService, app.jwtService, app.hasher, app.logger)
	userHandler := api.NewUserHandler(app.userService, app.photoStore, app.logger)
	carHandler := api.NewCarHandler(app.carService, app.photoStore, app.logger)

	gate := apiMiddleware.NewAuthenticationGate(
		app.jwtService,
		app.userService,
		app.config.Server.PublicPaths,
		app.logger,
	)
	r.Use(gate.Authenticate)

	r.Route("/api", func(r chi.Router) {
		// Public endpoints
		r.Post("/signin", authHandler.Signin)
		r.Post("/users", userHandler.Create)
		r.Get("/users", userHandler.GetAll)
		r.Get("/users/ordered", userHandler.GetOrdered)
		r.Get("/users/{id}", userHandler.GetByID)
		r.Get("/users/{id}/photo", userHandler.GetPhoto)
		r.Get("/cars/{id}/photo", carHandler.GetPhoto)

		// Protected endpoints
		r.Group(func(r chi.Router) {
			r.Use(apiMiddleware.RequireAuthenticated)

			r.Get("/me", userHandler.Me)
			r.Put("/users/{id}", userHandler.Update)
			r.Delete("/users/{id}", userHandler.Delete)
			r.Post("/users/{id}/photo", userHandler.UploadPhoto)

			r.Get("/cars", carHandler.GetAll)
			r.Post("/cars", carHandler.Create)
			r.Get("/cars/ordered", carHandler.GetOrdered)
			r.Get("/cars/{id}", carHandler.GetByID)
			r.Put("/cars/{id}", carHandler.Update)
			r.Delete("/cars/{id}", carHandler.Delete)
			r.Post("/cars/{id}/photo", carHandler.UploadPhoto)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})

	return r
}
