package api

import (
	"context"
	"courier-tracking-service/internal/api/handlers"
	"courier-tracking-service/internal/ports"
	"courier-tracking-service/internal/services"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// Deps are the collaborators the HTTP layer needs. Geocoder and Ping may be
// nil. GeocodeTimeout caps one batch geocode request.
type Deps struct {
	Locations      ports.LocationStore
	Routes         *services.RouteService
	Geocoder       *services.GeocodeBatcher
	GeocodeTimeout time.Duration
	Retention      time.Duration
	Now            func() time.Time
	CORSOrigins    []string
	Ping           func(ctx context.Context) error
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// Handlers stay unaware of concrete adapters.
func NewRouter(d Deps) http.Handler {
	locHandler := &handlers.LocationHandler{
		Store:     d.Locations,
		Retention: d.Retention,
		Now:       d.Now,
	}
	healthHandler := &handlers.HealthHandler{Ping: d.Ping}
	routeHandler := &handlers.RouteHandler{Service: d.Routes}
	geocodeHandler := &handlers.GeocodeHandler{MaxDuration: d.GeocodeTimeout}
	if d.Geocoder != nil {
		geocodeHandler.Batcher = d.Geocoder
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware, loggingMiddleware, recoverMiddleware, corsMiddleware(d.CORSOrigins))

	r.HandleFunc("/health", healthHandler.Health)

	r.Route("/api", func(r chi.Router) {
		r.Group(func(courier chi.Router) {
			courier.Use(handlers.RequireRole(handlers.RoleCourier))
			courier.Post("/locations", locHandler.Report)
			courier.Get("/locations/me", locHandler.Me)
		})

		r.Group(func(mgmt chi.Router) {
			mgmt.Use(handlers.RequireRole(handlers.RoleManager, handlers.RoleOwner))
			mgmt.Get("/locations", locHandler.All)
			mgmt.Post("/locations/cleanup", locHandler.Cleanup)
			mgmt.Get("/couriers/{courierID}/history", locHandler.History)
			mgmt.Get("/couriers/{courierID}/route", routeHandler.Get)
			mgmt.Post("/orders/geocode", geocodeHandler.Run)
		})
	})

	return r
}
