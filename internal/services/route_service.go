package services

import (
	"context"
	"courier-tracking-service/internal/domain"
	"courier-tracking-service/internal/platform/obs"
	"courier-tracking-service/internal/ports"
	"errors"
	"fmt"
)

// RouteService builds the optimized delivery route for one courier.
type RouteService struct {
	Locations ports.LocationStore
	Orders    ports.OrderRepository
	Cache     *RouteCache
}

// GetRoute returns the courier's route, served from cache while fresh.
func (s *RouteService) GetRoute(ctx context.Context, orgID, courierID string) (_ *domain.RouteResult, err error) {
	defer obs.Time(ctx, "route.GetRoute")(&err)

	if s.Locations == nil || s.Orders == nil {
		return nil, errors.New("route service: dependencies not configured")
	}
	if s.Cache == nil {
		return s.computeRoute(ctx, orgID, courierID)
	}

	return s.Cache.GetOrCompute(ctx, orgID, courierID, func(ctx context.Context) (*domain.RouteResult, error) {
		return s.computeRoute(ctx, orgID, courierID)
	})
}

func (s *RouteService) computeRoute(ctx context.Context, orgID, courierID string) (*domain.RouteResult, error) {
	latest, err := s.Locations.GetLatest(ctx, orgID, courierID)
	if err != nil {
		return nil, fmt.Errorf("route service: latest position: %w", err)
	}

	deliveries, err := s.Orders.ListCourierDeliveries(ctx, orgID, courierID, domain.RoutableStatuses)
	if err != nil {
		return nil, fmt.Errorf("route service: list deliveries: %w", err)
	}

	var courierLoc *domain.Coordinates
	if latest != nil {
		c := latest.Coordinates()
		courierLoc = &c
	}

	byID := make(map[string]domain.Stop, len(deliveries))
	points := make([]RoutePoint, 0, len(deliveries))
	for _, d := range deliveries {
		if !d.Geocoded() {
			continue
		}
		byID[d.ID] = d
		points = append(points, RoutePoint{
			ID:     d.ID,
			Coords: domain.Coordinates{Lon: *d.Lon, Lat: *d.Lat},
		})
	}

	if len(points) == 0 {
		return &domain.RouteResult{
			Stops:           []domain.RouteStop{},
			TotalDistanceKm: 0,
			CourierLocation: courierLoc,
		}, nil
	}

	// A courier that never reported starts at its first stop.
	start := points[0].Coords
	if courierLoc != nil {
		start = *courierLoc
	}

	route := ComputeRoute(start, points)

	stops := make([]domain.RouteStop, 0, len(route.Order))
	for i, id := range route.Order {
		stops = append(stops, domain.RouteStop{Stop: byID[id], Position: i + 1})
	}

	return &domain.RouteResult{
		Stops:           stops,
		TotalDistanceKm: route.TotalDistanceKm,
		CourierLocation: courierLoc,
	}, nil
}
