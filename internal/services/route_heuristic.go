package services

import (
	"courier-tracking-service/internal/domain"
	"courier-tracking-service/internal/geo"
	"math"
)

const (
	// Above this many stops the nearest-neighbor order is returned unrefined.
	twoOptMaxStops  = 30
	twoOptMaxPasses = 100
	// Minimum gain (km) for a 2-opt move to count as an improvement.
	twoOptToleranceKm = 0.001
)

// RoutePoint is a stop identifier with its coordinates.
type RoutePoint struct {
	ID     string
	Coords domain.Coordinates
}

// HeuristicRoute is the visiting order produced by ComputeRoute.
type HeuristicRoute struct {
	Order           []string
	TotalDistanceKm float64
}

// ComputeRoute orders stops for a courier starting at start.
//
// The route is an open path: it begins at start and ends at the last stop,
// with no return leg. Construction is greedy nearest neighbor; for small
// inputs the order is then refined with 2-opt. The result is deterministic
// for a given input slice.
func ComputeRoute(start domain.Coordinates, stops []RoutePoint) HeuristicRoute {
	if len(stops) == 0 {
		return HeuristicRoute{Order: []string{}, TotalDistanceKm: 0}
	}

	// points[0] is the fixed start; points[k+1] is stops[k].
	points := make([]domain.Coordinates, 0, 1+len(stops))
	points = append(points, start)
	for _, s := range stops {
		points = append(points, s.Coords)
	}

	order := nearestNeighborOrder(points)
	if len(stops) <= twoOptMaxStops {
		twoOptRefine(points, order)
	}

	ids := make([]string, 0, len(stops))
	for _, idx := range order[1:] {
		ids = append(ids, stops[idx-1].ID)
	}

	return HeuristicRoute{
		Order:           ids,
		TotalDistanceKm: pathLengthKm(points, order),
	}
}

// nearestNeighborOrder returns point indices starting at 0, each step moving
// to the closest unvisited point. Ties keep the earliest index.
func nearestNeighborOrder(points []domain.Coordinates) []int {
	order := make([]int, 0, len(points))
	order = append(order, 0)

	visited := make([]bool, len(points))
	visited[0] = true
	current := 0

	for len(order) < len(points) {
		best := -1
		bestDist := math.Inf(1)
		for j := 1; j < len(points); j++ {
			if visited[j] {
				continue
			}
			d := distanceBetween(points[current], points[j])
			if best == -1 || d < bestDist {
				best = j
				bestDist = d
			}
		}

		visited[best] = true
		order = append(order, best)
		current = best
	}

	return order
}

// twoOptRefine improves order in place. order[0] is the start and never moves.
// For edges (i,i+1) and (j,j+1) the segment i+1..j is reversed when that
// shortens the open path; when j is the last index there is no (j,j+1) edge.
func twoOptRefine(points []domain.Coordinates, order []int) {
	n := len(order)
	dist := func(a, b int) float64 { return distanceBetween(points[order[a]], points[order[b]]) }

	for pass := 0; pass < twoOptMaxPasses; pass++ {
		improved := false
		for i := 0; i < n-2; i++ {
			for j := i + 2; j < n; j++ {
				delta := dist(i, j) - dist(i, i+1)
				if j+1 < n {
					delta += dist(i+1, j+1) - dist(j, j+1)
				}

				if delta < -twoOptToleranceKm {
					reverse(order[i+1 : j+1])
					improved = true
				}
			}
		}
		if !improved {
			return
		}
	}
}

func pathLengthKm(points []domain.Coordinates, order []int) float64 {
	total := 0.0
	for i := 0; i+1 < len(order); i++ {
		total += distanceBetween(points[order[i]], points[order[i+1]])
	}
	return total
}

func reverse(s []int) {
	for l, r := 0, len(s)-1; l < r; l, r = l+1, r-1 {
		s[l], s[r] = s[r], s[l]
	}
}

func distanceBetween(a, b domain.Coordinates) float64 {
	return geo.DistanceKm(a.Lat, a.Lon, b.Lat, b.Lon)
}
