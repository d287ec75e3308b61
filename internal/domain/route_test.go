package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouteResultCloneCopiesStopCoordinates(t *testing.T) {
	lat, lon := 55.75, 37.61
	orig := RouteResult{
		Stops: []RouteStop{
			{Stop: Stop{ID: "a", Lat: &lat, Lon: &lon}, Position: 1},
			{Stop: Stop{ID: "b"}, Position: 2},
		},
		TotalDistanceKm: 1.5,
		CourierLocation: &Coordinates{Lat: 55.7, Lon: 37.6},
	}

	clone := orig.Clone()
	lat, lon = 0, 0
	orig.CourierLocation.Lat = 0
	orig.Stops[0].ID = "mutated"

	require.Len(t, clone.Stops, 2)
	require.NotNil(t, clone.Stops[0].Lat)
	require.NotNil(t, clone.Stops[0].Lon)
	assert.Equal(t, 55.75, *clone.Stops[0].Lat)
	assert.Equal(t, 37.61, *clone.Stops[0].Lon)
	assert.Equal(t, "a", clone.Stops[0].ID)
	assert.Nil(t, clone.Stops[1].Lat)
	assert.Nil(t, clone.Stops[1].Lon)
	assert.Equal(t, 55.7, clone.CourierLocation.Lat)
}

func TestRouteResultCloneKeepsNilStops(t *testing.T) {
	clone := RouteResult{}.Clone()
	assert.Nil(t, clone.Stops)
	assert.Nil(t, clone.CourierLocation)
}
