package geo_test

import (
	"testing"

	"github.com/ecorouting/compass/pkg/datastructure"
	"github.com/ecorouting/compass/pkg/geo"

	"github.com/stretchr/testify/assert"
)

func TestCalculateHaversineDistance(t *testing.T) {
	// Tugu Yogyakarta to Solo Balapan station, roughly 60 km
	dist := geo.CalculateHaversineDistance(-7.7829, 110.3671, -7.5563, 110.8217)
	assert.InDelta(t, 56.0, dist, 3.0)

	assert.Equal(t, 0.0, geo.CalculateHaversineDistance(-7.78, 110.36, -7.78, 110.36))
}

func TestRouteDistanceMeters(t *testing.T) {
	route := []datastructure.Coordinate{
		datastructure.NewCoordinate(-7.7829, 110.3671),
		datastructure.NewCoordinate(-7.5563, 110.8217),
	}

	meters := geo.RouteDistanceMeters(route)
	km := geo.CalculateHaversineDistance(-7.7829, 110.3671, -7.5563, 110.8217)
	assert.InDelta(t, km*1000, meters, km) // within 0.1%

	assert.Equal(t, 0.0, geo.RouteDistanceMeters(route[:1]))
	assert.Equal(t, 0.0, geo.RouteDistanceMeters(nil))
}
