package geo

import (
	"math"

	"github.com/ecorouting/compass/pkg/datastructure"

	"github.com/golang/geo/s2"
)

const (
	earthRadiusKM = 6371.0
	earthRadiusM  = 6371007
)

func havFunction(angleRad float64) float64 {
	return (1 - math.Cos(angleRad)) / 2.0
}

func degreeToRadians(angle float64) float64 {
	return angle * (math.Pi / 180.0)
}

// CalculateHaversineDistance returns the great-circle distance in km.
func CalculateHaversineDistance(latOne, longOne, latTwo, longTwo float64) float64 {
	latOne = degreeToRadians(latOne)
	longOne = degreeToRadians(longOne)
	latTwo = degreeToRadians(latTwo)
	longTwo = degreeToRadians(longTwo)

	a := havFunction(latOne-latTwo) + math.Cos(latOne)*math.Cos(latTwo)*havFunction(longOne-longTwo)
	c := 2.0 * math.Asin(math.Sqrt(a))
	return earthRadiusKM * c
}

// RouteDistanceMeters sums the geodesic length of a route's segments.
// Reporting only; snapping and search never use geodesic distances.
func RouteDistanceMeters(route []datastructure.Coordinate) float64 {
	total := 0.0
	for i := 1; i < len(route); i++ {
		prev := s2.LatLngFromDegrees(route[i-1].Lat, route[i-1].Lon)
		cur := s2.LatLngFromDegrees(route[i].Lat, route[i].Lon)
		total += prev.Distance(cur).Radians() * earthRadiusM
	}
	return total
}
