package service

import (
	"context"

	"github.com/ecorouting/compass/pkg/datastructure"
	"github.com/ecorouting/compass/pkg/domain"
	"github.com/ecorouting/compass/pkg/geo"
	"github.com/ecorouting/compass/pkg/kv"
)

type RoutingEngine interface {
	ShortestPath(origin, destination datastructure.Coordinate, weight datastructure.PathWeight,
		profileKey string) (datastructure.Route, float64, int32, int32, error)
}

type KVDB interface {
	GetNearestNodesFromPoint(lat, lon float64, kCount int) ([]kv.KVNode, error)
}

type NavigationService struct {
	engine RoutingEngine
	kv     KVDB
}

func NewNavigationService(engine RoutingEngine, kvDB KVDB) *NavigationService {
	return &NavigationService{engine: engine, kv: kvDB}
}

// ShortestPathResult is the service-level view of a computed route.
type ShortestPathResult struct {
	Polyline       string
	Route          datastructure.Route
	Weight         datastructure.PathWeight
	TotalCost      float64
	DistanceMeters float64
	FromNodeID     int32
	ToNodeID       int32
}

func (uc *NavigationService) ShortestPath(ctx context.Context, srcLat, srcLon,
	dstLat, dstLon float64, weight string, profileKey string) (ShortestPathResult, error) {

	pathWeight, err := datastructure.ParsePathWeight(weight)
	if err != nil {
		return ShortestPathResult{}, domain.WrapErrorf(err, domain.ErrBadParamInput,
			"invalid weight criterion")
	}

	origin := datastructure.NewCoordinate(srcLat, srcLon)
	destination := datastructure.NewCoordinate(dstLat, dstLon)

	route, totalCost, fromID, toID, err := uc.engine.ShortestPath(origin, destination, pathWeight, profileKey)
	if err != nil {
		return ShortestPathResult{}, err
	}

	return ShortestPathResult{
		Polyline:       datastructure.RenderPath(route),
		Route:          route,
		Weight:         pathWeight,
		TotalCost:      totalCost,
		DistanceMeters: geo.RouteDistanceMeters(route),
		FromNodeID:     fromID,
		ToNodeID:       toID,
	}, nil
}

func (uc *NavigationService) NearestNodes(ctx context.Context, lat, lon float64, k int) ([]kv.KVNode, error) {
	return uc.kv.GetNearestNodesFromPoint(lat, lon, k)
}
