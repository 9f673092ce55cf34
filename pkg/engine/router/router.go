// Package router orchestrates snapping, weight resolution and the
// shortest-path search into the public routing operation.
package router

import (
	"github.com/ecorouting/compass/pkg/datastructure"
	"github.com/ecorouting/compass/pkg/domain"
	"github.com/ecorouting/compass/pkg/engine/routingalgorithm"
)

type SpatialIndex interface {
	Nearest(lat, lon float64) int32
}

type SearchAlgorithm interface {
	ShortestPath(from, to int32, weightName string) ([]int32, float64, error)
}

// RoutingEngine answers shortest-path queries against an immutable
// graph and spatial index. It holds both read-only for its lifetime;
// concurrent queries need no locking.
type RoutingEngine struct {
	g      *datastructure.Graph
	index  SpatialIndex
	search SearchAlgorithm
}

func NewRoutingEngine(g *datastructure.Graph, index SpatialIndex) *RoutingEngine {
	return &RoutingEngine{
		g:      g,
		index:  index,
		search: routingalgorithm.NewRouteAlgorithm(g),
	}
}

// SnapToNode maps an arbitrary coordinate to the nearest graph node.
func (e *RoutingEngine) SnapToNode(c datastructure.Coordinate) int32 {
	return e.index.Nearest(c.Lat, c.Lon)
}

// ShortestPath computes the route between two coordinates under the
// given weight criterion. profileKey selects the vehicle profile and
// is only consulted for the energy criterion. Returns the route, its
// total cost in the resolved weight's unit, and the snapped
// origin/destination node ids.
func (e *RoutingEngine) ShortestPath(origin, destination datastructure.Coordinate,
	weight datastructure.PathWeight, profileKey string) (datastructure.Route, float64, int32, int32, error) {

	fromID := e.index.Nearest(origin.Lat, origin.Lon)
	toID := e.index.Nearest(destination.Lat, destination.Lon)

	if fromID == toID {
		// both endpoints snap to the same node: a single-coordinate
		// route, degenerate but valid
		node := e.g.GetNode(fromID)
		return datastructure.Route{datastructure.NewCoordinate(node.Lat, node.Lon)}, 0, fromID, toID, nil
	}

	weightName, err := e.resolveWeightName(weight, profileKey)
	if err != nil {
		return nil, -1, fromID, toID, err
	}

	nodeIDs, totalCost, err := e.search.ShortestPath(fromID, toID, weightName)
	if err != nil {
		return nil, -1, fromID, toID, err
	}

	route := make(datastructure.Route, len(nodeIDs))
	for i, nodeID := range nodeIDs {
		node := e.g.GetNode(nodeID)
		route[i] = datastructure.NewCoordinate(node.Lat, node.Lon)
	}

	return route, totalCost, fromID, toID, nil
}

func (e *RoutingEngine) resolveWeightName(weight datastructure.PathWeight, profileKey string) (string, error) {
	weightName, err := weight.AttributeName(profileKey)
	if err != nil {
		return "", domain.WrapErrorf(err, domain.ErrMissingWeightAttribute,
			"cannot resolve %s weight", weight)
	}
	if !e.g.HasWeightAttribute(weightName) {
		return "", domain.WrapErrorf(nil, domain.ErrMissingWeightAttribute,
			"graph edges have no %q weight attribute", weightName)
	}
	return weightName, nil
}
