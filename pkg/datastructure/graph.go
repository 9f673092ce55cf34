package datastructure

import (
	"fmt"
	"math"
	"strings"

	"github.com/ecorouting/compass/pkg/domain"
)

// weight attribute names carried by every edge of a routable graph.
// travel_time is stored in minutes, speed_mph in miles per hour and
// grade in percent, negative on descents. energy_<profile> attributes
// are written by the precompute maintenance flow, one per vehicle
// profile.
const (
	DistanceWeightName   = "distance_miles"
	TravelTimeWeightName = "travel_time"
	SpeedWeightName      = "speed_mph"
	GradeWeightName      = "grade"

	energyWeightPrefix = "energy_"
)

func EnergyWeightName(profileKey string) string {
	return energyWeightPrefix + profileKey
}

// isCostWeight reports whether the attribute is a routing cost, which
// must be non-negative, as opposed to a feature attribute like grade,
// which is a signed slope.
func isCostWeight(name string) bool {
	switch name {
	case DistanceWeightName, TravelTimeWeightName:
		return true
	}
	return strings.HasPrefix(name, energyWeightPrefix)
}

// PathWeight is the optimization criterion of a routing query.
type PathWeight int

const (
	PathWeightDistance PathWeight = iota
	PathWeightTime
	PathWeightEnergy
)

func ParsePathWeight(s string) (PathWeight, error) {
	switch s {
	case "distance":
		return PathWeightDistance, nil
	case "time":
		return PathWeightTime, nil
	case "energy":
		return PathWeightEnergy, nil
	}
	return 0, fmt.Errorf("unknown path weight %q", s)
}

func (w PathWeight) String() string {
	switch w {
	case PathWeightDistance:
		return "distance"
	case PathWeightTime:
		return "time"
	case PathWeightEnergy:
		return "energy"
	}
	return "unknown"
}

// AttributeName resolves the edge weight attribute used for a query.
// PathWeightEnergy requires a non-empty profile key.
func (w PathWeight) AttributeName(profileKey string) (string, error) {
	switch w {
	case PathWeightDistance:
		return DistanceWeightName, nil
	case PathWeightTime:
		return TravelTimeWeightName, nil
	case PathWeightEnergy:
		if profileKey == "" {
			return "", fmt.Errorf("energy weight requires a profile key")
		}
		return EnergyWeightName(profileKey), nil
	}
	return "", fmt.Errorf("unknown path weight %d", w)
}

type Node struct {
	ID  int32
	Lat float64
	Lon float64
}

func NewNode(id int32, lat, lon float64) Node {
	return Node{
		ID:  id,
		Lat: lat,
		Lon: lon,
	}
}

type Edge struct {
	EdgeID     int32
	FromNodeID int32
	ToNodeID   int32
	Weights    map[string]float64
}

func NewEdge(edgeID, fromNodeID, toNodeID int32, weights map[string]float64) Edge {
	return Edge{
		EdgeID:     edgeID,
		FromNodeID: fromNodeID,
		ToNodeID:   toNodeID,
		Weights:    weights,
	}
}

// Graph is a directed weighted road network. Nodes and edges are owned
// by index and treated as read-only after load; the precompute
// maintenance flow is the only writer, via SetEdgeWeights, and must
// never run concurrently with queries on the same instance.
type Graph struct {
	Nodes []Node
	Edges []Edge

	firstOutEdges [][]int32
	weightNames   map[string]struct{}
}

// NewGraph validates the node and edge records and builds the adjacency
// list. Edge ids are positional: edges[i].EdgeID == i, node ids likewise.
// Cost attributes must be non-negative and finite; feature attributes
// like grade only need to be finite.
func NewGraph(nodes []Node, edges []Edge) (*Graph, error) {
	if len(nodes) == 0 {
		return nil, fmt.Errorf("graph has no nodes")
	}

	g := &Graph{
		Nodes:         nodes,
		Edges:         edges,
		firstOutEdges: make([][]int32, len(nodes)),
	}

	for i, node := range nodes {
		if node.ID != int32(i) {
			return nil, fmt.Errorf("node id %d stored at index %d", node.ID, i)
		}
	}

	for i, edge := range edges {
		if edge.EdgeID != int32(i) {
			return nil, fmt.Errorf("edge id %d stored at index %d", edge.EdgeID, i)
		}
		if edge.FromNodeID < 0 || int(edge.FromNodeID) >= len(nodes) ||
			edge.ToNodeID < 0 || int(edge.ToNodeID) >= len(nodes) {
			return nil, fmt.Errorf("edge %d has dangling endpoint %d->%d", edge.EdgeID,
				edge.FromNodeID, edge.ToNodeID)
		}

		for _, name := range []string{DistanceWeightName, TravelTimeWeightName} {
			if _, ok := edge.Weights[name]; !ok {
				return nil, fmt.Errorf("edge %d has no %q weight attribute", edge.EdgeID, name)
			}
		}
		for name, value := range edge.Weights {
			if math.IsNaN(value) || math.IsInf(value, 0) ||
				(value < 0 && isCostWeight(name)) {
				return nil, domain.WrapErrorf(nil, domain.ErrInvalidWeight,
					"edge %d weight %q = %v", edge.EdgeID, name, value)
			}
		}

		g.firstOutEdges[edge.FromNodeID] = append(g.firstOutEdges[edge.FromNodeID], edge.EdgeID)
	}

	g.weightNames = commonWeightNames(edges)

	return g, nil
}

// commonWeightNames collects the attribute names present on every edge.
// only those are routable: querying an attribute missing on some edge
// must fail instead of silently skipping the edge.
func commonWeightNames(edges []Edge) map[string]struct{} {
	names := make(map[string]struct{})
	if len(edges) == 0 {
		return names
	}
	for name := range edges[0].Weights {
		names[name] = struct{}{}
	}
	for _, edge := range edges[1:] {
		for name := range names {
			if _, ok := edge.Weights[name]; !ok {
				delete(names, name)
			}
		}
	}
	return names
}

func (g *Graph) GetNumNodes() int {
	return len(g.Nodes)
}

func (g *Graph) GetNumEdges() int {
	return len(g.Edges)
}

func (g *Graph) GetNode(nodeID int32) Node {
	return g.Nodes[nodeID]
}

func (g *Graph) GetNodeFirstOutEdges(nodeID int32) []int32 {
	return g.firstOutEdges[nodeID]
}

func (g *Graph) GetOutEdge(edgeID int32) Edge {
	return g.Edges[edgeID]
}

// HasWeightAttribute reports whether every edge carries the attribute.
func (g *Graph) HasWeightAttribute(name string) bool {
	_, ok := g.weightNames[name]
	return ok
}

// SetEdgeWeights writes one weight attribute onto every edge, for the
// precompute maintenance flow. values must cover all edge ids. Callers
// must not run this concurrently with queries against the same graph;
// build a fresh snapshot and swap instead.
func (g *Graph) SetEdgeWeights(name string, values map[int32]float64) error {
	if len(values) != len(g.Edges) {
		return fmt.Errorf("got %d weight values for %d edges", len(values), len(g.Edges))
	}
	for edgeID, value := range values {
		if edgeID < 0 || int(edgeID) >= len(g.Edges) {
			return fmt.Errorf("weight value for unknown edge %d", edgeID)
		}
		if math.IsNaN(value) || math.IsInf(value, 0) ||
			(value < 0 && isCostWeight(name)) {
			return domain.WrapErrorf(nil, domain.ErrInvalidWeight,
				"edge %d weight %q = %v", edgeID, name, value)
		}
	}
	for edgeID, value := range values {
		g.Edges[edgeID].Weights[name] = value
	}
	g.weightNames[name] = struct{}{}
	return nil
}
