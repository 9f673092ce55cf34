package routingalgorithm

import (
	"math"

	"github.com/ecorouting/compass/pkg/datastructure"
	"github.com/ecorouting/compass/pkg/domain"
	"github.com/ecorouting/compass/pkg/util"
)

type RouteAlgorithm struct {
	g *datastructure.Graph
}

func NewRouteAlgorithm(g *datastructure.Graph) *RouteAlgorithm {
	return &RouteAlgorithm{g: g}
}

// ShortestPath runs Dijkstra from one node to another over the graph
// restricted to a single weight attribute. Returns the node ids along
// the path and the total cost. Parallel edges between the same node
// pair resolve to the cheaper one through the relaxation itself.
// Equal-cost paths resolve by search order; that order is stable for a
// fixed graph but not part of the contract.
func (rt *RouteAlgorithm) ShortestPath(from, to int32, weightName string) ([]int32, float64, error) {
	if from == to {
		return []int32{from}, 0, nil
	}

	pq := datastructure.NewMinHeap[int32]()
	dist := make(map[int32]float64)
	cameFrom := make(map[int32]int32)

	dist[from] = 0.0
	cameFrom[from] = -1
	pq.Insert(datastructure.PriorityQueueNode[int32]{Rank: 0, Item: from})

	for pq.Size() > 0 {
		node, _ := pq.ExtractMin()
		if node.Item == to {
			break
		}

		for _, edgeID := range rt.g.GetNodeFirstOutEdges(node.Item) {
			edge := rt.g.GetOutEdge(edgeID)

			weight, ok := edge.Weights[weightName]
			if !ok {
				return nil, -1, domain.WrapErrorf(nil, domain.ErrMissingWeightAttribute,
					"edge %d->%d has no %q weight", edge.FromNodeID, edge.ToNodeID, weightName)
			}
			if weight < 0 || math.IsNaN(weight) || math.IsInf(weight, 0) {
				return nil, -1, domain.WrapErrorf(nil, domain.ErrInvalidWeight,
					"edge %d->%d weight %q = %v", edge.FromNodeID, edge.ToNodeID, weightName, weight)
			}

			toNID := edge.ToNodeID
			newCost := dist[node.Item] + weight

			cur, visited := dist[toNID]
			if !visited {
				dist[toNID] = newCost
				cameFrom[toNID] = node.Item
				pq.Insert(datastructure.PriorityQueueNode[int32]{Rank: newCost, Item: toNID})
			} else if newCost < cur {
				dist[toNID] = newCost
				cameFrom[toNID] = node.Item
				pq.DecreaseKey(datastructure.PriorityQueueNode[int32]{Rank: newCost, Item: toNID})
			}
		}
	}

	totalCost, ok := dist[to]
	if !ok {
		return nil, -1, domain.WrapErrorf(nil, domain.ErrNoPath,
			"node %d is unreachable from node %d", to, from)
	}

	path := make([]int32, 0)
	for at := to; at != -1; at = cameFrom[at] {
		path = append(path, at)
	}

	return util.ReverseG(path), totalCost, nil
}
