package spatialindex_test

import (
	"testing"

	"github.com/ecorouting/compass/pkg/datastructure"
	"github.com/ecorouting/compass/pkg/spatialindex"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

// linearNearest is the brute-force oracle: squared degree-space
// distance, lowest id on ties.
func linearNearest(nodes []datastructure.Node, lat, lon float64) int32 {
	best := int32(-1)
	bestDistSq := 0.0
	for _, n := range nodes {
		distSq := (n.Lat-lat)*(n.Lat-lat) + (n.Lon-lon)*(n.Lon-lon)
		if best == -1 || distSq < bestDistSq {
			best = n.ID
			bestDistSq = distSq
		}
	}
	return best
}

func randomNodes(count int, seed uint64) []datastructure.Node {
	rand.Seed(seed)
	nodes := make([]datastructure.Node, 0, count)
	for i := 0; i < count; i++ {
		nodes = append(nodes, datastructure.NewNode(int32(i),
			-8.0+rand.Float64()*2.0,
			110.0+rand.Float64()*2.0))
	}
	return nodes
}

func TestNearestMatchesLinearScan(t *testing.T) {
	nodes := randomNodes(2000, 7)
	rt := spatialindex.BuildFromNodes(nodes)
	require.Equal(t, len(nodes), rt.Size())

	for i := 0; i < 500; i++ {
		lat := -8.0 + rand.Float64()*2.0
		lon := 110.0 + rand.Float64()*2.0

		got := rt.Nearest(lat, lon)
		want := linearNearest(nodes, lat, lon)
		require.Equal(t, want, got, "query (%f, %f)", lat, lon)
	}
}

func TestNearestSnappingIdempotent(t *testing.T) {
	nodes := randomNodes(500, 11)
	rt := spatialindex.BuildFromNodes(nodes)

	for i := 0; i < 100; i++ {
		lat := -8.0 + rand.Float64()*2.0
		lon := 110.0 + rand.Float64()*2.0

		snapped := rt.Nearest(lat, lon)
		node := nodes[snapped]

		// querying the snapped node's own coordinate must return it again
		assert.Equal(t, snapped, rt.Nearest(node.Lat, node.Lon))
	}
}

func TestNearestFarOutsideIndexedArea(t *testing.T) {
	nodes := randomNodes(300, 13)
	rt := spatialindex.BuildFromNodes(nodes)

	// a query in another hemisphere still snaps to some node
	got := rt.Nearest(52.5, 13.4)
	want := linearNearest(nodes, 52.5, 13.4)
	assert.Equal(t, want, got)
}

func TestNearestLowestIDTieBreak(t *testing.T) {
	// four nodes on a perfect square around the query point, inserted
	// out of id order
	nodes := []datastructure.Node{
		datastructure.NewNode(0, 1.0, 1.0),
		datastructure.NewNode(1, -1.0, -1.0),
		datastructure.NewNode(2, 1.0, -1.0),
		datastructure.NewNode(3, -1.0, 1.0),
	}
	rt := spatialindex.NewRtree(2, 4)
	for _, i := range []int{2, 0, 3, 1} {
		rt.InsertNode(nodes[i].ID, nodes[i].Lat, nodes[i].Lon)
	}

	assert.Equal(t, int32(0), rt.Nearest(0, 0))
}

func TestNearestEmptyIndex(t *testing.T) {
	rt := spatialindex.NewRtree(2, 4)
	assert.Equal(t, int32(-1), rt.Nearest(0, 0))
}

func TestNearestPlanarNotGeodesic(t *testing.T) {
	// at high latitude a longitude degree is much shorter on the globe
	// than a latitude degree. the index compares raw degrees, so the
	// node 1.0 degree away in longitude must NOT win against a node
	// 0.9 degrees away in latitude, even though it is geodesically
	// closer.
	nodes := []datastructure.Node{
		datastructure.NewNode(0, 60.9, 0.0),
		datastructure.NewNode(1, 60.0, 1.0),
	}
	rt := spatialindex.BuildFromNodes(nodes)

	assert.Equal(t, int32(0), rt.Nearest(60.0, 0.0))
}
