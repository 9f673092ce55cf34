package graphstore_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/ecorouting/compass/pkg/datastructure"
	"github.com/ecorouting/compass/pkg/domain"
	"github.com/ecorouting/compass/pkg/graphstore"

	"github.com/kelindar/binary"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTestGraph(t *testing.T) *datastructure.Graph {
	nodes := []datastructure.Node{
		datastructure.NewNode(0, -7.55, 110.78),
		datastructure.NewNode(1, -7.56, 110.79),
		datastructure.NewNode(2, -7.57, 110.80),
	}
	edges := []datastructure.Edge{
		datastructure.NewEdge(0, 0, 1, map[string]float64{
			datastructure.DistanceWeightName:   1.2,
			datastructure.TravelTimeWeightName: 2.4,
			datastructure.SpeedWeightName:      30,
		}),
		datastructure.NewEdge(1, 1, 2, map[string]float64{
			datastructure.DistanceWeightName:   0.7,
			datastructure.TravelTimeWeightName: 1.4,
			datastructure.SpeedWeightName:      30,
		}),
	}
	g, err := datastructure.NewGraph(nodes, edges)
	require.NoError(t, err)
	return g
}

func TestSaveLoadRoundTrip(t *testing.T) {
	g := buildTestGraph(t)
	path := filepath.Join(t.TempDir(), "test.graph")

	require.NoError(t, graphstore.Save(path, g))

	loaded, err := graphstore.Load(path)
	require.NoError(t, err)

	assert.Equal(t, g.GetNumNodes(), loaded.GetNumNodes())
	assert.Equal(t, g.GetNumEdges(), loaded.GetNumEdges())
	assert.Equal(t, g.Nodes, loaded.Nodes)
	assert.Equal(t, g.Edges, loaded.Edges)
	assert.True(t, loaded.HasWeightAttribute(datastructure.SpeedWeightName))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := graphstore.Load(filepath.Join(t.TempDir(), "does_not_exist.graph"))
	assert.ErrorIs(t, err, domain.ErrAssetLoad)
}

func TestLoadEmptyAsset(t *testing.T) {
	// a well-formed payload with zero nodes must still be rejected at
	// load; an engine cannot start on an empty road network
	var asset struct {
		Nodes []datastructure.Node
		Edges []datastructure.Edge
	}
	encoded, err := binary.Marshal(&asset)
	require.NoError(t, err)

	compressed := new(bytes.Buffer)
	encoder, err := zstd.NewWriter(compressed)
	require.NoError(t, err)
	_, err = encoder.Write(encoded)
	require.NoError(t, err)
	require.NoError(t, encoder.Close())

	path := filepath.Join(t.TempDir(), "empty.graph")
	require.NoError(t, os.WriteFile(path, compressed.Bytes(), 0644))

	_, err = graphstore.Load(path)
	assert.ErrorIs(t, err, domain.ErrAssetLoad)
}

func TestLoadCorruptPayload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.graph")
	require.NoError(t, os.WriteFile(path, []byte("not a graph asset"), 0644))

	_, err := graphstore.Load(path)
	assert.ErrorIs(t, err, domain.ErrAssetLoad)
}

func TestRoundTripPreservesEnergyWeights(t *testing.T) {
	g := buildTestGraph(t)
	energyName := datastructure.EnergyWeightName("electric")
	require.NoError(t, g.SetEdgeWeights(energyName, map[int32]float64{0: 0.32, 1: 0.19}))

	path := filepath.Join(t.TempDir(), "energy.graph")
	require.NoError(t, graphstore.Save(path, g))

	loaded, err := graphstore.Load(path)
	require.NoError(t, err)

	assert.True(t, loaded.HasWeightAttribute(energyName))
	assert.Equal(t, 0.32, loaded.GetOutEdge(0).Weights[energyName])
	assert.Equal(t, 0.19, loaded.GetOutEdge(1).Weights[energyName])
}
