package service_test

import (
	"context"
	"testing"

	"github.com/ecorouting/compass/pkg/datastructure"
	"github.com/ecorouting/compass/pkg/domain"
	"github.com/ecorouting/compass/pkg/kv"
	"github.com/ecorouting/compass/pkg/server/rest/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEngine struct {
	route datastructure.Route
	cost  float64
	err   error

	gotWeight  datastructure.PathWeight
	gotProfile string
}

func (f *fakeEngine) ShortestPath(origin, destination datastructure.Coordinate,
	weight datastructure.PathWeight, profileKey string) (datastructure.Route, float64, int32, int32, error) {
	f.gotWeight = weight
	f.gotProfile = profileKey
	if f.err != nil {
		return nil, -1, 0, 1, f.err
	}
	return f.route, f.cost, 0, 1, nil
}

type fakeKV struct {
	nodes []kv.KVNode
	err   error
}

func (f *fakeKV) GetNearestNodesFromPoint(lat, lon float64, kCount int) ([]kv.KVNode, error) {
	return f.nodes, f.err
}

func TestServiceShortestPath(t *testing.T) {
	engine := &fakeEngine{
		route: datastructure.Route{
			datastructure.NewCoordinate(-7.550, 110.780),
			datastructure.NewCoordinate(-7.550, 110.800),
		},
		cost: 2.0,
	}
	svc := service.NewNavigationService(engine, &fakeKV{})

	result, err := svc.ShortestPath(context.Background(), -7.550, 110.780,
		-7.550, 110.800, "energy", "gasoline")
	require.NoError(t, err)

	assert.Equal(t, datastructure.PathWeightEnergy, engine.gotWeight)
	assert.Equal(t, "gasoline", engine.gotProfile)
	assert.Equal(t, 2.0, result.TotalCost)
	assert.NotEmpty(t, result.Polyline)
	assert.Greater(t, result.DistanceMeters, 0.0)
	assert.Equal(t, int32(0), result.FromNodeID)
	assert.Equal(t, int32(1), result.ToNodeID)
}

func TestServiceShortestPathInvalidWeight(t *testing.T) {
	svc := service.NewNavigationService(&fakeEngine{}, &fakeKV{})

	_, err := svc.ShortestPath(context.Background(), -7.55, 110.78,
		-7.56, 110.79, "teleport", "")
	assert.ErrorIs(t, err, domain.ErrBadParamInput)
}

func TestServiceShortestPathPropagatesEngineError(t *testing.T) {
	engine := &fakeEngine{err: domain.WrapErrorf(nil, domain.ErrNoPath, "disconnected")}
	svc := service.NewNavigationService(engine, &fakeKV{})

	_, err := svc.ShortestPath(context.Background(), -7.55, 110.78,
		-7.56, 110.79, "distance", "")
	assert.ErrorIs(t, err, domain.ErrNoPath)
}

func TestServiceNearestNodes(t *testing.T) {
	kvDB := &fakeKV{nodes: []kv.KVNode{{ID: 7, Lat: -7.55, Lon: 110.78}}}
	svc := service.NewNavigationService(&fakeEngine{}, kvDB)

	nodes, err := svc.NearestNodes(context.Background(), -7.55, 110.78, 5)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, int32(7), nodes[0].ID)
}
