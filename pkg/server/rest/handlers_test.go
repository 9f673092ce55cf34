package rest_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ecorouting/compass/pkg/datastructure"
	"github.com/ecorouting/compass/pkg/domain"
	"github.com/ecorouting/compass/pkg/kv"
	"github.com/ecorouting/compass/pkg/server/rest"
	"github.com/ecorouting/compass/pkg/server/rest/service"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
)

type fakeNavigationService struct {
	shortestPathErr error
}

func (f *fakeNavigationService) ShortestPath(ctx context.Context, srcLat, srcLon, dstLat, dstLon float64,
	weight string, profileKey string) (service.ShortestPathResult, error) {
	if f.shortestPathErr != nil {
		return service.ShortestPathResult{}, f.shortestPathErr
	}
	return service.ShortestPathResult{
		Polyline: "_p~iF~ps|U",
		Route: datastructure.Route{
			datastructure.NewCoordinate(srcLat, srcLon),
			datastructure.NewCoordinate(dstLat, dstLon),
		},
		Weight:         datastructure.PathWeightDistance,
		TotalCost:      1.0,
		DistanceMeters: 1500.0,
		FromNodeID:     0,
		ToNodeID:       1,
	}, nil
}

func (f *fakeNavigationService) NearestNodes(ctx context.Context, lat, lon float64, k int) ([]kv.KVNode, error) {
	return []kv.KVNode{{ID: 1, Lat: lat, Lon: lon}}, nil
}

func postJSON(t *testing.T, svc rest.NavigationService, path, body string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	rest.NavigatorRouter(r, svc)

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestShortestPathHandlerAcceptsZeroCoordinates(t *testing.T) {
	// (0, 0) is a real place in the Gulf of Guinea, not a missing field
	rec := postJSON(t, &fakeNavigationService{}, "/api/navigation/shortest-path",
		`{"origin":{"lat":0,"lon":0},"destination":{"lat":1,"lon":1},"weight":"distance"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestShortestPathHandlerRejectsOutOfRangeLatitude(t *testing.T) {
	rec := postJSON(t, &fakeNavigationService{}, "/api/navigation/shortest-path",
		`{"origin":{"lat":95,"lon":0},"destination":{"lat":1,"lon":1},"weight":"distance"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestShortestPathHandlerRejectsUnknownWeight(t *testing.T) {
	rec := postJSON(t, &fakeNavigationService{}, "/api/navigation/shortest-path",
		`{"origin":{"lat":0,"lon":0},"destination":{"lat":1,"lon":1},"weight":"scenic"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestShortestPathHandlerNoPath(t *testing.T) {
	svc := &fakeNavigationService{
		shortestPathErr: domain.WrapErrorf(nil, domain.ErrNoPath, "disconnected"),
	}
	rec := postJSON(t, svc, "/api/navigation/shortest-path",
		`{"origin":{"lat":0,"lon":0},"destination":{"lat":1,"lon":1},"weight":"distance"}`)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNearestNodesHandlerAcceptsZeroCoordinates(t *testing.T) {
	rec := postJSON(t, &fakeNavigationService{}, "/api/navigation/nearest-nodes",
		`{"lat":0,"lon":0,"k":3}`)

	assert.Equal(t, http.StatusOK, rec.Code)
}
