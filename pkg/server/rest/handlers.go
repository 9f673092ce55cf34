package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/ecorouting/compass/pkg/domain"
	"github.com/ecorouting/compass/pkg/kv"
	"github.com/ecorouting/compass/pkg/server/rest/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
)

type NavigationService interface {
	ShortestPath(ctx context.Context, srcLat, srcLon, dstLat, dstLon float64,
		weight string, profileKey string) (service.ShortestPathResult, error)
	NearestNodes(ctx context.Context, lat, lon float64, k int) ([]kv.KVNode, error)
}

type NavigationHandler struct {
	svc NavigationService
}

func NavigatorRouter(r *chi.Mux, svc NavigationService) {
	handler := &NavigationHandler{svc}

	r.Group(func(r chi.Router) {
		r.Route("/api/navigation", func(r chi.Router) {
			r.Post("/shortest-path", handler.ShortestPath)
			r.Post("/nearest-nodes", handler.NearestNodes)
		})
	})
}

// Coord is one lat/lon pair of a request body. Range-only validation:
// (0, 0) is a valid coordinate, not a missing field.
type Coord struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lon float64 `json:"lon" validate:"gte=-180,lte=180"`
}

// ShortestPathRequest is the request body for shortest-path queries.
// Weight picks the optimization criterion; profile_key selects the
// vehicle profile and is required for the energy criterion.
type ShortestPathRequest struct {
	Origin      Coord  `json:"origin"`
	Destination Coord  `json:"destination"`
	Weight      string `json:"weight" validate:"required,oneof=distance time energy"`
	ProfileKey  string `json:"profile_key,omitempty"`
}

func (s *ShortestPathRequest) Bind(r *http.Request) error {
	if s.Weight == "" {
		return errors.New("invalid request")
	}
	return nil
}

type ShortestPathResponse struct {
	Path           string  `json:"path"`
	Weight         string  `json:"weight"`
	TotalCost      float64 `json:"total_cost"`
	DistanceMeters float64 `json:"distance_meters"`
	Route          []Coord `json:"route"`
}

func RenderShortestPathResponse(result service.ShortestPathResult) *ShortestPathResponse {
	routeResp := make([]Coord, 0, len(result.Route))
	for _, c := range result.Route {
		routeResp = append(routeResp, Coord{Lat: c.Lat, Lon: c.Lon})
	}

	return &ShortestPathResponse{
		Path:           result.Polyline,
		Weight:         result.Weight.String(),
		TotalCost:      result.TotalCost,
		DistanceMeters: result.DistanceMeters,
		Route:          routeResp,
	}
}

func (h *NavigationHandler) ShortestPath(w http.ResponseWriter, r *http.Request) {
	data := &ShortestPathRequest{}
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}
	validate := validator.New()
	if err := validate.Struct(*data); err != nil {
		english := en.New()
		uni := ut.New(english, english)
		trans, _ := uni.GetTranslator("en")
		_ = enTranslations.RegisterDefaultTranslations(validate, trans)
		vv := translateError(err, trans)
		render.Render(w, r, ErrValidation(err, vv))
		return
	}

	result, err := h.svc.ShortestPath(r.Context(), data.Origin.Lat, data.Origin.Lon,
		data.Destination.Lat, data.Destination.Lon, data.Weight, data.ProfileKey)
	if err != nil {
		render.Render(w, r, renderDomainError(err))
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, RenderShortestPathResponse(result))
}

// NearestNodesRequest is the request body for nearest-node lookups.
type NearestNodesRequest struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lon float64 `json:"lon" validate:"gte=-180,lte=180"`
	K   int     `json:"k" validate:"gt=0,lte=100"`
}

func (s *NearestNodesRequest) Bind(r *http.Request) error {
	if s.K == 0 {
		return errors.New("invalid request")
	}
	return nil
}

type NearestNodesResponse struct {
	Nodes []struct {
		ID    int32 `json:"id"`
		Coord Coord `json:"coordinates"`
	} `json:"nodes"`
}

func RenderNearestNodesResponse(nodes []kv.KVNode) *NearestNodesResponse {
	nodesResp := make([]struct {
		ID    int32 `json:"id"`
		Coord Coord `json:"coordinates"`
	}, 0, len(nodes))
	for _, n := range nodes {
		nodesResp = append(nodesResp, struct {
			ID    int32 `json:"id"`
			Coord Coord `json:"coordinates"`
		}{
			ID:    n.ID,
			Coord: Coord{Lat: n.Lat, Lon: n.Lon},
		})
	}
	return &NearestNodesResponse{Nodes: nodesResp}
}

func (h *NavigationHandler) NearestNodes(w http.ResponseWriter, r *http.Request) {
	data := &NearestNodesRequest{}
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}
	validate := validator.New()
	if err := validate.Struct(*data); err != nil {
		english := en.New()
		uni := ut.New(english, english)
		trans, _ := uni.GetTranslator("en")
		_ = enTranslations.RegisterDefaultTranslations(validate, trans)
		vv := translateError(err, trans)
		render.Render(w, r, ErrValidation(err, vv))
		return
	}

	nodes, err := h.svc.NearestNodes(r.Context(), data.Lat, data.Lon, data.K)
	if err != nil {
		if errors.Is(err, kv.ErrNodesNotFound) {
			render.Render(w, r, ErrNotFound(err))
			return
		}
		render.Render(w, r, ErrInternalServerErrorRend(errors.New(domain.MessageInternalServerError)))
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, RenderNearestNodesResponse(nodes))
}

// renderDomainError maps the error taxonomy to http responses.
// recoverable query failures surface as 4xx, data corruption as 500.
func renderDomainError(err error) render.Renderer {
	switch {
	case errors.Is(err, domain.ErrBadParamInput),
		errors.Is(err, domain.ErrUnknownProfile),
		errors.Is(err, domain.ErrMissingWeightAttribute):
		return ErrInvalidRequest(err)
	case errors.Is(err, domain.ErrNoPath):
		return ErrNotFound(err)
	default:
		return ErrInternalServerErrorRend(errors.New(domain.MessageInternalServerError))
	}
}

func ErrInvalidRequest(err error) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: 400,
		StatusText:     "Invalid request.",
		ErrorText:      err.Error(),
	}
}

func ErrNotFound(err error) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: 404,
		StatusText:     "Resource not found.",
		ErrorText:      err.Error(),
	}
}

// ErrResponse model for error responses
type ErrResponse struct {
	Err            error `json:"-"` // low-level runtime error
	HTTPStatusCode int   `json:"-"` // http response status code

	StatusText    string   `json:"status"`          // user-level status message
	AppCode       int64    `json:"code,omitempty"`  // application-specific error code
	ErrorText     string   `json:"error,omitempty"` // application-level error message, for debugging
	ErrValidation []string `json:"validation,omitempty"`
}

func (e *ErrResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	return nil
}

func translateError(err error, trans ut.Translator) (errs []error) {
	if err == nil {
		return nil
	}
	validatorErrs := err.(validator.ValidationErrors)
	for _, e := range validatorErrs {
		translatedErr := fmt.Errorf(e.Translate(trans))
		errs = append(errs, translatedErr)
	}
	return errs
}

func ErrValidation(err error, errV []error) render.Renderer {
	vv := []string{}
	for _, v := range errV {
		vv = append(vv, v.Error())
	}
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: 400,
		StatusText:     "Invalid request.",
		ErrorText:      err.Error(),
		ErrValidation:  vv,
	}
}

func ErrInternalServerErrorRend(err error) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: 500,
		StatusText:     "Internal server error.",
		ErrorText:      err.Error(),
	}
}
