package controllers

import (
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"
	da "github.com/lintang-b-s/ecoflow/pkg/datastructure"
	"github.com/lintang-b-s/ecoflow/pkg/geo"
	helper "github.com/lintang-b-s/ecoflow/pkg/http/router/routerhelper"
	"github.com/lintang-b-s/ecoflow/pkg/util"
	"go.uber.org/zap"
)

const defaultNearbyRadiusKm = 1.0

type routingAPI struct {
	baseAPI
	routingService RoutingService
}

func New(routingService RoutingService, log *zap.Logger) *routingAPI {
	return &routingAPI{
		baseAPI:        baseAPI{log: log},
		routingService: routingService,
	}
}

func (api *routingAPI) Routes(group *helper.RouteGroup) {
	group.GET("/routes/search", api.search)
	group.GET("/routes/nearby", api.nearby)
	group.POST("/routes/calculate", api.calculate)
	group.POST("/routes/optimize", api.optimize)
}

// search godoc
//
//	@Summary		search places by name
//	@Tags			routes
//	@Produce		json
//	@Param			q	query		string	true	"place name"
//	@Success		200	{object}	map[string]interface{}
//	@Failure		400	{object}	errorResponse
//	@Failure		502	{object}	errorResponse
//	@Router			/routes/search [get]
func (api *routingAPI) search(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		api.BadRequestResponse(w, r, util.NewErrorf(util.ErrBadParamInput, "q is required"))
		return
	}

	places, err := api.routingService.Search(r.Context(), query)
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}
	if places == nil {
		places = []da.Place{}
	}

	if err := api.writeJSON(w, http.StatusOK, envelope{"data": places}, nil); err != nil {
		api.ServerErrorResponse(w, r, err)
	}
}

func (api *routingAPI) nearby(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	query := r.URL.Query()
	lat, _, err := parseFloatParam(query, "lat", true)
	if err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	lon, _, err := parseFloatParam(query, "lon", true)
	if err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	radius, ok, err := parseFloatParam(query, "radius", false)
	if err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	if !ok {
		radius = defaultNearbyRadiusKm
	}
	if !geo.NewCoordinate(lat, lon).Valid() || radius <= 0 {
		api.BadRequestResponse(w, r, util.NewErrorf(util.ErrBadParamInput,
			"lat must be in [-90, 90], lon in [-180, 180] and radius positive"))
		return
	}

	if err := api.writeJSON(w, http.StatusOK, envelope{"data": api.routingService.Nearby(lat, lon, radius)},
		nil); err != nil {
		api.ServerErrorResponse(w, r, err)
	}
}

// calculate godoc
//
//	@Summary		compute the route between two points
//	@Tags			routes
//	@Accept			json
//	@Produce		json
//	@Param			body	body		calculateRouteRequest	true	"origin, destination and vehicle"
//	@Success		200		{object}	map[string]interface{}
//	@Failure		400		{object}	errorResponse
//	@Failure		502		{object}	errorResponse
//	@Router			/routes/calculate [post]
func (api *routingAPI) calculate(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	var request calculateRouteRequest
	if err := api.readJSON(w, r, &request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	if err := validateRequest(request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	vc, err := da.ParseVehicleClass(request.VehicleType)
	if err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}

	route, err := api.routingService.Calculate(r.Context(), request.Origin.toCoordinate(),
		request.Destination.toCoordinate(), vc)
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}

	if err := api.writeJSON(w, http.StatusOK, envelope{"data": route}, nil); err != nil {
		api.ServerErrorResponse(w, r, err)
	}
}

func (api *routingAPI) optimize(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	var request optimizeRouteRequest
	if err := api.readJSON(w, r, &request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	if err := validateRequest(request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	vc, err := da.ParseVehicleClass(request.VehicleType)
	if err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	criteria := request.OptimizationCriteria
	if criteria == "" {
		criteria = "distance"
	}

	waypoints := make([]geo.Coordinate, 0, len(request.Waypoints))
	for _, wp := range request.Waypoints {
		waypoints = append(waypoints, wp.toCoordinate())
	}

	route, ordered, err := api.routingService.Optimize(r.Context(), waypoints, vc, criteria)
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}

	resp := optimizeRouteResponse{Route: route, Waypoints: ordered, Criteria: criteria}
	if err := api.writeJSON(w, http.StatusOK, envelope{"data": resp}, nil); err != nil {
		api.ServerErrorResponse(w, r, err)
	}
}
