package controllers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"
	da "github.com/lintang-b-s/ecoflow/pkg/datastructure"
	helper "github.com/lintang-b-s/ecoflow/pkg/http/router/routerhelper"
	"github.com/lintang-b-s/ecoflow/pkg/planner"
	"go.uber.org/zap"
)

type sessionAPI struct {
	baseAPI
	sessions SessionManager
}

func NewSessionAPI(sessions SessionManager, log *zap.Logger) *sessionAPI {
	return &sessionAPI{
		baseAPI:  baseAPI{log: log},
		sessions: sessions,
	}
}

func (api *sessionAPI) Routes(group *helper.RouteGroup) {
	g := group.Group("/sessions")
	g.POST("", api.create)
	g.GET("/:id", api.snapshot)
	g.DELETE("/:id", api.delete)

	g.POST("/:id/waypoints", api.addWaypoint)
	g.POST("/:id/waypoints/reorder", api.reorderWaypoints)
	g.PUT("/:id/waypoints/:index", api.moveWaypoint)
	g.DELETE("/:id/waypoints/:index", api.removeWaypoint)

	g.PUT("/:id/vehicle", api.setVehicle)
	g.POST("/:id/optimize", api.optimize)

	g.POST("/:id/animation/play", api.animation((*planner.Session).Animate))
	g.POST("/:id/animation/toggle", api.animation((*planner.Session).ToggleAnimation))
	g.POST("/:id/animation/stop", api.animation((*planner.Session).StopAnimation))
	g.POST("/:id/animation/faster", api.animation((*planner.Session).FasterAnimation))
	g.POST("/:id/animation/slower", api.animation((*planner.Session).SlowerAnimation))
	g.PUT("/:id/animation/speed", api.setSpeed)

	g.POST("/:id/fields/:field/input", api.input)
	g.POST("/:id/fields/:field/select", api.selectSuggestion)
	g.POST("/:id/route", api.routeFromFields)

	g.POST("/:id/location", api.addLocation)
	g.POST("/:id/location/error", api.locationError)
	g.DELETE("/:id/notices/:notice", api.dismissNotice)

	g.GET("/:id/charts", api.charts)
	g.GET("/:id/scene", api.scene)
}

func (api *sessionAPI) session(w http.ResponseWriter, r *http.Request, p httprouter.Params) (*planner.Session, bool) {
	s, err := api.sessions.Get(p.ByName("id"))
	if err != nil {
		api.getStatusCode(w, r, err)
		return nil, false
	}
	return s, true
}

func (api *sessionAPI) respond(w http.ResponseWriter, r *http.Request, snap planner.Snapshot, err error,
	extra envelope) {
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}
	resp := envelope{"data": snap}
	for k, v := range extra {
		resp[k] = v
	}
	if err := api.writeJSON(w, http.StatusOK, resp, nil); err != nil {
		api.ServerErrorResponse(w, r, err)
	}
}

// create godoc
//
//	@Summary		start a planner session
//	@Tags			sessions
//	@Accept			json
//	@Produce		json
//	@Param			body	body		createSessionRequest	false	"session settings"
//	@Success		201		{object}	map[string]interface{}
//	@Failure		400		{object}	errorResponse
//	@Router			/sessions [post]
func (api *sessionAPI) create(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	var request createSessionRequest
	if r.ContentLength != 0 {
		if err := api.readJSON(w, r, &request); err != nil {
			api.BadRequestResponse(w, r, err)
			return
		}
	}
	if err := validateRequest(request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}

	overrides := &planner.Overrides{
		EnableDragReorder: request.EnableDragReorder,
		EnableAnimation:   request.EnableAnimation,
		AnimationSpeedMs:  request.AnimationSpeedMs,
	}
	if request.VehicleType != "" {
		vc, err := da.ParseVehicleClass(request.VehicleType)
		if err != nil {
			api.BadRequestResponse(w, r, err)
			return
		}
		overrides.Vehicle = &vc
	}

	s, err := api.sessions.Create(r.Context(), overrides)
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}
	snap, err := s.Snapshot(r.Context())
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}

	headers := make(http.Header)
	headers.Set("Location", "/api/sessions/"+s.ID())
	if err := api.writeJSON(w, http.StatusCreated, envelope{"data": snap}, headers); err != nil {
		api.ServerErrorResponse(w, r, err)
	}
}

func (api *sessionAPI) snapshot(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	s, ok := api.session(w, r, p)
	if !ok {
		return
	}
	snap, err := s.Snapshot(r.Context())
	api.respond(w, r, snap, err, nil)
}

func (api *sessionAPI) delete(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	if err := api.sessions.Delete(p.ByName("id")); err != nil {
		api.getStatusCode(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (api *sessionAPI) addWaypoint(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	s, ok := api.session(w, r, p)
	if !ok {
		return
	}
	var request addWaypointRequest
	if err := api.readJSON(w, r, &request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	if err := validateRequest(request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}

	place := da.NewPlace(request.Name, *request.Lat, *request.Lon, da.SEARCH_RESULT).WithType(request.Type)
	if request.OSMType != "" {
		place = place.WithOSMElement(request.OSMType, request.OSMID)
	}
	snap, err := s.AddPlace(r.Context(), place)
	api.respond(w, r, snap, err, nil)
}

func (api *sessionAPI) removeWaypoint(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	s, ok := api.session(w, r, p)
	if !ok {
		return
	}
	index, err := parseIntParam(p.ByName("index"), "index")
	if err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	snap, removed, err := s.RemoveWaypoint(r.Context(), index)
	api.respond(w, r, snap, err, envelope{"changed": removed})
}

func (api *sessionAPI) reorderWaypoints(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	s, ok := api.session(w, r, p)
	if !ok {
		return
	}
	var request reorderWaypointsRequest
	if err := api.readJSON(w, r, &request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	if err := validateRequest(request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	snap, moved, err := s.ReorderWaypoints(r.Context(), *request.From, *request.To)
	api.respond(w, r, snap, err, envelope{"changed": moved})
}

func (api *sessionAPI) moveWaypoint(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	s, ok := api.session(w, r, p)
	if !ok {
		return
	}
	index, err := parseIntParam(p.ByName("index"), "index")
	if err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	var request coordinateRequest
	if err := api.readJSON(w, r, &request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	if err := validateRequest(request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	snap, moved, err := s.MoveWaypoint(r.Context(), index, *request.Lat, *request.Lon)
	api.respond(w, r, snap, err, envelope{"changed": moved})
}

func (api *sessionAPI) setVehicle(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	s, ok := api.session(w, r, p)
	if !ok {
		return
	}
	var request vehicleRequest
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
	snap, err := s.SetVehicle(r.Context(), vc)
	api.respond(w, r, snap, err, nil)
}

func (api *sessionAPI) optimize(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	s, ok := api.session(w, r, p)
	if !ok {
		return
	}
	snap, err := s.Optimize(r.Context())
	api.respond(w, r, snap, err, nil)
}

func (api *sessionAPI) animation(op func(*planner.Session, context.Context) (planner.Snapshot, error)) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		s, ok := api.session(w, r, p)
		if !ok {
			return
		}
		snap, err := op(s, r.Context())
		api.respond(w, r, snap, err, nil)
	}
}

func (api *sessionAPI) setSpeed(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	s, ok := api.session(w, r, p)
	if !ok {
		return
	}
	var request speedRequest
	if err := api.readJSON(w, r, &request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	if err := validateRequest(request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	snap, err := s.SetAnimationSpeed(r.Context(), request.SpeedMs)
	api.respond(w, r, snap, err, nil)
}

func (api *sessionAPI) input(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	s, ok := api.session(w, r, p)
	if !ok {
		return
	}
	var request inputRequest
	if err := api.readJSON(w, r, &request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	if err := validateRequest(request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	snap, err := s.Input(r.Context(), p.ByName("field"), request.Text)
	api.respond(w, r, snap, err, nil)
}

func (api *sessionAPI) selectSuggestion(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	s, ok := api.session(w, r, p)
	if !ok {
		return
	}
	var request selectRequest
	if err := api.readJSON(w, r, &request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	if err := validateRequest(request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	snap, selected, err := s.Select(r.Context(), p.ByName("field"), *request.Index)
	api.respond(w, r, snap, err, envelope{"changed": selected})
}

func (api *sessionAPI) routeFromFields(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	s, ok := api.session(w, r, p)
	if !ok {
		return
	}
	snap, err := s.RouteFromFields(r.Context())
	api.respond(w, r, snap, err, nil)
}

func (api *sessionAPI) addLocation(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	s, ok := api.session(w, r, p)
	if !ok {
		return
	}
	var request coordinateRequest
	if err := api.readJSON(w, r, &request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	if err := validateRequest(request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	snap, err := s.AddCurrentLocation(r.Context(), *request.Lat, *request.Lon)
	api.respond(w, r, snap, err, nil)
}

func (api *sessionAPI) locationError(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	s, ok := api.session(w, r, p)
	if !ok {
		return
	}
	var request locationErrorRequest
	if err := api.readJSON(w, r, &request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	if err := validateRequest(request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	snap, err := s.ReportLocationError(r.Context(), request.Code, request.Message)
	api.respond(w, r, snap, err, nil)
}

func (api *sessionAPI) dismissNotice(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	s, ok := api.session(w, r, p)
	if !ok {
		return
	}
	id, err := strconv.ParseUint(p.ByName("notice"), 10, 64)
	if err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	snap, dismissed, err := s.DismissNotice(r.Context(), id)
	api.respond(w, r, snap, err, envelope{"changed": dismissed})
}

func (api *sessionAPI) charts(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	s, ok := api.session(w, r, p)
	if !ok {
		return
	}
	snap, err := s.Snapshot(r.Context())
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}
	if err := api.writeJSON(w, http.StatusOK, envelope{"data": snap.Charts}, nil); err != nil {
		api.ServerErrorResponse(w, r, err)
	}
}

// scene returns the map scene as a GeoJSON FeatureCollection.
func (api *sessionAPI) scene(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	s, ok := api.session(w, r, p)
	if !ok {
		return
	}
	snap, err := s.Snapshot(r.Context())
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}
	if err := api.writeJSON(w, http.StatusOK, envelope{"data": snap.Scene.GeoJSON}, nil); err != nil {
		api.ServerErrorResponse(w, r, err)
	}
}
