package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	helper "github.com/lintang-b-s/ecoflow/pkg/http/router/routerhelper"
	"github.com/lintang-b-s/ecoflow/pkg/sensor"
	"github.com/lintang-b-s/ecoflow/pkg/util"
	"go.uber.org/zap"
)

const healthCheckTimeout = 2 * time.Second

type sensorAPI struct {
	baseAPI
	sensorService    SensorService
	dashboardService DashboardService
	sessions         SessionManager
}

func NewSensorAPI(sensorService SensorService, dashboardService DashboardService, sessions SessionManager,
	log *zap.Logger) *sensorAPI {
	return &sensorAPI{
		baseAPI:          baseAPI{log: log},
		sensorService:    sensorService,
		dashboardService: dashboardService,
		sessions:         sessions,
	}
}

func (api *sensorAPI) Routes(group *helper.RouteGroup) {
	group.POST("/sensors/data", api.ingest)
	group.GET("/sensors/history/:id", api.history)
	group.GET("/charts/dashboard", api.dashboard)
	group.GET("/health", api.health)
}

// ingest godoc
//
//	@Summary		store readings posted by a sensor
//	@Tags			sensors
//	@Accept			json
//	@Produce		json
//	@Param			body	body		sensorDataRequest	true	"sensor id and readings"
//	@Success		200		{object}	map[string]interface{}
//	@Failure		400		{object}	errorResponse
//	@Router			/sensors/data [post]
func (api *sensorAPI) ingest(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	var request sensorDataRequest
	if err := api.readJSON(w, r, &request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	if err := validateRequest(request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}

	result, err := api.sensorService.Ingest(r.Context(), request.SensorID, request.Readings)
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}

	if err := api.writeJSON(w, http.StatusOK, envelope{"data": result}, nil); err != nil {
		api.ServerErrorResponse(w, r, err)
	}
}

func (api *sensorAPI) history(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	query := r.URL.Query()
	from, err := parseTimeParam(query.Get("start_date"), "start_date")
	if err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	to, err := parseTimeParam(query.Get("end_date"), "end_date")
	if err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	if from != nil && to != nil && to.Before(*from) {
		api.BadRequestResponse(w, r, util.NewErrorf(util.ErrBadParamInput, "end_date must not be before start_date"))
		return
	}

	readings, err := api.sensorService.History(r.Context(), p.ByName("id"), from, to)
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}
	if readings == nil {
		readings = []sensor.Reading{}
	}

	if err := api.writeJSON(w, http.StatusOK, envelope{"data": readings}, nil); err != nil {
		api.ServerErrorResponse(w, r, err)
	}
}

func (api *sensorAPI) dashboard(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	charts, err := api.dashboardService.Charts(r.Context())
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}
	if err := api.writeJSON(w, http.StatusOK, envelope{"data": charts}, nil); err != nil {
		api.ServerErrorResponse(w, r, err)
	}
}

func (api *sensorAPI) health(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	status := http.StatusOK
	storage := "ok"
	if err := api.sensorService.Health(ctx); err != nil {
		api.log.Warn("sensor storage unhealthy", zap.Error(err))
		status = http.StatusServiceUnavailable
		storage = "unavailable"
	}

	resp := envelope{"data": map[string]interface{}{
		"status":   http.StatusText(status),
		"storage":  storage,
		"sessions": api.sessions.Len(),
	}}
	if err := api.writeJSON(w, status, resp, nil); err != nil {
		api.ServerErrorResponse(w, r, err)
	}
}

func parseTimeParam(raw, name string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := sensor.ParseTimestamp(raw)
	if err != nil {
		return nil, util.WrapErrorf(err, util.ErrBadParamInput, "%s must be an ISO 8601 date", name)
	}
	return &t, nil
}
