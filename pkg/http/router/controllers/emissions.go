package controllers

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	da "github.com/lintang-b-s/ecoflow/pkg/datastructure"
	"github.com/lintang-b-s/ecoflow/pkg/emissions"
	helper "github.com/lintang-b-s/ecoflow/pkg/http/router/routerhelper"
	"github.com/lintang-b-s/ecoflow/pkg/util"
	"go.uber.org/zap"
)

type emissionsAPI struct {
	baseAPI
}

func NewEmissionsAPI(log *zap.Logger) *emissionsAPI {
	return &emissionsAPI{baseAPI: baseAPI{log: log}}
}

func (api *emissionsAPI) Routes(group *helper.RouteGroup) {
	group.GET("/emissions", api.estimate)
}

// estimate godoc
//
//	@Summary		estimate CO2 emissions of a trip
//	@Tags			emissions
//	@Produce		json
//	@Param			distance_km		query		number	true	"trip distance in km"
//	@Param			vehicle_type	query		string	false	"car, bike, foot, bus or motorcycle"
//	@Success		200				{object}	emissionsResponse
//	@Failure		400				{object}	errorResponse
//	@Router			/emissions [get]
func (api *emissionsAPI) estimate(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	query := r.URL.Query()
	distance, _, err := parseFloatParam(query, "distance_km", true)
	if err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	if distance < 0 {
		api.BadRequestResponse(w, r, util.NewErrorf(util.ErrBadParamInput, "distance_km must not be negative"))
		return
	}
	vc, err := da.ParseVehicleClass(query.Get("vehicle_type"))
	if err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}

	comparison := emissions.Compare(distance)
	for i := range comparison {
		comparison[i].EmissionsKg = util.RoundFloat(comparison[i].EmissionsKg, 3)
	}
	resp := emissionsResponse{
		DistanceKm:     distance,
		VehicleType:    vc.String(),
		EmissionsKg:    util.RoundFloat(emissions.Estimate(distance, vc), 3),
		SavingsVsCarKg: util.RoundFloat(emissions.SavingsVsCar(distance, vc), 3),
		Comparison:     comparison,
	}
	if err := api.writeJSON(w, http.StatusOK, envelope{"data": resp}, nil); err != nil {
		api.ServerErrorResponse(w, r, err)
	}
}
