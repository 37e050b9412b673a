package planner

import (
	"context"

	da "github.com/lintang-b-s/ecoflow/pkg/datastructure"
	"github.com/lintang-b-s/ecoflow/pkg/geo"
	"github.com/lintang-b-s/ecoflow/pkg/util"
)

const currentLocationName = "My current location"

// Browser geolocation error codes.
const (
	GeolocationPermissionDenied    = 1
	GeolocationPositionUnavailable = 2
	GeolocationTimeout             = 3
)

// AddCurrentLocation adds the device position reported by the browser as a waypoint.
func (s *Session) AddCurrentLocation(ctx context.Context, lat, lon float64) (Snapshot, error) {
	if !geo.NewCoordinate(lat, lon).Valid() {
		return Snapshot{}, util.NewErrorf(util.ErrBadParamInput, "invalid coordinate (%f, %f)", lat, lon)
	}
	place := da.NewPlace(currentLocationName, lat, lon, da.CURRENT_LOCATION)
	return s.mutate(ctx, func() error {
		s.addWaypoint(place, s.cfg.LocationZoom)
		return nil
	})
}

// ReportLocationError turns a failed geolocation into a notice.
func (s *Session) ReportLocationError(ctx context.Context, code int, message string) (Snapshot, error) {
	err := GeolocationError(code, message)
	return s.mutate(ctx, func() error {
		s.notices.Report(err)
		return nil
	})
}

func GeolocationError(code int, message string) error {
	if message == "" {
		message = "geolocation failed"
	}
	switch code {
	case GeolocationPermissionDenied:
		return util.NewErrorf(util.ErrGeolocationDenied, "%s", message)
	case GeolocationTimeout:
		return util.NewErrorf(util.ErrGeolocationTimeout, "%s", message)
	default:
		return util.NewErrorf(util.ErrGeolocationUnavailable, "%s", message)
	}
}
