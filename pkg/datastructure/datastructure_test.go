package datastructure

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVehicleClass(t *testing.T) {
	testCases := []struct {
		in          string
		want        VehicleClass
		wantProfile string
		wantErr     bool
	}{
		{in: "car", want: CAR, wantProfile: "driving"},
		{in: "bike", want: BIKE, wantProfile: "cycling"},
		{in: "foot", want: FOOT, wantProfile: "walking"},
		{in: "walk", want: FOOT, wantProfile: "walking"},
		{in: "bus", want: BUS, wantProfile: "driving"},
		{in: "Motorcycle", want: MOTORCYCLE, wantProfile: "driving"},
		{in: "", want: CAR, wantProfile: "driving"},
		{in: "truck", wantErr: true},
	}

	for _, tt := range testCases {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseVehicleClass(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantProfile, got.Profile())
		})
	}
}

func TestVehicleClassJSON(t *testing.T) {
	var payload struct {
		Vehicle VehicleClass `json:"vehicle_type"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"vehicle_type":"walk"}`), &payload))
	assert.Equal(t, FOOT, payload.Vehicle)

	b, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"vehicle_type":"foot"}`, string(b))

	assert.Error(t, json.Unmarshal([]byte(`{"vehicle_type":"rocket"}`), &payload))
}

func TestPlaceWithOSMElement(t *testing.T) {
	p := NewPlace("Parque del Perro", 3.4497, -76.5447, SEARCH_RESULT).
		WithOSMElement("way", 4242).
		WithType("park")

	assert.Equal(t, "way/4242", p.OSMID())
	assert.Equal(t, "park", p.Type())

	unchanged := NewPlace("x", 0, 0, SEARCH_RESULT).WithOSMElement("area", 1)
	assert.Empty(t, unchanged.OSMID())
}

func TestWaypointKeepsPlaceImmutable(t *testing.T) {
	p := NewPlace("Cali Centro", 3.45, -76.53, SEARCH_RESULT)
	w := NewWaypoint(p, 7)
	w.SetCoordinate(3.46, -76.52)

	assert.Equal(t, 3.46, w.Coordinate().Lat)
	assert.Equal(t, 3.45, w.Place().Lat())
	assert.Equal(t, MarkerID(7), w.Marker())
}
