package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateHaversineDistance(t *testing.T) {
	testCases := []struct {
		name    string
		a, b    Coordinate
		wantKm  float64
		epsilon float64
	}{
		{
			name:    "same point",
			a:       NewCoordinate(3.45, -76.53),
			b:       NewCoordinate(3.45, -76.53),
			wantKm:  0,
			epsilon: 1e-9,
		},
		{
			name:    "one degree of latitude",
			a:       NewCoordinate(0, 0),
			b:       NewCoordinate(1, 0),
			wantKm:  111.19,
			epsilon: 0.01,
		},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateHaversineDistance(tt.a.Lat, tt.a.Lon, tt.b.Lat, tt.b.Lon)
			assert.InDelta(t, tt.wantKm, got, tt.epsilon)
		})
	}
}

func TestBoundsOf(t *testing.T) {
	_, ok := BoundsOf(nil)
	assert.False(t, ok)

	b, ok := BoundsOf([]Coordinate{
		NewCoordinate(3.45, -76.53),
		NewCoordinate(3.54, -76.38),
		NewCoordinate(3.50, -76.45),
	})
	require.True(t, ok)
	assert.InDelta(t, 3.45, b.SouthWest.Lat, 1e-9)
	assert.InDelta(t, -76.53, b.SouthWest.Lon, 1e-9)
	assert.InDelta(t, 3.54, b.NorthEast.Lat, 1e-9)
	assert.InDelta(t, -76.38, b.NorthEast.Lon, 1e-9)

	assert.True(t, b.Contains(NewCoordinate(3.5, -76.5)))
	assert.False(t, b.Contains(NewCoordinate(4.6, -74.07)))
}

func TestBoundsRecenter(t *testing.T) {
	b := BoundsAround(NewCoordinate(3.4516, -76.5320), 2)
	moved := b.Recenter(NewCoordinate(3.5, -76.4))
	c := moved.Center()
	assert.InDelta(t, 3.5, c.Lat, 1e-6)
	assert.InDelta(t, -76.4, c.Lon, 1e-6)
	assert.True(t, moved.Contains(NewCoordinate(3.5, -76.4)))
}

func TestPolylineRoundTrip(t *testing.T) {
	path := []Coordinate{
		NewCoordinate(38.5, -120.2),
		NewCoordinate(40.7, -120.95),
		NewCoordinate(43.252, -126.453),
	}
	encoded := PoylineFromCoords(path)
	assert.Equal(t, "_p~iF~ps|U_ulLnnqC_mqNvxq`@", encoded)

	decoded, err := CoordsFromPolyline(encoded)
	require.NoError(t, err)
	require.Len(t, decoded, len(path))
	for i := range path {
		assert.InDelta(t, path[i].Lat, decoded[i].Lat, 1e-5)
		assert.InDelta(t, path[i].Lon, decoded[i].Lon, 1e-5)
	}
}

func TestBearingTo(t *testing.T) {
	assert.InDelta(t, 0.0, BearingTo(0, 0, 1, 0), 1e-9)
	assert.InDelta(t, 90.0, BearingTo(0, 0, 0, 1), 1e-9)
	assert.False(t, math.IsNaN(BearingTo(3.45, -76.53, 3.54, -76.38)))
}
