package emissions

import (
	"testing"

	da "github.com/lintang-b-s/ecoflow/pkg/datastructure"
	"github.com/stretchr/testify/assert"
)

func TestEstimate(t *testing.T) {
	testCases := []struct {
		name     string
		distance float64
		vc       da.VehicleClass
		want     float64
	}{
		{name: "car", distance: 10, vc: da.CAR, want: 1.2},
		{name: "bus", distance: 10, vc: da.BUS, want: 0.8},
		{name: "motorcycle", distance: 10, vc: da.MOTORCYCLE, want: 0.7},
		{name: "bike", distance: 10, vc: da.BIKE, want: 0},
		{name: "foot", distance: 10, vc: da.FOOT, want: 0},
		{name: "unknown defaults to car", distance: 10, vc: da.VehicleClass(99), want: 1.2},
		{name: "zero distance", distance: 0, vc: da.CAR, want: 0},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Estimate(tt.distance, tt.vc), 1e-12)
		})
	}
}

func TestEstimateIsLinear(t *testing.T) {
	distances := []float64{0, 0.5, 1, 7.25, 42, 1000}
	for _, vc := range da.VehicleClasses() {
		for _, d := range distances {
			assert.InDelta(t, 2*Estimate(d, vc), Estimate(2*d, vc), 1e-9)
			assert.InDelta(t, Estimate(d, vc)+Estimate(1, vc), Estimate(d+1, vc), 1e-9)
			if vc == da.BIKE || vc == da.FOOT {
				assert.Equal(t, 0.0, Estimate(d, vc))
			}
		}
	}
}

func TestCompare(t *testing.T) {
	got := Compare(5)
	assert.Len(t, got, 4)
	assert.Equal(t, "Car", got[0].Label)
	assert.InDelta(t, 0.6, got[0].EmissionsKg, 1e-12)
	assert.Equal(t, 0.0, got[3].EmissionsKg)
	assert.InDelta(t, 0.6, SavingsVsCar(5, da.FOOT), 1e-12)
}
