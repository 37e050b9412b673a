package emissions

import (
	da "github.com/lintang-b-s/ecoflow/pkg/datastructure"
)

// kg CO2 per km
var factors = map[da.VehicleClass]float64{
	da.CAR:        0.12,
	da.BUS:        0.08,
	da.MOTORCYCLE: 0.07,
	da.BIKE:       0,
	da.FOOT:       0,
}

// Factor returns the kg CO2/km factor of vc; unknown classes use the car factor.
func Factor(vc da.VehicleClass) float64 {
	if f, ok := factors[vc]; ok {
		return f
	}
	return factors[da.CAR]
}

func Estimate(distanceKm float64, vc da.VehicleClass) float64 {
	return distanceKm * Factor(vc)
}

type Comparison struct {
	Label       string  `json:"label"`
	EmissionsKg float64 `json:"emissions_kg"`
}

// Compare estimates the same distance for every mode shown in the comparison chart.
// Bike and foot share a bar.
func Compare(distanceKm float64) []Comparison {
	return []Comparison{
		{Label: "Car", EmissionsKg: Estimate(distanceKm, da.CAR)},
		{Label: "Bus", EmissionsKg: Estimate(distanceKm, da.BUS)},
		{Label: "Motorcycle", EmissionsKg: Estimate(distanceKm, da.MOTORCYCLE)},
		{Label: "Bike/Foot", EmissionsKg: Estimate(distanceKm, da.BIKE)},
	}
}

// SavingsVsCar is how much CO2 choosing vc saves compared with driving the same distance.
func SavingsVsCar(distanceKm float64, vc da.VehicleClass) float64 {
	return Estimate(distanceKm, da.CAR) - Estimate(distanceKm, vc)
}
