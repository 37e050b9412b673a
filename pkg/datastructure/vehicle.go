package datastructure

import (
	"encoding/json"
	"fmt"
	"strings"
)

// VehicleClass drives both the emission factor and the routing profile.
type VehicleClass uint8

const (
	CAR VehicleClass = iota
	BIKE
	FOOT
	BUS
	MOTORCYCLE
)

var vehicleClassNames = [...]string{
	CAR:        "car",
	BIKE:       "bike",
	FOOT:       "foot",
	BUS:        "bus",
	MOTORCYCLE: "motorcycle",
}

func VehicleClasses() []VehicleClass {
	return []VehicleClass{CAR, BIKE, FOOT, BUS, MOTORCYCLE}
}

func (vc VehicleClass) String() string {
	if int(vc) < len(vehicleClassNames) {
		return vehicleClassNames[vc]
	}
	return fmt.Sprintf("VehicleClass(%d)", vc)
}

// ParseVehicleClass accepts "walk" as an alias of foot and "bicycle" of bike.
func ParseVehicleClass(s string) (VehicleClass, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "car", "":
		return CAR, nil
	case "bike", "bicycle":
		return BIKE, nil
	case "foot", "walk":
		return FOOT, nil
	case "bus":
		return BUS, nil
	case "motorcycle":
		return MOTORCYCLE, nil
	default:
		return CAR, fmt.Errorf("unknown vehicle class %q", s)
	}
}

// Profile is the OSRM routing profile for the class.
func (vc VehicleClass) Profile() string {
	switch vc {
	case BIKE:
		return "cycling"
	case FOOT:
		return "walking"
	default:
		// bus and motorcycle share the road network with cars
		return "driving"
	}
}

func (vc VehicleClass) MarshalJSON() ([]byte, error) {
	return json.Marshal(vc.String())
}

func (vc *VehicleClass) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseVehicleClass(s)
	if err != nil {
		return err
	}
	*vc = parsed
	return nil
}
