package chart

import (
	"fmt"
	"strings"

	da "github.com/lintang-b-s/ecoflow/pkg/datastructure"
	"github.com/lintang-b-s/ecoflow/pkg/emissions"
	"github.com/lintang-b-s/ecoflow/pkg/util"
)

const (
	EmissionsChartID      = "emissions"
	TransportShareChartID = "transport_share"
	TrafficChartID        = "traffic"
	MonthlySavingsChartID = "monthly_savings"
)

var (
	red    = [2]string{"rgba(255, 99, 132, 0.5)", "rgba(255, 99, 132, 1)"}
	blue   = [2]string{"rgba(54, 162, 235, 0.5)", "rgba(54, 162, 235, 1)"}
	yellow = [2]string{"rgba(255, 206, 86, 0.5)", "rgba(255, 206, 86, 1)"}
	green  = [2]string{"rgba(75, 192, 192, 0.5)", "rgba(75, 192, 192, 1)"}

	highlightAlpha = "0.9"
)

// comparisonClasses maps each bar of the emissions comparison to the vehicle classes it stands for.
var comparisonClasses = [][]da.VehicleClass{
	{da.CAR},
	{da.BUS},
	{da.MOTORCYCLE},
	{da.BIKE, da.FOOT},
}

// EmissionsComparison compares the emissions of every vehicle class over distanceKm and highlights
// the bar of the selected class.
func EmissionsComparison(distanceKm float64, selected da.VehicleClass) Chart {
	cmp := emissions.Compare(distanceKm)
	palette := [][2]string{red, blue, yellow, green}

	ds := Dataset{
		Label:       "CO2 emissions (kg)",
		BorderWidth: 1,
	}
	labels := make([]string, 0, len(cmp))
	for i, c := range cmp {
		labels = append(labels, c.Label)
		ds.Data = append(ds.Data, util.RoundFloat(c.EmissionsKg, 2))
		bg := palette[i%len(palette)][0]
		for _, vc := range comparisonClasses[i] {
			if vc == selected {
				bg = strings.Replace(bg, "0.5", highlightAlpha, 1)
			}
		}
		ds.BackgroundColor = append(ds.BackgroundColor, bg)
		ds.BorderColor = append(ds.BorderColor, palette[i%len(palette)][1])
	}

	return Chart{
		ID:   EmissionsChartID,
		Type: TypeBar,
		Data: Data{Labels: labels, Datasets: []Dataset{ds}},
		Options: Options{
			Title: "Emissions by transport mode",
			Y:     &Axis{BeginAtZero: true, Title: "CO2 emissions (kg)"},
		},
	}
}

func TransportShare() Chart {
	return Chart{
		ID:   TransportShareChartID,
		Type: TypePie,
		Data: Data{
			Labels: []string{"Private car", "Public transport", "Bike", "Walking"},
			Datasets: []Dataset{{
				Data:            []float64{65, 25, 5, 5},
				BackgroundColor: []string{red[0], yellow[0], green[0], blue[0]},
				BorderColor:     []string{red[1], yellow[1], green[1], blue[1]},
				BorderWidth:     1,
			}},
		},
		Options: Options{
			Title:          "Emission share by transport mode",
			ShowLegend:     true,
			LegendPosition: "right",
		},
	}
}

// DefaultTrafficByHour is the congestion profile shown when no traffic sensor has reported.
var DefaultTrafficByHour = []float64{
	10, 5, 3, 2, 5, 15, 35, 65, 75, 60,
	50, 55, 65, 60, 65, 70, 85, 90, 65,
	50, 40, 30, 20, 15,
}

// TrafficByHour plots congestion per hour of day. byHour must have 24 entries; anything else falls
// back to the default profile.
func TrafficByHour(byHour []float64) Chart {
	if len(byHour) != 24 {
		byHour = DefaultTrafficByHour
	}
	labels := make([]string, 24)
	for h := range labels {
		labels[h] = fmt.Sprintf("%d:00", h)
	}
	maxPct := 100.0
	return Chart{
		ID:   TrafficChartID,
		Type: TypeLine,
		Data: Data{
			Labels: labels,
			Datasets: []Dataset{{
				Label:           "Congestion level",
				Data:            append([]float64(nil), byHour...),
				BorderColor:     []string{red[1]},
				BackgroundColor: []string{"rgba(255, 99, 132, 0.1)"},
				Fill:            true,
				Tension:         0.4,
			}},
		},
		Options: Options{
			Title: "Traffic during the day",
			Y:     &Axis{BeginAtZero: true, Max: &maxPct, Title: "Congestion (%)"},
			X:     &Axis{Title: "Hour of day"},
		},
	}
}

func MonthlySavings() Chart {
	return Chart{
		ID:   MonthlySavingsChartID,
		Type: TypeBar,
		Data: Data{
			Labels: []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun"},
			Datasets: []Dataset{{
				Label:           "Saved emissions (kg CO2)",
				Data:            []float64{120, 150, 180, 210, 250, 300},
				BackgroundColor: []string{"rgba(75, 192, 192, 0.7)"},
				BorderColor:     []string{green[1]},
				BorderWidth:     1,
			}},
		},
		Options: Options{
			Title: "Monthly emission savings",
			Y:     &Axis{BeginAtZero: true, Title: "Saved emissions (kg CO2)"},
		},
	}
}

// Dashboard returns the dashboard charts in display order.
func Dashboard(trafficByHour []float64) []Chart {
	return []Chart{TransportShare(), TrafficByHour(trafficByHour), MonthlySavings()}
}
