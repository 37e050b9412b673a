package spatialindex

import (
	"sort"

	da "github.com/lintang-b-s/ecoflow/pkg/datastructure"
	"github.com/lintang-b-s/ecoflow/pkg/geo"
	"github.com/tidwall/rtree"
	"go.uber.org/zap"
)

const maxNearbyResults = 20

// Rtree indexes places by position for radius queries.
type Rtree struct {
	tr   *rtree.RTreeG[da.Place]
	size int
}

func NewRtree() *Rtree {
	var tr rtree.RTreeG[da.Place]
	return &Rtree{
		tr: &tr,
	}
}

// Build inserts every place as a point entry.
func (rt *Rtree) Build(places []da.Place, log *zap.Logger) {
	log.Info("Building R-tree spatial index...", zap.Int("places", len(places)))
	for _, p := range places {
		rt.Insert(p)
	}
	log.Info("R-tree spatial index built.")
}

func (rt *Rtree) Insert(p da.Place) {
	pt := [2]float64{p.Lon(), p.Lat()}
	rt.tr.Insert(pt, pt, p)
	rt.size++
}

func (rt *Rtree) Len() int {
	return rt.size
}

type Nearby struct {
	Place      da.Place `json:"place"`
	DistanceKm float64  `json:"distance_km"`
}

// SearchWithinRadius returns the places within radius (in km) from (qLat, qLon), nearest first.
func (rt *Rtree) SearchWithinRadius(qLat, qLon, radius float64) []Nearby {
	lowerLat, lowerLon := geo.GetDestinationPoint(qLat, qLon, 225, radius*1.5)
	upperLat, upperLon := geo.GetDestinationPoint(qLat, qLon, 45, radius*1.5)

	results := make([]Nearby, 0, 10)
	rt.tr.Search([2]float64{lowerLon, lowerLat}, [2]float64{upperLon, upperLat},
		func(min, max [2]float64, data da.Place) bool {
			d := geo.CalculateHaversineDistance(qLat, qLon, data.Lat(), data.Lon())
			if d <= radius {
				results = append(results, Nearby{Place: data, DistanceKm: d})
			}
			return true
		})

	sort.Slice(results, func(i, j int) bool {
		return results[i].DistanceKm < results[j].DistanceKm
	})
	if len(results) > maxNearbyResults {
		results = results[:maxNearbyResults]
	}
	return results
}
