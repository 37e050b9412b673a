package geo

import (
	"github.com/golang/geo/s2"
)

// Bounds is a lat/lon rectangle, the shape handed to the map widget for fit-bounds.
type Bounds struct {
	SouthWest Coordinate `json:"south_west"`
	NorthEast Coordinate `json:"north_east"`
}

// BoundsOf returns the smallest rectangle containing every coordinate. ok is false for an empty slice.
func BoundsOf(coords []Coordinate) (Bounds, bool) {
	if len(coords) == 0 {
		return Bounds{}, false
	}
	rect := s2.EmptyRect()
	for _, c := range coords {
		rect = rect.AddPoint(s2.LatLngFromDegrees(c.Lat, c.Lon))
	}
	return boundsFromRect(rect), true
}

// BoundsAround returns a square of radiusKm around center, used for the default viewport.
func BoundsAround(center Coordinate, radiusKm float64) Bounds {
	swLat, swLon := GetDestinationPoint(center.Lat, center.Lon, 225, radiusKm)
	neLat, neLon := GetDestinationPoint(center.Lat, center.Lon, 45, radiusKm)
	return Bounds{
		SouthWest: NewCoordinate(swLat, swLon),
		NorthEast: NewCoordinate(neLat, neLon),
	}
}

func (b Bounds) rect() s2.Rect {
	return s2.RectFromLatLng(s2.LatLngFromDegrees(b.SouthWest.Lat, b.SouthWest.Lon)).
		AddPoint(s2.LatLngFromDegrees(b.NorthEast.Lat, b.NorthEast.Lon))
}

func (b Bounds) Contains(c Coordinate) bool {
	return b.rect().ContainsLatLng(s2.LatLngFromDegrees(c.Lat, c.Lon))
}

func (b Bounds) Center() Coordinate {
	center := b.rect().Center()
	return NewCoordinate(center.Lat.Degrees(), center.Lng.Degrees())
}

// Recenter moves the rectangle so that its center is c, keeping its span.
func (b Bounds) Recenter(c Coordinate) Bounds {
	old := b.Center()
	dLat, dLon := c.Lat-old.Lat, c.Lon-old.Lon
	return Bounds{
		SouthWest: NewCoordinate(b.SouthWest.Lat+dLat, b.SouthWest.Lon+dLon),
		NorthEast: NewCoordinate(b.NorthEast.Lat+dLat, b.NorthEast.Lon+dLon),
	}
}

func boundsFromRect(rect s2.Rect) Bounds {
	lo, hi := rect.Lo(), rect.Hi()
	return Bounds{
		SouthWest: NewCoordinate(lo.Lat.Degrees(), lo.Lng.Degrees()),
		NorthEast: NewCoordinate(hi.Lat.Degrees(), hi.Lng.Degrees()),
	}
}
