package geofence

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
)

// Point is a WGS84 coordinate.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (p Point) orb() orb.Point { return orb.Point{p.Lng, p.Lat} }

// Valid reports whether the coordinate is on the globe.
func (p Point) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// DistanceKm is the great-circle distance between a and b.
func DistanceKm(a, b Point) float64 {
	return geo.DistanceHaversine(a.orb(), b.orb()) / 1000
}

// Place is a resolved geocoding target.
type Place struct {
	Name        string            `json:"name"`
	DisplayName string            `json:"display_name"`
	Center      Point             `json:"center"`
	Boundary    *geojson.Geometry `json:"boundary,omitempty"`
	Query       string            `json:"query"`
}

// Contains tests p against the boundary. Only Polygon and MultiPolygon
// boundaries are considered; anything else, including malformed rings,
// reports false so the caller falls back to distance.
func (pl Place) Contains(p Point) bool {
	if pl.Boundary == nil || pl.Boundary.Coordinates == nil {
		return false
	}
	switch g := pl.Boundary.Coordinates.(type) {
	case orb.Polygon:
		return usablePolygon(g) && planar.PolygonContains(g, p.orb())
	case orb.MultiPolygon:
		for _, poly := range g {
			if usablePolygon(poly) && planar.PolygonContains(poly, p.orb()) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// usablePolygon requires every ring to be closed with at least three vertices.
func usablePolygon(poly orb.Polygon) bool {
	if len(poly) == 0 {
		return false
	}
	for _, ring := range poly {
		if len(ring) < 4 || ring[0] != ring[len(ring)-1] {
			return false
		}
	}
	return true
}

// ParseBoundary decodes a GeoJSON geometry. Undecodable input yields nil.
func ParseBoundary(raw []byte) *geojson.Geometry {
	if len(raw) == 0 {
		return nil
	}
	g, err := geojson.UnmarshalGeometry(raw)
	if err != nil {
		return nil
	}
	return g
}
