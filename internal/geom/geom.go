// Package geom wraps the GEOS geometry engine with the small surface the
// validation pipeline needs: parsing, bounds, and spatial predicates that
// report topology failures as errors instead of panicking.
package geom

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/twpayne/go-geos"
)

// Encoding identifies the textual encoding of a raw geometry value.
type Encoding int

const (
	// EncodingWKT is well-known text, as found in the CSV extracts.
	EncodingWKT Encoding = iota
	// EncodingGeoJSON is GeoJSON, as produced by ST_AsGeoJSON.
	EncodingGeoJSON
)

// Geometry is a parsed geometry. The zero value is not usable; construct
// through Parse, ParseWKT, ParseGeoJSON or NewPoint.
type Geometry struct {
	g *geos.Geom
}

// Bounds is an axis-aligned bounding box in lon/lat order.
type Bounds struct {
	MinX, MinY, MaxX, MaxY float64
}

// Intersects reports whether two boxes share any area or edge.
func (b Bounds) Intersects(o Bounds) bool {
	return b.MinX <= o.MaxX && o.MinX <= b.MaxX && b.MinY <= o.MaxY && o.MinY <= b.MaxY
}

// Parse parses a raw geometry value using the given encoding.
func Parse(data string, enc Encoding) (*Geometry, error) {
	switch enc {
	case EncodingWKT:
		return ParseWKT(data)
	case EncodingGeoJSON:
		return ParseGeoJSON(data)
	default:
		return nil, fmt.Errorf("unknown geometry encoding %d", enc)
	}
}

// ParseWKT parses a well-known-text geometry.
func ParseWKT(wkt string) (*Geometry, error) {
	g, err := newGeomSafe(func() (*geos.Geom, error) { return geos.NewGeomFromWKT(wkt) })
	if err != nil {
		return nil, fmt.Errorf("parse wkt: %w", err)
	}
	return &Geometry{g: g}, nil
}

// ParseGeoJSON parses a GeoJSON geometry object.
func ParseGeoJSON(data string) (*Geometry, error) {
	g, err := newGeomSafe(func() (*geos.Geom, error) { return geos.NewGeomFromGeoJSON(data) })
	if err != nil {
		return nil, fmt.Errorf("parse geojson: %w", err)
	}
	return &Geometry{g: g}, nil
}

// NewPoint builds a point geometry from a lon/lat coordinate pair.
func NewPoint(lon, lat float64) (*Geometry, error) {
	var sb strings.Builder
	sb.WriteString("POINT (")
	sb.WriteString(strconv.FormatFloat(lon, 'f', -1, 64))
	sb.WriteByte(' ')
	sb.WriteString(strconv.FormatFloat(lat, 'f', -1, 64))
	sb.WriteByte(')')
	return ParseWKT(sb.String())
}

// newGeomSafe runs a go-geos constructor, converting parser panics into errors.
func newGeomSafe(fn func() (*geos.Geom, error)) (g *geos.Geom, err error) {
	defer func() {
		if r := recover(); r != nil {
			g = nil
			err = fmt.Errorf("geometry engine: %v", r)
		}
	}()
	return fn()
}

// IsPolygonal reports whether the geometry is a Polygon or MultiPolygon.
func (gm *Geometry) IsPolygonal() bool {
	id := gm.g.TypeID()
	return id == geos.TypeIDPolygon || id == geos.TypeIDMultiPolygon
}

// IsPoint reports whether the geometry is a Point.
func (gm *Geometry) IsPoint() bool {
	return gm.g.TypeID() == geos.TypeIDPoint
}

// IsEmpty reports whether the geometry has no coordinates.
func (gm *Geometry) IsEmpty() bool {
	return gm.g.IsEmpty()
}

// Bounds returns the geometry's envelope.
func (gm *Geometry) Bounds() Bounds {
	b := gm.g.Bounds()
	return Bounds{MinX: b.MinX, MinY: b.MinY, MaxX: b.MaxX, MaxY: b.MaxY}
}

// GeoJSON renders the geometry as a compact GeoJSON object.
func (gm *Geometry) GeoJSON() string {
	return gm.g.ToGeoJSON(-1)
}

// WKT renders the geometry as well-known text.
func (gm *Geometry) WKT() string {
	return gm.g.ToWKT()
}
