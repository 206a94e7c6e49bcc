package geom

import (
	"bytes"
	"encoding/json"
)

// Collection holds the geometries attached to a single geocoding feature:
// zero-or-one point and zero-or-one polygon (or multipolygon). Some classes,
// area codes for example, carry no polygon at all.
type Collection struct {
	Point   *Geometry
	Polygon *Geometry
}

// Attach places a parsed geometry into its slot by type. Geometries that are
// neither points nor polygonal are ignored.
func (c *Collection) Attach(g *Geometry) {
	switch {
	case g == nil:
	case g.IsPoint():
		c.Point = g
	case g.IsPolygonal():
		c.Polygon = g
	}
}

// IsEmpty reports whether the collection holds no geometry at all.
func (c *Collection) IsEmpty() bool {
	return c.Point == nil && c.Polygon == nil
}

// geometries returns the present members in point-then-polygon order.
func (c *Collection) geometries() []*Geometry {
	var out []*Geometry
	if c.Point != nil {
		out = append(out, c.Point)
	}
	if c.Polygon != nil {
		out = append(out, c.Polygon)
	}
	return out
}

// MarshalJSON renders the collection as a GeoJSON GeometryCollection.
func (c *Collection) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"type":"GeometryCollection","geometries":[`)
	for i, g := range c.geometries() {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(g.GeoJSON())
	}
	buf.WriteString("]}")
	return buf.Bytes(), nil
}

// PairPayload is the serialized form of an offending geometry pair: a single
// GeometryCollection holding both features' point and polygon geometries, so
// a caller can visualize the shapes behind a reported violation.
type PairPayload struct {
	collections []*Collection
}

// NewPairPayload builds a payload from the geometry collections of the two
// features involved in a violation.
func NewPairPayload(a, b *Collection) *PairPayload {
	return &PairPayload{collections: []*Collection{a, b}}
}

// MarshalJSON flattens both collections into one GeometryCollection.
func (p *PairPayload) MarshalJSON() ([]byte, error) {
	var geoms []json.RawMessage
	for _, c := range p.collections {
		if c == nil {
			continue
		}
		for _, g := range c.geometries() {
			geoms = append(geoms, json.RawMessage(g.GeoJSON()))
		}
	}
	var buf bytes.Buffer
	buf.WriteString(`{"type":"GeometryCollection","geometries":[`)
	for i, g := range geoms {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.Write(g)
	}
	buf.WriteString("]}")
	return buf.Bytes(), nil
}
