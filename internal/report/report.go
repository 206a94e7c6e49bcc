// Package report turns check results into stable serializable structures and
// renders them for the CLI. Key lists are sorted and empty results marshal as
// empty collections, never null, so two runs over the same data produce
// byte-identical output.
package report

import (
	"encoding/json"
	"io"
	"sort"

	"github.com/geostack-labs/geoverify/internal/feature"
	"github.com/geostack-labs/geoverify/internal/geom"
	"github.com/geostack-labs/geoverify/internal/validate"
)

// InvalidShapes reports the features whose polygon fails validity, with the
// engine's per-key explanation.
type InvalidShapes struct {
	Keys    []string          `json:"composite_keys"`
	Reasons map[string]string `json:"reasons"`
}

// NewInvalidShapes converts a validity result.
func NewInvalidShapes(res *validate.ValidityResult) *InvalidShapes {
	out := &InvalidShapes{Keys: []string{}, Reasons: map[string]string{}}
	for _, v := range res.Invalid {
		k := v.Key.String()
		out.Keys = append(out.Keys, k)
		out.Reasons[k] = v.Reason
	}
	sort.Strings(out.Keys)
	return out
}

// PointInPolygon reports the features whose point lies outside their own
// polygon. Geometries holds the offending GeometryCollections when the check
// ran with geometry collection enabled.
type PointInPolygon struct {
	Keys       []string                    `json:"composite_keys"`
	Geometries map[string]*geom.Collection `json:"geometries,omitempty"`
}

// NewPointInPolygon converts a point-in-polygon result.
func NewPointInPolygon(res *validate.PointInPolygonResult) *PointInPolygon {
	out := &PointInPolygon{Keys: []string{}}
	for _, v := range res.Outside {
		k := v.Key.String()
		out.Keys = append(out.Keys, k)
		if v.Geoms != nil {
			if out.Geometries == nil {
				out.Geometries = map[string]*geom.Collection{}
			}
			out.Geometries[k] = v.Geoms
		}
	}
	sort.Strings(out.Keys)
	return out
}

// Overlaps reports same-class overlapping polygon pairs. Pair keys are
// "a;b" with the lexicographically smaller composite key first. Geometries
// maps a pair key to a GeometryCollection holding both features' geometries.
type Overlaps struct {
	Pairs      []string                     `json:"composite_key_pairs"`
	Geometries map[string]*geom.PairPayload `json:"geometries,omitempty"`
	Faults     []validate.PairFault         `json:"topology_faults"`
}

// NewOverlaps converts an overlap result.
func NewOverlaps(res *validate.OverlapResult) *Overlaps {
	out := &Overlaps{Pairs: []string{}, Faults: []validate.PairFault{}}
	for _, v := range res.Overlapping {
		k := v.Pair.String()
		out.Pairs = append(out.Pairs, k)
		if v.Geoms != nil {
			if out.Geometries == nil {
				out.Geometries = map[string]*geom.PairPayload{}
			}
			out.Geometries[k] = v.Geoms
		}
	}
	sort.Strings(out.Pairs)
	out.Faults = append(out.Faults, res.Faults...)
	return out
}

// Containment reports the features whose polygon falls outside their
// parent's polygon.
type Containment struct {
	Keys   []string            `json:"composite_keys"`
	Faults []validate.KeyFault `json:"topology_faults"`
}

// NewContainment converts a parent-containment result.
func NewContainment(res *validate.ContainmentResult) *Containment {
	out := &Containment{Keys: []string{}, Faults: []validate.KeyFault{}}
	for _, k := range res.Outside {
		out.Keys = append(out.Keys, k.String())
	}
	sort.Strings(out.Keys)
	out.Faults = append(out.Faults, res.Faults...)
	return out
}

// Report is the combined output of one run. A nil section means the check was
// not requested.
type Report struct {
	InvalidShapes   *InvalidShapes           `json:"invalid_shapes,omitempty"`
	PointInPolygon  *PointInPolygon          `json:"point_in_polygon,omitempty"`
	Overlaps        *Overlaps                `json:"overlapping_polygons,omitempty"`
	Containment     *Containment             `json:"parent_containment,omitempty"`
	IntegrityFaults []feature.IntegrityFault `json:"integrity_faults"`
}

// ViolationCount returns the total violations across the sections present.
// Topology and integrity faults are not violations.
func (r *Report) ViolationCount() int {
	n := 0
	if r.InvalidShapes != nil {
		n += len(r.InvalidShapes.Keys)
	}
	if r.PointInPolygon != nil {
		n += len(r.PointInPolygon.Keys)
	}
	if r.Overlaps != nil {
		n += len(r.Overlaps.Pairs)
	}
	if r.Containment != nil {
		n += len(r.Containment.Keys)
	}
	return n
}

// FaultCount returns the total topology faults across the sections present.
func (r *Report) FaultCount() int {
	n := 0
	if r.Overlaps != nil {
		n += len(r.Overlaps.Faults)
	}
	if r.Containment != nil {
		n += len(r.Containment.Faults)
	}
	return n
}

// WriteJSON writes the indented JSON form of the report.
func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
