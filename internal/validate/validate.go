// Package validate runs the spatial consistency checks over an assembled
// feature map: polygon validity, point-in-polygon, same-class overlap and
// parent containment. Checks are independent and tolerate per-feature
// topology failures; those are collected alongside the violations rather
// than aborting the run.
package validate

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sort"

	"github.com/geostack-labs/geoverify/internal/feature"
	"github.com/geostack-labs/geoverify/internal/geom"
)

// Check names accepted by the CLI and the HTTP surface.
const (
	CheckValidity       = "validity"
	CheckPointInPolygon = "point-in-polygon"
	CheckOverlap        = "overlap"
	CheckContainment    = "containment"
)

// CheckNames lists every check in execution order.
var CheckNames = []string{CheckValidity, CheckPointInPolygon, CheckOverlap, CheckContainment}

// KnownCheck reports whether name is a recognized check.
func KnownCheck(name string) bool {
	for _, n := range CheckNames {
		if n == name {
			return true
		}
	}
	return false
}

// Options tunes a Checker.
type Options struct {
	// Workers bounds the goroutines used by the overlap check. Zero or
	// negative means one per CPU.
	Workers int

	// Geometries attaches the offending geometries to violations, for
	// callers that render them (the HTTP surface). Off by default: batch
	// reports only need the keys.
	Geometries bool

	Logger *slog.Logger
}

// Checker runs the four checks over one assembled feature map. The map is
// treated as read-only; a Checker is safe for concurrent use.
type Checker struct {
	features   map[feature.Key]*feature.Feature
	keys       []feature.Key
	workers    int
	geometries bool
	logger     *slog.Logger
}

// NewChecker builds a checker over the feature map. Iteration order is fixed
// up front so results are deterministic regardless of map order or worker
// scheduling.
func NewChecker(features map[feature.Key]*feature.Feature, opts Options) *Checker {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	keys := make([]feature.Key, 0, len(features))
	for k := range features {
		keys = append(keys, k)
	}
	sortKeys(keys)

	return &Checker{
		features:   features,
		keys:       keys,
		workers:    workers,
		geometries: opts.Geometries,
		logger:     logger,
	}
}

// KeyViolation is one feature failing a check, with the engine's explanation.
type KeyViolation struct {
	Key    feature.Key
	Reason string
}

// ValidityResult lists the features whose polygon fails the simple-feature
// validity rules.
type ValidityResult struct {
	Invalid []KeyViolation
}

// Validity checks every feature that carries a polygon. Features without a
// polygon are skipped.
func (c *Checker) Validity(ctx context.Context) (*ValidityResult, error) {
	res := &ValidityResult{}
	for _, k := range c.keys {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		poly := c.features[k].Geom.Polygon
		if poly == nil {
			continue
		}
		if !poly.Valid() {
			res.Invalid = append(res.Invalid, KeyViolation{Key: k, Reason: poly.ValidReason()})
		}
	}
	return res, nil
}

// PointViolation is a feature whose point lies outside its own polygon.
// Geoms is set only when the checker collects geometries.
type PointViolation struct {
	Key   feature.Key
	Geoms *geom.Collection
}

// PointInPolygonResult lists the features whose point geometry falls outside
// their polygon geometry.
type PointInPolygonResult struct {
	Outside []PointViolation
}

// PointInPolygon checks every feature carrying both a point and a polygon.
// A feature missing either geometry is skipped, as is a feature whose
// predicate fails on degenerate geometry: this check reports misplaced
// points, not broken polygons, which the validity check already covers.
func (c *Checker) PointInPolygon(ctx context.Context) (*PointInPolygonResult, error) {
	res := &PointInPolygonResult{}
	for _, k := range c.keys {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		f := c.features[k]
		if f.Geom.Point == nil || f.Geom.Polygon == nil {
			continue
		}
		inside, err := f.Geom.Point.Within(f.Geom.Polygon)
		if err != nil {
			c.logger.Debug("point-in-polygon predicate failed", "key", k.String(), "error", err)
			continue
		}
		if !inside {
			v := PointViolation{Key: k}
			if c.geometries {
				v.Geoms = &f.Geom
			}
			res.Outside = append(res.Outside, v)
		}
	}
	return res, nil
}

// KeyFault records a feature a check could not evaluate because the geometry
// engine failed on it.
type KeyFault struct {
	Key   string `json:"composite_key"`
	Error string `json:"error_string"`
}

// ContainmentResult lists the features whose polygon is not contained by
// their parent's polygon, plus the features the predicate could not evaluate.
type ContainmentResult struct {
	Outside []feature.Key
	Faults  []KeyFault
}

// ParentContainment checks that every non-country feature's polygon falls
// within its parent's polygon. The parent is resolved by (parent id, map
// code) within the same assembled map. An unresolved parent or a parent
// without a polygon skips the feature; unresolved parents are logged since
// they usually indicate a referential gap in the dataset.
func (c *Checker) ParentContainment(ctx context.Context) (*ContainmentResult, error) {
	res := &ContainmentResult{}
	for _, k := range c.keys {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		f := c.features[k]
		if f.Class == feature.ClassCountry || f.Geom.Polygon == nil {
			continue
		}
		parentKey, ok := f.ParentKey()
		if !ok {
			continue
		}
		parent, ok := c.features[parentKey]
		if !ok {
			c.logger.Info("parent key has no corresponding feature",
				"key", k.String(), "parent_key", parentKey.String())
			continue
		}
		if parent.Geom.Polygon == nil {
			continue
		}
		contained, err := parent.Geom.Polygon.Contains(f.Geom.Polygon)
		if err != nil {
			res.Faults = append(res.Faults, KeyFault{Key: k.String(), Error: err.Error()})
			continue
		}
		if !contained {
			res.Outside = append(res.Outside, k)
		}
	}
	return res, nil
}

// Pair is an unordered feature pair in canonical order: A's composite key
// sorts lexicographically before B's.
type Pair struct {
	A, B feature.Key
}

func newPair(a, b feature.Key) Pair {
	if b.String() < a.String() {
		a, b = b, a
	}
	return Pair{A: a, B: b}
}

// String renders the pair as "a;b" with the canonical member first.
func (p Pair) String() string {
	return fmt.Sprintf("%s;%s", p.A.String(), p.B.String())
}

func sortKeys(keys []feature.Key) {
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].ID != keys[j].ID {
			return keys[i].ID < keys[j].ID
		}
		return keys[i].MapCode < keys[j].MapCode
	})
}
