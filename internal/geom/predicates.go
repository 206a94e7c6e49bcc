package geom

import "fmt"

// TopologyError reports a geometry-engine failure while evaluating a spatial
// predicate on degenerate or invalid input. It is distinct from a predicate
// returning false: the relationship could not be determined at all.
type TopologyError struct {
	// Op names the predicate that failed (e.g. "overlaps").
	Op string
	// Reason is the engine's error text.
	Reason string
}

func (e *TopologyError) Error() string {
	return fmt.Sprintf("topology error in %s: %s", e.Op, e.Reason)
}

// evalPredicate runs a GEOS predicate, converting engine panics into a
// *TopologyError so callers can decide per check how to handle them.
func evalPredicate(op string, fn func() bool) (result bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = false
			err = &TopologyError{Op: op, Reason: fmt.Sprint(r)}
		}
	}()
	return fn(), nil
}

// Valid evaluates the simple-feature validity predicate. Engine failures are
// folded into false: a polygon the engine cannot even inspect is not valid.
func (gm *Geometry) Valid() bool {
	ok, err := evalPredicate("isvalid", func() bool { return gm.g.IsValid() })
	return err == nil && ok
}

// ValidReason returns the engine's explanation for an invalid geometry, or
// "Valid Geometry" when it is valid.
func (gm *Geometry) ValidReason() string {
	reason, err := func() (s string, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = &TopologyError{Op: "isvalidreason", Reason: fmt.Sprint(r)}
			}
		}()
		return gm.g.IsValidReason(), nil
	}()
	if err != nil {
		return err.Error()
	}
	return reason
}

// Within reports whether gm lies fully inside o.
func (gm *Geometry) Within(o *Geometry) (bool, error) {
	return evalPredicate("within", func() bool { return gm.g.Within(o.g) })
}

// Contains reports whether gm fully contains o.
func (gm *Geometry) Contains(o *Geometry) (bool, error) {
	return evalPredicate("contains", func() bool { return gm.g.Contains(o.g) })
}

// Overlaps reports whether the interiors of gm and o intersect without either
// containing the other. Boundary contact alone does not count.
func (gm *Geometry) Overlaps(o *Geometry) (bool, error) {
	return evalPredicate("overlaps", func() bool { return gm.g.Overlaps(o.g) })
}

// Touches reports whether gm and o share boundary points only.
func (gm *Geometry) Touches(o *Geometry) (bool, error) {
	return evalPredicate("touches", func() bool { return gm.g.Touches(o.g) })
}

// EqualsExact reports whether gm and o have identical structure and
// coordinates.
func (gm *Geometry) EqualsExact(o *Geometry) (bool, error) {
	return evalPredicate("equalsexact", func() bool { return gm.g.EqualsExact(o.g, 0) })
}
