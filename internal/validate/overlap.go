package validate

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/geostack-labs/geoverify/internal/feature"
	"github.com/geostack-labs/geoverify/internal/geom"
)

// PairFault records a feature pair whose overlap predicate failed on
// degenerate geometry, so the pair could not be checked at all.
type PairFault struct {
	Keys  string `json:"composite_keys"`
	Error string `json:"error_string"`
}

// OverlapViolation is a pair of same-class, same-map-code features whose
// polygon interiors overlap. Geoms is set only when the checker collects
// geometries.
type OverlapViolation struct {
	Pair  Pair
	Geoms *geom.PairPayload
}

// OverlapResult lists the overlapping pairs plus the pairs that could not be
// evaluated.
type OverlapResult struct {
	Overlapping []OverlapViolation
	Faults      []PairFault
}

// overlapEntry is one polygon-bearing feature prepared for the index pass.
type overlapEntry struct {
	key     feature.Key
	class   feature.Class
	mapCode int
	poly    *geom.Geometry
	geoms   *geom.Collection
	bounds  geom.Bounds
}

// Overlap checks that no two features of the same class and map code have
// overlapping polygon interiors. Touching boundaries do not count, and
// neither do geometry-identical polygons, which are a duplication problem
// rather than an overlap.
//
// Candidate pairs come from a bounding-box index; the exact predicate runs in
// a worker pool. Each worker accumulates privately and results merge in entry
// order, so the output is deterministic for a given input.
func (c *Checker) Overlap(ctx context.Context) (*OverlapResult, error) {
	var entries []overlapEntry
	for _, k := range c.keys {
		f := c.features[k]
		if f.Geom.Polygon == nil {
			continue
		}
		entries = append(entries, overlapEntry{
			key:     k,
			class:   f.Class,
			mapCode: k.MapCode,
			poly:    f.Geom.Polygon,
			geoms:   &f.Geom,
			bounds:  f.Geom.Polygon.Bounds(),
		})
	}

	items := make([]rtreeItem, len(entries))
	for i, e := range entries {
		items[i] = rtreeItem{bounds: e.bounds, index: i}
	}
	tree := buildRTree(items)

	c.logger.Debug("overlap index built", "polygons", len(entries), "workers", c.workers)

	type chunkResult struct {
		violations []OverlapViolation
		faults     []PairFault
	}

	workers := c.workers
	if workers > len(entries) {
		workers = len(entries)
	}
	if workers == 0 {
		return &OverlapResult{}, nil
	}

	chunks := make([]chunkResult, workers)
	chunkSize := (len(entries) + workers - 1) / workers

	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > len(entries) {
			end = len(entries)
		}
		out := &chunks[w]
		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				c.overlapOne(entries, i, tree, &out.violations, &out.faults)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &OverlapResult{}
	seenPairs := make(map[Pair]bool)
	seenFaults := make(map[string]bool)
	for _, chunk := range chunks {
		for _, v := range chunk.violations {
			if seenPairs[v.Pair] {
				continue
			}
			seenPairs[v.Pair] = true
			res.Overlapping = append(res.Overlapping, v)
		}
		for _, f := range chunk.faults {
			if seenFaults[f.Keys] {
				continue
			}
			seenFaults[f.Keys] = true
			res.Faults = append(res.Faults, f)
		}
	}
	sort.Slice(res.Overlapping, func(i, j int) bool {
		return res.Overlapping[i].Pair.String() < res.Overlapping[j].Pair.String()
	})
	sort.Slice(res.Faults, func(i, j int) bool {
		return res.Faults[i].Keys < res.Faults[j].Keys
	})
	return res, nil
}

// overlapOne evaluates entry i against its index candidates. Both members of
// a pair discover it; the merge pass deduplicates on the canonical pair key.
func (c *Checker) overlapOne(entries []overlapEntry, i int, tree *rtree, violations *[]OverlapViolation, faults *[]PairFault) {
	e := entries[i]
	candidates := tree.search(e.bounds)
	sort.Ints(candidates)

	for _, j := range candidates {
		o := entries[j]
		if o.key == e.key || o.class != e.class || o.mapCode != e.mapCode {
			continue
		}
		pair := newPair(e.key, o.key)

		same, err := e.poly.EqualsExact(o.poly)
		if err != nil {
			*faults = append(*faults, PairFault{Keys: pair.String(), Error: err.Error()})
			continue
		}
		if same {
			continue
		}

		overlaps, err := e.poly.Overlaps(o.poly)
		if err != nil {
			*faults = append(*faults, PairFault{Keys: pair.String(), Error: err.Error()})
			continue
		}
		if !overlaps {
			continue
		}

		v := OverlapViolation{Pair: pair}
		if c.geometries {
			if pair.A == e.key {
				v.Geoms = geom.NewPairPayload(e.geoms, o.geoms)
			} else {
				v.Geoms = geom.NewPairPayload(o.geoms, e.geoms)
			}
		}
		*violations = append(*violations, v)
	}
}
