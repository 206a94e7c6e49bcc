package validate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geostack-labs/geoverify/internal/feature"
	"github.com/geostack-labs/geoverify/internal/geom"
	"github.com/geostack-labs/geoverify/internal/testutil"
)

type fixtureFeature struct {
	id       int
	mapCode  int
	class    feature.Class
	parentID *int
	point    string
	polygon  string
}

func buildFeatures(t *testing.T, specs []fixtureFeature) map[feature.Key]*feature.Feature {
	t.Helper()
	out := make(map[feature.Key]*feature.Feature, len(specs))
	for _, s := range specs {
		f := &feature.Feature{
			Key:      feature.Key{ID: s.id, MapCode: s.mapCode},
			Class:    s.class,
			ParentID: s.parentID,
		}
		if s.point != "" {
			g, err := geom.ParseWKT(s.point)
			require.NoError(t, err)
			f.Geom.Point = g
		}
		if s.polygon != "" {
			g, err := geom.ParseWKT(s.polygon)
			require.NoError(t, err)
			f.Geom.Polygon = g
		}
		out[f.Key] = f
	}
	return out
}

func intp(v int) *int { return &v }

func TestValidity(t *testing.T) {
	features := buildFeatures(t, []fixtureFeature{
		{id: 1, class: feature.ClassCountry, polygon: "POLYGON ((0 0, 10 0, 10 10, 0 10, 0 0))"},
		{id: 2, class: feature.ClassState, polygon: "POLYGON ((0 0, 2 2, 2 0, 0 2, 0 0))"},
		{id: 3, class: feature.ClassState, point: "POINT (1 1)"},
	})
	c := NewChecker(features, Options{Logger: testutil.NewTestLogger(t)})

	res, err := c.Validity(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Invalid, 1)
	assert.Equal(t, feature.Key{ID: 2}, res.Invalid[0].Key)
	assert.Contains(t, res.Invalid[0].Reason, "Self-intersection")
}

func TestPointInPolygon(t *testing.T) {
	features := buildFeatures(t, []fixtureFeature{
		{id: 1, class: feature.ClassState,
			point:   "POINT (1 1)",
			polygon: "POLYGON ((0 0, 2 0, 2 2, 0 2, 0 0))"},
		{id: 2, class: feature.ClassState,
			point:   "POINT (9 9)",
			polygon: "POLYGON ((0 0, 2 0, 2 2, 0 2, 0 0))"},
		// Only one geometry: skipped.
		{id: 3, class: feature.ClassState, point: "POINT (0 0)"},
		{id: 4, class: feature.ClassState, polygon: "POLYGON ((0 0, 2 0, 2 2, 0 2, 0 0))"},
	})
	c := NewChecker(features, Options{Logger: testutil.NewTestLogger(t)})

	res, err := c.PointInPolygon(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Outside, 1)
	assert.Equal(t, feature.Key{ID: 2}, res.Outside[0].Key)
	assert.Nil(t, res.Outside[0].Geoms)
}

func TestPointInPolygonGeometries(t *testing.T) {
	features := buildFeatures(t, []fixtureFeature{
		{id: 2, class: feature.ClassState,
			point:   "POINT (9 9)",
			polygon: "POLYGON ((0 0, 2 0, 2 2, 0 2, 0 0))"},
	})
	c := NewChecker(features, Options{Geometries: true, Logger: testutil.NewTestLogger(t)})

	res, err := c.PointInPolygon(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Outside, 1)
	require.NotNil(t, res.Outside[0].Geoms)
	assert.NotNil(t, res.Outside[0].Geoms.Point)
}

func TestParentContainment(t *testing.T) {
	features := buildFeatures(t, []fixtureFeature{
		{id: 1, class: feature.ClassCountry,
			polygon: "POLYGON ((0 0, 10 0, 10 10, 0 10, 0 0))"},
		// Fully inside the country.
		{id: 10, class: feature.ClassState, parentID: intp(1),
			polygon: "POLYGON ((1 1, 4 1, 4 4, 1 4, 1 1))"},
		// Sticks out of the country.
		{id: 11, class: feature.ClassState, parentID: intp(1),
			polygon: "POLYGON ((8 8, 12 8, 12 12, 8 12, 8 8))"},
		// Parent id with no matching feature: skipped.
		{id: 12, class: feature.ClassState, parentID: intp(999),
			polygon: "POLYGON ((1 1, 2 1, 2 2, 1 2, 1 1))"},
		// Countries are never checked against a parent.
		{id: 2, class: feature.ClassCountry, parentID: intp(1),
			polygon: "POLYGON ((20 20, 30 20, 30 30, 20 30, 20 20))"},
	})
	c := NewChecker(features, Options{Logger: testutil.NewTestLogger(t)})

	res, err := c.ParentContainment(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Outside, 1)
	assert.Equal(t, feature.Key{ID: 11}, res.Outside[0])
	assert.Empty(t, res.Faults)
}

func TestParentContainmentDifferentMapCodes(t *testing.T) {
	// The parent resolves within the same map code only.
	features := buildFeatures(t, []fixtureFeature{
		{id: 1, mapCode: 0, class: feature.ClassCountry,
			polygon: "POLYGON ((0 0, 10 0, 10 10, 0 10, 0 0))"},
		{id: 10, mapCode: 3, class: feature.ClassState, parentID: intp(1),
			polygon: "POLYGON ((50 50, 60 50, 60 60, 50 60, 50 50))"},
	})
	c := NewChecker(features, Options{Logger: testutil.NewTestLogger(t)})

	res, err := c.ParentContainment(context.Background())
	require.NoError(t, err)
	assert.Empty(t, res.Outside)
}

func TestOverlap(t *testing.T) {
	features := buildFeatures(t, []fixtureFeature{
		// A and B overlap.
		{id: 1, class: feature.ClassState,
			polygon: "POLYGON ((0 0, 2 0, 2 2, 0 2, 0 0))"},
		{id: 2, class: feature.ClassState,
			polygon: "POLYGON ((1 1, 3 1, 3 3, 1 3, 1 1))"},
		// C is disjoint.
		{id: 3, class: feature.ClassState,
			polygon: "POLYGON ((10 10, 12 10, 12 12, 10 12, 10 10))"},
		// D touches A on a shared edge: not an overlap.
		{id: 4, class: feature.ClassState,
			polygon: "POLYGON ((2 0, 4 0, 4 2, 2 2, 2 0))"},
		// E covers A but is a different class.
		{id: 5, class: feature.ClassCity,
			polygon: "POLYGON ((0 0, 2 0, 2 2, 0 2, 0 0))"},
		// F overlaps A but lives in another map code.
		{id: 6, mapCode: 7, class: feature.ClassState,
			polygon: "POLYGON ((1 1, 3 1, 3 3, 1 3, 1 1))"},
	})
	c := NewChecker(features, Options{Workers: 2, Logger: testutil.NewTestLogger(t)})

	res, err := c.Overlap(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Overlapping, 1)
	assert.Equal(t, "1_0;2_0", res.Overlapping[0].Pair.String())
	assert.Empty(t, res.Faults)
}

func TestOverlapIdenticalPolygonsSkipped(t *testing.T) {
	features := buildFeatures(t, []fixtureFeature{
		{id: 1, class: feature.ClassState,
			polygon: "POLYGON ((0 0, 2 0, 2 2, 0 2, 0 0))"},
		{id: 2, class: feature.ClassState,
			polygon: "POLYGON ((0 0, 2 0, 2 2, 0 2, 0 0))"},
	})
	c := NewChecker(features, Options{Logger: testutil.NewTestLogger(t)})

	res, err := c.Overlap(context.Background())
	require.NoError(t, err)
	assert.Empty(t, res.Overlapping)
}

func TestOverlapDeterministicAcrossWorkerCounts(t *testing.T) {
	features := buildFeatures(t, []fixtureFeature{
		{id: 1, class: feature.ClassState, polygon: "POLYGON ((0 0, 4 0, 4 4, 0 4, 0 0))"},
		{id: 2, class: feature.ClassState, polygon: "POLYGON ((2 2, 6 2, 6 6, 2 6, 2 2))"},
		{id: 3, class: feature.ClassState, polygon: "POLYGON ((3 3, 8 3, 8 8, 3 8, 3 3))"},
		{id: 4, class: feature.ClassState, polygon: "POLYGON ((20 20, 24 20, 24 24, 20 24, 20 20))"},
	})

	var want []string
	for _, workers := range []int{1, 2, 8} {
		c := NewChecker(features, Options{Workers: workers, Logger: testutil.NewTestLogger(t)})
		res, err := c.Overlap(context.Background())
		require.NoError(t, err)

		var got []string
		for _, v := range res.Overlapping {
			got = append(got, v.Pair.String())
		}
		if want == nil {
			want = got
			require.Len(t, want, 3)
			continue
		}
		assert.Equal(t, want, got, "workers=%d", workers)
	}
}

func TestOverlapEmpty(t *testing.T) {
	c := NewChecker(map[feature.Key]*feature.Feature{}, Options{})
	res, err := c.Overlap(context.Background())
	require.NoError(t, err)
	assert.Empty(t, res.Overlapping)
	assert.Empty(t, res.Faults)
}

func TestPairCanonicalOrder(t *testing.T) {
	a := feature.Key{ID: 10, MapCode: 0}
	b := feature.Key{ID: 2, MapCode: 0}
	p := newPair(a, b)
	assert.Equal(t, p, newPair(b, a))
	assert.Equal(t, "10_0;2_0", p.String())
}

func TestKnownCheck(t *testing.T) {
	for _, name := range CheckNames {
		assert.True(t, KnownCheck(name), name)
	}
	assert.False(t, KnownCheck("geometry"))
}

func TestCheckerCancellation(t *testing.T) {
	features := buildFeatures(t, []fixtureFeature{
		{id: 1, class: feature.ClassCountry, polygon: "POLYGON ((0 0, 2 0, 2 2, 0 2, 0 0))"},
	})
	c := NewChecker(features, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Validity(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
