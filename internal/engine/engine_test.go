package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geostack-labs/geoverify/internal/config"
	"github.com/geostack-labs/geoverify/internal/feature"
	"github.com/geostack-labs/geoverify/internal/testutil"
	"github.com/geostack-labs/geoverify/internal/validate"
)

func csvConfig(dir string) *config.Config {
	return &config.Config{
		Source: config.SourceConfig{Type: "csv", CSV: config.CSVConfig{Dir: dir}},
		Server: config.ServerConfig{Port: 8080},
		Log:    config.LogConfig{Level: "info", Format: "text"},
	}
}

func TestAssemble(t *testing.T) {
	dir := testutil.DefaultExtract().Write(t)
	e := New(csvConfig(dir), testutil.NewTestLogger(t))

	res, err := e.Assemble(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Features, 2)
	assert.Empty(t, res.Faults)

	country := res.Features[feature.Key{ID: 1, MapCode: 0}]
	require.NotNil(t, country)
	assert.Equal(t, feature.ClassCountry, country.Class)
	assert.Equal(t, "US", country.Props.FIPS)
	assert.Equal(t, "United States", country.Props.Names["en_us"])
	assert.NotNil(t, country.Geom.Polygon)
	assert.NotNil(t, country.Geom.Point)
}

func TestRunAllChecksClean(t *testing.T) {
	dir := testutil.DefaultExtract().Write(t)
	e := New(csvConfig(dir), testutil.NewTestLogger(t))

	res, err := e.Run(context.Background(), nil, false)
	require.NoError(t, err)

	assert.NotEmpty(t, res.ID)
	assert.Equal(t, "csv", res.SourceType)
	assert.Equal(t, validate.CheckNames, res.Checks)
	assert.Equal(t, 2, res.FeatureCount)

	rep := res.Report
	require.NotNil(t, rep.InvalidShapes)
	require.NotNil(t, rep.PointInPolygon)
	require.NotNil(t, rep.Overlaps)
	require.NotNil(t, rep.Containment)
	assert.Equal(t, 0, rep.ViolationCount())
	assert.Equal(t, 0, rep.FaultCount())
	assert.NotNil(t, rep.IntegrityFaults)
}

func TestRunCheckSelection(t *testing.T) {
	dir := testutil.DefaultExtract().Write(t)
	e := New(csvConfig(dir), testutil.NewTestLogger(t))

	res, err := e.Run(context.Background(), []string{validate.CheckValidity}, false)
	require.NoError(t, err)

	assert.Equal(t, []string{validate.CheckValidity}, res.Checks)
	assert.NotNil(t, res.Report.InvalidShapes)
	assert.Nil(t, res.Report.PointInPolygon)
	assert.Nil(t, res.Report.Overlaps)
	assert.Nil(t, res.Report.Containment)
}

func TestRunFindsViolations(t *testing.T) {
	e := testutil.DefaultExtract()
	e["LocalDataState.csv"] = []string{
		"ParentID|MapCode|Geometry|Longitude|Latitude",
		// Sticks out of the country, with its point outside itself.
		"10|0|POLYGON ((8 8, 12 8, 12 12, 8 12, 8 8))|50|50",
	}
	dir := e.Write(t)
	eng := New(csvConfig(dir), testutil.NewTestLogger(t))

	res, err := eng.Run(context.Background(), nil, false)
	require.NoError(t, err)

	rep := res.Report
	assert.Empty(t, rep.InvalidShapes.Keys)
	assert.Equal(t, []string{"10_0"}, rep.PointInPolygon.Keys)
	assert.Equal(t, []string{"10_0"}, rep.Containment.Keys)
	assert.Equal(t, 2, rep.ViolationCount())
}

func TestRunIntegrityFaults(t *testing.T) {
	e := testutil.DefaultExtract()
	e["LocalDataState.csv"] = []string{
		"ParentID|MapCode|Geometry|Longitude|Latitude",
		"10|0|POLYGON ((broken|2|2",
	}
	dir := e.Write(t)
	eng := New(csvConfig(dir), testutil.NewTestLogger(t))

	res, err := eng.Run(context.Background(), []string{validate.CheckValidity}, false)
	require.NoError(t, err)

	require.Len(t, res.Report.IntegrityFaults, 1)
	assert.Equal(t, feature.TablePolygons, res.Report.IntegrityFaults[0].Table)
	assert.Equal(t, "10_0", res.Report.IntegrityFaults[0].Key)
}

func TestRunBadSource(t *testing.T) {
	cfg := csvConfig("/nonexistent/extract/dir")
	e := New(cfg, nil)
	_, err := e.Run(context.Background(), nil, false)
	require.Error(t, err)
}

func TestTableCounts(t *testing.T) {
	dir := testutil.DefaultExtract().Write(t)
	e := New(csvConfig(dir), testutil.NewTestLogger(t))

	counts, err := e.TableCounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]int{
		feature.TableFeatures: 2,
		feature.TableNames:    1,
		feature.TableSynonyms: 3,
		feature.TablePoints:   2,
		feature.TablePolygons: 2,
	}, counts)
}
