package feature

import "github.com/geostack-labs/geoverify/internal/geom"

// Logical table names shared by both row sources.
const (
	TableFeatures = "features"
	TableNames    = "names"
	TableSynonyms = "synonyms"
	TablePoints   = "points"
	TablePolygons = "polygons"
)

// TableList lists every logical table in fetch order.
var TableList = []string{TableFeatures, TableNames, TableSynonyms, TablePoints, TablePolygons}

// FeatureRow is one row of the features table: the identity skeleton of a
// geocoding entity.
type FeatureRow struct {
	Key   Key
	Class Class

	// ParentID is the raw parent reference. Nil means no parent. Row
	// sources keep unparsable values as nil per the assembly contract.
	ParentID *int
}

// NameRow carries the localized display names and standard codes for one
// feature. A nil locale value means the source held no name for that locale.
type NameRow struct {
	Key     Key
	Locales map[string]*string
	FIPS    *string
	ISO2    *string
	ISO3    *string
}

// SynonymRow is one alternate or localized name for a feature. Unlike the
// other tables a feature may have any number of synonym rows. Rows flagged as
// display names assign the named locale during assembly instead of appending
// to the synonym list; the relational synonyms table never sets the flag.
type SynonymRow struct {
	Key           Key
	Name          string
	Locale        string
	IsDisplayName bool
}

// GeomRow is one raw geometry value (point or polygon) for a feature. The
// text stays unparsed until assembly so row sources need no geometry engine.
type GeomRow struct {
	Key      Key
	Data     string
	Encoding geom.Encoding
}

// Dataset is the full set of raw rows fetched from one source (production or
// one staging prefix), one slice per logical table.
type Dataset struct {
	Features []FeatureRow
	Names    []NameRow
	Synonyms []SynonymRow
	Points   []GeomRow
	Polygons []GeomRow
}

// RowCount returns the total number of rows across all tables.
func (d *Dataset) RowCount() int {
	return len(d.Features) + len(d.Names) + len(d.Synonyms) + len(d.Points) + len(d.Polygons)
}
