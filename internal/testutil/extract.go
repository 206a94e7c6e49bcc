package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Extract is an in-memory CSV extract for tests: file name to lines, header
// first. Tests start from DefaultExtract and adjust the files they care
// about.
type Extract map[string][]string

// DefaultExtract returns a complete, valid extract: one country containing
// one state, with the state's point inside its polygon, and empty files for
// the remaining classes.
func DefaultExtract() Extract {
	e := Extract{
		"Country.csv": {
			"ID|MapCode|ParentID|FIPS|ISO3166_2|ISO3166_3",
			"1|0||US|US|USA",
		},
		"LocalDataCountry.csv": {
			"ParentID|MapCode|Geometry|Longitude|Latitude",
			"1|0|MULTIPOLYGON (((0 0, 10 0, 10 10, 0 10, 0 0)))|5|5",
		},
		"CountrySynonyms.csv": {
			"ParentID|MapCode|Name|Locale|IsDisplayName",
			"1|0|United States|en_US|1",
			"1|0|USA||0",
		},
		"State.csv": {
			"ID|MapCode|ParentID",
			"10|0|1",
		},
		"LocalDataState.csv": {
			"ParentID|MapCode|Geometry|Longitude|Latitude",
			"10|0|POLYGON ((1 1, 4 1, 4 4, 1 4, 1 1))|2|2",
		},
		"StateSynonyms.csv": {
			"ParentID|MapCode|Name|Locale|IsDisplayName",
			"10|0|Example State|en_US|1",
		},
	}

	named := "ID|MapCode|ParentID"
	namedWithName := "ID|MapCode|ParentID|Name"
	local := "ParentID|MapCode|Geometry|Longitude|Latitude"
	synonyms := "ParentID|MapCode|Name|Locale|IsDisplayName"

	e["County.csv"] = []string{named}
	e["LocalDataCounty.csv"] = []string{local}
	e["CountySynonyms.csv"] = []string{synonyms}
	e["City.csv"] = []string{named}
	e["LocalDataCity.csv"] = []string{local}
	e["CitySynonyms.csv"] = []string{synonyms}
	e["ZipCode.csv"] = []string{namedWithName}
	e["LocalDataZipCode.csv"] = []string{local}
	e["AreaCode.csv"] = []string{namedWithName}
	e["LocalDataAreaCode.csv"] = []string{local}
	e["CMSA.csv"] = []string{named}
	e["LocalDataCMSA.csv"] = []string{local}
	e["CMSASynonyms.csv"] = []string{synonyms}
	e["Congress.csv"] = []string{named}
	e["LocalDataCongress.csv"] = []string{local}
	e["CongressSynonyms.csv"] = []string{synonyms}

	return e
}

// Write materializes the extract into a temp directory and returns its path.
func (e Extract) Write(t testing.TB) string {
	t.Helper()
	dir := t.TempDir()
	for name, lines := range e {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}
