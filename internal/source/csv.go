package source

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/geostack-labs/geoverify/internal/feature"
	"github.com/geostack-labs/geoverify/internal/geom"
)

// classFiles describes the extract files belonging to one geocoding class.
// Every class has a named file (identity plus display names) and a local file
// (geometry); most also have a synonyms file.
type classFiles struct {
	class    feature.Class
	named    string
	local    string
	synonyms string
}

var classFileSets = []classFiles{
	{feature.ClassCountry, "Country.csv", "LocalDataCountry.csv", "CountrySynonyms.csv"},
	{feature.ClassState, "State.csv", "LocalDataState.csv", "StateSynonyms.csv"},
	{feature.ClassCounty, "County.csv", "LocalDataCounty.csv", "CountySynonyms.csv"},
	{feature.ClassCity, "City.csv", "LocalDataCity.csv", "CitySynonyms.csv"},
	{feature.ClassZip, "ZipCode.csv", "LocalDataZipCode.csv", ""},
	{feature.ClassAreaCode, "AreaCode.csv", "LocalDataAreaCode.csv", ""},
	{feature.ClassCMSA, "CMSA.csv", "LocalDataCMSA.csv", "CMSASynonyms.csv"},
	{feature.ClassCongress, "Congress.csv", "LocalDataCongress.csv", "CongressSynonyms.csv"},
}

// CSVSource reads the pipe-delimited geocoding extract files from a
// directory. The extract has no staging variant.
type CSVSource struct {
	dir    string
	logger *slog.Logger
}

func init() {
	Register("csv", func(cfg Config, logger *slog.Logger) (Source, error) {
		return NewCSVSource(cfg.Dir, logger)
	})
}

// NewCSVSource creates a CSV source rooted at dir. The directory must exist;
// file completeness is checked on Fetch.
func NewCSVSource(dir string, logger *slog.Logger) (*CSVSource, error) {
	if dir == "" {
		return nil, fmt.Errorf("csv source: directory not configured")
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("csv source: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("csv source: %s is not a directory", dir)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &CSVSource{dir: dir, logger: logger}, nil
}

// Fetch reads every class file set and returns the combined dataset. A
// missing file or column is a SchemaError; nothing is read past the first
// failure.
func (s *CSVSource) Fetch(ctx context.Context) (*feature.Dataset, error) {
	if err := s.validateFiles(); err != nil {
		return nil, err
	}

	ds := &feature.Dataset{}
	for _, set := range classFileSets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := s.readNamed(set, ds); err != nil {
			return nil, err
		}
		if err := s.readLocal(set, ds); err != nil {
			return nil, err
		}
		if set.synonyms != "" {
			if err := s.readSynonyms(set, ds); err != nil {
				return nil, err
			}
		}
	}
	s.logger.Debug("csv extract read", "dir", s.dir, "rows", ds.RowCount())
	return ds, nil
}

// FetchStaging always fails: the extract format carries no staging datasets.
func (s *CSVSource) FetchStaging(ctx context.Context, prefix string) (*feature.Dataset, error) {
	return nil, fmt.Errorf("csv source, prefix %q: %w", prefix, ErrStagingUnsupported)
}

// Close is a no-op; the source holds no open handles between fetches.
func (s *CSVSource) Close() error { return nil }

// validateFiles checks all required extract files exist before any parsing
// starts, so a partial extract fails fast.
func (s *CSVSource) validateFiles() error {
	var missing []string
	for _, set := range classFileSets {
		names := []string{set.named, set.local}
		if set.synonyms != "" {
			names = append(names, set.synonyms)
		}
		for _, name := range names {
			if _, err := os.Stat(filepath.Join(s.dir, name)); err != nil {
				missing = append(missing, name)
			}
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return &SchemaError{Source: "csv", Missing: missing}
	}
	return nil
}

// table is one parsed CSV file: a header index plus raw records.
type table struct {
	file    string
	columns map[string]int
	rows    [][]string
}

func (t *table) field(row []string, column string) (string, bool) {
	i, ok := t.columns[column]
	if !ok || i >= len(row) {
		return "", false
	}
	return row[i], true
}

// require returns a SchemaError when any listed column is absent from the
// file header.
func (t *table) require(columns ...string) error {
	var missing []string
	for _, c := range columns {
		if _, ok := t.columns[c]; !ok {
			missing = append(missing, fmt.Sprintf("%s: column %s", t.file, c))
		}
	}
	if len(missing) > 0 {
		return &SchemaError{Source: "csv", Missing: missing}
	}
	return nil
}

// readFile parses one pipe-delimited extract file. The extracts are written
// without quoting, so quote characters are taken literally.
func (s *CSVSource) readFile(name string) (*table, error) {
	f, err := os.Open(filepath.Join(s.dir, name))
	if err != nil {
		return nil, fmt.Errorf("csv source: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = '|'
	r.LazyQuotes = true
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("csv source: %s: empty file", name)
	}
	if err != nil {
		return nil, fmt.Errorf("csv source: %s: %w", name, err)
	}

	t := &table{file: name, columns: make(map[string]int, len(header))}
	for i, column := range header {
		t.columns[strings.TrimSpace(column)] = i
	}

	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv source: %s: %w", name, err)
		}
		t.rows = append(t.rows, row)
	}
	return t, nil
}

// parseKey builds the compound key from the two id columns of a row. Key
// columns must hold integers; anything else means the extract is corrupt.
func (t *table) parseKey(row []string, idColumn string) (feature.Key, error) {
	rawID, _ := t.field(row, idColumn)
	rawMap, _ := t.field(row, "MapCode")

	id, err := strconv.Atoi(strings.TrimSpace(rawID))
	if err != nil {
		return feature.Key{}, fmt.Errorf("csv source: %s: bad %s value %q", t.file, idColumn, rawID)
	}
	mapCode, err := strconv.Atoi(strings.TrimSpace(rawMap))
	if err != nil {
		return feature.Key{}, fmt.Errorf("csv source: %s: bad MapCode value %q", t.file, rawMap)
	}
	return feature.Key{ID: id, MapCode: mapCode}, nil
}

// readNamed reads a class identity file into feature and name rows. The Name
// column carries the locale-independent display name; the country file adds
// the standard code columns.
func (s *CSVSource) readNamed(set classFiles, ds *feature.Dataset) error {
	t, err := s.readFile(set.named)
	if err != nil {
		return err
	}
	if err := t.require("ID", "MapCode", "ParentID"); err != nil {
		return err
	}

	_, hasName := t.columns["Name"]
	_, hasCodes := t.columns["FIPS"]
	if hasCodes {
		if err := t.require("ISO3166_2", "ISO3166_3"); err != nil {
			return err
		}
	}

	for _, row := range t.rows {
		key, err := t.parseKey(row, "ID")
		if err != nil {
			return err
		}

		fr := feature.FeatureRow{Key: key, Class: set.class}
		if raw, ok := t.field(row, "ParentID"); ok {
			if parent, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil {
				fr.ParentID = &parent
			}
		}
		ds.Features = append(ds.Features, fr)

		if !hasName && !hasCodes {
			continue
		}
		nr := feature.NameRow{Key: key, Locales: make(map[string]*string, 1)}
		if hasName {
			if name, ok := t.field(row, "Name"); ok {
				nr.Locales[feature.NoLocale] = &name
			}
		}
		if hasCodes {
			if v, ok := t.field(row, "FIPS"); ok {
				nr.FIPS = &v
			}
			if v, ok := t.field(row, "ISO3166_2"); ok {
				nr.ISO2 = &v
			}
			if v, ok := t.field(row, "ISO3166_3"); ok {
				nr.ISO3 = &v
			}
		}
		ds.Names = append(ds.Names, nr)
	}
	return nil
}

// readLocal reads a class geometry file. Every row has a point built from the
// coordinate columns; the polygon column is optional and may hold the literal
// "None". Coordinate and WKT text stays raw so malformed values surface as
// assembly faults instead of aborting the fetch.
func (s *CSVSource) readLocal(set classFiles, ds *feature.Dataset) error {
	t, err := s.readFile(set.local)
	if err != nil {
		return err
	}
	if err := t.require("ParentID", "MapCode", "Longitude", "Latitude"); err != nil {
		return err
	}
	_, hasPolygon := t.columns["Geometry"]

	for _, row := range t.rows {
		key, err := t.parseKey(row, "ParentID")
		if err != nil {
			return err
		}

		lon, _ := t.field(row, "Longitude")
		lat, _ := t.field(row, "Latitude")
		ds.Points = append(ds.Points, feature.GeomRow{
			Key:      key,
			Data:     fmt.Sprintf("POINT (%s %s)", strings.TrimSpace(lon), strings.TrimSpace(lat)),
			Encoding: geom.EncodingWKT,
		})

		if !hasPolygon {
			continue
		}
		wktText, _ := t.field(row, "Geometry")
		wktText = strings.TrimSpace(wktText)
		if wktText == "" || wktText == "None" {
			continue
		}
		ds.Polygons = append(ds.Polygons, feature.GeomRow{
			Key:      key,
			Data:     wktText,
			Encoding: geom.EncodingWKT,
		})
	}
	return nil
}

// readSynonyms reads a class synonyms file. Rows flagged IsDisplayName carry
// a locale and become localized display names during assembly.
func (s *CSVSource) readSynonyms(set classFiles, ds *feature.Dataset) error {
	t, err := s.readFile(set.synonyms)
	if err != nil {
		return err
	}
	if err := t.require("ParentID", "MapCode", "Name", "Locale", "IsDisplayName"); err != nil {
		return err
	}

	for _, row := range t.rows {
		key, err := t.parseKey(row, "ParentID")
		if err != nil {
			return err
		}
		name, _ := t.field(row, "Name")
		locale, _ := t.field(row, "Locale")
		display, _ := t.field(row, "IsDisplayName")
		ds.Synonyms = append(ds.Synonyms, feature.SynonymRow{
			Key:           key,
			Name:          name,
			Locale:        locale,
			IsDisplayName: strings.TrimSpace(display) == "1",
		})
	}
	return nil
}
