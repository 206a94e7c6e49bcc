package source

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/geostack-labs/geoverify/internal/feature"
	"github.com/geostack-labs/geoverify/internal/geom"
	_ "github.com/jackc/pgx/v5/stdlib" // postgres driver
)

// localeColumns are the per-locale name columns of the names table, in the
// order they appear in the select list.
var localeColumns = []string{"de_de", "es_es", "fr_fr", "ja_jp", "ko_kr", "pt_br", "zh_cn", "none"}

// PostgresSource reads the five geocoding tables from PostGIS. Staging
// datasets live in tables named staging_<prefix>_<table> alongside the
// production tables.
type PostgresSource struct {
	db     *sql.DB
	logger *slog.Logger
}

func init() {
	Register("postgres", func(cfg Config, logger *slog.Logger) (Source, error) {
		return NewPostgresSource(cfg, logger)
	})
}

// NewPostgresSource opens and pings a connection to the geocoding database.
func NewPostgresSource(cfg Config, logger *slog.Logger) (*PostgresSource, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	dsn := buildDSN(cfg)
	logger.Debug("connecting to postgres", slog.String("host", cfg.Host), slog.String("database", cfg.Database))

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	return &PostgresSource{db: db, logger: logger}, nil
}

// NewPostgresSourceDB wraps an existing connection. Used by tests.
func NewPostgresSourceDB(db *sql.DB, logger *slog.Logger) *PostgresSource {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &PostgresSource{db: db, logger: logger}
}

// buildDSN constructs a key=value PostgreSQL connection string.
func buildDSN(cfg Config) string {
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}
	port := cfg.Port
	if port == 0 {
		port = 5432
	}
	sslmode := cfg.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}

	dsn := fmt.Sprintf("host=%s port=%d dbname=%s sslmode=%s",
		host, port, cfg.Database, sslmode)

	if cfg.User != "" {
		dsn += fmt.Sprintf(" user=%s", cfg.User)
	}
	if cfg.Password != "" {
		dsn += fmt.Sprintf(" password=%s", cfg.Password)
	}
	return dsn
}

// Fetch reads the production tables.
func (s *PostgresSource) Fetch(ctx context.Context) (*feature.Dataset, error) {
	return s.fetch(ctx, "")
}

// FetchStaging reads the tables for one staging prefix.
func (s *PostgresSource) FetchStaging(ctx context.Context, prefix string) (*feature.Dataset, error) {
	if prefix == "" {
		return nil, fmt.Errorf("postgres source: empty staging prefix")
	}
	return s.fetch(ctx, prefix)
}

// Close closes the database connection.
func (s *PostgresSource) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// tableName resolves a logical table to its physical name for the given
// staging prefix. An empty prefix means production.
func tableName(table, prefix string) string {
	if prefix == "" {
		return table
	}
	return fmt.Sprintf("staging_%s_%s", prefix, table)
}

func (s *PostgresSource) fetch(ctx context.Context, prefix string) (*feature.Dataset, error) {
	ds := &feature.Dataset{}

	if err := s.fetchFeatures(ctx, prefix, ds); err != nil {
		return nil, err
	}
	if err := s.fetchNames(ctx, prefix, ds); err != nil {
		return nil, err
	}
	if err := s.fetchSynonyms(ctx, prefix, ds); err != nil {
		return nil, err
	}
	if err := s.fetchGeoms(ctx, feature.TablePoints, "pt_geom", prefix, &ds.Points); err != nil {
		return nil, err
	}
	if err := s.fetchGeoms(ctx, feature.TablePolygons, "pl_geom", prefix, &ds.Polygons); err != nil {
		return nil, err
	}

	s.logger.Debug("postgres dataset read", "prefix", prefix, "rows", ds.RowCount())
	return ds, nil
}

func (s *PostgresSource) fetchFeatures(ctx context.Context, prefix string, ds *feature.Dataset) error {
	table := tableName(feature.TableFeatures, prefix)
	query := fmt.Sprintf("SELECT id, parent_id, class, map_code FROM %s", table)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id, class, mapCode int
			parentID           sql.NullInt64
		)
		if err := rows.Scan(&id, &parentID, &class, &mapCode); err != nil {
			return fmt.Errorf("scan %s: %w", table, err)
		}
		fr := feature.FeatureRow{
			Key:   feature.Key{ID: id, MapCode: mapCode},
			Class: feature.Class(class),
		}
		if parentID.Valid {
			parent := int(parentID.Int64)
			fr.ParentID = &parent
		}
		ds.Features = append(ds.Features, fr)
	}
	return rows.Err()
}

func (s *PostgresSource) fetchNames(ctx context.Context, prefix string, ds *feature.Dataset) error {
	table := tableName(feature.TableNames, prefix)
	query := fmt.Sprintf(
		"SELECT de_de, es_es, fr_fr, ja_jp, ko_kr, pt_br, zh_cn, none, id, map_code, fips, iso2, iso3 FROM %s",
		table)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			locales          = make([]sql.NullString, len(localeColumns))
			id, mapCode      int
			fips, iso2, iso3 sql.NullString
		)
		dest := make([]any, 0, len(localeColumns)+5)
		for i := range locales {
			dest = append(dest, &locales[i])
		}
		dest = append(dest, &id, &mapCode, &fips, &iso2, &iso3)
		if err := rows.Scan(dest...); err != nil {
			return fmt.Errorf("scan %s: %w", table, err)
		}

		nr := feature.NameRow{
			Key:     feature.Key{ID: id, MapCode: mapCode},
			Locales: make(map[string]*string, len(localeColumns)),
			FIPS:    nullable(fips),
			ISO2:    nullable(iso2),
			ISO3:    nullable(iso3),
		}
		for i, column := range localeColumns {
			nr.Locales[column] = nullable(locales[i])
		}
		ds.Names = append(ds.Names, nr)
	}
	return rows.Err()
}

func (s *PostgresSource) fetchSynonyms(ctx context.Context, prefix string, ds *feature.Dataset) error {
	table := tableName(feature.TableSynonyms, prefix)
	query := fmt.Sprintf("SELECT name, map_code, id FROM %s", table)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			name        string
			id, mapCode int
		)
		if err := rows.Scan(&name, &mapCode, &id); err != nil {
			return fmt.Errorf("scan %s: %w", table, err)
		}
		ds.Synonyms = append(ds.Synonyms, feature.SynonymRow{
			Key:  feature.Key{ID: id, MapCode: mapCode},
			Name: name,
		})
	}
	return rows.Err()
}

func (s *PostgresSource) fetchGeoms(ctx context.Context, logical, geomColumn, prefix string, out *[]feature.GeomRow) error {
	table := tableName(logical, prefix)
	query := fmt.Sprintf("SELECT id, map_code, ST_AsGeoJSON(the_geom) AS %s FROM %s", geomColumn, table)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id, mapCode int
			data        sql.NullString
		)
		if err := rows.Scan(&id, &mapCode, &data); err != nil {
			return fmt.Errorf("scan %s: %w", table, err)
		}
		if !data.Valid {
			continue
		}
		*out = append(*out, feature.GeomRow{
			Key:      feature.Key{ID: id, MapCode: mapCode},
			Data:     data.String,
			Encoding: geom.EncodingGeoJSON,
		})
	}
	return rows.Err()
}

func nullable(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}
