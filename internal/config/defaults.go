package config

// Default configuration values. The postgres defaults mirror the geocoding
// database's conventional deployment.
const (
	DefaultSourceType       = "csv"
	DefaultPostgresHost     = "localhost"
	DefaultPostgresPort     = 5432
	DefaultPostgresDatabase = "pg_geocoding"
	DefaultPostgresUser     = "test_user"
	DefaultServerPort       = 8080
	DefaultLogLevel         = "info"
	DefaultLogFormat        = "text"
)

// defaults returns the built-in configuration as a flat koanf map.
func defaults() map[string]interface{} {
	return map[string]interface{}{
		"source.type":              DefaultSourceType,
		"source.postgres.host":     DefaultPostgresHost,
		"source.postgres.port":     DefaultPostgresPort,
		"source.postgres.database": DefaultPostgresDatabase,
		"source.postgres.user":     DefaultPostgresUser,
		"source.postgres.sslmode":  "disable",
		"checks.workers":           0,
		"server.port":              DefaultServerPort,
		"log.level":                DefaultLogLevel,
		"log.format":               DefaultLogFormat,
	}
}
