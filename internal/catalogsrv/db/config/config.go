package config

import (
	"fmt"
	"strings"

	"github.com/tansive/polycatalog/internal/catalogsrv/config"
)

// PostgresDsn builds a keyword/value connection string for the pgx driver.
func PostgresDsn(c config.PostgresConfig) string {
	parts := []string{
		fmt.Sprintf("host=%s", quote(c.Host)),
		fmt.Sprintf("port=%d", c.Port),
		fmt.Sprintf("dbname=%s", quote(c.DBName)),
	}
	if c.User != "" {
		parts = append(parts, fmt.Sprintf("user=%s", quote(c.User)))
	}
	if c.Password != "" {
		parts = append(parts, fmt.Sprintf("password=%s", quote(c.Password)))
	}
	if c.SSLMode != "" {
		parts = append(parts, fmt.Sprintf("sslmode=%s", c.SSLMode))
	}
	return strings.Join(parts, " ")
}

// SqliteDsn returns the data source for the embedded engine. Connection
// settings are applied per connection by the connector, not through the DSN.
func SqliteDsn(c config.SqliteConfig) string {
	return c.Path
}

func quote(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}
