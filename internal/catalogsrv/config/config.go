package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
)

const (
	DialectPostgres = "postgresql"
	DialectSqlite   = "sqlite3"
)

type ConfigParam struct {
	LogLevel  string          `toml:"log_level" validate:"omitempty,oneof=trace debug info warn error"`
	DB        DBConfig        `toml:"db"`
	Pool      PoolConfig      `toml:"pool"`
	Bootstrap BootstrapConfig `toml:"bootstrap"`
}

type DBConfig struct {
	Dialect         string         `toml:"dialect" validate:"required,oneof=postgresql sqlite3"`
	ConnectAttempts uint           `toml:"connect_attempts" validate:"gte=1"`
	Postgres        PostgresConfig `toml:"postgresql"`
	Sqlite          SqliteConfig   `toml:"sqlite"`
	Session         SessionConfig  `toml:"session"`
}

type PostgresConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port" validate:"omitempty,gte=1,lte=65535"`
	DBName   string `toml:"dbname"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	SSLMode  string `toml:"sslmode" validate:"omitempty,oneof=disable allow prefer require verify-ca verify-full"`
}

type SqliteConfig struct {
	Path string `toml:"path"`
}

// SessionConfig holds per-connection settings applied when a connection is opened.
type SessionConfig struct {
	LockTimeout      string `toml:"lock_timeout"`
	StatementTimeout string `toml:"statement_timeout"`
	BusyTimeout      string `toml:"busy_timeout"`
}

type PoolConfig struct {
	MaxIdleHandlers int `toml:"max_idle_handlers" validate:"gte=0"`
}

type BootstrapConfig struct {
	Enabled         bool   `toml:"enabled"`
	DefaultUser     string `toml:"default_user" validate:"required"`
	DefaultPassword string `toml:"default_password"`
	DefaultDatabase string `toml:"default_database" validate:"required"`
}

var cfg *ConfigParam

func Config() *ConfigParam {
	return cfg
}

// Default returns the configuration used when no file is given: an embedded
// catalog in the working directory. Bootstrap is off so existing catalog
// data is kept.
func Default() *ConfigParam {
	return &ConfigParam{
		LogLevel: "info",
		DB: DBConfig{
			Dialect:         DialectSqlite,
			ConnectAttempts: 3,
			Postgres: PostgresConfig{
				Host:    "localhost",
				Port:    5432,
				DBName:  "polycatalog",
				User:    "catalog_api",
				SSLMode: "disable",
			},
			Sqlite: SqliteConfig{
				Path: "polycatalog.db",
			},
			Session: SessionConfig{
				LockTimeout:      "5s",
				StatementTimeout: "5s",
				BusyTimeout:      "5s",
			},
		},
		Pool: PoolConfig{
			MaxIdleHandlers: 16,
		},
		Bootstrap: BootstrapConfig{
			Enabled:         false,
			DefaultUser:     "pa",
			DefaultDatabase: "APP",
		},
	}
}

func LoadConfig(filename string) error {
	if filename == "" {
		cfg = Default()
		return nil
	}
	c, err := Parse(filename)
	if err != nil {
		return err
	}
	cfg = c
	return nil
}

// Parse reads a TOML file on top of the defaults and validates the result.
func Parse(filename string) (*ConfigParam, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %v", err)
	}
	return ParseBytes(content)
}

func ParseBytes(content []byte) (*ConfigParam, error) {
	cp := Default()
	if _, err := toml.Decode(string(content), cp); err != nil {
		return nil, fmt.Errorf("error parsing config file: %v", err)
	}
	if err := cp.Validate(); err != nil {
		return nil, err
	}
	return cp, nil
}

func (c *ConfigParam) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	switch c.DB.Dialect {
	case DialectPostgres:
		if c.DB.Postgres.Host == "" || c.DB.Postgres.DBName == "" {
			return fmt.Errorf("invalid config: postgresql host and dbname are required")
		}
	case DialectSqlite:
		if c.DB.Sqlite.Path == "" {
			return fmt.Errorf("invalid config: sqlite path is required")
		}
	}
	for _, d := range []string{c.DB.Session.LockTimeout, c.DB.Session.StatementTimeout, c.DB.Session.BusyTimeout} {
		if _, err := ParseDuration(d); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
	}
	return nil
}

// ParseDuration accepts Go duration syntax. An empty string is zero, meaning no limit.
func ParseDuration(input string) (time.Duration, error) {
	if input == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(input)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %v", input, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %q", input)
	}
	return d, nil
}

func init() {
	err := LoadConfig("")
	if err != nil {
		panic(err)
	}
}
