package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tansive/polycatalog/internal/catalogsrv/config"
)

func TestPostgresDsn(t *testing.T) {
	dsn := PostgresDsn(config.PostgresConfig{
		Host:     "localhost",
		Port:     5432,
		DBName:   "polycatalog",
		User:     "catalog_api",
		Password: "abc 1'23",
		SSLMode:  "disable",
	})
	assert.Equal(t, `host=localhost port=5432 dbname=polycatalog user=catalog_api password='abc 1\'23' sslmode=disable`, dsn)

	dsn = PostgresDsn(config.PostgresConfig{Host: "db", Port: 6543, DBName: "c"})
	assert.Equal(t, "host=db port=6543 dbname=c", dsn)
}
