package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBytes(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr bool
		check   func(t *testing.T, c *ConfigParam)
	}{
		{
			name:    "empty file keeps defaults",
			content: ``,
			check: func(t *testing.T, c *ConfigParam) {
				assert.Equal(t, DialectSqlite, c.DB.Dialect)
				assert.Equal(t, "polycatalog.db", c.DB.Sqlite.Path)
				assert.Equal(t, 16, c.Pool.MaxIdleHandlers)
				assert.False(t, c.Bootstrap.Enabled)
			},
		},
		{
			name: "postgresql",
			content: `
log_level = "debug"
[db]
dialect = "postgresql"
[db.postgresql]
host = "db.internal"
port = 6432
dbname = "catalog"
user = "catalog_api"
password = "pw"
[db.session]
lock_timeout = "2s"
[pool]
max_idle_handlers = 4
[bootstrap]
enabled = true
default_user = "admin"
default_password = "admin"
`,
			check: func(t *testing.T, c *ConfigParam) {
				assert.Equal(t, "debug", c.LogLevel)
				assert.Equal(t, DialectPostgres, c.DB.Dialect)
				assert.Equal(t, "db.internal", c.DB.Postgres.Host)
				assert.Equal(t, 6432, c.DB.Postgres.Port)
				assert.Equal(t, "2s", c.DB.Session.LockTimeout)
				assert.Equal(t, "5s", c.DB.Session.StatementTimeout)
				assert.Equal(t, 4, c.Pool.MaxIdleHandlers)
				assert.True(t, c.Bootstrap.Enabled)
				assert.Equal(t, "admin", c.Bootstrap.DefaultUser)
				assert.Equal(t, "APP", c.Bootstrap.DefaultDatabase)
			},
		},
		{
			name:    "unknown dialect",
			content: "[db]\ndialect = \"oracle\"\n",
			wantErr: true,
		},
		{
			name:    "unknown log level",
			content: "log_level = \"loud\"\n",
			wantErr: true,
		},
		{
			name:    "sqlite without path",
			content: "[db.sqlite]\npath = \"\"\n",
			wantErr: true,
		},
		{
			name:    "postgresql without host",
			content: "[db]\ndialect = \"postgresql\"\n[db.postgresql]\nhost = \"\"\n",
			wantErr: true,
		},
		{
			name:    "bad timeout",
			content: "[db.session]\nbusy_timeout = \"soon\"\n",
			wantErr: true,
		},
		{
			name:    "negative pool size",
			content: "[pool]\nmax_idle_handlers = -1\n",
			wantErr: true,
		},
		{
			name:    "not toml",
			content: "this is = = not toml",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := ParseBytes([]byte(tt.content))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.check != nil {
				tt.check(t, c)
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	require.NoError(t, LoadConfig(""))
	assert.Equal(t, Default(), Config())

	file := filepath.Join(t.TempDir(), "polycatalog.toml")
	require.NoError(t, os.WriteFile(file, []byte("[pool]\nmax_idle_handlers = 2\n"), 0600))
	require.NoError(t, LoadConfig(file))
	assert.Equal(t, 2, Config().Pool.MaxIdleHandlers)

	assert.Error(t, LoadConfig(filepath.Join(t.TempDir(), "missing.toml")))
	require.NoError(t, LoadConfig(""))
}

func TestParseDuration(t *testing.T) {
	d, err := ParseDuration("")
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), d)

	d, err = ParseDuration("1500ms")
	require.NoError(t, err)
	assert.Equal(t, 1500*time.Millisecond, d)

	_, err = ParseDuration("-1s")
	assert.Error(t, err)
	_, err = ParseDuration("5")
	assert.Error(t, err)
}
