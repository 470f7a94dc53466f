package cli

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tansive/polycatalog/internal/catalogsrv/config"
)

func TestWriteConfigRoundTrip(t *testing.T) {
	file := filepath.Join(t.TempDir(), "nested", DefaultConfigFile)

	cfg := config.Default()
	cfg.DB.Dialect = config.DialectPostgres
	cfg.DB.Postgres.Password = "pg-secret"
	cfg.Pool.MaxIdleHandlers = 3
	require.NoError(t, WriteConfig(cfg, file))

	got, err := config.Parse(file)
	require.NoError(t, err)
	assert.Equal(t, config.DialectPostgres, got.DB.Dialect)
	assert.Equal(t, "pg-secret", got.DB.Postgres.Password)
	assert.Equal(t, 3, got.Pool.MaxIdleHandlers)
	assert.Equal(t, cfg.Bootstrap, got.Bootstrap)

	assert.Error(t, WriteConfig(cfg, ""))
}

func TestEncodeConfigRedacts(t *testing.T) {
	cfg := config.Default()
	cfg.DB.Postgres.Password = "pg-secret"
	cfg.Bootstrap.DefaultPassword = "pa-secret"

	b, err := EncodeConfig(cfg, true)
	require.NoError(t, err)
	out := string(b)
	assert.NotContains(t, out, "pg-secret")
	assert.NotContains(t, out, "pa-secret")
	assert.Equal(t, 2, strings.Count(out, redacted))
	assert.Equal(t, "pg-secret", cfg.DB.Postgres.Password)

	b, err = EncodeConfig(cfg, false)
	require.NoError(t, err)
	assert.Contains(t, string(b), "pg-secret")
}

func TestSettingValue(t *testing.T) {
	assert.Equal(t, float64(50), settingValue("50"))
	assert.Equal(t, true, settingValue("true"))
	assert.Equal(t, "Memory", settingValue("Memory"))
	assert.Equal(t, map[string]any{"a": float64(1)}, settingValue(`{"a":1}`))
}

func TestPattern(t *testing.T) {
	assert.False(t, pattern("").IsSet())
	p := pattern("ORD%")
	assert.True(t, p.IsSet())
	assert.Equal(t, "ORD%", p.String())
}

func TestCommandsRegistered(t *testing.T) {
	want := []string{"bootstrap", "config", "describe", "list", "stores", "user", "version"}
	var got []string
	for _, c := range rootCmd.Commands() {
		got = append(got, c.Name())
	}
	for _, w := range want {
		assert.Contains(t, got, w)
	}
}
