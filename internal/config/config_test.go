package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Spok95/candle-bot/internal/domain/materials"
	"github.com/Spok95/candle-bot/internal/recipe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, c.Storage.Driver)
	assert.Equal(t, ":8080", c.HTTP.Addr)
	assert.Equal(t, recipe.DefaultParams(), c.RecipeParams())
	assert.Equal(t, materials.DefaultThresholds(), c.LowStock())
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := writeConfig(t, `
telegram:
  token: from-file
  admin_chat_id: 42
storage:
  driver: Postgres
  dsn: postgres://x
recipe:
  wick_surcharge: 0.25
  ready_after_days: 7
`)
	t.Setenv("APP_TELEGRAM_TOKEN", "from-env")

	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", c.Telegram.Token)
	assert.Equal(t, int64(42), c.Telegram.AdminChatID)
	assert.Equal(t, DriverPostgres, c.Storage.Driver)

	p := c.RecipeParams()
	assert.InDelta(t, 0.25, p.WickSurcharge, 1e-9)
	assert.InDelta(t, recipe.DefaultFillFraction, p.FillFraction, 1e-9)
	assert.Equal(t, 7*24*time.Hour, p.ReadyAfter)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base, err := Load("")
	require.NoError(t, err)

	cases := map[string]func(c *Config){
		"unknown driver":   func(c *Config) { c.Storage.Driver = "mysql" },
		"postgres w/o dsn": func(c *Config) { c.Storage.Driver = DriverPostgres; c.Storage.DSN = "" },
		"zero fill":        func(c *Config) { c.Recipe.FillFraction = 0 },
		"overfill":         func(c *Config) { c.Recipe.FillFraction = 1.2 },
		"negative dye":     func(c *Config) { c.Recipe.DyePerCandle = -1 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := base
			mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
	assert.NoError(t, base.Validate())
}
