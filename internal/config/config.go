package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Spok95/candle-bot/internal/domain/materials"
	"github.com/Spok95/candle-bot/internal/recipe"
	"github.com/spf13/viper"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	App struct {
		Env      string
		Timezone string
	} `mapstructure:"app"`

	Telegram struct {
		Token       string
		AdminChatID int64 `mapstructure:"admin_chat_id"`
		PollTimeout int   `mapstructure:"poll_timeout"`
	} `mapstructure:"telegram"`

	HTTP struct {
		Addr string
	} `mapstructure:"http"`

	Storage struct {
		Driver     string
		DSN        string
		SQLitePath string `mapstructure:"sqlite_path"`
	} `mapstructure:"storage"`

	Metrics struct {
		Enabled bool
	} `mapstructure:"metrics"`

	Recipe struct {
		FillFraction   float64 `mapstructure:"fill_fraction"`
		WickSurcharge  float64 `mapstructure:"wick_surcharge"`
		DyePerCandle   float64 `mapstructure:"dye_per_candle"`
		ReadyAfterDays int     `mapstructure:"ready_after_days"`
	} `mapstructure:"recipe"`

	Stock struct {
		LowG   float64 `mapstructure:"low_g"`
		LowMl  float64 `mapstructure:"low_ml"`
		LowPcs float64 `mapstructure:"low_pcs"`
		LowM   float64 `mapstructure:"low_m"`
	} `mapstructure:"stock"`

	Export struct {
		LabelPage string `mapstructure:"label_page"`
	} `mapstructure:"export"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "prod")
	v.SetDefault("app.timezone", "Europe/Warsaw")
	// ключи без значения тоже объявляем, иначе viper не увидит их в окружении
	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.admin_chat_id", 0)
	v.SetDefault("telegram.poll_timeout", 60)
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("storage.driver", DriverSQLite)
	v.SetDefault("storage.dsn", "")
	v.SetDefault("storage.sqlite_path", "candles.db")
	v.SetDefault("metrics.enabled", true)

	p := recipe.DefaultParams()
	v.SetDefault("recipe.fill_fraction", p.FillFraction)
	v.SetDefault("recipe.wick_surcharge", p.WickSurcharge)
	v.SetDefault("recipe.dye_per_candle", p.DyePerCandle)
	v.SetDefault("recipe.ready_after_days", int(p.ReadyAfter/(24*time.Hour)))

	thr := materials.DefaultThresholds()
	v.SetDefault("stock.low_g", thr[materials.UnitG])
	v.SetDefault("stock.low_ml", thr[materials.UnitMl])
	v.SetDefault("stock.low_pcs", thr[materials.UnitPcs])
	v.SetDefault("stock.low_m", thr[materials.UnitM])

	v.SetDefault("export.label_page", "A4")
}

// Load читает YAML и переопределения из окружения: APP_TELEGRAM_TOKEN,
// APP_STORAGE_DSN и т.п. Пустой path — только дефолты и окружение.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var c Config
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return c, fmt.Errorf("reading config %s: %w", path, err)
		}
	}
	if err := v.Unmarshal(&c); err != nil {
		return c, fmt.Errorf("decoding config: %w", err)
	}
	c.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Storage.Driver))
	return c, c.Validate()
}

func (c Config) Validate() error {
	var errs []error
	switch c.Storage.Driver {
	case DriverPostgres:
		if c.Storage.DSN == "" {
			errs = append(errs, errors.New("storage.dsn is required for postgres"))
		}
	case DriverSQLite:
		if c.Storage.SQLitePath == "" {
			errs = append(errs, errors.New("storage.sqlite_path is required for sqlite"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.driver %q: want postgres or sqlite", c.Storage.Driver))
	}
	if c.Recipe.FillFraction <= 0 || c.Recipe.FillFraction > 1 {
		errs = append(errs, fmt.Errorf("recipe.fill_fraction %v: want (0, 1]", c.Recipe.FillFraction))
	}
	if c.Recipe.WickSurcharge < 0 || c.Recipe.DyePerCandle < 0 || c.Recipe.ReadyAfterDays < 0 {
		errs = append(errs, errors.New("recipe: wick_surcharge, dye_per_candle and ready_after_days must not be negative"))
	}
	if c.Telegram.PollTimeout < 0 {
		errs = append(errs, errors.New("telegram.poll_timeout must not be negative"))
	}
	return errors.Join(errs...)
}

func (c Config) RecipeParams() recipe.Params {
	return recipe.Params{
		FillFraction:  c.Recipe.FillFraction,
		WickSurcharge: c.Recipe.WickSurcharge,
		DyePerCandle:  c.Recipe.DyePerCandle,
		ReadyAfter:    time.Duration(c.Recipe.ReadyAfterDays) * 24 * time.Hour,
	}
}

func (c Config) LowStock() materials.Thresholds {
	return materials.Thresholds{
		materials.UnitG:   c.Stock.LowG,
		materials.UnitMl:  c.Stock.LowMl,
		materials.UnitPcs: c.Stock.LowPcs,
		materials.UnitM:   c.Stock.LowM,
	}
}

// Location часовой пояс для дат на этикетках и в выгрузках.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
