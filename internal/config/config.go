package config

import (
	"errors"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
	Geocoder GeocoderConfig `yaml:"geocoder" mapstructure:"geocoder"`
	Importer ImporterConfig `yaml:"importer" mapstructure:"importer"`
	Address  AddressConfig  `yaml:"address" mapstructure:"address"`
	IPGeo    IPGeoConfig    `yaml:"ipgeo" mapstructure:"ipgeo"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// GeocoderConfig holds the geocoding provider settings and the daily call budget.
type GeocoderConfig struct {
	APIKey      string  `yaml:"api_key" mapstructure:"api_key"`
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	Lang        string  `yaml:"lang" mapstructure:"lang"`
	DailyLimit  int     `yaml:"daily_limit" mapstructure:"daily_limit"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RateLimit   float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// ImporterConfig configures snapshot download and import.
type ImporterConfig struct {
	TempDir    string `yaml:"temp_dir" mapstructure:"temp_dir"`
	StatesURL  string `yaml:"states_url" mapstructure:"states_url"`
	CitiesURL  string `yaml:"cities_url" mapstructure:"cities_url"`
	TargetLang string `yaml:"target_lang" mapstructure:"target_lang"`
	UserAgent  string `yaml:"user_agent" mapstructure:"user_agent"`
}

// AddressConfig configures bulk address re-verification.
type AddressConfig struct {
	ReverifyConcurrency int `yaml:"reverify_concurrency" mapstructure:"reverify_concurrency"`
	ReverifyBatch       int `yaml:"reverify_batch" mapstructure:"reverify_batch"`
}

// IPGeoConfig points at the MaxMind-format country database.
type IPGeoConfig struct {
	Database string `yaml:"database" mapstructure:"database"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("GEODATA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.database_url", "")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("geocoder.api_key", "")
	v.SetDefault("geocoder.base_url", "https://geocode-maps.yandex.ru/v1/")
	v.SetDefault("geocoder.lang", "ru_RU")
	v.SetDefault("geocoder.daily_limit", 1000)
	v.SetDefault("geocoder.timeout_secs", 5)
	v.SetDefault("geocoder.rate_limit", 10)
	v.SetDefault("importer.temp_dir", "temp")
	v.SetDefault("importer.states_url", "https://raw.githubusercontent.com/dr5hn/countries-states-cities-database/master/sqlite/states.sqlite3")
	v.SetDefault("importer.cities_url", "https://raw.githubusercontent.com/dr5hn/countries-states-cities-database/master/sqlite/cities.sqlite3.gz")
	v.SetDefault("importer.target_lang", "ru")
	v.SetDefault("importer.user_agent", "geodata/1.0")
	v.SetDefault("address.reverify_concurrency", 4)
	v.SetDefault("address.reverify_batch", 100)
	v.SetDefault("ipgeo.database", "")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks that the settings a command mode depends on are present.
// Modes: "store", "geocode", "ipgeo".
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "store":
		errs = append(errs, c.validateStore()...)
	case "geocode":
		errs = append(errs, c.validateStore()...)
		if c.Geocoder.APIKey == "" {
			errs = append(errs, "geocoder.api_key is required")
		}
		if c.Geocoder.DailyLimit <= 0 {
			errs = append(errs, "geocoder.daily_limit must be positive")
		}
	case "ipgeo":
		errs = append(errs, c.validateStore()...)
		if c.IPGeo.Database == "" {
			errs = append(errs, "ipgeo.database is required")
		}
	default:
		return eris.Errorf("config: unknown validation mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Wrap(errors.New(strings.Join(errs, "; ")), "config: validate "+mode)
	}
	return nil
}

func (c *Config) validateStore() []string {
	switch c.Store.Driver {
	case "postgres":
		if c.Store.DatabaseURL == "" {
			return []string{"store.database_url is required for postgres"}
		}
	case "sqlite":
	default:
		return []string{"store.driver must be postgres or sqlite"}
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
