package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
)

// Config holds the full application configuration.
type Config struct {
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
	Scrape     ScrapeConfig     `yaml:"scrape" mapstructure:"scrape"`
	Police     PoliceConfig     `yaml:"police" mapstructure:"police"`
	Crime      CrimeConfig      `yaml:"crime" mapstructure:"crime"`
	Geocode    GeocodeConfig    `yaml:"geocode" mapstructure:"geocode"`
	POI        POIConfig        `yaml:"poi" mapstructure:"poi"`
	Extract    ExtractConfig    `yaml:"extract" mapstructure:"extract"`
	Ledger     LedgerConfig     `yaml:"ledger" mapstructure:"ledger"`
	Preprocess PreprocessConfig `yaml:"preprocess" mapstructure:"preprocess"`
	Export     ExportConfig     `yaml:"export" mapstructure:"export"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// ScrapeConfig configures listing discovery and page fetching.
type ScrapeConfig struct {
	SearchURL      string  `yaml:"search_url" mapstructure:"search_url"`
	Query          string  `yaml:"query" mapstructure:"query"`
	SearchSource   string  `yaml:"search_source" mapstructure:"search_source"`
	Pages          int     `yaml:"pages" mapstructure:"pages"`
	MaxProperties  int     `yaml:"max_properties" mapstructure:"max_properties"`
	RequestDelayMs int     `yaml:"request_delay_ms" mapstructure:"request_delay_ms"`
	TimeoutSecs    int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	UserAgent      string  `yaml:"user_agent" mapstructure:"user_agent"`
	MaxRetries     int     `yaml:"max_retries" mapstructure:"max_retries"`
	RPS            float64 `yaml:"rps" mapstructure:"rps"`
}

// PoliceConfig configures the street-crime API client and aggregation window.
type PoliceConfig struct {
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	DelayMs     int     `yaml:"delay_ms" mapstructure:"delay_ms"`
	Months      int     `yaml:"months" mapstructure:"months"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RPS         float64 `yaml:"rps" mapstructure:"rps"`
	MaxRetries  int     `yaml:"max_retries" mapstructure:"max_retries"`
	RadiusKm    float64 `yaml:"radius_km" mapstructure:"radius_km"`
}

// CrimeConfig configures cross-location crime aggregation.
type CrimeConfig struct {
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`
}

// GeocodeConfig configures address geocoding.
type GeocodeConfig struct {
	Enabled     bool    `yaml:"enabled" mapstructure:"enabled"`
	APIKey      string  `yaml:"api_key" mapstructure:"api_key"`
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	CountryCode string  `yaml:"country_code" mapstructure:"country_code"`
	RPS         float64 `yaml:"rps" mapstructure:"rps"`
}

// POIConfig configures the points-of-interest service.
type POIConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Limit   int    `yaml:"limit" mapstructure:"limit"`
}

// ExtractConfig configures the extraction engine.
type ExtractConfig struct {
	RepairJSON bool `yaml:"repair_json" mapstructure:"repair_json"`
}

// LedgerConfig configures the run ledger backend.
type LedgerConfig struct {
	Driver   string `yaml:"driver" mapstructure:"driver"`
	DSN      string `yaml:"dsn" mapstructure:"dsn"`
	RunsDir  string `yaml:"runs_dir" mapstructure:"runs_dir"`
	MaxConns int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// PreprocessConfig configures the run-ready cleaning step.
type PreprocessConfig struct {
	SchemaPath string `yaml:"schema_path" mapstructure:"schema_path"`
}

// ExportConfig selects optional artifact formats beyond JSON.
type ExportConfig struct {
	CSV  bool `yaml:"csv" mapstructure:"csv"`
	XLSX bool `yaml:"xlsx" mapstructure:"xlsx"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// envAliases binds the bare variable names the scraper has always read
// from .env.
var envAliases = map[string]string{
	"geocode.api_key": "GEOAPIFY_API_KEY",
}

// Load reads configuration from .env, ./config.yaml when present, and
// environment.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile is Load with an explicit config file. An empty path falls back to
// ./config.yaml; a named file must exist.
func LoadFile(path string) (*Config, error) {
	// .env is optional; existing environment variables win.
	_ = godotenv.Load()

	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
	}
	v.SetConfigType("yaml")

	v.SetEnvPrefix("ZOOPLA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range envAliases {
		if err := v.BindEnv(key, "ZOOPLA_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, eris.Wrapf(err, "config: bind %s", key)
		}
	}

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("scrape.search_url", "https://www.zoopla.co.uk/search/")
	v.SetDefault("scrape.query", "Greater Manchester")
	v.SetDefault("scrape.search_source", "for-sale")
	v.SetDefault("scrape.pages", 1)
	v.SetDefault("scrape.max_properties", 10)
	v.SetDefault("scrape.request_delay_ms", 2000)
	v.SetDefault("scrape.timeout_secs", 20)
	v.SetDefault("scrape.max_retries", 2)
	v.SetDefault("scrape.rps", 1.0)
	v.SetDefault("police.base_url", "https://data.police.uk/api")
	v.SetDefault("police.delay_ms", 250)
	v.SetDefault("police.months", 6)
	v.SetDefault("police.timeout_secs", 10)
	v.SetDefault("police.rps", 15.0)
	v.SetDefault("police.max_retries", 2)
	v.SetDefault("police.radius_km", 1.0)
	v.SetDefault("crime.concurrency", 1)
	v.SetDefault("geocode.enabled", true)
	v.SetDefault("geocode.base_url", "https://api.geoapify.com/v1/geocode/search")
	v.SetDefault("geocode.country_code", "gb")
	v.SetDefault("geocode.rps", 1.0)
	v.SetDefault("poi.limit", 5)
	v.SetDefault("ledger.driver", "sqlite")
	v.SetDefault("ledger.dsn", "runs/ledger.db")
	v.SetDefault("ledger.runs_dir", "runs")
	v.SetDefault("ledger.max_conns", 4)
	v.SetDefault("ledger.min_conns", 1)
	v.SetDefault("export.csv", true)
	v.SetDefault("export.xlsx", true)
	v.SetDefault("server.port", 8080)

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
