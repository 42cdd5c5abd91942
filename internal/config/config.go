// README: Config loader with env defaults for HTTP, storage, collaborators, pricing and telemetry.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"taxifare/internal/modules/pricing"
)

const (
	ProviderOSM    = "osm"
	ProviderGoogle = "google"
)

type MapsConfig struct {
	Provider     string        `mapstructure:"provider"`
	GoogleAPIKey string        `mapstructure:"google_api_key"`
	NominatimURL string        `mapstructure:"nominatim_url"`
	OSRMURL      string        `mapstructure:"osrm_url"`
	UserAgent    string        `mapstructure:"user_agent"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

type PricingConfig struct {
	BaseFare          float64 `mapstructure:"base_fare"`
	PerKm             float64 `mapstructure:"per_km"`
	USDToEUR          float64 `mapstructure:"usd_to_eur"`
	NightMultiplier   float64 `mapstructure:"night_multiplier"`
	WeekendMultiplier float64 `mapstructure:"weekend_multiplier"`
	HolidayMultiplier float64 `mapstructure:"holiday_multiplier"`
	NightStartHour    int     `mapstructure:"night_start_hour"`
	NightEndHour      int     `mapstructure:"night_end_hour"`
	// TimeZone is applied to pickup times sent without an offset.
	TimeZone string `mapstructure:"time_zone"`
}

type Config struct {
	Env  string `mapstructure:"env"`
	HTTP struct {
		Addr            string        `mapstructure:"addr"`
		ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	} `mapstructure:"http"`
	// Empty DSN and Redis address disable persistence and caching.
	DB struct {
		DSN string `mapstructure:"dsn"`
	} `mapstructure:"db"`
	Redis struct {
		Addr     string        `mapstructure:"addr"`
		CacheTTL time.Duration `mapstructure:"cache_ttl"`
	} `mapstructure:"redis"`
	Maps       MapsConfig `mapstructure:"maps"`
	Prediction struct {
		Endpoint string        `mapstructure:"endpoint"`
		Timeout  time.Duration `mapstructure:"timeout"`
	} `mapstructure:"prediction"`
	Pricing PricingConfig `mapstructure:"pricing"`
	Kafka   struct {
		Brokers []string `mapstructure:"brokers"`
		Topic   string   `mapstructure:"topic"`
	} `mapstructure:"kafka"`
	NewRelic struct {
		Enabled    bool   `mapstructure:"enabled"`
		AppName    string `mapstructure:"app_name"`
		LicenseKey string `mapstructure:"license_key"`
	} `mapstructure:"newrelic"`
	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`
}

// Load reads TAXIFARE_* environment variables, optionally layered over the file named by TAXIFARE_CONFIG.
func Load() (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("TAXIFARE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if path := os.Getenv("TAXIFARE_CONFIG"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.Kafka.Brokers = splitList(cfg.Kafka.Brokers)
	cfg.Maps.Provider = strings.ToLower(strings.TrimSpace(cfg.Maps.Provider))

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	rates := pricing.DefaultRates()

	v.SetDefault("env", "development")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.shutdown_timeout", 5*time.Second)
	v.SetDefault("db.dsn", "")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.cache_ttl", 24*time.Hour)
	v.SetDefault("maps.provider", ProviderOSM)
	v.SetDefault("maps.google_api_key", "")
	v.SetDefault("maps.nominatim_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("maps.osrm_url", "https://router.project-osrm.org")
	v.SetDefault("maps.user_agent", "TaxiFareApp")
	v.SetDefault("maps.timeout", 10*time.Second)
	v.SetDefault("prediction.endpoint", "https://taxifare.lewagon.ai/predict")
	v.SetDefault("prediction.timeout", 10*time.Second)
	v.SetDefault("pricing.base_fare", rates.BaseFare)
	v.SetDefault("pricing.per_km", rates.PerKm)
	v.SetDefault("pricing.usd_to_eur", rates.USDToEUR)
	v.SetDefault("pricing.night_multiplier", rates.NightMultiplier)
	v.SetDefault("pricing.weekend_multiplier", rates.WeekendMultiplier)
	v.SetDefault("pricing.holiday_multiplier", rates.HolidayMultiplier)
	v.SetDefault("pricing.night_start_hour", rates.NightStartHour)
	v.SetDefault("pricing.night_end_hour", rates.NightEndHour)
	v.SetDefault("pricing.time_zone", "UTC")
	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", "fare.quoted")
	v.SetDefault("newrelic.enabled", false)
	v.SetDefault("newrelic.app_name", "taxifare")
	v.SetDefault("newrelic.license_key", "")
	v.SetDefault("log.level", "info")
}

func (c Config) Validate() error {
	switch c.Maps.Provider {
	case ProviderOSM:
	case ProviderGoogle:
		if c.Maps.GoogleAPIKey == "" {
			return errors.New("config: TAXIFARE_MAPS_GOOGLE_API_KEY is required for the google provider")
		}
	default:
		return fmt.Errorf("config: unknown maps provider %q", c.Maps.Provider)
	}
	if err := c.Rates().Validate(); err != nil {
		return fmt.Errorf("config: pricing: %w", err)
	}
	if _, err := c.PricingLocation(); err != nil {
		return err
	}
	return nil
}

func (c Config) Rates() pricing.Rates {
	p := c.Pricing
	return pricing.Rates{
		BaseFare:          p.BaseFare,
		PerKm:             p.PerKm,
		USDToEUR:          p.USDToEUR,
		NightMultiplier:   p.NightMultiplier,
		WeekendMultiplier: p.WeekendMultiplier,
		HolidayMultiplier: p.HolidayMultiplier,
		NightStartHour:    p.NightStartHour,
		NightEndHour:      p.NightEndHour,
	}
}

func (c Config) PricingLocation() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Pricing.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("config: pricing time zone %q: %w", c.Pricing.TimeZone, err)
	}
	return loc, nil
}

// splitList flattens comma-separated entries and drops blanks.
func splitList(in []string) []string {
	var out []string
	for _, s := range in {
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
