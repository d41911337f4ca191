package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/i474232898/weather-charts/internal/logger"
	"github.com/i474232898/weather-charts/internal/weather"
)

const (
	ModeOnce  = "once"
	ModeServe = "serve"
)

var validate = validator.New()

type AppConfig struct {
	OpenWeatherAPIKey  string `validate:"required"`
	OpenWeatherBaseURL string `validate:"required,url"`
	GeocoderAPIKey     string

	// OutputPath is the root of the <region>/<city>/weather_<city>.png tree.
	OutputPath string `validate:"required"`

	// ThreadCount is the size of the worker pool.
	ThreadCount int `validate:"min=1,max=64"`

	HTTPTimeout time.Duration `validate:"gt=0"`

	// Token bucket guarding every outbound API call.
	RateLimit float64 `validate:"gt=0"`
	RateBurst int     `validate:"min=1"`

	LocationsFile string             `validate:"required"`
	Locations     []weather.Location `validate:"min=1"`

	Mode          string        `validate:"oneof=once serve"`
	FetchInterval time.Duration `validate:"gt=0"`
	Port          string        `validate:"required,numeric"`

	// Run reports kept in memory in serve mode.
	StoreMaxHistory int `validate:"min=0"`
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		logger.GetLogger().Infow("No .env file found or error loading it", "error", err)
	}
	cfg := &AppConfig{}

	cfg.OpenWeatherAPIKey = os.Getenv("OPENWEATHER_API_KEY")
	cfg.OpenWeatherBaseURL = getenvDefault("OPENWEATHER_BASE_URL", "https://api.openweathermap.org")
	cfg.GeocoderAPIKey = os.Getenv("GEOCODER_API_KEY")

	cfg.OutputPath = getenvDefault("OUTPUT_PATH", "./charts")

	var err error
	if cfg.ThreadCount, err = getenvInt("THREAD_COUNT", 4); err != nil {
		return nil, err
	}
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "15s"); err != nil {
		return nil, err
	}

	rateStr := getenvDefault("API_RATE_LIMIT", "5")
	cfg.RateLimit, err = strconv.ParseFloat(rateStr, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid API_RATE_LIMIT: %w", err)
	}
	if cfg.RateBurst, err = getenvInt("API_RATE_BURST", 5); err != nil {
		return nil, err
	}

	cfg.Mode = getenvDefault("RUN_MODE", ModeOnce)
	if cfg.FetchInterval, err = getenvDuration("FETCH_INTERVAL", "3h"); err != nil {
		return nil, err
	}
	cfg.Port = getenvDefault("PORT", "8080")
	if cfg.StoreMaxHistory, err = getenvInt("STORE_MAX_HISTORY", 24); err != nil {
		return nil, err
	}

	cfg.LocationsFile = getenvDefault("LOCATIONS_FILE", "locations.yaml")
	cfg.Locations, err = LoadLocations(cfg.LocationsFile)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints; it is called again after CLI overrides.
func (c *AppConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

type locationsFile struct {
	Locations []fileLocation `yaml:"locations" validate:"min=1,dive"`
}

type fileLocation struct {
	Region  string   `yaml:"region" validate:"required"`
	City    string   `yaml:"city" validate:"required"`
	Country string   `yaml:"country"`
	Lat     *float64 `yaml:"lat" validate:"omitempty,gte=-90,lte=90"`
	Lon     *float64 `yaml:"lon" validate:"omitempty,gte=-180,lte=180"`
}

// LoadLocations reads the YAML list of locations to chart.
// Entries without lat/lon are geocoded at run time.
func LoadLocations(path string) ([]weather.Location, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read locations file %s: %w", path, err)
	}

	var f locationsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse locations file %s: %w", path, err)
	}
	if err := validate.Struct(f); err != nil {
		return nil, fmt.Errorf("invalid locations file %s: %w", path, err)
	}

	locs := make([]weather.Location, 0, len(f.Locations))
	for i, l := range f.Locations {
		if (l.Lat == nil) != (l.Lon == nil) {
			return nil, fmt.Errorf("location %d (%s/%s): lat and lon must be set together", i, l.Region, l.City)
		}
		loc := weather.Location{
			Region:  l.Region,
			City:    l.City,
			Country: l.Country,
		}
		if l.Lat != nil {
			loc.Coordinate = &weather.Coordinate{Lat: *l.Lat, Lon: *l.Lon}
		}
		locs = append(locs, loc)
	}
	return locs, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
