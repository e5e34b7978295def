package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"scentline/pkg/cone"
)

// Config holds the application configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
	DB      DBConfig      `yaml:"db"`
	Request RequestConfig `yaml:"request"`
	Weather WeatherConfig `yaml:"weather"`
	Terrain TerrainConfig `yaml:"terrain"`
	Cone    ConeConfig    `yaml:"cone"`
	Live    LiveConfig    `yaml:"live"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Address string `yaml:"address"`
}

// LogConfig holds log destinations and levels.
type LogConfig struct {
	Server   LogFileConfig `yaml:"server"`
	Requests LogFileConfig `yaml:"requests"`
}

// LogFileConfig is one log file destination.
type LogFileConfig struct {
	Path  string `yaml:"path"`
	Level string `yaml:"level"`
}

// DBConfig holds database settings.
type DBConfig struct {
	Path string `yaml:"path"`
}

// RequestConfig holds outbound HTTP request settings.
type RequestConfig struct {
	Retries int           `yaml:"retries"`
	Timeout Duration      `yaml:"timeout"`
	Backoff BackoffConfig `yaml:"backoff"`
}

// BackoffConfig holds exponential backoff settings.
type BackoffConfig struct {
	BaseDelay Duration `yaml:"base_delay"`
	MaxDelay  Duration `yaml:"max_delay"`
}

// WeatherConfig holds weather fetcher settings.
type WeatherConfig struct {
	CacheTTL Duration `yaml:"cache_ttl"`
}

// TerrainConfig holds land-cover and elevation settings.
type TerrainConfig struct {
	LandcoverPaths []string `yaml:"landcover_paths"`
	ElevationURL   string   `yaml:"elevation_url"`
}

// ConeConfig holds the default operational cone settings used by the live
// recorder when the caller supplies none.
type ConeConfig struct {
	TimeHorizonHours float64        `yaml:"time_horizon_hours"`
	SpreadDeg        float64        `yaml:"spread_deg"`
	Stability        cone.Stability `yaml:"stability"`
}

// Settings converts the config block into cone settings.
func (c ConeConfig) Settings() cone.Settings {
	return cone.Settings{
		TimeHorizonHours: c.TimeHorizonHours,
		SpreadDeg:        c.SpreadDeg,
		Stability:        c.Stability,
	}
}

// LiveConfig holds live recorder settings.
type LiveConfig struct {
	// MinMove filters GPS jitter: fixes closer than this to the previous
	// accepted fix are dropped.
	MinMove Distance `yaml:"min_move"`
	// HeadingWindow is the sample window for ground-track smoothing.
	HeadingWindow int `yaml:"heading_window"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Address: "127.0.0.1:8765"},
		Log: LogConfig{
			Server:   LogFileConfig{Path: "logs/server.log", Level: "INFO"},
			Requests: LogFileConfig{Path: "logs/requests.log", Level: "INFO"},
		},
		DB: DBConfig{Path: "data/scentline.db"},
		Request: RequestConfig{
			Retries: 3,
			Timeout: Duration(30 * time.Second),
			Backoff: BackoffConfig{
				BaseDelay: Duration(500 * time.Millisecond),
				MaxDelay:  Duration(10 * time.Second),
			},
		},
		Weather: WeatherConfig{CacheTTL: Duration(10 * time.Minute)},
		Terrain: TerrainConfig{
			ElevationURL: "https://api.opentopodata.org/v1/srtm90m",
		},
		Cone: ConeConfig{
			TimeHorizonHours: 2,
			SpreadDeg:        40,
			Stability:        cone.StabilityMedium,
		},
		Live: LiveConfig{
			MinMove:       Distance(3),
			HeadingWindow: 5,
		},
	}
}

// Load reads the configuration file, applying defaults for missing values.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// GenerateDefault writes the default configuration to the given path.
func GenerateDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}

	data, err := yaml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("failed to marshal default config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
