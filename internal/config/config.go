package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// AppConfig holds the complete application configuration.
type AppConfig struct {
	DataPath            string
	LogDir              string
	CacheDir            string
	ForecastDir         string
	DatabasePath        string
	RedisURL            string
	ForecastTTL         time.Duration
	MaxForecastAgeDays  int
	DefaultScenarios    int
	DefaultHorizonYears int
	Workers             int
	Seed                int64
	EnableMermaidCharts bool
	SaveRetries         int
}

// Load loads the configuration from .env files, an optional config.yaml and
// environment variables, in increasing order of precedence.
func Load() (*AppConfig, error) {
	// 1. Try to load from the executable's directory (highest priority for MCP servers)
	exePath, err := os.Executable()
	exeDir := ""
	if err == nil {
		exeDir = filepath.Dir(exePath)
		envPath := filepath.Join(exeDir, ".env")
		if err := godotenv.Load(envPath); err == nil {
			log.Debug().Str("path", envPath).Msg("Loaded configuration from binary directory")
		}
	}

	// 2. Fallback to current working directory (useful for development/go run)
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found in working directory, relying on environment variables or binary-relative .env")
	}

	v := viper.New()
	setDefaults(v, exeDir)
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if exeDir != "" {
		v.AddConfigPath(exeDir)
	}
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	} else {
		log.Debug().Str("path", v.ConfigFileUsed()).Msg("Loaded config file")
	}

	return fromViper(v), nil
}

func setDefaults(v *viper.Viper, exeDir string) {
	dataPath := "."
	if exeDir != "" {
		dataPath = exeDir
	}
	v.SetDefault("data_path", dataPath)
	v.SetDefault("database_path", "")
	v.SetDefault("forecast_dir", "")
	v.SetDefault("redis_url", "")
	v.SetDefault("forecast_ttl", "6h")
	v.SetDefault("max_forecast_age_days", 30)
	v.SetDefault("default_scenarios", 1000)
	v.SetDefault("default_horizon_years", 10)
	v.SetDefault("workers", runtime.GOMAXPROCS(0))
	v.SetDefault("seed", 0)
	v.SetDefault("enable_mermaid_charts", false)
	v.SetDefault("save_retries", 3)
}

func fromViper(v *viper.Viper) *AppConfig {
	dataPath := v.GetString("data_path")
	logDir := filepath.Join(dataPath, "logs")
	cacheDir := filepath.Join(dataPath, "cache")

	// Ensure directories exist
	if err := os.MkdirAll(logDir, 0755); err != nil {
		log.Warn().Err(err).Str("path", logDir).Msg("Failed to create log directory")
	}
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		log.Warn().Err(err).Str("path", cacheDir).Msg("Failed to create cache directory")
	}

	dbPath := v.GetString("database_path")
	if dbPath == "" {
		dbPath = filepath.Join(cacheDir, "proforma.db")
	}
	forecastDir := v.GetString("forecast_dir")
	if forecastDir == "" {
		forecastDir = filepath.Join(dataPath, "forecasts")
	}

	return &AppConfig{
		DataPath:            dataPath,
		LogDir:              logDir,
		CacheDir:            cacheDir,
		ForecastDir:         forecastDir,
		DatabasePath:        dbPath,
		RedisURL:            v.GetString("redis_url"),
		ForecastTTL:         v.GetDuration("forecast_ttl"),
		MaxForecastAgeDays:  v.GetInt("max_forecast_age_days"),
		DefaultScenarios:    v.GetInt("default_scenarios"),
		DefaultHorizonYears: v.GetInt("default_horizon_years"),
		Workers:             v.GetInt("workers"),
		Seed:                v.GetInt64("seed"),
		EnableMermaidCharts: v.GetBool("enable_mermaid_charts"),
		SaveRetries:         v.GetInt("save_retries"),
	}
}
