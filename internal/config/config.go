// File: internal/config/config.go
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Input     InputConfig     `mapstructure:"input"`
	Aggregate AggregateConfig `mapstructure:"aggregate"`
	Chart     ChartConfig     `mapstructure:"chart"`
	Export    ExportConfig    `mapstructure:"export"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Server    ServerConfig    `mapstructure:"server"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// AppConfig contains application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
}

// SeasonInput describes one season's snapshot log file.
type SeasonInput struct {
	Label string `mapstructure:"label"`
	Path  string `mapstructure:"path"`
}

// InputConfig contains the snapshot log sources. Previous is optional; when
// its path is empty the year-over-year panel draws the current season only.
type InputConfig struct {
	Current  SeasonInput `mapstructure:"current"`
	Previous SeasonInput `mapstructure:"previous"`
}

// AggregateConfig contains day-wise aggregation configuration
type AggregateConfig struct {
	// DayIndexOffset shifts the day index so that day 0 falls on the day
	// registration opened. The first logged day gets index -DayIndexOffset.
	DayIndexOffset int `mapstructure:"day_index_offset"`
	// CheckinWindowDays is the trailing window of the check-in rate panel.
	CheckinWindowDays int `mapstructure:"checkin_window_days"`
}

// ChartConfig contains chart rendering configuration
type ChartConfig struct {
	OutputPath   string  `mapstructure:"output_path"`
	WidthInches  float64 `mapstructure:"width_inches"`
	HeightInches float64 `mapstructure:"height_inches"`
	Annotation   string  `mapstructure:"annotation"`
}

// ExportConfig contains table export configuration
type ExportConfig struct {
	OutputDir string `mapstructure:"output_dir"`
	Format    string `mapstructure:"format"` // xlsx, csv
}

// StorageConfig contains database configuration
type StorageConfig struct {
	Type             string        `mapstructure:"type"` // sqlite, postgres
	ConnectionString string        `mapstructure:"connection_string"`
	MaxConnections   int           `mapstructure:"max_connections"`
	MaxIdleTime      time.Duration `mapstructure:"max_idle_time"`
	RetentionDays    int           `mapstructure:"retention_days"`
}

// SchedulerConfig contains the periodic refresh configuration used in serve
// mode (re-ingest the logs and re-render the chart on a cron schedule).
type SchedulerConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	CronSchedule string `mapstructure:"cron_schedule"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port          int           `mapstructure:"port"`
	Host          string        `mapstructure:"host"`
	ReadTimeout   time.Duration `mapstructure:"read_timeout"`
	WriteTimeout  time.Duration `mapstructure:"write_timeout"`
	EnableMetrics bool          `mapstructure:"enable_metrics"`
	EnableHealth  bool          `mapstructure:"enable_health"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json, text
	Output string `mapstructure:"output"` // stdout, file
	File   string `mapstructure:"file"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	// Load a local .env file first so viper's AutomaticEnv sees it.
	_ = godotenv.Load()

	viper.SetConfigType("yaml")

	if configPath != "" {
		viper.SetConfigFile(configPath)
	} else {
		viper.SetConfigName("config")
		viper.AddConfigPath(".")
		viper.AddConfigPath("./config")
	}

	// Set environment variable prefix
	viper.SetEnvPrefix("REGBOARD")
	viper.AutomaticEnv()

	// Set defaults
	setDefaults()

	// Read config file
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			fmt.Println("Config file not found, using defaults and environment variables")
		} else {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Override with environment variables if present
	if logPath := os.Getenv("REGBOARD_LOG_PATH"); logPath != "" {
		config.Input.Current.Path = logPath
	}
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		config.Storage.ConnectionString = dbURL
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks configuration invariants that would otherwise surface as
// confusing runtime failures.
func (c *Config) Validate() error {
	if c.Input.Current.Path == "" {
		return fmt.Errorf("input.current.path is required")
	}
	if c.Input.Current.Label == "" {
		return fmt.Errorf("input.current.label is required")
	}
	if c.Input.Previous.Path != "" && c.Input.Previous.Label == "" {
		return fmt.Errorf("input.previous.label is required when input.previous.path is set")
	}
	if c.Aggregate.CheckinWindowDays <= 0 {
		return fmt.Errorf("aggregate.checkin_window_days must be positive")
	}
	if c.Chart.OutputPath == "" {
		return fmt.Errorf("chart.output_path is required")
	}
	if c.Chart.WidthInches <= 0 || c.Chart.HeightInches <= 0 {
		return fmt.Errorf("chart dimensions must be positive")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in (0, 65535]")
	}
	switch c.Export.Format {
	case "xlsx", "csv":
	default:
		return fmt.Errorf("export.format must be xlsx or csv, got %q", c.Export.Format)
	}
	return nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// App defaults
	viper.SetDefault("app.name", "regboard")
	viper.SetDefault("app.version", "1.0.0")
	viper.SetDefault("app.environment", "development")
	viper.SetDefault("app.debug", false)

	// Input defaults
	viper.SetDefault("input.current.label", "current")
	viper.SetDefault("input.current.path", "./data/log.txt")
	viper.SetDefault("input.previous.label", "previous")
	viper.SetDefault("input.previous.path", "")

	// Aggregation defaults (day 0 is reg opening, three days into the log)
	viper.SetDefault("aggregate.day_index_offset", 3)
	viper.SetDefault("aggregate.checkin_window_days", 7)

	// Chart defaults
	viper.SetDefault("chart.output_path", "./out/Fig1.svg")
	viper.SetDefault("chart.width_inches", 15.0)
	viper.SetDefault("chart.height_inches", 15.0)
	viper.SetDefault("chart.annotation", "For questions, contact the registration team.")

	// Export defaults
	viper.SetDefault("export.output_dir", "./out")
	viper.SetDefault("export.format", "xlsx")

	// Storage defaults
	viper.SetDefault("storage.type", "sqlite")
	viper.SetDefault("storage.connection_string", "./data/regboard.db")
	viper.SetDefault("storage.max_connections", 25)
	viper.SetDefault("storage.max_idle_time", "15m")
	viper.SetDefault("storage.retention_days", 400)

	// Scheduler defaults (hourly refresh in serve mode)
	viper.SetDefault("scheduler.enabled", true)
	viper.SetDefault("scheduler.cron_schedule", "0 * * * *")

	// Server defaults
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.enable_metrics", true)
	viper.SetDefault("server.enable_health", true)

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "text")
	viper.SetDefault("logging.output", "stdout")
	viper.SetDefault("logging.file", "")
}
