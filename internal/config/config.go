package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the full application configuration surface.
type Config struct {
	Server   ServerConfig
	API      APIConfig
	MongoDB  MongoDBConfig
	Pipeline PipelineConfig
	Refresh  RefreshConfig
	Render   RenderConfig
	Sheets   SheetsConfig
	Log      LogConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// APIConfig describes the record API the pipeline pulls from. It is usually
// this same service.
type APIConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// MongoDBConfig holds settings for MongoDB.
type MongoDBConfig struct {
	URI              string
	DBName           string
	FuelCollection   string
	FlightCollection string
	RunCollection    string
}

// PipelineConfig holds scheduler and output settings.
type PipelineConfig struct {
	CronSchedule    string
	Timezone        string
	DataDir         string
	ReportsDir      string
	RunTimeout      time.Duration
	DuplicatePolicy string
	MetricsPrefix   string
}

// RefreshConfig describes the external report refresh command.
type RefreshConfig struct {
	Interpreter string
	Script      string
	Timeout     time.Duration
}

// RenderConfig holds headless browser settings.
type RenderConfig struct {
	ChromePath        string
	NavigationTimeout time.Duration
	SettleDelay       time.Duration
}

// SheetsConfig is optional; when SpreadsheetID is empty the merged view is
// not mirrored to Google Sheets.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
	MergedRange     string
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level string
}

// Enabled reports whether the sheet mirror is configured.
func (s SheetsConfig) Enabled() bool {
	return s.SpreadsheetID != ""
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// A missing .env is fine when configuration comes from the environment.
		_ = godotenv.Load()
	}

	port := getenvWithDefault("APP_PORT", "8080")

	readTimeout, err := getDuration("SERVER_READ_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, err
	}
	writeTimeout, err := getDuration("SERVER_WRITE_TIMEOUT", 20*time.Minute)
	if err != nil {
		return nil, err
	}
	apiTimeout, err := getDuration("RECORD_API_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}
	runTimeout, err := getDuration("PIPELINE_RUN_TIMEOUT", 15*time.Minute)
	if err != nil {
		return nil, err
	}
	refreshTimeout, err := getDuration("REFRESH_TIMEOUT", 5*time.Minute)
	if err != nil {
		return nil, err
	}
	navTimeout, err := getDuration("RENDER_NAVIGATION_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}
	settle, err := getDuration("RENDER_SETTLE_DELAY", 2*time.Second)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:         port,
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
		},
		API: APIConfig{
			BaseURL: getenvWithDefault("RECORD_API_BASE_URL", "http://localhost:"+port),
			Token:   os.Getenv("INTERNAL_API_TOKEN"),
			Timeout: apiTimeout,
		},
		MongoDB: MongoDBConfig{
			URI:              getenvWithDefault("MONGODB_URI", "mongodb://localhost:27017"),
			DBName:           getenvWithDefault("MONGODB_DB_NAME", "fuelsync"),
			FuelCollection:   getenvWithDefault("MONGODB_FUEL_COLLECTION", "fueldatas"),
			FlightCollection: getenvWithDefault("MONGODB_FLIGHT_COLLECTION", "flightdatas"),
			RunCollection:    getenvWithDefault("MONGODB_RUN_COLLECTION", "schedulerhistories"),
		},
		Pipeline: PipelineConfig{
			CronSchedule:    getenvWithDefault("PIPELINE_CRON_SCHEDULE", "*/30 * * * *"),
			Timezone:        getenvWithDefault("TIMEZONE", "Africa/Tunis"),
			DataDir:         getenvWithDefault("DATA_DIR", "powerbi-data"),
			ReportsDir:      getenvWithDefault("REPORTS_DIR", "reports"),
			RunTimeout:      runTimeout,
			DuplicatePolicy: strings.ToLower(getenvWithDefault("RECONCILE_DUPLICATE_POLICY", "reject")),
			MetricsPrefix:   getenvWithDefault("METRICS_NAMESPACE", "fuelsync"),
		},
		Refresh: RefreshConfig{
			Interpreter: getenvWithDefault("REFRESH_INTERPRETER", "python3"),
			Script:      getenvWithDefault("REFRESH_SCRIPT", "scripts/refresh_pbix.py"),
			Timeout:     refreshTimeout,
		},
		Render: RenderConfig{
			ChromePath:        os.Getenv("CHROME_PATH"),
			NavigationTimeout: navTimeout,
			SettleDelay:       settle,
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_EXPORT_ID"),
			MergedRange:     getenvWithDefault("GOOGLE_SHEET_MERGED_RANGE", "Merged!A1"),
		},
		Log: LogConfig{
			Level: getenvWithDefault("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	switch {
	case c.API.BaseURL == "":
		return errors.New("RECORD_API_BASE_URL must not be empty")
	case c.API.Token == "":
		return errors.New("INTERNAL_API_TOKEN must be provided")
	}

	if c.MongoDB.URI == "" {
		return errors.New("MONGODB_URI must be provided")
	}
	if c.MongoDB.DBName == "" {
		return errors.New("MONGODB_DB_NAME must be provided")
	}

	if c.Pipeline.CronSchedule == "" {
		return errors.New("PIPELINE_CRON_SCHEDULE must be provided")
	}
	if c.Pipeline.Timezone == "" {
		return errors.New("TIMEZONE must be provided")
	}
	if c.Pipeline.DataDir == "" || c.Pipeline.ReportsDir == "" {
		return errors.New("DATA_DIR and REPORTS_DIR must not be empty")
	}

	switch c.Pipeline.DuplicatePolicy {
	case "reject", "first":
	default:
		return fmt.Errorf("RECONCILE_DUPLICATE_POLICY must be reject or first, got %q", c.Pipeline.DuplicatePolicy)
	}

	if c.Refresh.Script == "" {
		return errors.New("REFRESH_SCRIPT must be provided")
	}

	if c.Render.NavigationTimeout <= 0 {
		return errors.New("RENDER_NAVIGATION_TIMEOUT must be positive")
	}

	if c.Sheets.Enabled() && c.Sheets.CredentialsPath == "" {
		return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH must be provided when GOOGLE_SHEET_EXPORT_ID is set")
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}
