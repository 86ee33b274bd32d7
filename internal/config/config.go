package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Sources SourcesConfig `yaml:"sources" envconfig:"SOURCES"`
	Output  OutputConfig  `yaml:"output" envconfig:"OUTPUT"`
	Server  ServerConfig  `yaml:"server" envconfig:"SERVER"`
	Logging LoggingConfig `yaml:"logging" envconfig:"LOGGING"`
}

// SourcesConfig contains the upstream data source configuration
type SourcesConfig struct {
	FiveDayURL   string        `yaml:"five_day_url" envconfig:"FIVE_DAY_URL" validate:"required,url"`
	TenDayURL    string        `yaml:"ten_day_url" envconfig:"TEN_DAY_URL" validate:"required,url"`
	FlowURL      string        `yaml:"flow_url" envconfig:"FLOW_URL" validate:"required,url"`
	Timeout      time.Duration `yaml:"timeout" envconfig:"TIMEOUT" validate:"gt=0"`
	RequestDelay time.Duration `yaml:"request_delay" envconfig:"REQUEST_DELAY" validate:"gte=0"`
	UseBrowser   bool          `yaml:"use_browser" envconfig:"USE_BROWSER"`
	UserAgent    string        `yaml:"user_agent" envconfig:"USER_AGENT"`
}

// OutputConfig contains report output configuration
type OutputConfig struct {
	Dir         string `yaml:"dir" envconfig:"DIR"`
	HTMLFile    string `yaml:"html_file" envconfig:"HTML_FILE" validate:"required"`
	WriteCSV    bool   `yaml:"write_csv" envconfig:"WRITE_CSV"`
	WriteExcel  bool   `yaml:"write_excel" envconfig:"WRITE_EXCEL"`
	OpenBrowser bool   `yaml:"open_browser" envconfig:"OPEN_BROWSER"`
}

// ServerConfig contains HTTP server configuration for the serving mode
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" validate:"gt=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" validate:"gt=0"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	RefreshInterval time.Duration `yaml:"refresh_interval" envconfig:"REFRESH_INTERVAL"`
	RateLimitRPS    float64       `yaml:"rate_limit_rps" envconfig:"RATE_LIMIT_RPS"`
	RateLimitBurst  int           `yaml:"rate_limit_burst" envconfig:"RATE_LIMIT_BURST"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Format   string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json text"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// Default returns the built-in configuration defaults.
func Default() Config {
	return Config{
		Sources: SourcesConfig{
			FiveDayURL:   "https://fubon-ebrokerdj.fbs.com.tw/z/zg/zg_AA_0_5.djhtm",
			TenDayURL:    "https://fubon-ebrokerdj.fbs.com.tw/z/zg/zg_AA_0_10.djhtm",
			FlowURL:      "https://www.twse.com.tw/rwd/zh/fund/T86",
			Timeout:      30 * time.Second,
			RequestDelay: 3 * time.Second,
			UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
				"AppleWebKit/537.36 (KHTML, like Gecko) " +
				"Chrome/120.0.0.0 Safari/537.36",
		},
		Output: OutputConfig{
			Dir:        "reports",
			HTMLFile:   "dashboard.html",
			WriteCSV:   true,
			WriteExcel: true,
		},
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			RequestTimeout:  10 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			RateLimitRPS:    20,
			RateLimitBurst:  10,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/twdash.log",
		},
	}
}

// Load loads configuration in layers: built-in defaults, then an optional
// YAML file, then environment variables (prefix TWDASH), each layer
// overriding the previous one.
func Load(configFile string) (*Config, error) {
	cfg := Default()

	if configFile != "" {
		if _, err := os.Stat(configFile); err == nil {
			if err := loadFromFile(configFile, &cfg); err != nil {
				return nil, fmt.Errorf("failed to load config from file: %w", err)
			}
		}
	}

	if err := envconfig.Process("TWDASH", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadFromFile overlays YAML file values onto cfg. Fields absent from the
// file keep their current values.
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, cfg)
}

// validate validates the configuration
func (c *Config) validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("validation: %w", err)
	}

	if c.Sources.FiveDayURL == c.Sources.TenDayURL {
		return fmt.Errorf("five-day and ten-day ranking URLs must differ")
	}

	return nil
}
