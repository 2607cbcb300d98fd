package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

const (
	FetchModeHTTP    = "http"
	FetchModeBrowser = "browser"

	StoreBackendJSON     = "json"
	StoreBackendPostgres = "postgres"

	FilterModeSubstring = "substring"
	FilterModeRegex     = "regex"
)

// Config holds all application configuration. Values are layered as
// defaults < YAML file (TRACKER_CONFIG) < environment variables.
type Config struct {
	BaseURL         string `yaml:"base_url"`
	SearchURL       string `yaml:"search_url"`
	UserAgent       string `yaml:"user_agent"`
	FetchMode       string `yaml:"fetch_mode"`
	ResultsSelector string `yaml:"results_selector"`
	ChromeBin       string `yaml:"chrome_bin"`

	CheckInterval time.Duration `yaml:"check_interval"`
	ErrorBackoff  time.Duration `yaml:"error_backoff"`
	FetchTimeout  time.Duration `yaml:"fetch_timeout"`
	NotifyTimeout time.Duration `yaml:"notify_timeout"`

	FilterMode    string `yaml:"filter_mode"`
	FilterPattern string `yaml:"filter_pattern"`

	StoreBackend string `yaml:"store_backend"`
	StorePath    string `yaml:"store_path"`

	PostgresHost     string `yaml:"postgres_host"`
	PostgresPort     string `yaml:"postgres_port"`
	PostgresUser     string `yaml:"postgres_user"`
	PostgresPassword string `yaml:"postgres_password"`
	PostgresDB       string `yaml:"postgres_db"`
	PostgresSSLMode  string `yaml:"postgres_sslmode"`

	TelegramBotToken string `yaml:"telegram_bot_token"`
	TelegramChatID   string `yaml:"telegram_chat_id"`
	TelegramAPIURL   string `yaml:"telegram_api_url"`

	DesktopNotifications bool `yaml:"desktop_notifications"`

	SMTPHost     string   `yaml:"smtp_host"`
	SMTPPort     int      `yaml:"smtp_port"`
	SMTPUser     string   `yaml:"smtp_user"`
	SMTPPassword string   `yaml:"smtp_password"`
	SMTPFrom     string   `yaml:"smtp_from"`
	SMTPTo       []string `yaml:"smtp_to"`

	SkipStartupNotification bool   `yaml:"skip_startup_notification"`
	LogLevel                string `yaml:"log_level"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		BaseURL:         "https://www.berlinovo.de",
		SearchURL:       "https://www.berlinovo.de/de/wohnungen/suche",
		UserAgent:       "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
		FetchMode:       FetchModeHTTP,
		ResultsSelector: "main",

		CheckInterval: 300 * time.Second,
		ErrorBackoff:  60 * time.Second,
		FetchTimeout:  30 * time.Second,
		NotifyTimeout: 15 * time.Second,

		FilterMode: FilterModeSubstring,

		StoreBackend: StoreBackendJSON,
		StorePath:    "apartment_listings.json",

		PostgresHost:    "localhost",
		PostgresPort:    "5432",
		PostgresUser:    "tracker",
		PostgresDB:      "apartments",
		PostgresSSLMode: "disable",

		TelegramAPIURL: "https://api.telegram.org",
		SMTPPort:       587,
		LogLevel:       "info",
	}
}

// Load reads the .env file, the optional YAML file named by TRACKER_CONFIG and
// the process environment, and returns a validated Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	cfg := Config{}
	if path := os.Getenv("TRACKER_CONFIG"); path != "" {
		fileCfg, err := ReadFile(path)
		if err != nil {
			return nil, err
		}
		cfg = fileCfg
	}

	env, err := FromEnv()
	if err != nil {
		return nil, err
	}
	if err := mergo.Merge(&cfg, env, mergo.WithOverride); err != nil {
		return nil, fmt.Errorf("config: merge env: %w", err)
	}
	if err := mergo.Merge(&cfg, Defaults()); err != nil {
		return nil, fmt.Errorf("config: merge defaults: %w", err)
	}
	// mergo never overrides with a zero value, so an explicit false from the
	// environment is applied after the merge.
	overrideEnvBools(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ReadFile decodes a YAML configuration file.
func ReadFile(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: read %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// FromEnv reads only the variables that are set; unset ones stay zero so the
// lower configuration layers show through.
func FromEnv() (Config, error) {
	var errs []error
	cfg := Config{
		BaseURL:         os.Getenv("BASE_URL"),
		SearchURL:       os.Getenv("SEARCH_URL"),
		UserAgent:       os.Getenv("USER_AGENT"),
		FetchMode:       os.Getenv("FETCH_MODE"),
		ResultsSelector: os.Getenv("RESULTS_SELECTOR"),
		ChromeBin:       os.Getenv("CHROME_BIN"),

		CheckInterval: getEnvSeconds("CHECK_INTERVAL_SECONDS", &errs),
		ErrorBackoff:  getEnvSeconds("ERROR_BACKOFF_SECONDS", &errs),
		FetchTimeout:  getEnvSeconds("FETCH_TIMEOUT_SECONDS", &errs),
		NotifyTimeout: getEnvSeconds("NOTIFY_TIMEOUT_SECONDS", &errs),

		FilterMode:    os.Getenv("FILTER_MODE"),
		FilterPattern: os.Getenv("FILTER_PATTERN"),

		StoreBackend: os.Getenv("STORE_BACKEND"),
		StorePath:    os.Getenv("STORE_PATH"),

		PostgresHost:     os.Getenv("POSTGRES_HOST"),
		PostgresPort:     os.Getenv("POSTGRES_PORT"),
		PostgresUser:     os.Getenv("POSTGRES_USER"),
		PostgresPassword: os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:       os.Getenv("POSTGRES_DB"),
		PostgresSSLMode:  os.Getenv("POSTGRES_SSLMODE"),

		TelegramBotToken: os.Getenv("TELEGRAM_BERLINOVO_BOT_TOKEN"),
		TelegramChatID:   os.Getenv("TELEGRAM_BERLINOVO_CHAT_ID"),
		TelegramAPIURL:   os.Getenv("TELEGRAM_API_URL"),

		DesktopNotifications: getEnvBool("DESKTOP_NOTIFICATIONS", &errs),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     getEnvInt("SMTP_PORT", &errs),
		SMTPUser:     os.Getenv("SMTP_USER"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:     os.Getenv("SMTP_FROM"),
		SMTPTo:       getEnvList("SMTP_TO"),

		SkipStartupNotification: getEnvBool("SKIP_STARTUP_NOTIFICATION", &errs),
		LogLevel:                os.Getenv("LOG_LEVEL"),
	}
	return cfg, errors.Join(errs...)
}

// Validate checks the settings that would otherwise fail deep inside a cycle.
func (c *Config) Validate() error {
	var errs []error

	if c.SearchURL == "" {
		errs = append(errs, errors.New("config: search url is required"))
	}
	switch c.FetchMode {
	case FetchModeHTTP, FetchModeBrowser:
	default:
		errs = append(errs, fmt.Errorf("config: unknown fetch mode %q", c.FetchMode))
	}
	switch c.StoreBackend {
	case StoreBackendJSON:
		if c.StorePath == "" {
			errs = append(errs, errors.New("config: store path is required for the json backend"))
		}
	case StoreBackendPostgres:
		if c.PostgresHost == "" || c.PostgresDB == "" {
			errs = append(errs, errors.New("config: postgres host and db are required for the postgres backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("config: unknown store backend %q", c.StoreBackend))
	}
	switch c.FilterMode {
	case FilterModeSubstring:
	case FilterModeRegex:
		if _, err := regexp.Compile(c.FilterPattern); err != nil {
			errs = append(errs, fmt.Errorf("config: filter pattern: %w", err))
		}
	default:
		errs = append(errs, fmt.Errorf("config: unknown filter mode %q", c.FilterMode))
	}
	for name, d := range map[string]time.Duration{
		"check interval": c.CheckInterval,
		"error backoff":  c.ErrorBackoff,
		"fetch timeout":  c.FetchTimeout,
		"notify timeout": c.NotifyTimeout,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("config: %s must be positive, got %v", name, d))
		}
	}

	return errors.Join(errs...)
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

// TelegramEnabled reports whether both bot credentials are present.
func (c *Config) TelegramEnabled() bool {
	return c.TelegramBotToken != "" && c.TelegramChatID != ""
}

// EmailEnabled reports whether enough SMTP settings are present to send mail.
func (c *Config) EmailEnabled() bool {
	return c.SMTPHost != "" && c.SMTPFrom != "" && len(c.SMTPTo) > 0
}

func getEnvSeconds(key string, errs *[]error) time.Duration {
	n := getEnvInt(key, errs)
	return time.Duration(n) * time.Second
}

func getEnvInt(key string, errs *[]error) int {
	val := os.Getenv(key)
	if val == "" {
		return 0
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("config: %s=%q is not an integer", key, val))
		return 0
	}
	return n
}

func getEnvBool(key string, errs *[]error) bool {
	val := os.Getenv(key)
	if val == "" {
		return false
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("config: %s=%q is not a boolean", key, val))
		return false
	}
	return b
}

func overrideEnvBools(cfg *Config) {
	for key, dst := range map[string]*bool{
		"DESKTOP_NOTIFICATIONS":     &cfg.DesktopNotifications,
		"SKIP_STARTUP_NOTIFICATION": &cfg.SkipStartupNotification,
	} {
		val, ok := os.LookupEnv(key)
		if !ok || val == "" {
			continue
		}
		// malformed values were already reported by FromEnv
		if b, err := strconv.ParseBool(val); err == nil {
			*dst = b
		}
	}
}

func getEnvList(key string) []string {
	val := os.Getenv(key)
	if val == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
