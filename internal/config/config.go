package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	BackendMemory = "memory"
	BackendFile   = "file"

	TokenModeWeak   = "weak"
	TokenModeSecure = "secure"
)

type Config struct {
	AppEnv   string `yaml:"app_env"`
	LogLevel string `yaml:"log_level"`

	// Store
	Backend         string `yaml:"backend"`
	DataDir         string `yaml:"data_dir"`
	StoreQuotaBytes int    `yaml:"store_quota_bytes"`

	// Workflows and reports
	DemoAudit bool          `yaml:"demo_audit"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
	TokenMode string        `yaml:"token_mode"`

	Poll PollConfig `yaml:"poll"`

	// Relational mirror, optional
	DBURL      string `yaml:"db_url"`
	DBHost     string `yaml:"db_host"`
	DBUser     string `yaml:"db_user"`
	DBPassword string `yaml:"db_password"`
	DBName     string `yaml:"db_name"`
	DBPort     string `yaml:"db_port"`
}

// PollConfig holds the sync poller interval per dashboard role.
type PollConfig struct {
	Manager  time.Duration `yaml:"manager"`
	Auditor  time.Duration `yaml:"auditor"`
	Staff    time.Duration `yaml:"staff"`
	Customer time.Duration `yaml:"customer"`
}

func Default() *Config {
	return &Config{
		AppEnv:    "development",
		Backend:   BackendFile,
		DataDir:   "./data",
		TokenTTL:  14 * 24 * time.Hour,
		TokenMode: TokenModeWeak,
		Poll: PollConfig{
			Manager:  3 * time.Second,
			Auditor:  5 * time.Second,
			Staff:    5 * time.Second,
			Customer: 5 * time.Second,
		},
	}
}

// LoadConfig reads .env (if any), overlays the YAML file named by POS_CONFIG,
// then applies environment variables.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	if path := os.Getenv("POS_CONFIG"); path != "" {
		if err := cfg.overlayFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.overlayEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) overlayFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

func (c *Config) overlayEnv() error {
	setString(&c.AppEnv, "APP_ENV")
	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.Backend, "POS_BACKEND")
	setString(&c.DataDir, "POS_DATA_DIR")
	setString(&c.TokenMode, "POS_TOKEN_MODE")
	setString(&c.DBURL, "DB_URL")
	setString(&c.DBHost, "DB_HOST")
	setString(&c.DBUser, "DB_USER")
	setString(&c.DBPassword, "DB_PASSWORD")
	setString(&c.DBName, "DB_NAME")
	setString(&c.DBPort, "DB_PORT")

	if v := os.Getenv("POS_STORE_QUOTA_BYTES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("POS_STORE_QUOTA_BYTES: %w", err)
		}
		c.StoreQuotaBytes = n
	}
	if v := os.Getenv("POS_DEMO_AUDIT"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("POS_DEMO_AUDIT: %w", err)
		}
		c.DemoAudit = b
	}

	durations := []struct {
		dst *time.Duration
		key string
	}{
		{&c.TokenTTL, "POS_TOKEN_TTL"},
		{&c.Poll.Manager, "POS_MANAGER_POLL"},
		{&c.Poll.Auditor, "POS_AUDITOR_POLL"},
		{&c.Poll.Staff, "POS_STAFF_POLL"},
		{&c.Poll.Customer, "POS_CUSTOMER_POLL"},
	}
	for _, d := range durations {
		v := os.Getenv(d.key)
		if v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", d.key, err)
		}
		*d.dst = parsed
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Backend != BackendMemory && c.Backend != BackendFile {
		return fmt.Errorf("backend must be %q or %q, got %q", BackendMemory, BackendFile, c.Backend)
	}
	if c.Backend == BackendFile && c.DataDir == "" {
		return fmt.Errorf("data_dir is required for the file backend")
	}
	if c.TokenMode != TokenModeWeak && c.TokenMode != TokenModeSecure {
		return fmt.Errorf("token_mode must be %q or %q", TokenModeWeak, TokenModeSecure)
	}
	if c.TokenTTL < 0 {
		return fmt.Errorf("token_ttl must not be negative")
	}
	if c.StoreQuotaBytes < 0 {
		return fmt.Errorf("store_quota_bytes must not be negative")
	}
	for name, d := range map[string]time.Duration{
		"manager":  c.Poll.Manager,
		"auditor":  c.Poll.Auditor,
		"staff":    c.Poll.Staff,
		"customer": c.Poll.Customer,
	} {
		if d <= 0 {
			return fmt.Errorf("poll.%s must be positive", name)
		}
	}
	return nil
}

// DSN returns the relational mirror connection string, or "" when no
// database is configured.
func (c *Config) DSN() string {
	if c.DBURL != "" {
		return c.DBURL
	}
	if c.DBHost == "" {
		return ""
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort,
	)
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
