package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"petsnapshot/internal/domain"
	"petsnapshot/internal/retry"
)

const (
	defaultTimezone   = "UTC"
	configPathEnv     = "PETSNAPSHOT_CONFIG"
	apiKeyEnv         = "PETFINDER_API_KEY"
	apiSecretEnv      = "PETFINDER_API_SECRET"
	databaseDSNEnv    = "DATABASE_DSN"
	databaseDriverEnv = "DATABASE_DRIVER"
	outputDirEnv      = "OUTPUT_DIR"
	logLevelEnv       = "LOG_LEVEL"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHAT_ID"
)

// Config holds high-level settings required across the application.
type Config struct {
	Petfinder     PetfinderConfig           `yaml:"petfinder"`
	Resources     map[string]ResourceConfig `yaml:"resources"`
	Output        OutputConfig              `yaml:"output"`
	Database      DatabaseConfig            `yaml:"database"`
	Scheduler     SchedulerConfig           `yaml:"scheduler"`
	Notifications NotificationConfig        `yaml:"notifications"`
	Logging       LoggingConfig             `yaml:"logging"`
}

// PetfinderConfig holds API endpoints, credentials and retry budgets.
type PetfinderConfig struct {
	BaseURL           string        `yaml:"baseUrl"`
	TokenURL          string        `yaml:"tokenUrl"`
	APIKey            string        `yaml:"apiKey"`
	APISecret         string        `yaml:"apiSecret"`
	UserAgent         string        `yaml:"userAgent"`
	Timeout           time.Duration `yaml:"timeout"`
	RequestsPerSecond float64       `yaml:"requestsPerSecond"`
	// TokenSafetyMargin is cut from every token lifetime.
	TokenSafetyMargin time.Duration `yaml:"tokenSafetyMargin"`
	TokenCachePath    string        `yaml:"tokenCachePath"`
	AuthRetry         retry.Policy  `yaml:"authRetry"`
	RateLimitRetry    retry.Policy  `yaml:"rateLimitRetry"`
	ServerErrorRetry  retry.Policy  `yaml:"serverErrorRetry"`
}

// ResourceConfig tunes pagination of one collection.
type ResourceConfig struct {
	PageSize int               `yaml:"pageSize"`
	MaxPages int               `yaml:"maxPages"`
	Params   map[string]string `yaml:"params"`
}

// OutputConfig says where snapshot files go.
type OutputConfig struct {
	Dir string `yaml:"dir"`
}

// DatabaseConfig selects the relational store. An empty DSN disables it.
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// SchedulerConfig defines when the collector should run.
type SchedulerConfig struct {
	CronExpression string         `yaml:"cronExpression"`
	Timezone       string         `yaml:"timezone"`
	RunOnStart     bool           `yaml:"runOnStart"`
	location       *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// NotificationConfig encapsulates outbound channels.
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken     string `yaml:"botToken"`
	ChatID       string `yaml:"chatId"`
	APIURL       string `yaml:"apiUrl"`
	OnlyProblems bool   `yaml:"onlyProblems"`
}

// Enabled reports whether both bot token and chat are set.
func (t TelegramConfig) Enabled() bool {
	return t.BotToken != "" && t.ChatID != ""
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Resource returns the settings for a collection, falling back to defaults.
func (c Config) Resource(kind domain.ResourceKind) ResourceConfig {
	if res, ok := c.Resources[string(kind)]; ok {
		return res
	}
	return defaultConfig().Resources[string(kind)]
}

// Load reads .env, the YAML file named by PETSNAPSHOT_CONFIG (if any) and
// applies environment overrides. File problems are logged and defaults kept.
func Load() Config {
	loadDotEnv()

	cfg := defaultConfig()
	if path := os.Getenv(configPathEnv); path != "" {
		if err := cfg.readFile(path); err != nil {
			log.Printf("config: %v (falling back to defaults)", err)
			cfg = defaultConfig()
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()
	return cfg
}

// LoadFile is Load with an explicit file whose errors are returned.
func LoadFile(path string) (Config, error) {
	loadDotEnv()

	cfg := defaultConfig()
	if err := cfg.readFile(path); err != nil {
		return Config{}, err
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()
	return cfg, nil
}

// Validate reports settings without which a run cannot start.
func (c Config) Validate() error {
	var errs []error
	if c.Petfinder.APIKey == "" {
		errs = append(errs, fmt.Errorf("petfinder api key is missing (set %s)", apiKeyEnv))
	}
	if c.Petfinder.APISecret == "" {
		errs = append(errs, fmt.Errorf("petfinder api secret is missing (set %s)", apiSecretEnv))
	}
	if c.Petfinder.BaseURL == "" || c.Petfinder.TokenURL == "" {
		errs = append(errs, errors.New("petfinder base and token urls are required"))
	}
	if c.Output.Dir == "" && c.Database.DSN == "" {
		errs = append(errs, errors.New("no snapshot destination: set output.dir or database.dsn"))
	}
	for name, res := range c.Resources {
		if res.PageSize <= 0 {
			errs = append(errs, fmt.Errorf("resources.%s.pageSize must be positive", name))
		}
	}
	return errors.Join(errs...)
}

// readFile decodes YAML on top of the current values, so keys absent from
// the file keep their defaults.
func (c *Config) readFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	// A resource block replaces the default block as a whole.
	defaults := defaultConfig().Resources
	for name, res := range c.Resources {
		if res.PageSize == 0 {
			res.PageSize = defaults[name].PageSize
			c.Resources[name] = res
		}
	}
	return nil
}

func loadDotEnv() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("config: cannot load .env: %v", err)
	}
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(apiKeyEnv); v != "" {
		c.Petfinder.APIKey = v
	}

	if v := os.Getenv(apiSecretEnv); v != "" {
		c.Petfinder.APISecret = v
	}

	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}

	if v := os.Getenv(databaseDriverEnv); v != "" {
		c.Database.Driver = v
	}

	if v := os.Getenv(outputDirEnv); v != "" {
		c.Output.Dir = v
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}

	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}
}

func (c *Config) bindTimezone() {
	tz := strings.TrimSpace(c.Scheduler.Timezone)
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Petfinder: PetfinderConfig{
			BaseURL:           "https://api.petfinder.com/v2",
			TokenURL:          "https://api.petfinder.com/v2/oauth2/token",
			UserAgent:         "petsnapshot/1.0",
			Timeout:           30 * time.Second,
			RequestsPerSecond: 5,
			TokenSafetyMargin: 30 * time.Second,
			TokenCachePath:    "token_cache.json",
			AuthRetry:         retry.Policy{MaxRetries: 2, BaseDelay: time.Second, MaxDelay: time.Second},
			RateLimitRetry: retry.Policy{
				MaxRetries: 5, BaseDelay: 2 * time.Second, MaxDelay: time.Minute, Multiplier: 2, MaxElapsed: 5 * time.Minute,
			},
			ServerErrorRetry: retry.Policy{
				MaxRetries: 3, BaseDelay: time.Second, MaxDelay: 30 * time.Second, Multiplier: 2,
			},
		},
		Resources: map[string]ResourceConfig{
			string(domain.KindAnimals): {
				PageSize: 100,
				MaxPages: 100,
				Params:   map[string]string{"location": "orlando, fl", "sort": "recent"},
			},
			string(domain.KindOrganizations): {
				PageSize: 100,
				MaxPages: 10,
				Params:   map[string]string{"location": "orlando, fl"},
			},
		},
		Output:    OutputConfig{Dir: "data_snapshots"},
		Database:  DatabaseConfig{Driver: "sqlite3", DSN: "data_snapshots/petfinder.db"},
		Scheduler: SchedulerConfig{CronExpression: "0 6 * * *", Timezone: defaultTimezone, location: tz},
		Logging:   LoggingConfig{Level: "info", Format: "tint"},
	}
}
