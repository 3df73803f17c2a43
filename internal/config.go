package internal

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/docsync/internal/index"
	"github.com/starford/docsync/internal/llm"
	"github.com/starford/docsync/internal/storage"
)

// Log formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Store drivers.
const (
	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"
)

// Config represents the application configuration.
type Config struct {
	App        ApplicationConfig `yaml:"app"`
	Content    ContentConfig     `yaml:"content"`
	Store      StoreConfig       `yaml:"store"`
	Summarizer SummarizerConfig  `yaml:"summarizer"`
	Workers    int               `yaml:"workers"`
	Watch      WatchConfig       `yaml:"watch"`
	Metrics    MetricsConfig     `yaml:"metrics"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return fmt.Errorf("app: %w", err)
	}
	if err := c.Content.Validate(); err != nil {
		return fmt.Errorf("content: %w", err)
	}
	if err := c.Store.Validate(); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	if err := c.Summarizer.Validate(); err != nil {
		return fmt.Errorf("summarizer: %w", err)
	}
	if err := validation.Validate(c.Workers, validation.Min(0)); err != nil {
		return fmt.Errorf("workers: %w", err)
	}
	if err := c.Watch.Validate(); err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	if err := c.Metrics.Validate(); err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	return nil
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel  slog.Level `yaml:"log_level"`
	LogFormat string     `yaml:"log_format"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	if c.LogFormat == "" {
		c.LogFormat = LogFormatText
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.LogFormat, validation.In(LogFormatText, LogFormatJSON)),
	)
}

// ContentConfig locates the Markdown content tree.
type ContentConfig struct {
	Root      string `yaml:"root"`
	Extension string `yaml:"extension"`
}

// Validate validates the content configuration.
func (c *ContentConfig) Validate() error {
	if c.Extension == "" {
		c.Extension = storage.DefaultExtension
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Root, validation.Required),
		validation.Field(&c.Extension, validation.By(func(any) error {
			if !strings.HasPrefix(c.Extension, ".") {
				return fmt.Errorf("must start with a dot")
			}
			return nil
		})),
	)
}

// StoreConfig selects and configures the document store.
type StoreConfig struct {
	Driver string       `yaml:"driver"`
	SQLite SQLiteConfig `yaml:"sqlite"`
	Mongo  MongoConfig  `yaml:"mongo"`
}

// Validate validates the store configuration.
func (c *StoreConfig) Validate() error {
	if c.Driver == "" {
		c.Driver = DriverSQLite
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Driver, validation.In(DriverSQLite, DriverMongo)),
	); err != nil {
		return err
	}
	if c.Driver == DriverMongo {
		return c.Mongo.Validate()
	}
	return c.SQLite.Validate()
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// MongoConfig holds MongoDB connection configuration.
type MongoConfig struct {
	URI        string `yaml:"uri"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
}

// Validate validates the MongoDB configuration.
func (c *MongoConfig) Validate() error {
	if c.Collection == "" {
		c.Collection = index.DefaultMongoCollection
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.URI, validation.Required),
		validation.Field(&c.Database, validation.Required),
	)
}

// SummarizerConfig configures the OpenAI-compatible summarizer. An empty
// BaseURL disables summarization.
type SummarizerConfig struct {
	BaseURL           string        `yaml:"base_url"`
	APIKey            string        `yaml:"api_key"`
	Model             string        `yaml:"model"`
	Timeout           time.Duration `yaml:"timeout"`
	MaxTokens         int           `yaml:"max_tokens"`
	Temperature       float64       `yaml:"temperature"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	CacheTTL          time.Duration `yaml:"cache_ttl"`
}

// Enabled reports whether a summarizer endpoint is configured.
func (c *SummarizerConfig) Enabled() bool {
	return c.BaseURL != ""
}

// Validate validates the summarizer configuration.
func (c *SummarizerConfig) Validate() error {
	if !c.Enabled() {
		return nil
	}
	if c.Model == "" {
		c.Model = llm.DefaultModel
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.BaseURL, validation.By(httpURL)),
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
		validation.Field(&c.MaxTokens, validation.Min(0)),
		validation.Field(&c.Temperature, validation.Min(0.0), validation.Max(2.0)),
		validation.Field(&c.RequestsPerSecond, validation.Min(0.0)),
		validation.Field(&c.CacheTTL, validation.Min(time.Duration(0))),
	)
}

// WatchConfig configures the filesystem watcher.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
}

// Validate validates the watch configuration.
func (c *WatchConfig) Validate() error {
	if c.Debounce == 0 {
		c.Debounce = index.DefaultDebounce
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Debounce, validation.Min(time.Millisecond)),
	)
}

// MetricsConfig configures pushing run metrics to a Prometheus Pushgateway.
// An empty PushgatewayURL disables the push.
type MetricsConfig struct {
	PushgatewayURL string `yaml:"pushgateway_url"`
	Job            string `yaml:"job"`
}

// Validate validates the metrics configuration.
func (c *MetricsConfig) Validate() error {
	if c.PushgatewayURL == "" {
		return nil
	}
	if c.Job == "" {
		c.Job = "docsync"
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.PushgatewayURL, validation.By(httpURL)),
	)
}

func httpURL(v any) error {
	s, _ := v.(string)
	u, err := url.Parse(s)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("must be an http(s) URL")
	}
	return nil
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel:  slog.LevelInfo,
			LogFormat: LogFormatText,
		},
		Content: ContentConfig{
			Root:      "./content",
			Extension: storage.DefaultExtension,
		},
		Store: StoreConfig{
			Driver: DriverSQLite,
			SQLite: SQLiteConfig{Path: "./docsync.db"},
			Mongo: MongoConfig{
				Database:   "docsync",
				Collection: index.DefaultMongoCollection,
			},
		},
		Summarizer: SummarizerConfig{
			Model:       llm.DefaultModel,
			Timeout:     60 * time.Second,
			MaxTokens:   llm.DefaultMaxTokens,
			Temperature: llm.DefaultTemperature,
			CacheTTL:    time.Hour,
		},
		Workers: 4,
		Watch:   WatchConfig{Debounce: index.DefaultDebounce},
		Metrics: MetricsConfig{Job: "docsync"},
	}
}
