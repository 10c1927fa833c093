package config

import (
	"fmt"
	"net/url"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	Server         ServerConfig         `mapstructure:"server"`
	Backend        BackendConfig        `mapstructure:"backend"`
	Recommendation RecommendationConfig `mapstructure:"recommendation"`
	History        HistoryConfig        `mapstructure:"history"`
	Session        SessionConfig        `mapstructure:"session"`
	Queue          QueueConfig          `mapstructure:"queue"`
	Views          ViewsConfig          `mapstructure:"views"`
	Auth           AuthConfig           `mapstructure:"auth"`
	Logging        LoggingConfig        `mapstructure:"logging"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`          // Bind address (e.g., 0.0.0.0 for all interfaces)
	HTTPPort     int           `mapstructure:"http_port"`     // HTTP server port
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`  // Per-request read timeout
	WriteTimeout time.Duration `mapstructure:"write_timeout"` // Per-request write timeout
	BodyLimit    int           `mapstructure:"body_limit"`    // Max request body in bytes
}

// BackendConfig points at the NLP-to-query service
type BackendConfig struct {
	BaseURL       string        `mapstructure:"base_url"`       // e.g. http://localhost:8000
	QueryPath     string        `mapstructure:"query_path"`     // default /nlp-query
	RecommendPath string        `mapstructure:"recommend_path"` // default /visualization-recommendation
	Timeout       time.Duration `mapstructure:"timeout"`
}

// RecommendationConfig selects the visualization recommendation channel
type RecommendationConfig struct {
	Mode           string        `mapstructure:"mode"`            // backend (default), queue, disabled
	Timeout        time.Duration `mapstructure:"timeout"`         // per request
	CacheTTL       time.Duration `mapstructure:"cache_ttl"`       // zero disables caching
	RequestSubject string        `mapstructure:"request_subject"` // queue mode only
	ReplySubject   string        `mapstructure:"reply_subject"`   // queue mode only
	Serve          bool          `mapstructure:"serve"`           // also answer queued requests through the backend
}

// HistoryConfig selects where query history lives
type HistoryConfig struct {
	Store     string        `mapstructure:"store"` // memory (default), redis
	RedisURL  string        `mapstructure:"redis_url"`
	Password  string        `mapstructure:"password"`
	RedisDB   int           `mapstructure:"redis_db"`
	KeyPrefix string        `mapstructure:"key_prefix"` // default querylens:history
	TTL       time.Duration `mapstructure:"ttl"`        // idle expiry; zero keeps redis lists forever and memory entries 24h
}

// SessionConfig controls dashboard session lifetime
type SessionConfig struct {
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// QueueConfig represents message queue configuration
type QueueConfig struct {
	Enabled       bool   `mapstructure:"enabled"`        // Publish query events
	Type          string `mapstructure:"type"`           // Queue type: nats (default), redis, kafka, memory
	URL           string `mapstructure:"url"`            // Queue server URL (e.g., nats://localhost:4222, redis://localhost:6379)
	Username      string `mapstructure:"username"`       // Optional authentication
	Password      string `mapstructure:"password"`       // Optional authentication
	EventsSubject string `mapstructure:"events_subject"` // Subject for query events

	// Redis-specific options
	RedisDB       int    `mapstructure:"redis_db"`       // Redis database number (default: 0)
	RedisStream   string `mapstructure:"redis_stream"`   // Redis stream prefix (default: "querylens")
	RedisGroup    string `mapstructure:"redis_group"`    // Redis consumer group (default: "querylens-group")
	RedisConsumer string `mapstructure:"redis_consumer"` // Redis consumer name (default: hostname)

	// Kafka-specific options
	KafkaBrokers []string `mapstructure:"kafka_brokers"`  // Kafka broker addresses
	KafkaGroupID string   `mapstructure:"kafka_group_id"` // Kafka consumer group ID
}

// ViewsConfig holds presentation defaults
type ViewsConfig struct {
	TablePageSize  int `mapstructure:"table_page_size"`
	CardPageSize   int `mapstructure:"card_page_size"`
	MaxChartPoints int `mapstructure:"max_chart_points"` // Timeline thinning threshold, zero disables
}

// AuthConfig represents authentication configuration
type AuthConfig struct {
	Enabled bool     `mapstructure:"enabled"`  // Enable/disable API key authentication
	APIKeys []string `mapstructure:"api_keys"` // List of valid API keys
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, file path
	TimeFormat string `mapstructure:"time_format"` // RFC3339, Unix, Kitchen
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := c.Backend.Validate(); err != nil {
		return fmt.Errorf("backend config: %w", err)
	}

	if err := c.Recommendation.Validate(); err != nil {
		return fmt.Errorf("recommendation config: %w", err)
	}

	if c.Recommendation.Mode == RecommendQueue && !c.Queue.Enabled {
		return fmt.Errorf("recommendation config: mode 'queue' requires queue.enabled")
	}

	if err := c.History.Validate(); err != nil {
		return fmt.Errorf("history config: %w", err)
	}

	if err := c.Session.Validate(); err != nil {
		return fmt.Errorf("session config: %w", err)
	}

	if err := c.Views.Validate(); err != nil {
		return fmt.Errorf("views config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// Validate validates server configuration
func (c *ServerConfig) Validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid http_port: %d", c.HTTPPort)
	}

	if c.BodyLimit < 0 {
		return fmt.Errorf("body_limit cannot be negative")
	}

	return nil
}

// Validate validates backend configuration
func (c *BackendConfig) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("backend.base_url is required")
	}

	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("backend.base_url must be an absolute http(s) URL: %q", c.BaseURL)
	}

	if c.Timeout <= 0 {
		return fmt.Errorf("backend.timeout must be positive")
	}

	return nil
}

// Recommendation modes
const (
	RecommendBackend  = "backend"
	RecommendQueue    = "queue"
	RecommendDisabled = "disabled"
)

// Validate validates recommendation configuration
func (c *RecommendationConfig) Validate() error {
	switch c.Mode {
	case RecommendBackend, RecommendDisabled:
	case RecommendQueue:
		if c.RequestSubject == "" || c.ReplySubject == "" {
			return fmt.Errorf("recommendation.request_subject and reply_subject are required in queue mode")
		}
		if c.RequestSubject == c.ReplySubject {
			return fmt.Errorf("recommendation.request_subject and reply_subject must differ")
		}
	default:
		return fmt.Errorf("recommendation.mode must be one of: backend, queue, disabled")
	}

	if c.Mode != RecommendDisabled && c.Timeout <= 0 {
		return fmt.Errorf("recommendation.timeout must be positive")
	}

	if c.CacheTTL < 0 {
		return fmt.Errorf("recommendation.cache_ttl cannot be negative")
	}

	return nil
}

// Validate validates history configuration
func (c *HistoryConfig) Validate() error {
	switch c.Store {
	case "memory":
	case "redis":
		if c.RedisURL == "" {
			return fmt.Errorf("history.redis_url is required for the redis store")
		}
	default:
		return fmt.Errorf("history.store must be 'memory' or 'redis'")
	}

	if c.TTL < 0 {
		return fmt.Errorf("history.ttl cannot be negative")
	}

	return nil
}

// Validate validates session configuration
func (c *SessionConfig) Validate() error {
	if c.IdleTimeout <= 0 {
		return fmt.Errorf("session.idle_timeout must be positive")
	}

	return nil
}

// Validate validates view defaults
func (c *ViewsConfig) Validate() error {
	if c.TablePageSize < 1 || c.CardPageSize < 1 {
		return fmt.Errorf("views page sizes must be at least 1")
	}

	if c.MaxChartPoints < 0 {
		return fmt.Errorf("views.max_chart_points cannot be negative")
	}

	if c.MaxChartPoints > 0 && c.MaxChartPoints < 3 {
		return fmt.Errorf("views.max_chart_points must be 0 or at least 3")
	}

	return nil
}

// Validate validates logging configuration
func (c *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLevels[c.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}

	validFormats := map[string]bool{
		"json":    true,
		"console": true,
	}

	if !validFormats[c.Format] {
		return fmt.Errorf("logging.format must be 'json' or 'console'")
	}

	return nil
}
