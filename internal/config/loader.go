package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Load loads configuration from file
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Default config locations
		v.SetConfigName("querylens")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")              // Current directory
		v.AddConfigPath("./configs")      // Project configs directory
		v.AddConfigPath("/etc/querylens") // System-wide config
	}

	// Set defaults
	setDefaults(v)

	// Enable environment variable overrides, e.g. QUERYLENS_BACKEND_BASE_URL
	v.SetEnvPrefix("QUERYLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; use defaults
			return parseConfig(v)
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return parseConfig(v)
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()

	// Server defaults
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.http_port", d.Server.HTTPPort)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)
	v.SetDefault("server.body_limit", d.Server.BodyLimit)

	// Backend defaults
	v.SetDefault("backend.base_url", d.Backend.BaseURL)
	v.SetDefault("backend.query_path", d.Backend.QueryPath)
	v.SetDefault("backend.recommend_path", d.Backend.RecommendPath)
	v.SetDefault("backend.timeout", d.Backend.Timeout)

	// Recommendation defaults
	v.SetDefault("recommendation.mode", d.Recommendation.Mode)
	v.SetDefault("recommendation.timeout", d.Recommendation.Timeout)
	v.SetDefault("recommendation.cache_ttl", d.Recommendation.CacheTTL)
	v.SetDefault("recommendation.request_subject", d.Recommendation.RequestSubject)
	v.SetDefault("recommendation.reply_subject", d.Recommendation.ReplySubject)
	v.SetDefault("recommendation.serve", d.Recommendation.Serve)

	// History defaults
	v.SetDefault("history.store", d.History.Store)
	v.SetDefault("history.key_prefix", d.History.KeyPrefix)

	// Session defaults
	v.SetDefault("session.idle_timeout", d.Session.IdleTimeout)
	v.SetDefault("session.cleanup_interval", d.Session.CleanupInterval)

	// Queue defaults
	v.SetDefault("queue.enabled", d.Queue.Enabled)
	v.SetDefault("queue.type", d.Queue.Type)
	v.SetDefault("queue.url", d.Queue.URL)
	v.SetDefault("queue.events_subject", d.Queue.EventsSubject)

	// View defaults
	v.SetDefault("views.table_page_size", d.Views.TablePageSize)
	v.SetDefault("views.card_page_size", d.Views.CardPageSize)
	v.SetDefault("views.max_chart_points", d.Views.MaxChartPoints)

	// Logging defaults
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.output_path", d.Logging.OutputPath)
}

// parseConfig parses viper config into Config struct
func parseConfig(v *viper.Viper) (*Config, error) {
	var cfg Config

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// LoadOrDefault loads configuration from file or returns default config
func LoadOrDefault(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		// Return default configuration
		return DefaultConfig()
	}
	return cfg
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			HTTPPort:     5580,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			BodyLimit:    8 * 1024 * 1024,
		},
		Backend: BackendConfig{
			BaseURL:       "http://localhost:8000",
			QueryPath:     "/nlp-query",
			RecommendPath: "/visualization-recommendation",
			Timeout:       60 * time.Second,
		},
		Recommendation: RecommendationConfig{
			Mode:           RecommendBackend,
			Timeout:        10 * time.Second,
			CacheTTL:       10 * time.Minute,
			RequestSubject: "querylens.recommend.request",
			ReplySubject:   "querylens.recommend.reply",
		},
		History: HistoryConfig{
			Store:     "memory",
			KeyPrefix: "querylens:history",
		},
		Session: SessionConfig{
			IdleTimeout:     30 * time.Minute,
			CleanupInterval: time.Minute,
		},
		Queue: QueueConfig{
			Enabled:       false,
			Type:          "nats",
			URL:           "nats://localhost:4222",
			EventsSubject: "querylens.query.events",
		},
		Views: ViewsConfig{
			TablePageSize:  10,
			CardPageSize:   9,
			MaxChartPoints: 500,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			OutputPath: "stdout",
		},
	}
}
