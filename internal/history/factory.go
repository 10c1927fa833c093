package history

import (
	"fmt"

	"github.com/querylens/querylens/internal/config"
)

// NewStore creates the store selected by cfg.Store; memory is the default.
func NewStore(cfg config.HistoryConfig) (Store, error) {
	switch cfg.Store {
	case "", "memory":
		return NewMemoryStore(cfg.TTL), nil
	case "redis":
		return NewRedisStore(cfg.RedisURL, cfg.Password, cfg.RedisDB, cfg.KeyPrefix, cfg.TTL)
	default:
		return nil, fmt.Errorf("unsupported history store: %s (supported: memory, redis)", cfg.Store)
	}
}
