package session

import (
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"

	"github.com/cebeepredict/admin/internal/config"
)

// Open builds the store selected by cfg.Driver. The returned close function
// releases any connection the store holds and is never nil.
func Open(cfg config.SessionConfig) (Store, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Driver {
	case "", config.SessionMemory:
		return NewMemoryStore(), noop, nil
	case config.SessionFile:
		return NewFileStore(cfg.FilePath), noop, nil
	case config.SessionRedis:
		addr := os.Getenv(cfg.AddrEnv)
		if addr == "" {
			return nil, noop, fmt.Errorf("session: redis address env %s is empty", cfg.AddrEnv)
		}
		client := redis.NewClient(&redis.Options{Addr: addr, DB: cfg.DB})
		return NewRedisStore(client, cfg.TTL), client.Close, nil
	default:
		return nil, noop, fmt.Errorf("session: unknown driver %q", cfg.Driver)
	}
}
