package cache

import (
	"strconv"

	"github.com/gofiber/storage/redis"
)

// NewStorage returns a fiber.Storage on the cache server, in its own
// database. Sessions and the rate limiter keep their state here.
func NewStorage(cfg Config, database int) *redis.Storage {
	port, err := strconv.Atoi(cfg.Port)
	if err != nil {
		port = 6379
	}
	return redis.New(redis.Config{
		Host:     cfg.Host,
		Port:     port,
		Password: cfg.Password,
		Database: database,
		Reset:    false,
	})
}
