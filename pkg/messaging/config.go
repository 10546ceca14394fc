package messaging

import "time"

// RedisOption configures the Redis client.
type RedisOption func(*RedisConfig)

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Addr         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
}

// WithAddr sets the Redis address.
func WithAddr(addr string) RedisOption {
	return func(c *RedisConfig) {
		c.Addr = addr
	}
}

// WithPassword sets the Redis password.
func WithPassword(password string) RedisOption {
	return func(c *RedisConfig) {
		c.Password = password
	}
}

// WithDB sets the Redis database number.
func WithDB(db int) RedisOption {
	return func(c *RedisConfig) {
		c.DB = db
	}
}

// WithPool sets connection pool settings.
func WithPool(poolSize, minIdleConns int) RedisOption {
	return func(c *RedisConfig) {
		c.PoolSize = poolSize
		c.MinIdleConns = minIdleConns
	}
}

// WithDialTimeout sets the dial timeout.
func WithDialTimeout(d time.Duration) RedisOption {
	return func(c *RedisConfig) {
		c.DialTimeout = d
	}
}
