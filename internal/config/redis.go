package config

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// Enabled reports whether a Redis URL was configured.
func (r *RedisConfig) Enabled() bool {
	return r.URL != ""
}

// New parses URL, applies the timeouts and pings the server.
func (r *RedisConfig) New(ctx context.Context) (*redis.Client, error) {
	opts, err := redis.ParseURL(r.URL)
	if err != nil {
		return nil, err
	}

	opts.DialTimeout = r.DialTimeout
	opts.ReadTimeout = r.ReadTimeout
	opts.WriteTimeout = r.WriteTimeout

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return client, nil
}
