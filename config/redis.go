package config

import (
	"context"
	"log"
	"os"

	"github.com/redis/go-redis/v9"
)

// ConnectRedis parses REDIS_URL and returns a verified client. An empty
// REDIS_URL means the caller should fall back to the in-memory store.
func ConnectRedis(ctx context.Context) (*redis.Client, error) {
	redisUri := os.Getenv("REDIS_URL")
	if redisUri == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(redisUri)
	if err != nil {
		log.Printf("Error parsing REDIS_URL: %v", err)
		return nil, err
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("Error connecting to Redis: %v", err)
		return nil, err
	}

	log.Println("Redis connection established")
	return client, nil
}
