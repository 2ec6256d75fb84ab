// internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Rdb is the global Redis client. It stays nil when Redis is not
// configured, in which case result recording is disabled.
var Rdb *redis.Client

// DefaultQueueName is the Redis list the historian consumes from.
var DefaultQueueName = "bacay_hand_results"

// HandResultRecord holds the minimal info the historian needs to persist
// one finished round.
type HandResultRecord struct {
	RoomID    string `json:"room_id"`
	WinnerID  string `json:"winner_id,omitempty"`
	Pot       int    `json:"pot"`
	Timestamp int64  `json:"timestamp"`
}

// ConnectRedis initializes the global client from environment variables:
//   - REDIS_ADDR (default "localhost:6379")
//   - REDIS_DB (optional, default 0)
//
// A connection failure leaves Rdb nil and returns the error; the server
// runs fine without history.
func ConnectRedis() error {
	addr := getEnv("REDIS_ADDR", "localhost:6379")
	dbIdx := getEnvInt("REDIS_DB", 0)

	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   dbIdx,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	Rdb = client
	return nil
}

// Enabled reports whether result recording is active.
func Enabled() bool {
	return Rdb != nil
}

// PublishHandResult serializes the record and pushes it onto the historian
// queue. The push is a quick network send, nothing more.
func PublishHandResult(ctx context.Context, record HandResultRecord) error {
	if Rdb == nil {
		return nil
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal HandResultRecord: %w", err)
	}

	queueName := getEnv("HISTORIAN_QUEUE_NAME", DefaultQueueName)
	if err := Rdb.RPush(ctx, queueName, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", queueName, err)
	}
	return nil
}

// getEnv is a helper to read an environment variable or return a default value.
func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// getEnvInt is a helper to parse an environment variable as integer, else a default value.
func getEnvInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
