package config

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/mindspend/mindspend-api/store"
	"github.com/mindspend/mindspend-api/store/memstore"
	"github.com/mindspend/mindspend-api/store/mongostore"
	"github.com/mindspend/mindspend-api/store/pgstore"
)

// OpenStore connects the backend selected by DATA_BACKEND.
func OpenStore(ctx context.Context, cfg *Config) (store.Store, error) {
	switch cfg.DataBackend {
	case BackendMongo:
		st, err := mongostore.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to mongo: %w", err)
		}
		log.Printf("✅ MongoDB connected (database %s)", cfg.MongoDatabase)
		return st, nil

	case BackendPostgres:
		st, err := pgstore.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		log.Println("✅ Database connected and migrated successfully")
		return st, nil

	case BackendMemory:
		log.Println("⚠️ Using in-memory store, data is lost on restart")
		return memstore.New(), nil

	default:
		return nil, fmt.Errorf("unknown data backend %q", cfg.DataBackend)
	}
}

// OpenRedis returns nil when REDIS_URL is unset.
func OpenRedis(ctx context.Context, redisURL string) (*redis.Client, error) {
	if redisURL == "" {
		return nil, nil
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	log.Println("✅ Redis connected")
	return client, nil
}
