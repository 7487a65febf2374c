package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"interview-assistant/internal/config"
	"interview-assistant/internal/constants"
	"interview-assistant/internal/tracing"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

// ErrCacheMiss is returned when a cache key is absent.
var ErrCacheMiss = redis.Nil

var redisTracer = otel.Tracer("interview-assistant/storage/redis")

// UploadDeduper remembers uploaded file hashes.
type UploadDeduper interface {
	// CheckAndAddUploadMD5 records md5Hex and reports whether it was already known.
	CheckAndAddUploadMD5(ctx context.Context, md5Hex string) (bool, error)
}

// Cache stores JSON values with a TTL.
type Cache interface {
	GetJSON(ctx context.Context, key string, dest any) error
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	// DeletePattern removes every key matching a glob pattern.
	DeletePattern(ctx context.Context, pattern string) (int, error)
}

var (
	_ UploadDeduper = (*Redis)(nil)
	_ Cache         = (*Redis)(nil)
)

// checkAndAddScript adds a member and reports whether it was already present.
var checkAndAddScript = redis.NewScript(`
	local exists = redis.call('SISMEMBER', KEYS[1], ARGV[1])
	redis.call('SADD', KEYS[1], ARGV[1])
	redis.call('EXPIRE', KEYS[1], ARGV[2])
	return exists
`)

// Redis wraps the go-redis client.
type Redis struct {
	Client *redis.Client
	config *config.RedisConfig
}

// NewRedisAdapter connects and installs OpenTelemetry tracing.
func NewRedisAdapter(cfg *config.RedisConfig) (*Redis, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis config cannot be nil")
	}
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis address is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,

		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,

		DialTimeout:  time.Duration(cfg.DialTimeoutSeconds) * time.Second,
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSeconds) * time.Second,

		MaxRetries:      cfg.MaxRetries,
		MinRetryBackoff: time.Duration(cfg.MinRetryBackoffMS) * time.Millisecond,
		MaxRetryBackoff: time.Duration(cfg.MaxRetryBackoffMS) * time.Millisecond,

		ConnMaxLifetime: time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute,
		ConnMaxIdleTime: time.Duration(cfg.ConnMaxIdleTimeMinutes) * time.Minute,
	})

	if err := redisotel.InstrumentTracing(client); err != nil {
		return nil, fmt.Errorf("instrument redis tracing: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect redis at %s: %w", cfg.Address, err)
	}
	return &Redis{Client: client, config: cfg}, nil
}

func (r *Redis) Close() error {
	if r.Client != nil {
		return r.Client.Close()
	}
	return nil
}

func (r *Redis) Ping(ctx context.Context) error {
	if r.Client == nil {
		return fmt.Errorf("redis client is not initialized")
	}
	return r.Client.Ping(ctx).Err()
}

// MD5ExpireDuration is how long upload hashes are remembered.
func (r *Redis) MD5ExpireDuration() time.Duration {
	days := r.config.MD5RecordExpireDays
	if days <= 0 {
		days = constants.DefaultMD5ExpireDays
	}
	return time.Duration(days) * 24 * time.Hour
}

// CheckAndAddUploadMD5 runs SISMEMBER+SADD+EXPIRE atomically.
func (r *Redis) CheckAndAddUploadMD5(ctx context.Context, md5Hex string) (bool, error) {
	ctx, span := redisTracer.Start(ctx, "Redis.CheckAndAddUploadMD5", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	key := constants.KeyUploadMD5Set
	span.SetAttributes(
		semconv.DBSystemRedis,
		attribute.String("db.operation", "EVALSHA"),
		attribute.String("db.redis.key", tracing.SafeRedisKey(key)),
	)

	res, err := checkAndAddScript.Run(ctx, r.Client, []string{key}, md5Hex, int64(r.MD5ExpireDuration().Seconds())).Int64()
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeRedis)
		return false, fmt.Errorf("check-and-add upload md5: %w", err)
	}
	exists := res == 1
	span.SetAttributes(attribute.Bool("already_exists", exists))
	span.SetStatus(codes.Ok, "")
	return exists, nil
}

func (r *Redis) GetJSON(ctx context.Context, key string, dest any) error {
	raw, err := r.Client.Get(ctx, key).Bytes()
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}

func (r *Redis) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return r.Client.Set(ctx, key, raw, ttl).Err()
}

// DeletePattern walks the keyspace with SCAN so it never blocks the server.
func (r *Redis) DeletePattern(ctx context.Context, pattern string) (int, error) {
	var (
		cursor  uint64
		deleted int
	)
	for {
		keys, next, err := r.Client.Scan(ctx, cursor, pattern, constants.AnalyticsScanBatchSize).Result()
		if err != nil {
			return deleted, err
		}
		if len(keys) > 0 {
			n, err := r.Client.Del(ctx, keys...).Result()
			if err != nil {
				return deleted, err
			}
			deleted += int(n)
		}
		if next == 0 {
			return deleted, nil
		}
		cursor = next
	}
}
