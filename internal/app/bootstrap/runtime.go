package bootstrap

import (
	"context"
	"crypto/tls"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/prism-crm/cmd/mainconfig"
	"github.com/wolfman30/prism-crm/internal/archive"
	"github.com/wolfman30/prism-crm/internal/bookings"
	appconfig "github.com/wolfman30/prism-crm/internal/config"
	"github.com/wolfman30/prism-crm/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available, slot cache disabled", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// BuildSlotCache returns the taken-slot cache when Redis is available.
func BuildSlotCache(redisClient *redis.Client, cfg *appconfig.Config) bookings.SlotCache {
	if redisClient == nil {
		return nil
	}
	ttl := bookings.DefaultSlotCacheTTL
	if cfg != nil && cfg.SlotCacheTTL > 0 {
		ttl = cfg.SlotCacheTTL
	}
	return bookings.NewRedisSlotCache(redisClient, ttl)
}

// BuildArchiveStore returns the webhook payload archive, or nil when no
// bucket is configured or AWS cannot be initialized.
func BuildArchiveStore(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) *archive.Store {
	if cfg == nil || strings.TrimSpace(cfg.WebhookArchiveBucket) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Warn("failed to load AWS config, webhook archive disabled", "error", err)
		return nil
	}
	store := archive.NewStore(mainconfig.NewS3Client(awsCfg, cfg), cfg.WebhookArchiveBucket, logger)
	logger.Info("webhook archive enabled", "bucket", cfg.WebhookArchiveBucket, "archive_all", cfg.ArchiveAllWebhooks)
	return store
}
