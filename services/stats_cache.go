package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// RedisStatsCache stocke les statistiques sérialisées en JSON dans Redis
type RedisStatsCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
	logger *zap.SugaredLogger
}

// NewRedisStatsCache crée une nouvelle instance de RedisStatsCache
func NewRedisStatsCache(client *redis.Client, ttl time.Duration, logger *zap.SugaredLogger) *RedisStatsCache {
	return &RedisStatsCache{client: client, ttl: ttl, prefix: "engins:", logger: logger}
}

// Get décode la valeur en cache dans dest; false si la clé est absente ou expirée
func (c *RedisStatsCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("erreur lecture cache %s: %w", key, err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		// entrée illisible: on la traite comme absente
		c.logger.Warnw("⚠️  Entrée de cache invalide", "key", key, "error", err)
		return false, nil
	}
	return true, nil
}

// Set enregistre la valeur pour la durée configurée
func (c *RedisStatsCache) Set(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("erreur sérialisation cache %s: %w", key, err)
	}
	if err := c.client.Set(ctx, c.prefix+key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("erreur écriture cache %s: %w", key, err)
	}
	return nil
}

// Invalidate supprime toutes les entrées de statistiques
func (c *RedisStatsCache) Invalidate(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, c.prefix+"stats:*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("erreur parcours cache: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}
