package locator

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/redis/go-redis/v9"
)

var _ ResultCache = &RedisResultCache{}

// RedisResultCache shares lookup results between processes serving the same dataset.
// keyPrefix must identify the dataset (see RedisKeyPrefix), since results are stored as indexes into it.
type RedisResultCache struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

func OpenRedis(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
}

// RedisKeyPrefix builds a key prefix from base and everything that decides the feature list and the lookup answers
// (dataset, loader options, containment rule), so processes only share results when they would compute the same ones
func RedisKeyPrefix(base string, datasetIdentity ...string) string {
	digest := xxhash.New()
	for _, part := range datasetIdentity {
		digest.WriteString(part)
		digest.WriteString("\x00")
	}

	return fmt.Sprintf("%s%016x:", base, digest.Sum64())
}

func NewRedisResultCache(client *redis.Client, keyPrefix string, ttl time.Duration) *RedisResultCache {
	return &RedisResultCache{client, keyPrefix, ttl}
}

func (c *RedisResultCache) Kind() string {
	return "redis"
}

func (c *RedisResultCache) redisKey(key string) string {
	return c.keyPrefix + key
}

func (c *RedisResultCache) Get(ctx context.Context, key string) (int, bool, errorsx.Error) {
	value, err := c.client.Get(ctx, c.redisKey(key)).Result()
	if err != nil {
		if err == redis.Nil {
			return 0, false, nil
		}
		return 0, false, errorsx.Wrap(err, "key", key)
	}

	featureIndex, err := strconv.Atoi(value)
	if err != nil {
		return 0, false, errorsx.Wrap(err, "key", key, "value", value)
	}

	return featureIndex, true, nil
}

func (c *RedisResultCache) Set(ctx context.Context, key string, featureIndex int) errorsx.Error {
	err := c.client.Set(ctx, c.redisKey(key), strconv.Itoa(featureIndex), c.ttl).Err()
	if err != nil {
		return errorsx.Wrap(err, "key", key)
	}

	return nil
}
