package locator

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/jamesrr39/goutil/errorsx"
)

var _ ResultCache = &LRUResultCache{}

// LRUResultCache is an in-process least-recently-used cache with a TTL
type LRUResultCache struct {
	lru *expirable.LRU[string, int]
}

func NewLRUResultCache(capacity int, ttl time.Duration) *LRUResultCache {
	return &LRUResultCache{expirable.NewLRU[string, int](capacity, nil, ttl)}
}

func (c *LRUResultCache) Kind() string {
	return "lru"
}

func (c *LRUResultCache) Get(ctx context.Context, key string) (int, bool, errorsx.Error) {
	featureIndex, ok := c.lru.Get(key)
	return featureIndex, ok, nil
}

func (c *LRUResultCache) Set(ctx context.Context, key string, featureIndex int) errorsx.Error {
	c.lru.Add(key, featureIndex)
	return nil
}

func (c *LRUResultCache) Len() int {
	return c.lru.Len()
}
