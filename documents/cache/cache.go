package cache

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	lowimpl "github.com/redis/go-redis/v9"
)

// Conf - redis connection settings for the rendered-document cache
type Conf struct {
	Host       string `json:"host"`
	Port       int    `json:"port"`
	PW         string `json:"pw"`
	DB         int    `json:"db"`
	TTLMinutes int    `json:"ttl_minutes"`
}

// Cache - byte cache for finished documents, keyed by (type, order).
// Rendering is deterministic per order state, so a cached buffer stays
// valid until the order changes; the TTL bounds staleness after writes
// that bypass invalidation.
type Cache struct {
	Conf *Conf

	// implementation details, not exported
	internal *lowimpl.Client
}

func (c *Cache) Init() error {
	c.internal = lowimpl.NewClient(&lowimpl.Options{
		Addr:     fmt.Sprintf("%s:%d", c.Conf.Host, c.Conf.Port),
		Password: c.Conf.PW,
		DB:       c.Conf.DB,
	})
	log.Println("[INFO] document cache initialized")
	return nil
}

func (c *Cache) Close() error {
	if c.internal == nil {
		return nil
	}
	return c.internal.Close()
}

func key(docType string, orderID string) string {
	return "doc:" + docType + ":" + orderID
}

func (c *Cache) Get(ctx context.Context, docType string, orderID string) ([]byte, bool, error) {
	b, err := c.internal.Get(ctx, key(docType, orderID)).Bytes()
	if errors.Is(err, lowimpl.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (c *Cache) Put(ctx context.Context, docType string, orderID string, b []byte) error {
	ttl := time.Duration(c.Conf.TTLMinutes) * time.Minute
	return c.internal.Set(ctx, key(docType, orderID), b, ttl).Err()
}

// Invalidate drops every cached document of one order
func (c *Cache) Invalidate(ctx context.Context, orderID string) error {
	keys := []string{
		key("lieferschein", orderID),
		key("rechnung", orderID),
	}
	return c.internal.Del(ctx, keys...).Err()
}

// Sweep drops every cached document. Run off-hours; it bounds staleness
// from writers that bypass Invalidate.
func (c *Cache) Sweep(ctx context.Context) (int, error) {
	var deleted int
	iter := c.internal.Scan(ctx, 0, "doc:*", 100).Iterator()
	for iter.Next(ctx) {
		if err := c.internal.Del(ctx, iter.Val()).Err(); err != nil {
			return deleted, err
		}
		deleted++
	}
	return deleted, iter.Err()
}
