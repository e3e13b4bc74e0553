// Package cache keeps live van positions in Redis: a GEO set per area that
// dispatch tools can GEOSEARCH, and a single JSON key holding the freshest fix.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"breadvan-backend/internal/database"
	"breadvan-backend/internal/models"
)

const (
	latestKey = "van:latest"
	// A van that stops reporting drops out of the cache after this long
	locationTTL = 10 * time.Minute
)

func areaKey(areaID string) string {
	return "van:locations:" + areaID
}

type VanCache struct {
	rdb goredis.Cmdable
}

// Connect dials Redis, retrying while it starts up
func Connect(ctx context.Context, addr string) (*VanCache, *goredis.Client, error) {
	rdb := goredis.NewClient(&goredis.Options{Addr: addr})
	for i := 1; i <= 10; i++ {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err == nil {
			log.Printf("✅ Connected to Redis at %s", addr)
			return New(rdb), rdb, nil
		}
		log.Printf("⏳ Waiting for Redis... (%d/10)", i)
		select {
		case <-ctx.Done():
			rdb.Close()
			return nil, nil, ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
	rdb.Close()
	return nil, nil, fmt.Errorf("redis: failed to connect to %s", addr)
}

func New(rdb goredis.Cmdable) *VanCache {
	return &VanCache{rdb: rdb}
}

// StoreVanLocation records the fix in the area's GEO set and as the latest
func (c *VanCache) StoreVanLocation(ctx context.Context, areaID string, loc *models.DriverLocation) error {
	data, err := json.Marshal(loc)
	if err != nil {
		return fmt.Errorf("marshal location: %w", err)
	}
	pipe := c.rdb.TxPipeline()
	pipe.GeoAdd(ctx, areaKey(areaID), &goredis.GeoLocation{
		Name:      loc.DriverID,
		Longitude: loc.Longitude,
		Latitude:  loc.Latitude,
	})
	pipe.Expire(ctx, areaKey(areaID), locationTTL)
	pipe.Set(ctx, latestKey, data, locationTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache van location: %w", err)
	}
	return nil
}

// LatestVanLocation returns database.ErrNotFound when nothing is cached
func (c *VanCache) LatestVanLocation(ctx context.Context) (*models.DriverLocation, error) {
	data, err := c.rdb.Get(ctx, latestKey).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get latest van location: %w", err)
	}
	var loc models.DriverLocation
	if err := json.Unmarshal(data, &loc); err != nil {
		return nil, fmt.Errorf("decode latest van location: %w", err)
	}
	return &loc, nil
}
