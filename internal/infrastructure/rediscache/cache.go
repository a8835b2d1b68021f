package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jhoicas/almacen-api/internal/application/ports"
	"github.com/jhoicas/almacen-api/pkg/config"
	"github.com/redis/go-redis/v9"
)

var _ ports.Cache = (*Cache)(nil)

// TTL por región. Los TTLs cortos son el respaldo ante la ventana entre el
// commit del store y la invalidación (los lectores pueden ver valores viejos
// durante esa ventana, nunca por más tiempo que el TTL).
var regionTTL = map[string]time.Duration{
	ports.RegionStockDetail:   5 * time.Minute,
	ports.RegionStockByName:   5 * time.Minute,
	ports.RegionLedgerSummary: 2 * time.Minute,
	ports.RegionLedgerStats:   2 * time.Minute,
	ports.RegionAlerts:        time.Minute,
	ports.RegionDashboard:     time.Minute,
}

const defaultTTL = time.Minute

// Cache implementación del puerto de caché sobre Redis. Las claves se
// construyen como "<region>:<key>"; EvictRegion recorre la región con SCAN.
type Cache struct {
	rdb *redis.Client
}

// New conecta al Redis configurado y verifica con PING.
func New(ctx context.Context, cfg config.RedisConfig) (*Cache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &Cache{rdb: rdb}, nil
}

// NewWithClient envuelve un cliente existente (tests, pipelines compartidos).
func NewWithClient(rdb *redis.Client) *Cache {
	return &Cache{rdb: rdb}
}

func cacheKey(region, key string) string {
	return region + ":" + key
}

// Get deserializa el valor JSON en dest; (false, nil) si la clave no existe.
func (c *Cache) Get(ctx context.Context, region, key string, dest any) (bool, error) {
	val, err := c.rdb.Get(ctx, cacheKey(region, key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("redis get: %w", err)
	}
	if err := json.Unmarshal([]byte(val), dest); err != nil {
		return false, fmt.Errorf("unmarshal cache value: %w", err)
	}
	return true, nil
}

// Set serializa a JSON y guarda con el TTL de la región.
func (c *Cache) Set(ctx context.Context, region, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value: %w", err)
	}
	ttl, ok := regionTTL[region]
	if !ok {
		ttl = defaultTTL
	}
	if err := c.rdb.Set(ctx, cacheKey(region, key), raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Evict elimina claves puntuales de una región.
func (c *Cache) Evict(ctx context.Context, region string, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = cacheKey(region, k)
	}
	if err := c.rdb.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// EvictRegion elimina todas las claves de la región vía SCAN incremental
// (sin KEYS, que bloquea el server con keyspaces grandes).
func (c *Cache) EvictRegion(ctx context.Context, region string) error {
	iter := c.rdb.Scan(ctx, 0, region+":*", 100).Iterator()
	for iter.Next(ctx) {
		if err := c.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("redis del región %s: %w", region, err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan región %s: %w", region, err)
	}
	return nil
}

// Close cierra la conexión.
func (c *Cache) Close() error {
	return c.rdb.Close()
}
