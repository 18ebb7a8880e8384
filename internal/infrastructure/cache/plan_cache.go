// Package cache caché de lectura del catálogo de planes sobre Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/jhoicas/Accesos-api/internal/domain/entity"
	"github.com/jhoicas/Accesos-api/internal/domain/repository"
	"github.com/jhoicas/Accesos-api/pkg/logger"
)

const (
	keyPrefix     = "accesos:plans:"
	keyActiveList = keyPrefix + "active"
)

var _ repository.PlanRepository = (*PlanCache)(nil)

// NewRedisClient crea el cliente a partir de una URL redis://.
func NewRedisClient(ctx context.Context, rawURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// PlanCache implementa PlanRepository leyendo primero de Redis y, ante un fallo o ausencia,
// del repositorio subyacente. Si Redis no responde se sigue sirviendo desde la base de datos.
type PlanCache struct {
	next   repository.PlanRepository
	client *redis.Client
	ttl    time.Duration
	log    *logger.Logger
}

// NewPlanCache construye la caché. ttl <= 0 usa 5 minutos.
func NewPlanCache(next repository.PlanRepository, client *redis.Client, ttl time.Duration, log *logger.Logger) *PlanCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &PlanCache{next: next, client: client, ttl: ttl, log: log.Named("plan_cache")}
}

// GetByID plan por ID. Los planes inexistentes no se cachean.
func (c *PlanCache) GetByID(ctx context.Context, id string) (*entity.Plan, error) {
	key := keyPrefix + "id:" + id
	var cached entity.Plan
	if c.get(ctx, key, &cached) {
		return &cached, nil
	}
	plan, err := c.next.GetByID(ctx, id)
	if err != nil || plan == nil {
		return plan, err
	}
	c.set(ctx, key, plan)
	return plan, nil
}

// ListActive planes contratables.
func (c *PlanCache) ListActive(ctx context.Context) ([]*entity.Plan, error) {
	var cached []*entity.Plan
	if c.get(ctx, keyActiveList, &cached) {
		return cached, nil
	}
	list, err := c.next.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	c.set(ctx, keyActiveList, list)
	return list, nil
}

// Invalidate descarta las entradas cacheadas de los planes indicados y el listado.
func (c *PlanCache) Invalidate(ctx context.Context, ids ...string) error {
	keys := []string{keyActiveList}
	for _, id := range ids {
		keys = append(keys, keyPrefix+"id:"+id)
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("invalidate plans: %w", err)
	}
	return nil
}

func (c *PlanCache) get(ctx context.Context, key string, dst any) bool {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn().Err(err).Str("key", key).Msg("redis no disponible, se lee de la base de datos")
		}
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("entrada de caché corrupta")
		return false
	}
	return true
}

func (c *PlanCache) set(ctx context.Context, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("no se pudo guardar en caché")
	}
}
