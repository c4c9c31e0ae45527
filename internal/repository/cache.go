package repository

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	"template-builder/internal/common/logger"
	"template-builder/internal/models"

	"github.com/redis/go-redis/v9"
)

// CachedReader puts a Redis read-through cache in front of a Reader. Redis
// errors and undecodable entries fall through to the wrapped store; missing
// records are not cached.
type CachedReader struct {
	next   Reader
	redis  *redis.Client
	prefix string
	ttl    time.Duration
	log    logger.Logger
}

func NewCachedReader(next Reader, client *redis.Client, prefix string, ttl time.Duration, log logger.Logger) *CachedReader {
	return &CachedReader{
		next:   next,
		redis:  client,
		prefix: prefix,
		ttl:    ttl,
		log:    logger.ForComponent(log, "catalog-cache"),
	}
}

func (c *CachedReader) GetTemplateWithComponents(ctx context.Context, id string) (*models.IndustryTemplate, error) {
	var t models.IndustryTemplate
	if c.lookup(ctx, c.key("template", id), &t) {
		return &t, nil
	}
	found, err := c.next.GetTemplateWithComponents(ctx, id)
	if err != nil || found == nil {
		return found, err
	}
	c.store(ctx, c.key("template", id), found)
	return found, nil
}

func (c *CachedReader) GetModelSchema(ctx context.Context, id string) (*models.ModelSchema, error) {
	var s models.ModelSchema
	if c.lookup(ctx, c.key("schema", id), &s) {
		return &s, nil
	}
	found, err := c.next.GetModelSchema(ctx, id)
	if err != nil || found == nil {
		return found, err
	}
	c.store(ctx, c.key("schema", id), found)
	return found, nil
}

func (c *CachedReader) GetModule(ctx context.Context, id string) (*models.Module, error) {
	var m models.Module
	if c.lookup(ctx, c.key("module", id), &m) {
		return &m, nil
	}
	found, err := c.next.GetModule(ctx, id)
	if err != nil || found == nil {
		return found, err
	}
	c.store(ctx, c.key("module", id), found)
	return found, nil
}

// Invalidate drops cached entries for a template and the definitions it names.
func (c *CachedReader) Invalidate(ctx context.Context, t models.IndustryTemplate) error {
	keys := []string{c.key("template", t.ID)}
	for _, comp := range t.Components {
		switch comp.ComponentType {
		case models.ComponentTypeSchema:
			keys = append(keys, c.key("schema", comp.ComponentID))
		case models.ComponentTypeModule:
			keys = append(keys, c.key("module", comp.ComponentID))
		}
	}
	return c.redis.Del(ctx, keys...).Err()
}

func (c *CachedReader) key(kind, id string) string {
	return c.prefix + kind + ":" + id
}

func (c *CachedReader) lookup(ctx context.Context, key string, dst interface{}) bool {
	val, err := c.redis.Get(ctx, key).Result()
	if err != nil {
		if !stderrors.Is(err, redis.Nil) {
			c.log.Warn("Cache read failed", map[string]interface{}{"key": key, "error": err.Error()})
		}
		return false
	}
	if err := json.Unmarshal([]byte(val), dst); err != nil {
		c.log.Warn("Discarding undecodable cache entry", map[string]interface{}{"key": key, "error": err.Error()})
		return false
	}
	c.log.Debug("Cache hit", map[string]interface{}{"key": key})
	return true
}

func (c *CachedReader) store(ctx context.Context, key string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.log.Warn("Cache write failed", map[string]interface{}{"key": key, "error": err.Error()})
	}
}
