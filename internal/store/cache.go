package store

import (
	"context"
	"errors"
	"time"

	"taskboard/internal/logging"
	"taskboard/internal/model"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const (
	listCacheKey   = "taskboard:tasks"
	listVersionKey = "taskboard:tasks:version"
)

// errListChanged aborts storing a list that was read before a concurrent write.
var errListChanged = errors.New("task list changed while reading")

// Cache wraps a TaskStore with a Redis copy of the full list. Every write bumps a
// version counter and evicts the copy; a list read is only cached when the version
// it started under is still current.
type Cache struct {
	base  TaskStore
	redis *redis.Client
	ttl   time.Duration
	log   log.FieldLogger
}

func NewCache(base TaskStore, client *redis.Client, ttl time.Duration, logger log.FieldLogger) *Cache {
	if base == nil {
		panic("store.NewCache: base store is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Cache{base: base, redis: client, ttl: ttl, log: logger.WithField("component", "store.cache")}
}

func (c *Cache) List(ctx context.Context) ([]model.Task, error) {
	if tasks, ok := c.loadList(ctx); ok {
		return tasks, nil
	}
	version, versionOK := c.listVersion(ctx)
	tasks, err := c.base.List(ctx)
	if err != nil {
		return nil, err
	}
	if versionOK {
		c.storeList(ctx, tasks, version)
	}
	return tasks, nil
}

func (c *Cache) Get(ctx context.Context, id int64) (model.Task, error) {
	return c.base.Get(ctx, id)
}

func (c *Cache) Create(ctx context.Context, in model.TaskInput) (model.Task, error) {
	t, err := c.base.Create(ctx, in)
	if err != nil {
		return model.Task{}, err
	}
	c.evict(ctx)
	return t, nil
}

func (c *Cache) Replace(ctx context.Context, id int64, in model.TaskInput) (model.Task, error) {
	t, err := c.base.Replace(ctx, id, in)
	if err != nil {
		return model.Task{}, err
	}
	c.evict(ctx)
	return t, nil
}

func (c *Cache) Delete(ctx context.Context, id int64) error {
	if err := c.base.Delete(ctx, id); err != nil {
		return err
	}
	c.evict(ctx)
	return nil
}

func (c *Cache) loadList(ctx context.Context) ([]model.Task, bool) {
	if c.redis == nil {
		return nil, false
	}
	data, err := c.redis.Get(ctx, listCacheKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			// Redis trouble falls back to the backing store without failing the request.
			c.log.WithError(err).Warn("read task cache")
			_ = c.redis.Del(ctx, listCacheKey).Err()
		}
		return nil, false
	}
	var tasks []model.Task
	if err := sonic.ConfigStd.Unmarshal(data, &tasks); err != nil {
		_ = c.redis.Del(ctx, listCacheKey).Err()
		return nil, false
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	return tasks, true
}

func (c *Cache) listVersion(ctx context.Context) (int64, bool) {
	if c.redis == nil || c.ttl == 0 {
		return 0, false
	}
	v, err := c.redis.Get(ctx, listVersionKey).Int64()
	if err != nil && err != redis.Nil {
		c.log.WithError(err).Warn("read task cache version")
		return 0, false
	}
	return v, true
}

// storeList caches tasks only if no write bumped the version since it was read.
func (c *Cache) storeList(ctx context.Context, tasks []model.Task, version int64) {
	data, err := sonic.ConfigStd.Marshal(tasks)
	if err != nil {
		return
	}
	err = c.redis.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, listVersionKey).Int64()
		if err != nil && err != redis.Nil {
			return err
		}
		if current != version {
			return errListChanged
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, listCacheKey, data, c.ttl)
			return nil
		})
		return err
	}, listVersionKey)
	switch {
	case err == nil:
	case errors.Is(err, errListChanged), errors.Is(err, redis.TxFailedErr):
		c.log.Debug("task list changed while reading; not cached")
	default:
		c.log.WithError(err).Warn("write task cache")
	}
}

func (c *Cache) evict(ctx context.Context) {
	if c.redis == nil {
		return
	}
	if err := c.redis.Incr(ctx, listVersionKey).Err(); err != nil {
		c.log.WithError(err).Warn("bump task cache version")
	}
	if err := c.redis.Del(ctx, listCacheKey).Err(); err != nil {
		c.log.WithError(err).Warn("evict task cache")
	}
}
