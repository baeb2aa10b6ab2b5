// Package querycache shares task list reads between callers and keeps the list
// consistent with writes by invalidating it after every mutation.
package querycache

import (
	"context"
	"fmt"
	"sync"

	"taskboard/internal/logging"
	"taskboard/internal/model"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// Key is the logical key of the cached task list.
const Key = "tasks"

// Repository is the subset of the task API the cache drives.
type Repository interface {
	List(ctx context.Context) ([]model.Task, error)
	Create(ctx context.Context, in model.TaskInput) (model.Task, error)
	Update(ctx context.Context, t model.Task) (model.Task, error)
	Delete(ctx context.Context, id model.ID) error
}

// Snapshot is a point-in-time view of the cached list.
type Snapshot struct {
	Tasks      []model.Task
	Loaded     bool
	Fetching   bool
	Err        error
	Generation uint64
}

type Cache struct {
	repo  Repository
	log   log.FieldLogger
	group singleflight.Group

	mu       sync.Mutex
	tasks    []model.Task
	loaded   bool
	fetching int
	err      error
	gen      uint64

	Create *Mutation[model.TaskInput, model.Task]
	Update *Mutation[model.Task, model.Task]
	Delete *Mutation[model.ID, struct{}]
}

func New(repo Repository, logger log.FieldLogger) *Cache {
	if logger == nil {
		logger = logging.Discard()
	}
	c := &Cache{repo: repo, log: logger.WithField("component", "querycache")}

	c.Create = newMutation("create", repo.Create, c.settle)
	c.Update = newMutation("update", repo.Update, c.settle)
	c.Delete = newMutation("delete", func(ctx context.Context, id model.ID) (struct{}, error) {
		return struct{}{}, repo.Delete(ctx, id)
	}, c.settle)
	return c
}

// settle runs after every write. Success and failure both invalidate: a failed
// write usually means the local view is out of date (for example a 404 on update).
func (c *Cache) settle(op string, err error) {
	entry := c.log.WithField("op", op)
	if err != nil {
		entry = entry.WithError(err)
	}
	entry.Debug("write settled, invalidating")
	c.Invalidate()
}

// Tasks returns the cached list, fetching it when missing or invalidated. Concurrent
// callers during a fetch share its result. The returned generation identifies the
// cache state the list belongs to.
func (c *Cache) Tasks(ctx context.Context) ([]model.Task, uint64, error) {
	c.mu.Lock()
	gen := c.gen
	if c.loaded {
		tasks := cloneTasks(c.tasks)
		c.mu.Unlock()
		return tasks, gen, nil
	}
	c.fetching++
	c.mu.Unlock()

	flight := fmt.Sprintf("%s#%d", Key, gen)
	v, err, shared := c.group.Do(flight, func() (any, error) {
		c.log.WithField("flight", flight).Debug("fetching task list")
		return c.repo.List(context.WithoutCancel(ctx))
	})
	if shared {
		c.log.WithField("flight", flight).Debug("joined in-flight fetch")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.fetching--

	if err != nil {
		if c.gen == gen {
			c.err = err
		}
		return nil, gen, err
	}
	tasks := v.([]model.Task)
	// A write that landed during the fetch bumped the generation; keep the result
	// out of the cache so the next read sees the write.
	if c.gen == gen {
		c.tasks = cloneTasks(tasks)
		c.loaded = true
		c.err = nil
	}
	return cloneTasks(tasks), gen, nil
}

// Invalidate marks the list stale and starts a new generation with no read error.
// The next Tasks call refetches.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.gen++
	c.loaded = false
	c.err = nil
	c.mu.Unlock()
}

// Refresh invalidates and refetches.
func (c *Cache) Refresh(ctx context.Context) ([]model.Task, uint64, error) {
	c.Invalidate()
	return c.Tasks(ctx)
}

// Generation is incremented by every invalidation.
func (c *Cache) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

func (c *Cache) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		Tasks:      cloneTasks(c.tasks),
		Loaded:     c.loaded,
		Fetching:   c.fetching > 0,
		Err:        c.err,
		Generation: c.gen,
	}
}

// Pending reports whether a list read is in flight.
func (c *Cache) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fetching > 0
}

// Err is the error of the most recent list read for the current generation.
func (c *Cache) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func cloneTasks(in []model.Task) []model.Task {
	if in == nil {
		return nil
	}
	out := make([]model.Task, len(in))
	copy(out, in)
	return out
}
