package querycache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"taskboard/internal/model"
	"taskboard/internal/taskapi"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	mu        sync.Mutex
	tasks     []model.Task
	nextID    int64
	listCalls atomic.Int32
	gate      chan struct{}
	listErr   error
	updateErr error
}

func newFakeRepo(tasks ...model.Task) *fakeRepo {
	return &fakeRepo{tasks: tasks, nextID: int64(len(tasks)) + 1}
}

func (f *fakeRepo) List(ctx context.Context) ([]model.Task, error) {
	f.listCalls.Add(1)
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]model.Task, len(f.tasks))
	copy(out, f.tasks)
	return out, nil
}

func (f *fakeRepo) Create(ctx context.Context, in model.TaskInput) (model.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := model.Task{ID: model.NumericID(f.nextID)}.WithInput(in)
	f.nextID++
	f.tasks = append(f.tasks, t)
	return t, nil
}

func (f *fakeRepo) Update(ctx context.Context, t model.Task) (model.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return model.Task{}, f.updateErr
	}
	for i := range f.tasks {
		if f.tasks[i].ID == t.ID {
			f.tasks[i] = t
			return t, nil
		}
	}
	return model.Task{}, &taskapi.StatusError{Op: "update task", TaskID: t.ID, StatusCode: 404}
}

func (f *fakeRepo) Delete(ctx context.Context, id model.ID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.tasks {
		if f.tasks[i].ID == id {
			f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
			return nil
		}
	}
	return &taskapi.StatusError{Op: "delete task", TaskID: id, StatusCode: 404}
}

func task(id int64, title string, col model.Column) model.Task {
	return model.Task{ID: model.NumericID(id), Title: title, Column: col}
}

func TestTasks_ServesFromCacheUntilInvalidated(t *testing.T) {
	repo := newFakeRepo(task(1, "a", model.ColumnBacklog))
	c := New(repo, nil)
	ctx := context.Background()

	_, gen, err := c.Tasks(ctx)
	require.NoError(t, err)
	_, gen2, err := c.Tasks(ctx)
	require.NoError(t, err)
	assert.Equal(t, gen, gen2)
	assert.EqualValues(t, 1, repo.listCalls.Load())

	c.Invalidate()
	_, gen3, err := c.Tasks(ctx)
	require.NoError(t, err)
	assert.Greater(t, gen3, gen)
	assert.EqualValues(t, 2, repo.listCalls.Load())
}

func TestTasks_ConcurrentReadsShareOneFetch(t *testing.T) {
	repo := newFakeRepo(task(1, "a", model.ColumnBacklog))
	repo.gate = make(chan struct{})
	c := New(repo, nil)

	const readers = 8
	var wg sync.WaitGroup
	results := make([][]model.Task, readers)
	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tasks, _, err := c.Tasks(context.Background())
			assert.NoError(t, err)
			results[i] = tasks
		}(i)
	}

	require.Eventually(t, func() bool { return repo.listCalls.Load() == 1 && c.Pending() }, time.Second, 5*time.Millisecond)
	// Give the remaining readers time to join the flight before releasing it.
	time.Sleep(20 * time.Millisecond)
	close(repo.gate)
	wg.Wait()

	assert.EqualValues(t, 1, repo.listCalls.Load())
	for _, r := range results {
		assert.Len(t, r, 1)
	}
	assert.False(t, c.Pending())
}

func TestMutations_InvalidateAfterSuccess(t *testing.T) {
	repo := newFakeRepo(task(1, "Fix bug", model.ColumnBacklog))
	c := New(repo, nil)
	ctx := context.Background()

	_, gen, err := c.Tasks(ctx)
	require.NoError(t, err)

	created, err := c.Create.Do(ctx, model.TaskInput{Title: "New", Column: model.ColumnReview})
	require.NoError(t, err)
	assert.Greater(t, c.Generation(), gen)
	assert.False(t, c.Snapshot().Loaded)

	tasks, _, err := c.Tasks(ctx)
	require.NoError(t, err)
	found, ok := model.FindTask(tasks, created.ID)
	require.True(t, ok)
	assert.Equal(t, model.ColumnReview, found.Column)

	moved := found
	moved.Column = model.ColumnDone
	_, err = c.Update.Do(ctx, moved)
	require.NoError(t, err)
	tasks, _, err = c.Tasks(ctx)
	require.NoError(t, err)
	found, _ = model.FindTask(tasks, created.ID)
	assert.Equal(t, model.ColumnDone, found.Column)

	_, err = c.Delete.Do(ctx, created.ID)
	require.NoError(t, err)
	tasks, _, err = c.Tasks(ctx)
	require.NoError(t, err)
	_, ok = model.FindTask(tasks, created.ID)
	assert.False(t, ok)
	assert.EqualValues(t, 4, repo.listCalls.Load())
}

func TestUpdateNotFound_InvalidatesSoViewSelfHeals(t *testing.T) {
	repo := newFakeRepo(task(1, "a", model.ColumnBacklog), task(2, "b", model.ColumnBacklog))
	c := New(repo, nil)
	ctx := context.Background()

	tasks, _, err := c.Tasks(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 2)

	// Task 2 disappears behind the cache's back.
	require.NoError(t, repo.Delete(ctx, model.NumericID(2)))

	stale := tasks[1]
	stale.Column = model.ColumnDone
	_, err = c.Update.Do(ctx, stale)
	require.Error(t, err)
	assert.ErrorIs(t, err, taskapi.ErrNotFound)
	assert.ErrorIs(t, c.Update.Err(), taskapi.ErrNotFound)
	assert.False(t, c.Update.Pending())

	tasks, _, err = c.Tasks(ctx)
	require.NoError(t, err)
	assert.Len(t, tasks, 1)
}

func TestUpdateGenericFailure_AlsoInvalidates(t *testing.T) {
	repo := newFakeRepo(task(1, "a", model.ColumnBacklog))
	repo.updateErr = errors.New("boom")
	c := New(repo, nil)
	ctx := context.Background()

	_, gen, err := c.Tasks(ctx)
	require.NoError(t, err)
	_, err = c.Update.Do(ctx, task(1, "a", model.ColumnDone))
	require.Error(t, err)
	assert.Greater(t, c.Generation(), gen)

	c.Update.Reset()
	assert.NoError(t, c.Update.Err())
}

func TestTasks_ErrorIsRecordedAndClearedOnSuccess(t *testing.T) {
	repo := newFakeRepo(task(1, "a", model.ColumnBacklog))
	repo.listErr = errors.New("down")
	c := New(repo, nil)
	ctx := context.Background()

	_, _, err := c.Tasks(ctx)
	require.Error(t, err)
	assert.Error(t, c.Err())

	repo.mu.Lock()
	repo.listErr = nil
	repo.mu.Unlock()

	c.Invalidate()
	assert.NoError(t, c.Err(), "a new generation starts without the old read error")

	tasks, _, err := c.Refresh(ctx)
	require.NoError(t, err)
	assert.Len(t, tasks, 1)
	assert.NoError(t, c.Err())
	assert.True(t, c.Snapshot().Loaded)
}

func TestTasks_FetchOverlappingWriteIsNotCached(t *testing.T) {
	repo := newFakeRepo(task(1, "a", model.ColumnBacklog))
	repo.gate = make(chan struct{})
	c := New(repo, nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _, _ = c.Tasks(context.Background())
	}()
	require.Eventually(t, func() bool { return repo.listCalls.Load() == 1 }, time.Second, 5*time.Millisecond)

	c.Invalidate()
	close(repo.gate)
	<-done

	assert.False(t, c.Snapshot().Loaded)
}
