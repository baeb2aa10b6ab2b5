package taskapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"taskboard/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, primary, fallback string) *Client {
	t.Helper()
	c, err := New(Options{Primary: primary, Fallback: fallback, Timeout: 2 * time.Second})
	require.NoError(t, err)
	return c
}

// unreachableURL returns the URL of a server that has already been shut down.
func unreachableURL(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(http.NotFoundHandler())
	u := srv.URL
	srv.Close()
	return u + "/tasks"
}

func TestList_NormalizesStringIDs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/tasks", r.URL.Path)
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		_, _ = io.WriteString(w, `[{"id":"1","title":"Fix bug","description":"","column":"backlog"},{"id":2,"title":"Docs","description":"","column":"done"}]`)
	}))
	defer srv.Close()

	tasks, err := newTestClient(t, srv.URL+"/tasks", "").List(context.Background())
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, model.NumericID(1), tasks[0].ID)
	assert.Equal(t, model.NumericID(2), tasks[1].ID)
	assert.Equal(t, model.ColumnBacklog, tasks[0].Column)
}

func TestList_EmptyBodyArray(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[]`)
	}))
	defer srv.Close()

	tasks, err := newTestClient(t, srv.URL+"/tasks", "").List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, tasks)
	assert.Empty(t, tasks)
}

func TestList_FallsBackWhenPrimaryUnreachable(t *testing.T) {
	fallback := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/mock/tasks", r.URL.Path)
		_, _ = io.WriteString(w, `[{"id":"42","title":"From fallback","description":"x","column":"review"}]`)
	}))
	defer fallback.Close()

	c := newTestClient(t, unreachableURL(t), fallback.URL+"/mock/tasks")
	tasks, err := c.List(context.Background())
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, model.NumericID(42), tasks[0].ID)
	assert.Equal(t, "From fallback", tasks[0].Title)
}

func TestCreate_FallsBackOnNonSuccessWithSameRequest(t *testing.T) {
	var primaryReqID atomic.Value
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		primaryReqID.Store(r.Header.Get("X-Request-ID"))
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer primary.Close()

	fallback := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/tasks", r.URL.Path)
		assert.Equal(t, primaryReqID.Load(), r.Header.Get("X-Request-ID"))

		var got model.TaskInput
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, model.ColumnDone, got.Column)
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "7", "title": got.Title, "description": got.Description, "column": got.Column})
	}))
	defer fallback.Close()

	c := newTestClient(t, primary.URL+"/tasks", fallback.URL+"/tasks")
	out, err := c.Create(context.Background(), model.TaskInput{Title: "t", Column: model.ColumnDone})
	require.NoError(t, err)
	assert.Equal(t, model.NumericID(7), out.ID)
}

func TestItemCalls_NeverFallBack(t *testing.T) {
	for _, status := range []int{http.StatusNotFound, http.StatusBadGateway} {
		primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))
		var fallbackHits atomic.Int64
		fallback := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fallbackHits.Add(1)
			_, _ = io.WriteString(w, `{"id":1,"title":"someone else's task","description":"","column":"done"}`)
		}))

		c := newTestClient(t, primary.URL+"/tasks", fallback.URL+"/tasks")
		ctx := context.Background()
		task := model.Task{ID: model.NumericID(1), Title: "mine", Column: model.ColumnReview}

		_, err := c.Update(ctx, task)
		require.Error(t, err, "status %d", status)
		assert.Equal(t, status == http.StatusNotFound, errors.Is(err, ErrNotFound))
		_, err = c.Get(ctx, task.ID)
		require.Error(t, err)
		require.Error(t, c.Delete(ctx, task.ID))
		assert.Zero(t, fallbackHits.Load(), "status %d", status)

		primary.Close()
		fallback.Close()
	}
}

func TestList_NotFoundOnPrimaryIsFinal(t *testing.T) {
	primary := httptest.NewServer(http.NotFoundHandler())
	defer primary.Close()
	var fallbackHits atomic.Int64
	fallback := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fallbackHits.Add(1)
		_, _ = io.WriteString(w, `[]`)
	}))
	defer fallback.Close()

	_, err := newTestClient(t, primary.URL+"/tasks", fallback.URL+"/tasks").List(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Zero(t, fallbackHits.Load())
}

func TestList_NoFallbackConfiguredSurfacesNetworkError(t *testing.T) {
	c := newTestClient(t, unreachableURL(t), "")
	_, err := c.List(context.Background())
	require.Error(t, err)
	assert.True(t, IsNetwork(err), "expected network error, got %T: %v", err, err)
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestUpdate_NotFoundIsDistinguishable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{}`, http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL+"/tasks", "").Update(context.Background(), model.Task{ID: model.NumericID(1), Title: "x", Column: model.ColumnBacklog})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.StatusCode)
	assert.Contains(t, err.Error(), "task with id 1 not found")
}

func TestUpdate_ServerErrorIsGenericStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL+"/tasks", "").Update(context.Background(), model.Task{ID: model.NumericID(1), Title: "x", Column: model.ColumnBacklog})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "500")
}

func TestCreate_PostsInputAndNormalizesResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var in map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		_, hasID := in["id"]
		assert.False(t, hasID, "create body must not carry an id")
		assert.Equal(t, "Write docs", in["title"])
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id":"9","title":"Write docs","description":"","column":"backlog"}`)
	}))
	defer srv.Close()

	out, err := newTestClient(t, srv.URL+"/tasks", "").Create(context.Background(), model.TaskInput{Title: "Write docs", Column: model.ColumnBacklog})
	require.NoError(t, err)
	assert.Equal(t, model.NumericID(9), out.ID)
}

func TestDeleteAndGet_UseItemPath(t *testing.T) {
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Method+" "+r.URL.Path)
		switch r.Method {
		case http.MethodDelete:
			w.WriteHeader(http.StatusOK)
		case http.MethodGet:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL+"/tasks/", "")
	require.NoError(t, c.Delete(context.Background(), model.NumericID(3)))

	_, err := c.Get(context.Background(), model.NumericID(4))
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, []string{"DELETE /tasks/3", "GET /tasks/4"}, seen)
}

func TestNew_RejectsBadEndpoints(t *testing.T) {
	_, err := New(Options{Primary: ""})
	assert.Error(t, err)
	_, err = New(Options{Primary: "ftp://example/tasks"})
	assert.Error(t, err)
	_, err = New(Options{Primary: "http://ok/tasks", Fallback: "::bad"})
	assert.Error(t, err)
}
