package devserver

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"taskboard/internal/model"
	"taskboard/internal/store"
	"taskboard/internal/taskapi"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, opts Options) *httptest.Server {
	t.Helper()
	st, err := store.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "tasks.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	srv := httptest.NewServer(New(st, opts).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func TestServer_CRUDThroughClient(t *testing.T) {
	srv := newTestServer(t, Options{RequestTimeout: time.Second})
	c, err := taskapi.New(taskapi.Options{Primary: srv.URL + "/tasks"})
	require.NoError(t, err)
	ctx := context.Background()

	tasks, err := c.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, tasks)

	created, err := c.Create(ctx, model.TaskInput{Title: "Fix bug", Column: model.ColumnBacklog})
	require.NoError(t, err)
	assert.True(t, created.ID.IsNumeric())

	created.Column = model.ColumnReview
	updated, err := c.Update(ctx, created)
	require.NoError(t, err)
	assert.Equal(t, model.ColumnReview, updated.Column)

	got, err := c.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, updated, got)

	require.NoError(t, c.Delete(ctx, created.ID))

	_, err = c.Update(ctx, created)
	assert.ErrorIs(t, err, taskapi.ErrNotFound)
	_, err = c.Get(ctx, created.ID)
	assert.ErrorIs(t, err, taskapi.ErrNotFound)
}

func TestServer_StringIDsAreNormalizedByClient(t *testing.T) {
	srv := newTestServer(t, Options{StringIDs: true})
	c, err := taskapi.New(taskapi.Options{Primary: srv.URL + "/tasks"})
	require.NoError(t, err)
	ctx := context.Background()

	_, err = c.Create(ctx, model.TaskInput{Title: "a", Column: model.ColumnDone})
	require.NoError(t, err)

	resp, err := http.Get(srv.URL + "/tasks")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Contains(t, string(body), `"id":"1"`)

	tasks, err := c.List(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, model.NumericID(1), tasks[0].ID)
}

func TestServer_RejectsInvalidBodies(t *testing.T) {
	srv := newTestServer(t, Options{})

	cases := []struct {
		name string
		body string
		want string
	}{
		{"blank title", `{"title":"   ","column":"backlog"}`, "title"},
		{"unknown column", `{"title":"x","column":"icebox"}`, "column"},
		{"bad json", `{"title":`, "invalid JSON"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := http.Post(srv.URL+"/tasks", "application/json", strings.NewReader(tc.body))
			require.NoError(t, err)
			defer resp.Body.Close()
			b, _ := io.ReadAll(resp.Body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Contains(t, string(b), tc.want)
			assert.Equal(t, "application/json; charset=utf-8", resp.Header.Get("Content-Type"))
		})
	}
}

func TestServer_UnknownIDIs404(t *testing.T) {
	srv := newTestServer(t, Options{})
	for _, path := range []string{"/tasks/42", "/tasks/not-a-number"} {
		req, err := http.NewRequest(http.MethodDelete, srv.URL+path, nil)
		require.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		_ = resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, path)
	}
}

func TestServer_CreateDefaultsColumnAndTrims(t *testing.T) {
	srv := newTestServer(t, Options{})
	resp, err := http.Post(srv.URL+"/tasks", "application/json", strings.NewReader(`{"title":"  Plan  ","description":" d "}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	b, _ := io.ReadAll(resp.Body)
	assert.JSONEq(t, `{"id":1,"title":"Plan","description":"d","column":"backlog"}`, string(b))
}

func TestServer_ServeStopsOnCancel(t *testing.T) {
	st, err := store.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "tasks.sqlite"))
	require.NoError(t, err)
	defer st.Close()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- New(st, Options{}).Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/health")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
