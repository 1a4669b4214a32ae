package googletasks

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tasksync/internal/service"
)

const tasksBase = "/tasks/v1/lists/@default/tasks"

// fakeAPI serves a minimal subset of the Google Tasks REST surface.
type fakeAPI struct {
	mu      sync.Mutex
	tasks   map[string]map[string]any
	order   []string
	patches []map[string]any
	status  int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{tasks: map[string]map[string]any{}}
}

func (f *fakeAPI) add(id, title, status string) {
	f.tasks[id] = map[string]any{"id": id, "title": title, "status": status}
	f.order = append(f.order, id)
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if f.status != 0 {
		w.WriteHeader(f.status)
		json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"code": f.status, "message": "injected"}})
		return
	}

	path := r.URL.Path
	if !strings.HasPrefix(path, tasksBase) {
		http.NotFound(w, r)
		return
	}
	id := strings.TrimPrefix(strings.TrimPrefix(path, tasksBase), "/")

	var body map[string]any
	if r.Body != nil {
		data, _ := io.ReadAll(r.Body)
		if len(data) > 0 {
			json.Unmarshal(data, &body)
		}
	}

	switch {
	case r.Method == http.MethodGet && id == "":
		items := []map[string]any{}
		for _, key := range f.order {
			items = append(items, f.tasks[key])
		}
		json.NewEncoder(w).Encode(map[string]any{"items": items})
	case r.Method == http.MethodPost && id == "":
		newID := "t" + string(rune('0'+len(f.order)+1))
		body["id"] = newID
		if body["status"] == nil {
			body["status"] = "needsAction"
		}
		f.tasks[newID] = body
		f.order = append(f.order, newID)
		json.NewEncoder(w).Encode(body)
	case id != "" && f.tasks[id] == nil:
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"code": 404, "message": "Task not found"}})
	case r.Method == http.MethodGet:
		json.NewEncoder(w).Encode(f.tasks[id])
	case r.Method == http.MethodPatch:
		f.patches = append(f.patches, body)
		for k, v := range body {
			f.tasks[id][k] = v
		}
		json.NewEncoder(w).Encode(f.tasks[id])
	case r.Method == http.MethodDelete:
		delete(f.tasks, id)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newTestClient(t *testing.T, api *fakeAPI) *Client {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	c, err := NewWithHTTPClient(context.Background(), srv.Client(), srv.URL+"/")
	require.NoError(t, err)
	return c
}

func TestListTasks(t *testing.T) {
	api := newFakeAPI()
	api.add("a", "Buy milk", "needsAction")
	api.add("b", "Walk dog", "completed")
	c := newTestClient(t, api)

	got, err := c.ListTasks(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, service.StringID("a"), got[0].ID)
	assert.Equal(t, "Buy milk", got[0].Title)
	assert.False(t, got[0].IsCompleted.Done())
	assert.True(t, got[1].IsCompleted.Done())
}

func TestCreateTask(t *testing.T) {
	api := newFakeAPI()
	c := newTestClient(t, api)

	got, err := c.CreateTask(context.Background(), service.Draft{Title: "New", Description: "notes"})
	require.NoError(t, err)

	assert.False(t, got.ID.IsZero())
	assert.Equal(t, "New", got.Title)
	assert.Equal(t, "notes", got.Description)
	assert.False(t, got.IsCompleted.Done())
}

func TestUpdateTask_SendsEmptyNotes(t *testing.T) {
	api := newFakeAPI()
	api.add("a", "Old", "needsAction")
	api.tasks["a"]["notes"] = "stale"
	c := newTestClient(t, api)

	prev := service.Task{ID: service.StringID("a"), Title: "Old", Description: "stale"}
	got, err := c.UpdateTask(context.Background(), prev, service.Draft{Title: "Renamed"})
	require.NoError(t, err)

	assert.Equal(t, "Renamed", got.Title)
	assert.Empty(t, got.Description)
	require.Len(t, api.patches, 1)
	assert.Contains(t, api.patches[0], "notes")
}

func TestToggleTask(t *testing.T) {
	api := newFakeAPI()
	api.add("a", "Open", "needsAction")
	api.add("b", "Done", "completed")
	c := newTestClient(t, api)

	res, err := c.ToggleTask(context.Background(), service.StringID("a"))
	require.NoError(t, err)
	assert.True(t, res.Known)
	assert.True(t, res.IsCompleted.Done())

	res, err = c.ToggleTask(context.Background(), service.StringID("b"))
	require.NoError(t, err)
	assert.False(t, res.IsCompleted.Done())
	assert.Equal(t, "needsAction", api.tasks["b"]["status"])
}

func TestDeleteTask(t *testing.T) {
	api := newFakeAPI()
	api.add("a", "Gone", "needsAction")
	c := newTestClient(t, api)

	require.NoError(t, c.DeleteTask(context.Background(), service.StringID("a")))
	assert.NotContains(t, api.tasks, "a")
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"unauthorized", http.StatusUnauthorized, service.ErrAuthExpired},
		{"forbidden", http.StatusForbidden, service.ErrAuthExpired},
		{"not found", http.StatusNotFound, service.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newFakeAPI()
			api.status = tt.status
			c := newTestClient(t, api)

			_, err := c.ListTasks(context.Background())
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestToggleUnknownTask(t *testing.T) {
	c := newTestClient(t, newFakeAPI())

	_, err := c.ToggleTask(context.Background(), service.StringID("missing"))
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestBadRequestIsNotAuth(t *testing.T) {
	api := newFakeAPI()
	api.status = http.StatusBadRequest
	c := newTestClient(t, api)

	err := c.DeleteTask(context.Background(), service.StringID("a"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, service.ErrAuthExpired)
	assert.NotErrorIs(t, err, service.ErrNotFound)
}
