package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/example/task-tracker/modules/api"
	"github.com/example/task-tracker/modules/task"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (l nopLogger) Debug(string, ...any)           {}
func (l nopLogger) Info(string, ...any)            {}
func (l nopLogger) Warn(string, ...any)            {}
func (l nopLogger) Error(string, ...any)           {}
func (l nopLogger) With(...any) types.Logger       { return l }
func (l nopLogger) WithModule(string) types.Logger { return l }
func (l nopLogger) WithError(error) types.Logger   { return l }

// newTestServer runs the real API over in-memory SQLite.
func newTestServer(t *testing.T) string {
	t.Helper()

	repo, err := task.OpenSQLite(":memory:", false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	app := api.NewApp(api.Config{TasksPath: "/tasks", AllowedOrigin: "http://localhost:5173"},
		task.NewService(repo), nopLogger{}, nil)
	srv := httptest.NewServer(adaptor.FiberApp(app))
	t.Cleanup(srv.Close)

	return srv.URL + "/tasks"
}

func TestClient_Lifecycle(t *testing.T) {
	for _, tc := range []struct {
		name string
		opts []Option
	}{
		{"tunnelled", nil},
		{"direct methods", []Option{WithDirectMethods()}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			c := New(newTestServer(t), tc.opts...)
			ctx := context.Background()
			due := time.Date(2026, 11, 20, 9, 0, 0, 0, time.UTC)
			start := time.Now()

			created, err := c.Create(ctx, Draft{Name: "Renew passport", DueDate: &due})
			require.NoError(t, err)
			assert.Positive(t, created.ID)
			assert.Equal(t, StatusPending, created.Status)
			require.NotNil(t, created.DueDate)
			assert.True(t, created.DueDate.Equal(due))
			assert.False(t, created.CreatedAt.Before(start))

			got, err := c.Get(ctx, created.ID)
			require.NoError(t, err)
			assert.Equal(t, created.Name, got.Name)
			assert.True(t, got.CreatedAt.Equal(created.CreatedAt))

			status := StatusInProgress
			updated, err := c.Update(ctx, created.ID, Changes{Status: &status})
			require.NoError(t, err)
			assert.Equal(t, StatusInProgress, updated.Status)
			assert.Equal(t, "Renew passport", updated.Name)
			require.NotNil(t, updated.DueDate)

			cleared, err := c.Update(ctx, created.ID, Changes{DueDateSet: true})
			require.NoError(t, err)
			assert.Nil(t, cleared.DueDate)

			msg, err := c.Delete(ctx, created.ID)
			require.NoError(t, err)
			assert.Equal(t, "Task deleted successfully", msg)

			_, err = c.Delete(ctx, created.ID)
			assert.True(t, IsNotFound(err))

			tasks, err := c.List(ctx)
			require.NoError(t, err)
			assert.Empty(t, tasks)
		})
	}
}

func TestClient_ListOrder(t *testing.T) {
	c := New(newTestServer(t))
	ctx := context.Background()

	first, err := c.Create(ctx, Draft{Name: "first"})
	require.NoError(t, err)
	second, err := c.Create(ctx, Draft{Name: "second", Status: StatusCompleted})
	require.NoError(t, err)

	tasks, err := c.List(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, second.ID, tasks[0].ID)
	assert.Equal(t, first.ID, tasks[1].ID)
	assert.Equal(t, StatusCompleted, tasks[0].Status)
}

func TestClient_ValidationError(t *testing.T) {
	c := New(newTestServer(t))

	_, err := c.Create(context.Background(), Draft{})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "Missing required field: name", apiErr.Message)
}

func TestClient_ErrorBodies(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantMessage string
	}{
		{"error key", http.StatusBadRequest, `{"error":"Missing id for update"}`, "Missing id for update"},
		{"message key", http.StatusNotFound, `{"message":"Todo item not found"}`, "Todo item not found"},
		{"not json", http.StatusBadGateway, `<html>bad gateway</html>`, "Failed to fetch tasks"},
		{"empty object", http.StatusInternalServerError, `{}`, "Failed to fetch tasks"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := New(srv.URL).List(context.Background())
			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr), "got %v", err)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.wantMessage, apiErr.Message)
		})
	}
}

func TestClient_ParsesDatetimeStrings(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=UTF-8")
		_, _ = w.Write([]byte(`[{"id":4,"name":"Legacy","due_date":"2026-01-05 08:00:00","status":"pending","created_at":"2026-01-01 10:11:12"}]`))
	}))
	defer srv.Close()

	tasks, err := New(srv.URL).List(context.Background())
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.True(t, tasks[0].CreatedAt.Equal(time.Date(2026, 1, 1, 10, 11, 12, 0, time.UTC)))
	require.NotNil(t, tasks[0].DueDate)
	assert.Equal(t, 5, tasks[0].DueDate.Day())
}

func TestClient_TunnelledRequestShape(t *testing.T) {
	var gotMethod, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		data, _ := io.ReadAll(r.Body)
		gotBody = string(data)
		_, _ = w.Write([]byte(`{"message":"Task deleted successfully"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).Delete(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.JSONEq(t, `{"_method":"DELETE","id":9}`, gotBody)
}

func TestClient_SendsSubsecondDueDate(t *testing.T) {
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		gotBody = string(data)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":1,"name":"Precise","due_date":"2026-11-20T09:00:00.123456789Z","status":"pending","created_at":"2026-10-17T08:00:00Z"}`))
	}))
	defer srv.Close()

	due := time.Date(2026, 11, 20, 10, 0, 0, 123456789, time.FixedZone("CET", 3600))
	created, err := New(srv.URL).Create(context.Background(), Draft{Name: "Precise", DueDate: &due})
	require.NoError(t, err)

	assert.JSONEq(t, `{"name":"Precise","due_date":"2026-11-20T09:00:00.123456789Z"}`, gotBody)
	require.NotNil(t, created.DueDate)
	assert.True(t, due.Equal(*created.DueDate))
}
