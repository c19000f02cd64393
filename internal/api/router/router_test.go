package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cuongbtq/task-service/internal/api/admission"
	"github.com/cuongbtq/task-service/internal/api/handler"
	"github.com/cuongbtq/task-service/internal/api/storage"
	"github.com/cuongbtq/task-service/internal/auth"
	"github.com/cuongbtq/task-service/internal/taskdef"
	"github.com/cuongbtq/task-service/internal/testutil"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePublisher records published task ids instead of touching RabbitMQ.
type fakePublisher struct {
	published []string
	err       error
}

func (p *fakePublisher) PublishTask(_ context.Context, taskID string) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, taskID)
	return nil
}

type testAPI struct {
	router    *gin.Engine
	publisher *fakePublisher
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewDB(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := storage.NewStorage(db)
	registry := taskdef.NewRegistry()
	publisher := &fakePublisher{}

	deps := &handler.Dependencies{
		Logger:    logger,
		Storage:   store,
		Registry:  registry,
		Admission: admission.NewController(registry, store, 5),
		Publisher: publisher,
		Tokens: auth.NewTokenManager(&auth.Config{
			Secret:     "test-secret",
			AccessTTL:  time.Minute,
			RefreshTTL: time.Hour,
		}),
	}

	return &testAPI{
		router:    SetupRouter(deps),
		publisher: publisher,
	}
}

func (a *testAPI) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

// registerAndLogin creates a user and returns an access token for it.
func (a *testAPI) registerAndLogin(t *testing.T, username, email string) string {
	t.Helper()

	w := a.do(t, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"username": username,
		"email":    email,
		"password": "password123",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = a.do(t, http.MethodPost, "/api/v1/auth/token", "", gin.H{
		"email":    email,
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, w.Code)

	return decodeJSON(t, w)["access"].(string)
}

func TestHealthEndpoint(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", decodeJSON(t, w)["status"])
}

func TestRegister(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	body := decodeJSON(t, w)
	assert.Equal(t, "alice", body["username"])
	assert.Equal(t, "alice@example.com", body["email"])
	assert.NotEmpty(t, body["id"])

	t.Run("duplicate email", func(t *testing.T) {
		w := api.do(t, http.MethodPost, "/api/v1/auth/register", "", gin.H{
			"username": "alice2",
			"email":    "alice@example.com",
			"password": "password123",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("short password", func(t *testing.T) {
		w := api.do(t, http.MethodPost, "/api/v1/auth/register", "", gin.H{
			"username": "bob",
			"email":    "bob@example.com",
			"password": "short",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestToken(t *testing.T) {
	api := newTestAPI(t)
	api.registerAndLogin(t, "alice", "alice@example.com")

	t.Run("wrong password", func(t *testing.T) {
		w := api.do(t, http.MethodPost, "/api/v1/auth/token", "", gin.H{
			"email":    "alice@example.com",
			"password": "wrong-password",
		})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("unknown email", func(t *testing.T) {
		w := api.do(t, http.MethodPost, "/api/v1/auth/token", "", gin.H{
			"email":    "nobody@example.com",
			"password": "password123",
		})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("refresh", func(t *testing.T) {
		w := api.do(t, http.MethodPost, "/api/v1/auth/token", "", gin.H{
			"email":    "alice@example.com",
			"password": "password123",
		})
		require.Equal(t, http.StatusOK, w.Code)
		refresh := decodeJSON(t, w)["refresh"].(string)

		w = api.do(t, http.MethodPost, "/api/v1/auth/token/refresh", "", gin.H{
			"refresh": refresh,
		})
		require.Equal(t, http.StatusOK, w.Code)
		assert.NotEmpty(t, decodeJSON(t, w)["access"])
	})
}

func TestTasksRequireAuth(t *testing.T) {
	api := newTestAPI(t)

	for _, path := range []string{"/api/v1/tasks", "/api/v1/tasks/some-id"} {
		w := api.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	}

	w := api.do(t, http.MethodGet, "/api/v1/tasks", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateTask(t *testing.T) {
	api := newTestAPI(t)
	token := api.registerAndLogin(t, "alice", "alice@example.com")

	w := api.do(t, http.MethodPost, "/api/v1/tasks", token, gin.H{
		"task_type":  "sum",
		"input_data": `{"num1": 5, "num2": 7}`,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	body := decodeJSON(t, w)
	assert.Equal(t, "alice", body["user"])
	assert.Equal(t, "sum", body["task_type"])
	assert.Equal(t, "Sum of two numbers", body["task_type_display"])
	assert.Equal(t, "PENDING", body["status"])
	assert.Equal(t, "Scheduled", body["status_display"])
	assert.Nil(t, body["result"])
	assert.Equal(t, map[string]any{"num1": float64(5), "num2": float64(7)}, body["input_data"])

	require.Len(t, api.publisher.published, 1)
	assert.Equal(t, body["id"], api.publisher.published[0])
}

func TestCreateTask_Rejections(t *testing.T) {
	api := newTestAPI(t)
	token := api.registerAndLogin(t, "alice", "alice@example.com")

	tests := []struct {
		name       string
		body       gin.H
		wantStatus int
	}{
		{
			name:       "unknown task type",
			body:       gin.H{"task_type": "shuffle", "input_data": `{}`},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "input_data not json",
			body:       gin.H{"task_type": "sum", "input_data": `not json`},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "input_data not an object",
			body:       gin.H{"task_type": "sum", "input_data": `[1, 2]`},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing input_data",
			body:       gin.H{"task_type": "sum"},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := api.do(t, http.MethodPost, "/api/v1/tasks", token, tt.body)
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}

	t.Run("validation errors are keyed by field", func(t *testing.T) {
		w := api.do(t, http.MethodPost, "/api/v1/tasks", token, gin.H{
			"task_type":  "countdown",
			"input_data": `{"seconds": -1}`,
		})
		require.Equal(t, http.StatusBadRequest, w.Code)

		body := decodeJSON(t, w)
		fieldErrors, ok := body["errors"].(map[string]any)
		require.True(t, ok)
		assert.Contains(t, fieldErrors, "seconds")
	})

	// Nothing rejected above may reach the queue
	assert.Empty(t, api.publisher.published)
}

func TestCreateTask_ActiveLimit(t *testing.T) {
	api := newTestAPI(t)
	token := api.registerAndLogin(t, "alice", "alice@example.com")

	submit := func() *httptest.ResponseRecorder {
		return api.do(t, http.MethodPost, "/api/v1/tasks", token, gin.H{
			"task_type":  "countdown",
			"input_data": `{"seconds": 60}`,
		})
	}

	for i := 0; i < 5; i++ {
		require.Equal(t, http.StatusCreated, submit().Code)
	}

	w := submit()
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t,
		"You can't have more than 5 active tasks at the same time",
		decodeJSON(t, w)["error"],
	)

	// The cap is per user
	other := api.registerAndLogin(t, "bob", "bob@example.com")
	w = api.do(t, http.MethodPost, "/api/v1/tasks", other, gin.H{
		"task_type":  "countdown",
		"input_data": `{"seconds": 60}`,
	})
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestGetTask(t *testing.T) {
	api := newTestAPI(t)
	alice := api.registerAndLogin(t, "alice", "alice@example.com")
	bob := api.registerAndLogin(t, "bob", "bob@example.com")

	w := api.do(t, http.MethodPost, "/api/v1/tasks", alice, gin.H{
		"task_type":  "sum",
		"input_data": `{"num1": 1, "num2": 2}`,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	taskID := decodeJSON(t, w)["id"].(string)

	t.Run("owner sees the task", func(t *testing.T) {
		w := api.do(t, http.MethodGet, "/api/v1/tasks/"+taskID, alice, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, taskID, decodeJSON(t, w)["id"])
	})

	t.Run("foreign task looks missing", func(t *testing.T) {
		w := api.do(t, http.MethodGet, "/api/v1/tasks/"+taskID, bob, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("malformed id looks missing", func(t *testing.T) {
		w := api.do(t, http.MethodGet, "/api/v1/tasks/not-a-uuid", alice, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestListTasks(t *testing.T) {
	api := newTestAPI(t)
	alice := api.registerAndLogin(t, "alice", "alice@example.com")
	bob := api.registerAndLogin(t, "bob", "bob@example.com")

	var created []string
	for i := 0; i < 3; i++ {
		w := api.do(t, http.MethodPost, "/api/v1/tasks", alice, gin.H{
			"task_type":  "sum",
			"input_data": fmt.Sprintf(`{"num1": %d, "num2": 1}`, i),
		})
		require.Equal(t, http.StatusCreated, w.Code)
		created = append(created, decodeJSON(t, w)["id"].(string))
	}

	w := api.do(t, http.MethodPost, "/api/v1/tasks", bob, gin.H{
		"task_type":  "sum",
		"input_data": `{"num1": 9, "num2": 9}`,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	t.Run("owner-scoped list", func(t *testing.T) {
		w := api.do(t, http.MethodGet, "/api/v1/tasks", alice, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var tasks []map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tasks))
		require.Len(t, tasks, 3)
		for _, task := range tasks {
			assert.Equal(t, "alice", task["user"])
			assert.Contains(t, created, task["id"])
		}
	})

	t.Run("status filter", func(t *testing.T) {
		w := api.do(t, http.MethodGet, "/api/v1/tasks?status=PENDING", alice, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var tasks []map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tasks))
		assert.Len(t, tasks, 3)

		w = api.do(t, http.MethodGet, "/api/v1/tasks?status=COMPLETED", alice, nil)
		require.Equal(t, http.StatusOK, w.Code)
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tasks))
		assert.Empty(t, tasks)
	})

	t.Run("unknown status", func(t *testing.T) {
		w := api.do(t, http.MethodGet, "/api/v1/tasks?status=RUNNING", alice, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestCreateTask_PublishFailureStillCreates(t *testing.T) {
	api := newTestAPI(t)
	token := api.registerAndLogin(t, "alice", "alice@example.com")
	api.publisher.err = fmt.Errorf("broker unavailable")

	w := api.do(t, http.MethodPost, "/api/v1/tasks", token, gin.H{
		"task_type":  "sum",
		"input_data": `{"num1": 5, "num2": 7}`,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	// The task stays PENDING and visible even though the hand-off failed
	taskID := decodeJSON(t, w)["id"].(string)
	w = api.do(t, http.MethodGet, "/api/v1/tasks/"+taskID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "PENDING", decodeJSON(t, w)["status"])
}
