package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/UnknownOlympus/anvesh/internal/api"
	"github.com/UnknownOlympus/anvesh/internal/apikey"
	"github.com/UnknownOlympus/anvesh/internal/metrics"
	"github.com/UnknownOlympus/anvesh/internal/models"
	"github.com/UnknownOlympus/anvesh/internal/orchestrator"
	"github.com/UnknownOlympus/anvesh/internal/ratelimit"
	"github.com/UnknownOlympus/anvesh/internal/repository"
	"github.com/UnknownOlympus/anvesh/test/mocks"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	validToken  = "anv_valid"
	adminSecret = "s3cret"
)

type fakeTasks struct {
	mu        sync.Mutex
	created   []models.TaskConfig
	owners    []int64
	createErr error
	tasks     map[string]models.Task
	running   map[string]bool
}

func newFakeTasks() *fakeTasks {
	return &fakeTasks{tasks: map[string]models.Task{}, running: map[string]bool{}}
}

func (f *fakeTasks) Create(cfg models.TaskConfig, owner int64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return "", f.createErr
	}
	f.created = append(f.created, cfg)
	f.owners = append(f.owners, owner)
	id := "task-1"
	f.tasks[id] = models.Task{ID: id, Config: cfg, Status: models.TaskIdle, Running: true}
	return id, nil
}

func (f *fakeTasks) Stop(id string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tasks[id]; !ok {
		return 0, orchestrator.ErrTaskNotFound
	}
	if !f.running[id] {
		return 0, nil
	}
	return 1, nil
}

func (f *fakeTasks) StopAll() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.running)
}

func (f *fakeTasks) Status(id string) (models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	task, ok := f.tasks[id]
	if !ok {
		return models.Task{}, orchestrator.ErrTaskNotFound
	}
	return task, nil
}

func (f *fakeTasks) List() []models.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	tasks := make([]models.Task, 0, len(f.tasks))
	for _, task := range f.tasks {
		tasks = append(tasks, task)
	}
	return tasks
}

func (f *fakeTasks) Stats() orchestrator.Stats {
	return orchestrator.Stats{
		Tasks:       orchestrator.TaskCounts{Total: 3, Running: 1, Completed: 2},
		Active:      orchestrator.ActiveScope{Industries: []string{"bakery"}, Locations: []string{"CityX"}},
		SuccessRate: "66.7%",
	}
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

type harness struct {
	handler http.Handler
	tasks   *fakeTasks
	store   *mocks.KeyStore
	leads   *mocks.LeadStore
	reg     *prometheus.Registry
}

type options struct {
	limiter ratelimit.Limiter
	pingErr error
}

func newHarness(t *testing.T, opts options) *harness {
	t.Helper()
	h := &harness{
		tasks: newFakeTasks(),
		store: mocks.NewKeyStore(t),
		leads: mocks.NewLeadStore(t),
		reg:   prometheus.NewRegistry(),
	}
	log := slog.New(slog.DiscardHandler)
	keys := apikey.NewService(h.store, "anv_", log)

	h.handler = api.NewServer(api.Deps{
		Tasks:       h.tasks,
		Keys:        keys,
		Gate:        apikey.NewGate(keys, opts.limiter),
		Leads:       h.leads,
		DB:          fakePinger{err: opts.pingErr},
		Gatherer:    h.reg,
		AdminSecret: adminSecret,
		Log:         log,
		Metrics:     metrics.NewMetrics(h.reg),
	})
	return h
}

// allowKey makes validToken resolve to an active key with monthly usage used.
func (h *harness) allowKey(tier string, limit, used int) {
	h.store.On("GetAPIKeyByHash", mock.Anything, apikey.Hash(validToken)).
		Return(&models.APIKey{ID: 7, Name: "acme", Tier: tier, MonthlyLimit: limit, IsActive: true}, nil).Maybe()
	h.store.On("MonthlyLeads", mock.Anything, int64(7)).Return(used, nil).Maybe()
}

type response struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   bool            `json:"error"`
}

func (h *harness) do(t *testing.T, method, path, body string, headers map[string]string) (*httptest.ResponseRecorder, response) {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)

	var resp response
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

func userHeaders() map[string]string { return map[string]string{"X-API-Key": validToken} }

func adminHeaders() map[string]string { return map[string]string{"X-Admin-Secret": adminSecret} }

func TestRequireKey(t *testing.T) {
	t.Run("missing header", func(t *testing.T) {
		h := newHarness(t, options{})

		rec, resp := h.do(t, http.MethodGet, "/automation/tasks", "", nil)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.False(t, resp.Success)
		assert.True(t, resp.Error)
		assert.Contains(t, resp.Message, "Missing API key")
	})

	t.Run("unknown key", func(t *testing.T) {
		h := newHarness(t, options{})
		h.store.On("GetAPIKeyByHash", mock.Anything, apikey.Hash("anv_nope")).Return(nil, repository.ErrNotFound).Once()

		rec, resp := h.do(t, http.MethodGet, "/automation/tasks", "", map[string]string{"X-API-Key": "anv_nope"})

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Invalid or expired API key.", resp.Message)
	})

	t.Run("quota exceeded", func(t *testing.T) {
		h := newHarness(t, options{})
		h.allowKey("free", 100, 100)

		rec, resp := h.do(t, http.MethodGet, "/automation/tasks", "", userHeaders())

		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Contains(t, resp.Message, "Monthly quota exceeded")
	})

	t.Run("rate limited", func(t *testing.T) {
		h := newHarness(t, options{limiter: ratelimit.NewLocalLimiter()})
		h.allowKey("free", 100, 0)

		for range 10 {
			rec, _ := h.do(t, http.MethodGet, "/automation/tasks", "", userHeaders())
			require.Equal(t, http.StatusOK, rec.Code)
		}
		rec, resp := h.do(t, http.MethodGet, "/automation/tasks", "", userHeaders())

		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, "60", rec.Header().Get("Retry-After"))
		assert.Contains(t, resp.Message, "Rate limit exceeded")
	})

	t.Run("key store unavailable", func(t *testing.T) {
		h := newHarness(t, options{})
		h.store.On("GetAPIKeyByHash", mock.Anything, apikey.Hash(validToken)).Return(nil, assert.AnError).Once()

		rec, _ := h.do(t, http.MethodGet, "/automation/tasks", "", userHeaders())

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestRequireAdmin(t *testing.T) {
	h := newHarness(t, options{})

	rec, _ := h.do(t, http.MethodGet, "/admin/automation/stats", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, resp := h.do(t, http.MethodGet, "/admin/automation/stats", "", map[string]string{"X-Admin-Secret": "guess"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Invalid admin secret.", resp.Message)

	rec, resp = h.do(t, http.MethodGet, "/admin/automation/stats", "", adminHeaders())
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)
	assert.JSONEq(t, `{
		"timestamp": "0001-01-01T00:00:00Z",
		"tasks": {"total": 3, "running": 1, "completed": 2, "stopped": 0, "error": 0},
		"active_scraping": {"industries": ["bakery"], "locations": ["CityX"]},
		"success_rate": "66.7%"
	}`, string(resp.Data))
}

func TestStartAutomation(t *testing.T) {
	t.Run("task created with unlimited default", func(t *testing.T) {
		h := newHarness(t, options{})
		h.allowKey("pro", 5000, 10)
		h.store.On("LogUsage", mock.Anything, int64(7), models.EndpointStart, 0).Return(nil).Once()

		rec, resp := h.do(t, http.MethodPost, "/automation/start",
			`{"industry":"bakery","locations":["CityX","CityY"]}`, userHeaders())

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.JSONEq(t, `{"task_id":"task-1"}`, string(resp.Data))
		require.Len(t, h.tasks.created, 1)
		assert.Equal(t, models.TaskConfig{
			Industry: "bakery", Locations: []string{"CityX", "CityY"}, LimitPerLocation: models.Unlimited,
		}, h.tasks.created[0])
		assert.Equal(t, []int64{7}, h.tasks.owners)
	})

	t.Run("explicit limit", func(t *testing.T) {
		h := newHarness(t, options{})
		h.allowKey("pro", 5000, 10)
		h.store.On("LogUsage", mock.Anything, int64(7), models.EndpointStart, 0).Return(nil).Once()

		rec, _ := h.do(t, http.MethodPost, "/automation/start",
			`{"industry":"bakery","locations":["CityX"],"limit_per_location":2}`, userHeaders())

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, 2, h.tasks.created[0].LimitPerLocation)
	})

	t.Run("invalid config", func(t *testing.T) {
		h := newHarness(t, options{})
		h.allowKey("pro", 5000, 10)
		h.store.On("LogUsage", mock.Anything, int64(7), models.EndpointStart, 0).Return(nil).Once()
		h.tasks.createErr = errors.Join(orchestrator.ErrInvalidConfig, errors.New("industry is required"))

		rec, resp := h.do(t, http.MethodPost, "/automation/start", `{"locations":["CityX"]}`, userHeaders())

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, resp.Message, "industry is required")
	})

	t.Run("invalid JSON", func(t *testing.T) {
		h := newHarness(t, options{})
		h.allowKey("pro", 5000, 10)

		rec, _ := h.do(t, http.MethodPost, "/automation/start", `{"industry":`, userHeaders())

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Empty(t, h.tasks.created)
	})

	t.Run("usage log failure does not fail the request", func(t *testing.T) {
		h := newHarness(t, options{})
		h.allowKey("pro", 5000, 10)
		h.store.On("LogUsage", mock.Anything, int64(7), models.EndpointStart, 0).Return(assert.AnError).Once()

		rec, _ := h.do(t, http.MethodPost, "/automation/start",
			`{"industry":"bakery","locations":["CityX"]}`, userHeaders())

		assert.Equal(t, http.StatusCreated, rec.Code)
	})
}

func TestStopAutomation(t *testing.T) {
	h := newHarness(t, options{})
	h.allowKey("pro", 5000, 10)
	h.store.On("LogUsage", mock.Anything, int64(7), models.EndpointStop, 0).Return(nil).Twice()

	rec, resp := h.do(t, http.MethodPost, "/automation/stop", "", userHeaders())
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "No running automation found", resp.Message)
	assert.JSONEq(t, `{"tasks_stopped":0}`, string(resp.Data))

	h.tasks.running["a"], h.tasks.running["b"] = true, true
	rec, resp = h.do(t, http.MethodPost, "/automation/stop", "", userHeaders())
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Stop signal sent to 2 tasks", resp.Message)
	assert.JSONEq(t, `{"tasks_stopped":2}`, string(resp.Data))
}

func TestStopTask(t *testing.T) {
	h := newHarness(t, options{})
	h.allowKey("pro", 5000, 10)
	h.tasks.tasks["done"] = models.Task{ID: "done", Status: models.TaskCompleted}
	h.tasks.tasks["live"] = models.Task{ID: "live", Status: models.TaskRunning, Running: true}
	h.tasks.running["live"] = true

	rec, resp := h.do(t, http.MethodPost, "/automation/tasks/missing/stop", "", userHeaders())
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Task not found", resp.Message)

	rec, resp = h.do(t, http.MethodPost, "/automation/tasks/done/stop", "", userHeaders())
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Task is not running", resp.Message)
	assert.JSONEq(t, `{"task_id":"done","status":"completed"}`, string(resp.Data))

	rec, resp = h.do(t, http.MethodPost, "/automation/tasks/live/stop", "", userHeaders())
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Stop signal sent", resp.Message)
}

func TestTaskStatusAndList(t *testing.T) {
	h := newHarness(t, options{})
	h.allowKey("pro", 5000, 10)
	h.tasks.tasks["t1"] = models.Task{
		ID: "t1", Status: models.TaskRunning, Running: true,
		Config: models.TaskConfig{Industry: "bakery", Locations: []string{"CityX"}, LimitPerLocation: 2},
	}

	rec, _ := h.do(t, http.MethodGet, "/automation/tasks/nope", "", userHeaders())
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, resp := h.do(t, http.MethodGet, "/automation/tasks/t1", "", userHeaders())
	require.Equal(t, http.StatusOK, rec.Code)
	var task models.Task
	require.NoError(t, json.Unmarshal(resp.Data, &task))
	assert.Equal(t, models.TaskRunning, task.Status)
	assert.Equal(t, 2, task.Config.LimitPerLocation)

	rec, resp = h.do(t, http.MethodGet, "/automation/tasks", "", userHeaders())
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Tasks []models.Task `json:"tasks"`
		Count int           `json:"count"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &list))
	assert.Equal(t, 1, list.Count)
}

func TestExportLeads(t *testing.T) {
	t.Run("no leads", func(t *testing.T) {
		h := newHarness(t, options{})
		h.allowKey("pro", 5000, 10)
		h.store.On("LogUsage", mock.Anything, int64(7), models.EndpointExport, 0).Return(nil).Once()
		h.leads.On("ListLeads", mock.Anything).Return([]models.Lead{}, nil).Once()

		rec, resp := h.do(t, http.MethodGet, "/automation/export", "", userHeaders())

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "No data found", resp.Message)
		assert.JSONEq(t, `{"count":0}`, string(resp.Data))
	})

	t.Run("csv download", func(t *testing.T) {
		h := newHarness(t, options{})
		h.allowKey("pro", 5000, 10)
		h.store.On("LogUsage", mock.Anything, int64(7), models.EndpointExport, 0).Return(nil).Once()
		h.leads.On("ListLeads", mock.Anything).Return([]models.Lead{{
			ID: 1, BusinessName: "Dough Bros", Industry: "bakery", Category: "Bakery", Location: "CityX",
			Address: "1 Main St", IsClaimed: true, CreatedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		}}, nil).Once()

		rec, _ := h.do(t, http.MethodGet, "/automation/export", "", userHeaders())

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Header().Get("Content-Disposition"), "leads_export.csv")
		lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
		require.Len(t, lines, 2)
		assert.True(t, strings.HasPrefix(lines[0], "id,business_name,industry"))
		assert.Contains(t, lines[1], "Dough Bros")
	})

	t.Run("storage error", func(t *testing.T) {
		h := newHarness(t, options{})
		h.allowKey("pro", 5000, 10)
		h.store.On("LogUsage", mock.Anything, int64(7), models.EndpointExport, 0).Return(nil).Once()
		h.leads.On("ListLeads", mock.Anything).Return(nil, assert.AnError).Once()

		rec, _ := h.do(t, http.MethodGet, "/automation/export", "", userHeaders())

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestAdminKeys(t *testing.T) {
	t.Run("create key", func(t *testing.T) {
		h := newHarness(t, options{})
		h.store.On("CreateAPIKey", mock.Anything, mock.AnythingOfType("*models.APIKey"), mock.AnythingOfType("string")).
			Run(func(args mock.Arguments) {
				key := args.Get(1).(*models.APIKey)
				key.ID = 11
			}).Return(nil).Once()

		rec, resp := h.do(t, http.MethodPost, "/admin/keys", `{"name":"acme","tier":"pro"}`, adminHeaders())

		require.Equal(t, http.StatusCreated, rec.Code)
		var created models.CreatedKey
		require.NoError(t, json.Unmarshal(resp.Data, &created))
		assert.Equal(t, int64(11), created.ID)
		assert.Equal(t, "pro", created.Tier)
		assert.Equal(t, 5000, created.MonthlyLimit)
		assert.True(t, strings.HasPrefix(created.Key, "anv_"))
	})

	t.Run("unknown tier", func(t *testing.T) {
		h := newHarness(t, options{})

		rec, resp := h.do(t, http.MethodPost, "/admin/keys", `{"name":"acme","tier":"platinum"}`, adminHeaders())

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, resp.Message, "unknown tier")
	})

	t.Run("missing name", func(t *testing.T) {
		h := newHarness(t, options{})

		rec, _ := h.do(t, http.MethodPost, "/admin/keys", `{"tier":"pro"}`, adminHeaders())

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("list keys", func(t *testing.T) {
		h := newHarness(t, options{})
		h.store.On("ListAPIKeys", mock.Anything).
			Return([]models.APIKey{{ID: 2, Name: "b", KeyPrefix: "anv_12345678"}, {ID: 1, Name: "a"}}, nil).Once()

		rec, resp := h.do(t, http.MethodGet, "/admin/keys", "", adminHeaders())

		require.Equal(t, http.StatusOK, rec.Code)
		var keys []models.APIKey
		require.NoError(t, json.Unmarshal(resp.Data, &keys))
		require.Len(t, keys, 2)
		assert.Equal(t, int64(2), keys[0].ID)
		assert.NotContains(t, string(resp.Data), `"key"`)
	})

	t.Run("get key", func(t *testing.T) {
		h := newHarness(t, options{})
		h.store.On("GetAPIKey", mock.Anything, int64(3)).Return(&models.APIKey{ID: 3, Name: "c"}, nil).Once()
		h.store.On("GetAPIKey", mock.Anything, int64(4)).Return(nil, repository.ErrNotFound).Once()

		rec, _ := h.do(t, http.MethodGet, "/admin/keys/3", "", adminHeaders())
		assert.Equal(t, http.StatusOK, rec.Code)

		rec, resp := h.do(t, http.MethodGet, "/admin/keys/4", "", adminHeaders())
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "API key not found", resp.Message)

		rec, _ = h.do(t, http.MethodGet, "/admin/keys/abc", "", adminHeaders())
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("key usage", func(t *testing.T) {
		h := newHarness(t, options{})
		h.store.On("UsageStats", mock.Anything, int64(3)).Return(&models.Usage{
			APIKeyID: 3, TotalRequests: 4, TotalLeads: 30, MonthlyLeads: 20, MonthlyLimit: 100, Remaining: 80,
		}, nil).Once()

		rec, resp := h.do(t, http.MethodGet, "/admin/keys/3/usage", "", adminHeaders())

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"api_key_id":3,"total_requests":4,"total_leads":30,"monthly_leads":20,
			"monthly_limit":100,"remaining_quota":80}`, string(resp.Data))
	})

	t.Run("revoke and delete", func(t *testing.T) {
		h := newHarness(t, options{})
		h.store.On("RevokeAPIKey", mock.Anything, int64(3)).Return(nil).Once()
		h.store.On("DeleteAPIKey", mock.Anything, int64(3)).Return(repository.ErrNotFound).Once()

		rec, resp := h.do(t, http.MethodPost, "/admin/keys/3/revoke", "", adminHeaders())
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "API key 3 revoked", resp.Message)

		rec, _ = h.do(t, http.MethodDelete, "/admin/keys/3", "", adminHeaders())
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestAdminAutomation(t *testing.T) {
	h := newHarness(t, options{})
	h.tasks.tasks["t1"] = models.Task{ID: "t1", Status: models.TaskRunning, Running: true}
	h.tasks.running["t1"] = true

	rec, resp := h.do(t, http.MethodGet, "/admin/automation/tasks", "", adminHeaders())
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(resp.Data), `"summary"`)

	rec, resp = h.do(t, http.MethodPost, "/admin/automation/stop-all", "", adminHeaders())
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"tasks_stopped":1}`, string(resp.Data))
}

func TestMe(t *testing.T) {
	h := newHarness(t, options{})
	h.allowKey("pro", 5000, 10)
	h.store.On("GetAPIKey", mock.Anything, int64(7)).Return(&models.APIKey{ID: 7, Name: "acme", Tier: "pro"}, nil).Once()
	h.store.On("UsageStats", mock.Anything, int64(7)).Return(&models.Usage{APIKeyID: 7, MonthlyLeads: 10}, nil).Once()

	rec, resp := h.do(t, http.MethodGet, "/me", "", userHeaders())
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Your API key info", resp.Message)

	rec, resp = h.do(t, http.MethodGet, "/me/usage", "", userHeaders())
	require.Equal(t, http.StatusOK, rec.Code)
	var usage models.Usage
	require.NoError(t, json.Unmarshal(resp.Data, &usage))
	assert.Equal(t, 10, usage.MonthlyLeads)
}

func TestHealthzAndMetrics(t *testing.T) {
	h := newHarness(t, options{})

	rec, _ := h.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())

	rec, _ = h.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `anvesh_http_requests_total{endpoint="/healthz",method="GET",status="200"} 1`)

	down := newHarness(t, options{pingErr: assert.AnError})
	rec, _ = down.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
