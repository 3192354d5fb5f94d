package jobs

import (
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubInspector struct {
	info *asynq.QueueInfo
	err  error
}

func (s stubInspector) GetQueueInfo(queue string) (*asynq.QueueInfo, error) {
	return s.info, s.err
}

func serveHealth(t *testing.T, h *Handler) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	h.MountRoutes(r)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	return rr
}

func TestJobsHealthWithoutInspector(t *testing.T) {
	rr := serveHealth(t, NewHandler(nil, nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"queue":"default","pending":0,"active":0,"failed":0}`, rr.Body.String())
}

func TestJobsHealthReportsQueue(t *testing.T) {
	rr := serveHealth(t, NewHandler(stubInspector{info: &asynq.QueueInfo{Queue: "default", Pending: 2, Active: 1, Failed: 4}}, slog.Default()))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"queue":"default","pending":2,"active":1,"failed":4}`, rr.Body.String())
}

func TestJobsHealthInspectorFailure(t *testing.T) {
	rr := serveHealth(t, NewHandler(stubInspector{err: errors.New("NOAUTH")}, nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Equal(t, "application/problem+json", rr.Header().Get("Content-Type"))
}

func TestNewWorkerRejectsIncompleteHandler(t *testing.T) {
	_, err := NewWorker(WorkerConfig{Handlers: []TaskHandler{{Type: TaskReportWarmup}}})
	require.ErrorContains(t, err, "report:warmup")
}

func TestNewReportWarmupTaskPayload(t *testing.T) {
	task, err := NewReportWarmupTask(true)
	require.NoError(t, err)
	assert.Equal(t, TaskReportWarmup, task.Type())
	assert.JSONEq(t, `{"refresh":true}`, string(task.Payload()))
}
