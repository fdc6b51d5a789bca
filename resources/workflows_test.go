package resources

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaborage/dataapi-go/apierror"
	"github.com/gaborage/dataapi-go/internal/testserver"
	"github.com/gaborage/dataapi-go/types"
)

func TestWorkflowListFiltersByProject(t *testing.T) {
	set, srv := newTestSet(t)
	srv.Handle(http.MethodGet, "/workflows/findAll", testserver.JSON(http.StatusOK, []map[string]any{
		{"id": "w1", "name": "etl", "createTime": "2024-03-01T10:00:00"},
	}))

	list, err := set.Workflows.List(context.Background(), WorkflowQuery{ProjectID: "p1"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "etl", list[0].Name)
	assert.Equal(t, 2024, list[0].CreateTime.Year())
	assert.Equal(t, "p1", srv.Last().Query.Get("projectId"))
}

func TestWorkflowCreateValidatesBeforeSending(t *testing.T) {
	set, srv := newTestSet(t)

	_, err := set.Workflows.Create(context.Background(), WorkflowCreateRequest{Name: "etl"})
	require.Error(t, err)
	assert.True(t, apierror.IsKind(err, apierror.KindValidation))
	assert.Empty(t, srv.Requests())
}

func TestWorkflowCreateIsNotRetried(t *testing.T) {
	set, srv := newTestSet(t)
	srv.Handle(http.MethodPost, "/workflows", testserver.Status(http.StatusServiceUnavailable))

	_, err := set.Workflows.Create(context.Background(), WorkflowCreateRequest{
		Name: "etl", Definition: "{}", ProjectID: "p1",
	})
	require.Error(t, err)
	assert.True(t, apierror.IsKind(err, apierror.KindServer))
	assert.Equal(t, 1, srv.Calls(http.MethodPost, "/workflows"))
}

func TestWorkflowUpdateSendsOnlyPresentFields(t *testing.T) {
	set, srv := newTestSet(t)
	srv.Handle(http.MethodPut, "/workflows/:id", testserver.JSON(http.StatusOK, map[string]any{"id": "w1", "name": "renamed"}))

	wf, err := set.Workflows.Update(context.Background(), "w1", WorkflowUpdateRequest{
		Name:        types.Some("renamed"),
		Description: types.Null[string](),
	})
	require.NoError(t, err)
	assert.Equal(t, "renamed", wf.Name)

	var body map[string]any
	require.NoError(t, srv.Last().Decode(&body))
	assert.Equal(t, map[string]any{"name": "renamed", "description": nil}, body)
}

func TestWorkflowExistsMapsNotFound(t *testing.T) {
	set, srv := newTestSet(t)
	srv.Handle(http.MethodHead, "/workflows/:id", testserver.Status(http.StatusNotFound))

	ok, err := set.Workflows.Exists(context.Background(), "gone")
	require.NoError(t, err)
	assert.False(t, ok)

	srv.Handle(http.MethodHead, "/workflows/:id", testserver.Status(http.StatusOK))
	ok, err = set.Workflows.Exists(context.Background(), "here")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestWorkflowExecuteAndStatus(t *testing.T) {
	set, srv := newTestSet(t)
	srv.Handle(http.MethodPost, "/workflows/:id/execute", testserver.JSON(http.StatusOK, map[string]any{
		"taskId": "t-1", "status": "RUNNING",
	}))
	srv.Handle(http.MethodGet, "/workflow/status/:task", testserver.JSON(http.StatusOK, map[string]any{
		"taskId": "t-1", "status": "COMPLETED", "progress": 1.0, "result": map[string]any{"rows": 42},
	}))

	res, err := set.Workflows.Execute(context.Background(), "w1", ExecutionRequest{
		InitialData:    types.Object(map[string]types.Value{"limit": types.Int(10)}),
		TimeoutMinutes: types.Some(5),
	})
	require.NoError(t, err)
	assert.Equal(t, "t-1", res.TaskID)

	var body map[string]any
	require.NoError(t, srv.Last().Decode(&body))
	assert.Equal(t, map[string]any{"limit": float64(10)}, body["initialData"])
	assert.Equal(t, float64(5), body["timeoutMinutes"])

	status, err := set.Workflows.Status(context.Background(), res.TaskID)
	require.NoError(t, err)
	assert.True(t, status.Terminal())
	rows, ok := status.Result.Field("rows")
	require.True(t, ok)
	n, _ := rows.AsInt()
	assert.Equal(t, int64(42), n)
}

func TestWorkflowStopRetriesServerErrors(t *testing.T) {
	set, srv := newTestSet(t)
	srv.Handle(http.MethodPost, "/workflow/stop/:task",
		testserver.Status(http.StatusServiceUnavailable),
		testserver.Status(http.StatusNoContent),
	)

	require.NoError(t, set.Workflows.Stop(context.Background(), "t-1"))
	assert.Equal(t, 2, srv.Calls(http.MethodPost, "/workflow/stop/t-1"))
}

func TestWorkflowLogs(t *testing.T) {
	set, srv := newTestSet(t)
	srv.Handle(http.MethodGet, "/workflow/logs/:task", testserver.JSON(http.StatusOK, []map[string]any{
		{"timestamp": 1709287200000, "level": "INFO", "message": "started"},
		{"timestamp": "2024-03-01 10:00:05", "level": "ERROR", "nodeId": "n2", "message": "boom"},
	}))

	logs, err := set.Workflows.Logs(context.Background(), "t-1")
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "n2", logs[1].NodeID)
	assert.False(t, logs[0].Timestamp.IsZero())
}
