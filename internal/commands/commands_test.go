package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dataapi "github.com/gaborage/dataapi-go"
	"github.com/gaborage/dataapi-go/internal/testserver"
)

func run(t *testing.T, env []string, args ...string) (string, error) {
	t.Helper()
	opts := &RootOptions{
		environ:    func() []string { return env },
		clientOpts: []dataapi.Option{dataapi.WithSleeper(func(context.Context, time.Duration) error { return nil })},
	}
	cmd := newRootCommand("v1.2.3", opts)
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, nil, "version")
	require.NoError(t, err)
	assert.Equal(t, "dataapi version v1.2.3\nBuilt with "+runtime.Version()+" "+runtime.GOOS+"/"+runtime.GOARCH+"\n", out)
}

func TestHealthCommand(t *testing.T) {
	srv := testserver.New(t)
	srv.Handle(http.MethodHead, "/health", testserver.Status(http.StatusOK))
	srv.Handle(http.MethodGet, "/health", testserver.JSON(http.StatusOK, map[string]any{"status": "UP"}))
	srv.Handle(http.MethodGet, "/version", testserver.JSON(http.StatusOK, map[string]any{"version": "2.0.0"}))

	out, err := run(t, nil, "health", "--base-url", srv.URL())
	require.NoError(t, err)
	assert.Contains(t, out, "Status:  UP")
	assert.Contains(t, out, "Version: 2.0.0")
}

func TestHealthCommandDown(t *testing.T) {
	srv := testserver.New(t)
	srv.Handle(http.MethodHead, "/health", testserver.Status(http.StatusOK))
	srv.Handle(http.MethodGet, "/health", testserver.JSON(http.StatusOK, map[string]any{"status": "DOWN"}))
	srv.Handle(http.MethodGet, "/version", testserver.JSON(http.StatusOK, map[string]any{"version": "2.0.0"}))

	_, err := run(t, nil, "health", "--base-url", srv.URL())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"DOWN"`)
}

func TestHealthCommandUnreachable(t *testing.T) {
	srv := testserver.New(t)
	url := srv.URL()
	srv.Close()

	_, err := run(t, nil, "health", "--base-url", url)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server unreachable")
}

func TestWorkflowsListCommand(t *testing.T) {
	srv := testserver.New(t)
	srv.Handle(http.MethodGet, "/workflows", testserver.JSON(http.StatusOK, map[string]any{
		"content": []map[string]any{
			{"id": "w1", "name": "etl", "status": "ACTIVE", "projectId": "p1"},
		},
		"pageNumber": 0, "pageSize": 5, "totalElements": 1, "totalPages": 1,
		"first": true, "last": true, "empty": false,
	}))

	out, err := run(t, []string{"DATAAPI_AUTH_TYPE=apikey", "DATAAPI_AUTH_APIKEY=k-9"},
		"workflows", "list", "--base-url", srv.URL(), "--project", "p1", "--size", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "etl")
	assert.Contains(t, out, "page 1 of 1, 1 total")

	last := srv.Last()
	assert.Equal(t, "p1", last.Query.Get("projectId"))
	assert.Equal(t, "5", last.Query.Get("size"))
	assert.Equal(t, "k-9", last.Header.Get("X-API-Key"))
}

func TestWorkflowsStatusRejectsBadID(t *testing.T) {
	srv := testserver.New(t)

	_, err := run(t, nil, "workflows", "status", "../x", "--base-url", srv.URL())
	require.Error(t, err)
	assert.Empty(t, srv.Requests())
}

func TestConfigCommandMasksSecrets(t *testing.T) {
	out, err := run(t, []string{"DATAAPI_AUTH_TYPE=bearer", "DATAAPI_AUTH_TOKEN=super-secret"}, "config")
	require.NoError(t, err)
	assert.NotContains(t, out, "super-secret")

	var cfg map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &cfg))
	assert.Equal(t, "bearer", cfg["auth.type"])
	assert.Equal(t, "***", cfg["auth.token"])
}

func TestConfigCommandReportsInvalidConfig(t *testing.T) {
	_, err := run(t, []string{"DATAAPI_RETRY_MAX=99"}, "config")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "retry.max")
}

func TestSchemaCommand(t *testing.T) {
	out, err := run(t, nil, "schema")
	require.NoError(t, err)
	assert.Contains(t, out, "workflow-create\n")

	out, err = run(t, nil, "schema", "connection")
	require.NoError(t, err)
	assert.Contains(t, out, "port")
	assert.Contains(t, out, "oneof=postgresql mysql oracle sqlserver mongodb")

	_, err = run(t, nil, "schema", "nope")
	require.Error(t, err)
}
