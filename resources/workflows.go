package resources

import (
	"context"
	"net/http"

	"github.com/gaborage/dataapi-go/httpclient"
	"github.com/gaborage/dataapi-go/page"
	"github.com/gaborage/dataapi-go/types"
	"github.com/gaborage/dataapi-go/validation"
)

const (
	workflowsPath = "/workflows"
	executionPath = "/workflow"
)

// Workflow is a stored workflow definition.
type Workflow struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Definition  string          `json:"definition,omitempty"`
	ProjectID   string          `json:"projectId,omitempty"`
	UserID      string          `json:"userId,omitempty"`
	Status      string          `json:"status,omitempty"`
	Version     string          `json:"version,omitempty"`
	CreateTime  types.Timestamp `json:"createTime"`
	UpdateTime  types.Timestamp `json:"updateTime"`
}

// WorkflowCreateRequest is the body of Create.
type WorkflowCreateRequest struct {
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description,omitempty" validate:"max=2000"`
	Definition  string `json:"definition" validate:"required"`
	ProjectID   string `json:"projectId" validate:"required,resource_id"`
	UserID      string `json:"userId,omitempty" validate:"omitempty,resource_id"`
}

// WorkflowUpdateRequest is the body of Update. Absent fields are left
// unchanged; an explicit null clears the description.
type WorkflowUpdateRequest struct {
	Name        types.Optional[string] `json:"name,omitzero"`
	Description types.Optional[string] `json:"description,omitzero"`
	Definition  types.Optional[string] `json:"definition,omitzero"`
	ProjectID   string                 `json:"projectId,omitempty" validate:"omitempty,resource_id"`
	UserID      string                 `json:"userId,omitempty" validate:"omitempty,resource_id"`
}

// ExecutionRequest starts a workflow run.
type ExecutionRequest struct {
	ProjectID          string              `json:"projectId,omitempty" validate:"omitempty,resource_id"`
	UserID             string              `json:"userId,omitempty" validate:"omitempty,resource_id"`
	WorkflowDefinition string              `json:"workflowDefinition,omitempty"`
	InitialData        types.Value         `json:"initialData"`
	TimeoutMinutes     types.Optional[int] `json:"timeoutMinutes,omitzero"`
}

// ExecutionResult acknowledges a started run.
type ExecutionResult struct {
	TaskID  string `json:"taskId"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// ExecutionStatus reports the progress of a run.
type ExecutionStatus struct {
	TaskID      string          `json:"taskId"`
	Status      string          `json:"status"`
	Progress    float64         `json:"progress"`
	StartedAt   types.Timestamp `json:"startedAt"`
	CompletedAt types.Timestamp `json:"completedAt"`
	Error       string          `json:"error,omitempty"`
	Result      types.Value     `json:"result"`
}

// Terminal reports whether the run has finished.
func (s ExecutionStatus) Terminal() bool {
	switch s.Status {
	case "COMPLETED", "FAILED", "STOPPED", "CANCELLED":
		return true
	}
	return false
}

// ExecutionLog is one log line of a run.
type ExecutionLog struct {
	Timestamp types.Timestamp `json:"timestamp"`
	Level     string          `json:"level"`
	NodeID    string          `json:"nodeId,omitempty"`
	Message   string          `json:"message"`
}

// WorkflowQuery filters workflow listings.
type WorkflowQuery struct {
	ProjectID string `validate:"omitempty,resource_id"`
	UserID    string `validate:"omitempty,resource_id"`
}

func (q WorkflowQuery) options() []httpclient.RequestOption {
	var opts []httpclient.RequestOption
	if q.ProjectID != "" {
		opts = append(opts, httpclient.WithQuery("projectId", q.ProjectID))
	}
	if q.UserID != "" {
		opts = append(opts, httpclient.WithQuery("userId", q.UserID))
	}
	return opts
}

// Workflows wraps the workflow endpoints.
type Workflows struct {
	c httpclient.Client
}

// NewWorkflows binds the workflow endpoints to c.
func NewWorkflows(c httpclient.Client) *Workflows { return &Workflows{c: c} }

// List returns every workflow matching q.
func (w *Workflows) List(ctx context.Context, q WorkflowQuery) ([]Workflow, error) {
	if err := validation.Struct(q); err != nil {
		return nil, err
	}
	req := httpclient.NewRequest(http.MethodGet, workflowsPath+"/findAll", q.options()...)
	return httpclient.Execute[[]Workflow](ctx, w.c, req)
}

// Page returns one page of workflows matching q.
func (w *Workflows) Page(ctx context.Context, q WorkflowQuery, p PageRequest) (page.Result[Workflow], error) {
	if err := validation.Struct(q); err != nil {
		return page.Result[Workflow]{}, err
	}
	return getPage[Workflow](ctx, w.c, workflowsPath, p, q.options()...)
}

// Get fetches one workflow.
func (w *Workflows) Get(ctx context.Context, id string) (Workflow, error) {
	return getByID[Workflow](ctx, w.c, "id", workflowsPath, id)
}

// Create is not retried: a repeated POST could create a duplicate.
func (w *Workflows) Create(ctx context.Context, req WorkflowCreateRequest) (Workflow, error) {
	return send[Workflow](ctx, w.c, http.MethodPost, workflowsPath, req)
}

// Update changes the given workflow.
func (w *Workflows) Update(ctx context.Context, id string, req WorkflowUpdateRequest) (Workflow, error) {
	p, err := idPath("id", workflowsPath, id)
	if err != nil {
		return Workflow{}, err
	}
	return send[Workflow](ctx, w.c, http.MethodPut, p, req)
}

// Delete removes the workflow.
func (w *Workflows) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, w.c, "id", workflowsPath, id)
}

// Exists reports whether the workflow is present.
func (w *Workflows) Exists(ctx context.Context, id string) (bool, error) {
	return existsByID(ctx, w.c, "id", workflowsPath, id)
}

// Execute starts a run of workflow id.
func (w *Workflows) Execute(ctx context.Context, id string, req ExecutionRequest) (ExecutionResult, error) {
	p, err := idPath("id", workflowsPath, id, "execute")
	if err != nil {
		return ExecutionResult{}, err
	}
	return send[ExecutionResult](ctx, w.c, http.MethodPost, p, req)
}

// Status returns the progress of an execution task.
func (w *Workflows) Status(ctx context.Context, taskID string) (ExecutionStatus, error) {
	return getByID[ExecutionStatus](ctx, w.c, "taskId", executionPath+"/status", taskID)
}

// Stop is safe to retry; stopping a stopped run is a no-op on the server.
func (w *Workflows) Stop(ctx context.Context, taskID string) error {
	p, err := idPath("taskId", executionPath+"/stop", taskID)
	if err != nil {
		return err
	}
	_, err = httpclient.Execute[httpclient.NoContent](ctx, w.c, httpclient.NewRequest(http.MethodPost, p, httpclient.AllowRetry()))
	return err
}

// Logs returns the log lines of an execution task.
func (w *Workflows) Logs(ctx context.Context, taskID string) ([]ExecutionLog, error) {
	return getByID[[]ExecutionLog](ctx, w.c, "taskId", executionPath+"/logs", taskID)
}
