package resources

import (
	"context"
	"net/http"

	"github.com/gaborage/dataapi-go/httpclient"
	"github.com/gaborage/dataapi-go/page"
	"github.com/gaborage/dataapi-go/types"
)

const projectsPath = "/projects"

// Project groups workflows and databases.
type Project struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	OwnerID     string          `json:"ownerId,omitempty"`
	Active      bool            `json:"isActive"`
	Settings    types.Value     `json:"settings"`
	CreatedAt   types.Timestamp `json:"createdAt"`
	UpdatedAt   types.Timestamp `json:"updatedAt"`
}

// ProjectRequest is the body of Create and Update.
type ProjectRequest struct {
	Name        string      `json:"name" validate:"required,max=255"`
	Description string      `json:"description,omitempty" validate:"max=2000"`
	Settings    types.Value `json:"settings,omitzero"`
}

// Projects wraps the project endpoints.
type Projects struct {
	c httpclient.Client
}

// NewProjects binds the project endpoints to c.
func NewProjects(c httpclient.Client) *Projects { return &Projects{c: c} }

// Page lists projects.
func (p *Projects) Page(ctx context.Context, req PageRequest) (page.Result[Project], error) {
	return getPage[Project](ctx, p.c, projectsPath, req)
}

// Get fetches one project.
func (p *Projects) Get(ctx context.Context, id string) (Project, error) {
	return getByID[Project](ctx, p.c, "id", projectsPath, id)
}

// Create adds a project.
func (p *Projects) Create(ctx context.Context, req ProjectRequest) (Project, error) {
	return send[Project](ctx, p.c, http.MethodPost, projectsPath, req)
}

// Update changes the given project.
func (p *Projects) Update(ctx context.Context, id string, req ProjectRequest) (Project, error) {
	path, err := idPath("id", projectsPath, id)
	if err != nil {
		return Project{}, err
	}
	return send[Project](ctx, p.c, http.MethodPut, path, req)
}

// Delete removes the project.
func (p *Projects) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, p.c, "id", projectsPath, id)
}

// Exists reports whether the project is present.
func (p *Projects) Exists(ctx context.Context, id string) (bool, error) {
	return existsByID(ctx, p.c, "id", projectsPath, id)
}
