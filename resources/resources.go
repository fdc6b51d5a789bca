package resources

import (
	"context"
	"net/http"
	"net/url"

	"github.com/gaborage/dataapi-go/httpclient"
	"github.com/gaborage/dataapi-go/page"
	"github.com/gaborage/dataapi-go/validation"
)

// MaxPageSize is the largest page size the server accepts.
const MaxPageSize = 1000

// PageRequest selects one page of a collection. The zero value is the first
// page with page.DefaultSize items.
type PageRequest struct {
	Page int `json:"page" validate:"gte=0"`
	Size int `json:"size" validate:"gte=0,lte=1000"`
}

func (p PageRequest) option() httpclient.RequestOption {
	size := p.Size
	if size == 0 {
		size = page.DefaultSize
	}
	return httpclient.WithPage(p.Page, size)
}

// Set is the full collection of resource wrappers sharing one client.
type Set struct {
	Workflows *Workflows
	Projects  *Projects
	Databases *Databases
	AI        *AI
	Users     *Users
}

// NewSet builds every wrapper on c.
func NewSet(c httpclient.Client) *Set {
	return &Set{
		Workflows: NewWorkflows(c),
		Projects:  NewProjects(c),
		Databases: NewDatabases(c),
		AI:        NewAI(c),
		Users:     NewUsers(c),
	}
}

// idPath validates id and joins it under base.
func idPath(field, base, id string, suffix ...string) (string, error) {
	if err := validation.Var(field, id, "required,resource_id"); err != nil {
		return "", err
	}
	p := base + "/" + url.PathEscape(id)
	for _, s := range suffix {
		p += "/" + s
	}
	return p, nil
}

func getPage[T any](ctx context.Context, c httpclient.Client, path string, req PageRequest, opts ...httpclient.RequestOption) (page.Result[T], error) {
	if err := validation.Struct(req); err != nil {
		return page.Result[T]{}, err
	}
	opts = append([]httpclient.RequestOption{req.option()}, opts...)
	return httpclient.Execute[page.Result[T]](ctx, c, httpclient.NewRequest(http.MethodGet, path, opts...))
}

func getByID[T any](ctx context.Context, c httpclient.Client, field, base, id string) (T, error) {
	var zero T
	p, err := idPath(field, base, id)
	if err != nil {
		return zero, err
	}
	return httpclient.Execute[T](ctx, c, httpclient.NewRequest(http.MethodGet, p))
}

// send validates body and executes method on path.
func send[T any](ctx context.Context, c httpclient.Client, method, path string, body any, opts ...httpclient.RequestOption) (T, error) {
	var zero T
	if err := validation.Struct(body); err != nil {
		return zero, err
	}
	opts = append([]httpclient.RequestOption{httpclient.WithBody(body)}, opts...)
	return httpclient.Execute[T](ctx, c, httpclient.NewRequest(method, path, opts...))
}

func deleteByID(ctx context.Context, c httpclient.Client, field, base, id string) error {
	p, err := idPath(field, base, id)
	if err != nil {
		return err
	}
	_, err = httpclient.Execute[httpclient.NoContent](ctx, c, httpclient.NewRequest(http.MethodDelete, p))
	return err
}

func existsByID(ctx context.Context, c httpclient.Client, field, base, id string) (bool, error) {
	p, err := idPath(field, base, id)
	if err != nil {
		return false, err
	}
	return httpclient.Exists(ctx, c, p)
}
