package resources

import (
	"context"
	"net/http"

	"github.com/gaborage/dataapi-go/httpclient"
	"github.com/gaborage/dataapi-go/page"
	"github.com/gaborage/dataapi-go/types"
	"github.com/gaborage/dataapi-go/validation"
)

const usersPath = "/users"

// User is a DataAPI account.
type User struct {
	ID        string          `json:"id"`
	Username  string          `json:"username"`
	Email     string          `json:"email"`
	Name      string          `json:"name,omitempty"`
	Role      string          `json:"role,omitempty"`
	Active    bool            `json:"isActive"`
	CreatedAt types.Timestamp `json:"createdAt"`
	UpdatedAt types.Timestamp `json:"updatedAt"`
}

// UserCreateRequest registers an account.
type UserCreateRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name,omitempty"`
	Role     string `json:"role,omitempty" validate:"omitempty,oneof=admin user viewer"`
	Password string `json:"password,omitempty" validate:"omitempty,min=8"`
}

// UserUpdateRequest changes only the fields that are present.
type UserUpdateRequest struct {
	Email  types.Optional[string] `json:"email,omitzero"`
	Name   types.Optional[string] `json:"name,omitzero"`
	Role   types.Optional[string] `json:"role,omitzero"`
	Active types.Optional[bool]   `json:"isActive,omitzero"`
}

// Users wraps the user endpoints.
type Users struct {
	c httpclient.Client
}

// NewUsers binds the user endpoints to c.
func NewUsers(c httpclient.Client) *Users { return &Users{c: c} }

// Me returns the user the credentials belong to.
func (u *Users) Me(ctx context.Context) (User, error) {
	return httpclient.Execute[User](ctx, u.c, httpclient.NewRequest(http.MethodGet, usersPath+"/me"))
}

// Page lists users.
func (u *Users) Page(ctx context.Context, req PageRequest) (page.Result[User], error) {
	return getPage[User](ctx, u.c, usersPath, req)
}

// Get fetches one user.
func (u *Users) Get(ctx context.Context, id string) (User, error) {
	return getByID[User](ctx, u.c, "id", usersPath, id)
}

// Create registers a new user.
func (u *Users) Create(ctx context.Context, req UserCreateRequest) (User, error) {
	return send[User](ctx, u.c, http.MethodPost, usersPath, req)
}

// Update changes the given user.
func (u *Users) Update(ctx context.Context, id string, req UserUpdateRequest) (User, error) {
	if email, ok := req.Email.Get(); ok {
		if err := validation.Var("email", email, "required,email"); err != nil {
			return User{}, err
		}
	}
	if role, ok := req.Role.Get(); ok {
		if err := validation.Var("role", role, "oneof=admin user viewer"); err != nil {
			return User{}, err
		}
	}
	p, err := idPath("id", usersPath, id)
	if err != nil {
		return User{}, err
	}
	return send[User](ctx, u.c, http.MethodPut, p, req)
}

// Delete removes the user.
func (u *Users) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, u.c, "id", usersPath, id)
}
