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

func TestUserCreateValidation(t *testing.T) {
	set, srv := newTestSet(t)

	_, err := set.Users.Create(context.Background(), UserCreateRequest{
		Username: "ada", Email: "not-an-email", Role: "root", Password: "short",
	})
	apiErr, ok := apierror.As(err)
	require.True(t, ok)
	assert.Equal(t, apierror.KindValidation, apiErr.Kind())
	assert.Equal(t, "email", apiErr.Field())
	assert.ElementsMatch(t, []string{"email", "oneof", "min"}, apiErr.Rules())
	assert.Empty(t, srv.Requests())
}

func TestUserUpdateValidatesPresentFields(t *testing.T) {
	set, srv := newTestSet(t)
	srv.Handle(http.MethodPut, "/users/:id", testserver.JSON(http.StatusOK, map[string]any{"id": "u1", "isActive": false}))

	_, err := set.Users.Update(context.Background(), "u1", UserUpdateRequest{Email: types.Some("nope")})
	assert.True(t, apierror.IsKind(err, apierror.KindValidation))
	assert.Empty(t, srv.Requests())

	u, err := set.Users.Update(context.Background(), "u1", UserUpdateRequest{Active: types.Some(false)})
	require.NoError(t, err)
	assert.False(t, u.Active)

	var body map[string]any
	require.NoError(t, srv.Last().Decode(&body))
	assert.Equal(t, map[string]any{"isActive": false}, body)
}

func TestProjectLifecycle(t *testing.T) {
	set, srv := newTestSet(t)
	srv.Handle(http.MethodPost, "/projects", testserver.JSON(http.StatusCreated, map[string]any{"id": "p1", "name": "alpha"}))
	srv.Handle(http.MethodDelete, "/projects/:id", testserver.Status(http.StatusNoContent))
	srv.Handle(http.MethodHead, "/projects/:id", testserver.Status(http.StatusNotFound))
	ctx := context.Background()

	p, err := set.Projects.Create(ctx, ProjectRequest{Name: "alpha"})
	require.NoError(t, err)
	assert.Equal(t, "p1", p.ID)

	var body map[string]any
	require.NoError(t, srv.Last().Decode(&body))
	assert.NotContains(t, body, "settings")

	require.NoError(t, set.Projects.Delete(ctx, p.ID))
	exists, err := set.Projects.Exists(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, exists)
}
