package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaborage/dataapi-go/apierror"
)

func TestStaticProviders(t *testing.T) {
	tests := []struct {
		name     string
		provider *StaticProvider
		kind     Type
		want     map[string]string
	}{
		{
			name:     "api key default header",
			provider: NewAPIKey("k1", ""),
			kind:     TypeAPIKey,
			want:     map[string]string{"X-API-Key": "k1"},
		},
		{
			name:     "api key custom header",
			provider: NewAPIKey("k1", "X-Custom-Key"),
			kind:     TypeAPIKey,
			want:     map[string]string{"X-Custom-Key": "k1"},
		},
		{
			name:     "basic",
			provider: NewBasic("user", "pass"),
			kind:     TypeBasic,
			want:     map[string]string{"Authorization": "Basic dXNlcjpwYXNz"},
		},
		{
			name:     "custom",
			provider: NewCustom(map[string]string{"X-Tenant": "acme", "X-Sig": "abc"}),
			kind:     TypeCustom,
			want:     map[string]string{"X-Tenant": "acme", "X-Sig": "abc"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.provider.Headers()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.kind, tt.provider.Type())
			assert.True(t, tt.provider.IsValid())
			assert.NoError(t, tt.provider.EnsureValid(context.Background()))
		})
	}
}

func TestStaticHeadersAreCopies(t *testing.T) {
	p := NewCustom(map[string]string{"X-A": "1"})
	h, err := p.Headers()
	require.NoError(t, err)
	h["X-A"] = "changed"

	again, err := p.Headers()
	require.NoError(t, err)
	assert.Equal(t, "1", again["X-A"])
}

func TestStaticEmptyKeyIsInvalid(t *testing.T) {
	p := NewAPIKey("", "")
	assert.False(t, p.IsValid())
	_, err := p.Headers()
	assert.True(t, apierror.IsKind(err, apierror.KindAuthentication))
}

func TestStaticClear(t *testing.T) {
	p := NewBasic("u", "p")
	p.Clear()

	assert.False(t, p.IsValid())
	_, err := p.Headers()
	assert.True(t, apierror.IsKind(err, apierror.KindAuthentication))
	assert.True(t, apierror.IsKind(p.EnsureValid(context.Background()), apierror.KindAuthentication))
}

func TestProvidersSatisfyInterface(t *testing.T) {
	var _ Provider = NewBearer(Credential{})
	var _ Provider = NewAPIKey("k", "")
}
