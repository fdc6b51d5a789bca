package page

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func TestEmptyPageRoundTrip(t *testing.T) {
	src := New[item](nil, 0, 20, 0)

	raw, err := json.Marshal(src)
	require.NoError(t, err)

	var got Result[item]
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Empty(t, got.Validate())

	assert.True(t, got.First)
	assert.True(t, got.Last)
	assert.True(t, got.Empty)
	assert.Equal(t, 0, got.TotalPages)
	assert.Equal(t, 20, got.PageSize)
}

func TestNewDerivesTotalPages(t *testing.T) {
	p := New([]item{{ID: "1"}, {ID: "2"}}, 1, 2, 5)

	assert.Equal(t, 3, p.TotalPages)
	assert.False(t, p.First)
	assert.False(t, p.Last)
	assert.False(t, p.Empty)
	assert.True(t, p.HasNext())
	assert.Equal(t, 2, p.Next())
	assert.Equal(t, 2, p.Len())
}

func TestValidateFlagsInconsistentServerValues(t *testing.T) {
	body := `{
		"content": [{"id":"1"}],
		"pageNumber": 0,
		"pageSize": 10,
		"totalElements": 1,
		"totalPages": 1,
		"first": false,
		"last": false,
		"empty": true
	}`

	var p Result[item]
	require.NoError(t, json.Unmarshal([]byte(body), &p))

	warnings := p.Validate()
	assert.Len(t, warnings, 3)
	assert.Equal(t, warnings, p.Warnings())

	// Derived flags are corrected in place
	assert.True(t, p.First)
	assert.True(t, p.Last)
	assert.False(t, p.Empty)
	assert.False(t, p.HasNext())
	assert.Equal(t, -1, p.Next())
}

func TestValidateFlagsImpossibleCounters(t *testing.T) {
	p := Result[item]{
		Content:       []item{{ID: "1"}, {ID: "2"}, {ID: "3"}},
		PageNumber:    4,
		PageSize:      2,
		TotalElements: 2,
		TotalPages:    2,
	}

	warnings := p.Validate()
	assert.Contains(t, warnings, "pageNumber 4 is beyond totalPages 2")
	assert.Contains(t, warnings, "content has 3 items but pageSize is 2")
	assert.Contains(t, warnings, "content has 3 items but totalElements is 2")
}

func TestValidateConsistentPage(t *testing.T) {
	p := Result[item]{
		Content:       []item{{ID: "1"}},
		PageNumber:    2,
		PageSize:      1,
		TotalElements: 3,
		TotalPages:    3,
		Last:          true,
	}
	assert.Empty(t, p.Validate())
	assert.Empty(t, p.Warnings())
}
