package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type audit struct {
	CreatedBy string `json:"createdBy" validate:"required"`
}

type describeModel struct {
	audit
	Name     string   `json:"name" validate:"required,min=3,max=64" doc:"Display name"`
	Mode     string   `json:"mode,omitempty" validate:"omitempty,oneof=batch stream"`
	Tags     []string `json:"tags" validate:"dive,required"`
	Secret   string   `json:"-"`
	internal string
}

func TestDescribe(t *testing.T) {
	fields := Describe(&describeModel{})
	require.Len(t, fields, 4)

	assert.Equal(t, "createdBy", fields[0].JSONName)
	assert.True(t, fields[0].Required)

	name := fields[1]
	assert.Equal(t, "name", name.JSONName)
	assert.Equal(t, "string", name.Type)
	assert.True(t, name.Required)
	assert.Equal(t, "Display name", name.Description)
	minVal, ok := name.Min()
	assert.True(t, ok)
	assert.Equal(t, 3, minVal)
	maxVal, ok := name.Max()
	assert.True(t, ok)
	assert.Equal(t, 64, maxVal)
	assert.Equal(t, "max=64,min=3,required", name.Rules())

	mode := fields[2]
	assert.False(t, mode.Required)
	enum, ok := mode.Enum()
	assert.True(t, ok)
	assert.Equal(t, []string{"batch", "stream"}, enum)

	tags := fields[3]
	assert.False(t, tags.Required)
	assert.Empty(t, tags.Constraints)
}

func TestDescribeNonStruct(t *testing.T) {
	assert.Nil(t, Describe(nil))
	assert.Nil(t, Describe(42))
}
