package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ownerSchema = `{
  "type": "object",
  "required": ["ownerId"],
  "properties": {
    "ownerId": {"type": "string", "minLength": 1},
    "quantity": {"type": "integer", "minimum": 1}
  }
}`

func TestSchema_Validate(t *testing.T) {
	s := MustCompile(ownerSchema)

	ok := s.Validate(map[string]interface{}{"ownerId": "U1", "quantity": 2})
	assert.True(t, ok.Valid)
	assert.Empty(t, ok.Errors)
	assert.Empty(t, ok.Error())

	missing := s.Validate(map[string]interface{}{"quantity": 2})
	require.False(t, missing.Valid)
	assert.NotEmpty(t, missing.GetErrorMessages())

	badQty := s.Validate(map[string]interface{}{"ownerId": "U1", "quantity": 0})
	require.False(t, badQty.Valid)
	assert.True(t, badQty.HasErrors("quantity"))
	assert.False(t, badQty.HasErrors("ownerId"))
}

func TestSchema_ValidateJSON(t *testing.T) {
	s := MustCompile(ownerSchema)

	assert.True(t, s.ValidateJSON(`{"ownerId":"U7"}`).Valid)

	broken := s.ValidateJSON(`{"ownerId":`)
	require.False(t, broken.Valid)
	assert.Equal(t, "INVALID_JSON", broken.Errors[0].Code)
}

func TestCompile_RejectsInvalidSchema(t *testing.T) {
	_, err := Compile(`{"type": 12}`)
	assert.Error(t, err)
	assert.Panics(t, func() { MustCompile(`not json`) })
}
