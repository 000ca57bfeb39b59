package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONSchemaValidator(t *testing.T) {
	schema, err := NewJSONSchemaBuilder().
		SetTitle("sample").
		AddIntegerProperty("user_id", true).
		AddStringProperty("image_base64", true, 4).
		AddNumberProperty("lat", false, -90, 90).
		Build()
	require.NoError(t, err)

	v := NewJSONSchemaValidator()
	require.NoError(t, v.LoadSchema("sample", schema))

	t.Run("Should accept a valid document", func(t *testing.T) {
		assert.NoError(t, v.ValidateJSON("sample", []byte(`{"user_id": 3, "image_base64": "QUFBQQ==", "lat": 43.2}`)))
	})

	t.Run("Should reject missing and out of range fields", func(t *testing.T) {
		err := v.ValidateJSON("sample", []byte(`{"image_base64": "QQ", "lat": 120}`))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrValidation)
		assert.Contains(t, err.Error(), "user_id")
	})

	t.Run("Should reject unknown properties", func(t *testing.T) {
		err := v.ValidateAgainstSchema("sample", map[string]interface{}{
			"user_id":      1,
			"image_base64": "QUFBQQ==",
			"extra":        true,
		})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("Should fail for an unknown schema", func(t *testing.T) {
		assert.Error(t, v.ValidateJSON("missing", []byte(`{}`)))
	})
}
