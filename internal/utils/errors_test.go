package utils

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aquascan/backend/internal/analysis"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{ErrNotFound, http.StatusNotFound},
		{fmt.Errorf("sample 12: %w", ErrNotFound), http.StatusNotFound},
		{ErrAlreadyExists, http.StatusConflict},
		{ErrUnauthorized, http.StatusUnauthorized},
		{ErrPayloadTooLarge, http.StatusRequestEntityTooLarge},
		{&analysis.InputTooShortError{Length: 10, Required: 300}, http.StatusBadRequest},
		{analysis.ErrInvalidPayload, http.StatusBadRequest},
		{&analysis.InsufficientDataError{Have: 2, Need: 3}, http.StatusUnprocessableEntity},
		{context.DeadlineExceeded, http.StatusRequestTimeout},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFor(tt.err), tt.err.Error())
	}
}

func TestHandleError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("Should render the insufficient data error", func(t *testing.T) {
		w := httptest.NewRecorder()
		ctx, _ := gin.CreateTestContext(w)
		ctx.Request = httptest.NewRequest(http.MethodGet, "/api/v1/history/trend", nil)

		HandleError(ctx, &analysis.InsufficientDataError{Have: 1, Need: 3}, NewNopLogger())

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "insufficient_data", resp.Error)
	})

	t.Run("Should hide internal error details and keep the code", func(t *testing.T) {
		w := httptest.NewRecorder()
		ctx, _ := gin.CreateTestContext(w)
		ctx.Request = httptest.NewRequest(http.MethodGet, "/", nil)

		HandleError(ctx, NewErrorWithCode(fmt.Errorf("db down"), "storage"), NewNopLogger())

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "An unexpected error occurred", resp.Message)
		assert.Equal(t, "storage", resp.Code)
	})
}
