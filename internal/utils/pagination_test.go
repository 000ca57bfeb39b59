package utils

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestGetPaginationFromContext(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		query string
		want  PaginationRequest
	}{
		{"", PaginationRequest{Page: 1, Limit: DefaultLimit}},
		{"?page=3&limit=5", PaginationRequest{Page: 3, Limit: 5}},
		{"?page=0&limit=-2", PaginationRequest{Page: 1, Limit: DefaultLimit}},
		{"?page=abc&limit=1000", PaginationRequest{Page: 1, Limit: MaxLimit}},
	}

	for _, tt := range tests {
		ctx, _ := gin.CreateTestContext(httptest.NewRecorder())
		ctx.Request = httptest.NewRequest("GET", "/api/v1/samples"+tt.query, nil)

		assert.Equal(t, tt.want, GetPaginationFromContext(ctx), tt.query)
	}
}

func TestNewPaginatedResponse(t *testing.T) {
	resp := NewPaginatedResponse([]int{1, 2}, PaginationRequest{Page: 2, Limit: 10}, 21)

	assert.Equal(t, 3, resp.Pagination.TotalPages)
	assert.Equal(t, 21, resp.Pagination.TotalItems)
	assert.Equal(t, 10, PaginationRequest{Page: 2, Limit: 10}.Offset())
	assert.Equal(t, 0, calculateTotalPages(5, 0))
}
