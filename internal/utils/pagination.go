package utils

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// DefaultLimit is the default number of items per page
const DefaultLimit = 20

// MaxLimit is the maximum number of items per page
const MaxLimit = 100

// PaginationRequest holds pagination parameters
type PaginationRequest struct {
	Page  int `form:"page"`
	Limit int `form:"limit"`
}

// Offset returns the number of rows to skip
func (p PaginationRequest) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Scope returns a GORM scope applying the page window
func (p PaginationRequest) Scope() func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(p.Offset()).Limit(p.Limit)
	}
}

// PaginatedResponse represents a paginated API response
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Pagination Pagination  `json:"pagination"`
}

// Pagination holds pagination metadata
type Pagination struct {
	CurrentPage int `json:"current_page"`
	TotalPages  int `json:"total_pages"`
	TotalItems  int `json:"total_items"`
	PerPage     int `json:"per_page"`
}

// GetPaginationFromContext extracts pagination parameters from the gin context.
// Invalid values fall back to the defaults and the limit is capped at MaxLimit.
func GetPaginationFromContext(ctx *gin.Context) PaginationRequest {
	page, err := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}

	limit, err := strconv.Atoi(ctx.DefaultQuery("limit", strconv.Itoa(DefaultLimit)))
	if err != nil || limit < 1 {
		limit = DefaultLimit
	}
	limit = min(limit, MaxLimit)

	return PaginationRequest{Page: page, Limit: limit}
}

// NewPaginatedResponse creates a new paginated response
func NewPaginatedResponse(data interface{}, pagination PaginationRequest, totalItems int) PaginatedResponse {
	return PaginatedResponse{
		Data: data,
		Pagination: Pagination{
			CurrentPage: pagination.Page,
			TotalPages:  calculateTotalPages(totalItems, pagination.Limit),
			TotalItems:  totalItems,
			PerPage:     pagination.Limit,
		},
	}
}

// calculateTotalPages calculates the total number of pages
func calculateTotalPages(totalItems, perPage int) int {
	if perPage == 0 {
		return 0
	}
	return (totalItems + perPage - 1) / perPage
}
