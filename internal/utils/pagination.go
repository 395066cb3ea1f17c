// internal/utils/pagination.go
package utils

import (
	"math"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"
	"gorm.io/gorm"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

type PaginationParams struct {
	Page   int    `json:"page"`
	Limit  int    `json:"limit"`
	Sort   string `json:"sortBy"`
	Order  string `json:"sortOrder"`
	Search string `json:"search"`
}

type PaginationResult struct {
	Page       int         `json:"page"`
	Limit      int         `json:"limit"`
	Total      int64       `json:"total"`
	TotalPages int         `json:"totalPages"`
	Data       interface{} `json:"data"`
}

// GetPaginationParams reads page, limit, sortBy, sortOrder and search.
// Unparseable or out-of-range values fall back to the defaults.
func GetPaginationParams(c *gin.Context) PaginationParams {
	return NormalizePagination(PaginationParams{
		Page:   cast.ToInt(c.Query("page")),
		Limit:  cast.ToInt(c.Query("limit")),
		Sort:   c.Query("sortBy"),
		Order:  c.Query("sortOrder"),
		Search: strings.TrimSpace(c.Query("search")),
	})
}

func NormalizePagination(params PaginationParams) PaginationParams {
	if params.Page < 1 {
		params.Page = DefaultPage
	}
	if params.Limit < 1 {
		params.Limit = DefaultLimit
	}
	if params.Limit > MaxLimit {
		params.Limit = MaxLimit
	}
	params.Order = strings.ToLower(params.Order)
	if params.Order != "asc" && params.Order != "desc" {
		params.Order = "desc"
	}
	return params
}

func (p PaginationParams) Offset() int {
	return (p.Page - 1) * p.Limit
}

func ApplyPagination(db *gorm.DB, params PaginationParams) *gorm.DB {
	return db.Offset(params.Offset()).Limit(params.Limit)
}

// ApplySort orders by the column mapped from params.Sort. allowedSortFields
// maps accepted query names to column names; unknown names sort by
// created_at.
func ApplySort(db *gorm.DB, params PaginationParams, allowedSortFields map[string]string) *gorm.DB {
	column, ok := allowedSortFields[params.Sort]
	if !ok {
		column = "created_at"
	}
	return db.Order(column + " " + params.Order)
}

func CreatePaginationResult(data interface{}, total int64, params PaginationParams) PaginationResult {
	totalPages := int(math.Ceil(float64(total) / float64(params.Limit)))

	return PaginationResult{
		Page:       params.Page,
		Limit:      params.Limit,
		Total:      total,
		TotalPages: totalPages,
		Data:       data,
	}
}

func SetPaginationHeaders(c *gin.Context, result PaginationResult) {
	c.Header("X-Total-Count", strconv.FormatInt(result.Total, 10))
	c.Header("X-Page", strconv.Itoa(result.Page))
	c.Header("X-Per-Page", strconv.Itoa(result.Limit))
	c.Header("X-Total-Pages", strconv.Itoa(result.TotalPages))
}
