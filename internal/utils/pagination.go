package utils

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// ListQuery holds the pagination, sorting and search parameters shared by
// every list endpoint.
type ListQuery struct {
	Page       int
	Size       int
	SortBy     string
	Descending bool
	UseOr      bool
	Search     string
}

// ParseListQuery reads list query params with sane defaults.
func ParseListQuery(c *fiber.Ctx) ListQuery {
	page := parseInt(c.Query("page", "1"), 1)
	size := parseInt(c.Query("size", "20"), 20)
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}

	return ListQuery{
		Page:       page,
		Size:       size,
		SortBy:     c.Query("sort_by"),
		Descending: c.QueryBool("descending"),
		UseOr:      c.QueryBool("use_or"),
		Search:     c.Query("search"),
	}
}

// Pages returns the page count for a total under the query's page size.
func (q ListQuery) Pages(total int64) int64 {
	size := int64(q.Size)
	return (total + size - 1) / size
}

func parseInt(value string, fallback int) int {
	if parsed, err := strconv.Atoi(value); err == nil {
		return parsed
	}
	return fallback
}
