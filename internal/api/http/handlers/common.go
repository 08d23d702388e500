package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ppa-crm/internal/api/dto"
	"github.com/spec-kit/ppa-crm/internal/service"
	apperrors "github.com/spec-kit/ppa-crm/pkg/util"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// bind parses the JSON body into req and runs its validation rules.
func bind(c *fiber.Ctx, req any) error {
	if err := c.BodyParser(req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return dto.Validate(req)
}

// parsePage accepts either limit/offset or page/pageSize query parameters.
func parsePage(c *fiber.Ctx) service.Page {
	limit := parseInt(c.Query("limit"), 0)
	if limit == 0 {
		limit = parseInt(c.Query("pageSize"), defaultPageSize)
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	offset := parseInt(c.Query("offset"), 0)
	if page := parseInt(c.Query("page"), 0); page > 0 && c.Query("offset") == "" {
		offset = (page - 1) * limit
	}
	return service.Page{Limit: limit, Offset: offset}
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed < 0 {
		return def
	}
	return parsed
}

// parseDate accepts RFC 3339 timestamps and plain YYYY-MM-DD dates.
func parseDate(val string) (*time.Time, error) {
	val = strings.TrimSpace(val)
	if val == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, val); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, val)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid date", map[string]any{"value": val})
	}
	return &t, nil
}

// queryPtr returns nil for an absent or blank query parameter.
func queryPtr(c *fiber.Ctx, key string) *string {
	val := strings.TrimSpace(c.Query(key))
	if val == "" {
		return nil
	}
	return &val
}

// enumQuery converts an optional query parameter to a typed enum.
func enumQuery[T ~string](c *fiber.Ctx, key string) *T {
	val := queryPtr(c, key)
	if val == nil {
		return nil
	}
	typed := T(*val)
	return &typed
}

func enumPtr[T ~string](val *string) *T {
	if val == nil {
		return nil
	}
	typed := T(*val)
	return &typed
}

func pagination(total int64, page service.Page) dto.Pagination {
	return dto.Pagination{Total: total, Limit: page.Limit, Offset: page.Offset}
}
