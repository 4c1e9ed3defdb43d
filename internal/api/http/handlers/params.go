package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/shiftdesk/staff-scheduler/internal/api/dto"
	"github.com/shiftdesk/staff-scheduler/internal/service"
	apperrors "github.com/shiftdesk/staff-scheduler/pkg/util/errorutil"
)

const (
	defaultPageSize = 20
	maxPageSize     = 500
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

func bind(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return nil
}

// pathID returns the named route parameter. Values that are not UUIDs cannot
// identify a stored row and answer 404 for resource.
func pathID(c *fiber.Ctx, name, resource string) (string, error) {
	raw := c.Params(name)
	if _, err := uuid.Parse(raw); err != nil {
		return "", apperrors.NewNotFound(resource, map[string]any{name: raw})
	}
	return raw, nil
}

// parsePage reads page and page_size; page_size is capped at maxPageSize.
func parsePage(c *fiber.Ctx) (service.Page, dto.ListMeta) {
	page := parseInt(c.Query("page"), 1)
	size := parseInt(c.Query("page_size"), defaultPageSize)
	if size > maxPageSize {
		size = maxPageSize
	}
	return service.Page{Limit: size, Offset: (page - 1) * size}, dto.ListMeta{Page: page, PageSize: size}
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

// parseTime accepts RFC3339 timestamps and plain dates (midnight UTC).
func parseTime(c *fiber.Ctx, key string) (*time.Time, error) {
	val := strings.TrimSpace(c.Query(key))
	if val == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, val); err == nil {
		return &t, nil
	}
	if t, err := time.Parse(time.DateOnly, val); err == nil {
		return &t, nil
	}
	return nil, apperrors.NewValidationError("invalid "+key, map[string]any{key: val})
}

func parseBool(c *fiber.Ctx, key string) (*bool, error) {
	val := c.Query(key)
	if val == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid "+key, map[string]any{key: val})
	}
	return &b, nil
}

func optionalQuery(c *fiber.Ctx, key string) *string {
	if val := strings.TrimSpace(c.Query(key)); val != "" {
		return &val
	}
	return nil
}

func splitCSV[T ~string](raw string) []T {
	if raw == "" {
		return nil
	}
	var out []T
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, T(strings.ToUpper(part)))
		}
	}
	return out
}

func listResponse(c *fiber.Ctx, items any, meta dto.ListMeta) error {
	return c.JSON(fiber.Map{"data": items, "meta": meta})
}

func sendSpreadsheet(c *fiber.Ctx, filename string, body []byte) error {
	c.Set(fiber.HeaderContentType, xlsxContentType)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(body)
}
