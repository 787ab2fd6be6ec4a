package server

import (
	"strconv"
	"strings"
	"time"

	"github.com/smallbiznis/warrantyhub/pkg/db/pagination"
)

const dateOnlyLayout = "2006-01-02"

// parsePage reads page and page_size. Zero values are left for the service
// to default.
func parsePage(pageValue, sizeValue string) (pagination.Pagination, error) {
	page, ok := parseNonNegativeInt(pageValue)
	if !ok {
		return pagination.Pagination{}, newValidationError("page", "invalid_page", "page must be a non-negative integer")
	}
	size, ok := parseNonNegativeInt(sizeValue)
	if !ok {
		return pagination.Pagination{}, newValidationError("page_size", "invalid_page_size", "page_size must be a non-negative integer")
	}
	return pagination.Pagination{Page: page, PageSize: size}, nil
}

func parseNonNegativeInt(value string) (int, bool) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, true
	}
	parsed, err := strconv.Atoi(trimmed)
	if err != nil || parsed < 0 {
		return 0, false
	}
	return parsed, true
}

// parseTimeParam accepts RFC3339 or a bare date. A bare date used as an upper
// bound covers the whole day in UTC.
func parseTimeParam(field, value string, endOfDay bool) (*time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	if parsed, err := time.Parse(time.RFC3339, trimmed); err == nil {
		parsed = parsed.UTC()
		return &parsed, nil
	}
	day, err := time.ParseInLocation(dateOnlyLayout, trimmed, time.UTC)
	if err != nil {
		return nil, newValidationError(field, "invalid_"+field, field+" must be RFC3339 or YYYY-MM-DD")
	}
	if endOfDay {
		day = day.Add(24*time.Hour - time.Nanosecond)
	}
	return &day, nil
}
