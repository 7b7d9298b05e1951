package models

import (
	"fmt"
	"strings"
)

// Category identifies one exported data set.
type Category string

const (
	CategoryFuel   Category = "fuel"
	CategoryFlight Category = "flight"
	// CategoryMerged only produces data files; it has no rendered report.
	CategoryMerged Category = "merged"
)

// ReportCategories lists the categories that go through the full render pipeline.
var ReportCategories = []Category{CategoryFuel, CategoryFlight}

// ParseCategory validates a user supplied category name.
func ParseCategory(value string) (Category, error) {
	switch c := Category(strings.ToLower(strings.TrimSpace(value))); c {
	case CategoryFuel, CategoryFlight, CategoryMerged:
		return c, nil
	default:
		return "", fmt.Errorf("unknown category %q", value)
	}
}

// HasReport reports whether the category is rendered to PNG/HTML/PDF.
func (c Category) HasReport() bool {
	return c == CategoryFuel || c == CategoryFlight
}
