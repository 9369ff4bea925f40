package services

import (
	"strings"

	"gorm.io/gorm"

	"github.com/flopysoft/flopy-crm/internal/dto"
)

// normalizeDir returns exactly "ASC" or "DESC"; anything unrecognized
// falls back to "DESC".
func normalizeDir(dir string) string {
	if strings.EqualFold(dir, "ASC") {
		return "ASC"
	}
	return "DESC"
}

// sortField validates a requested sort field against an allow-list,
// silently falling back to the entity default. Raw user input never
// reaches ORDER BY.
func sortField(requested, fallback string, allowed []string) string {
	for _, field := range allowed {
		if field == requested {
			return requested
		}
	}
	return fallback
}

// applyListOptions appends ORDER BY / LIMIT / OFFSET for one page.
func applyListOptions(query *gorm.DB, opts dto.ListOptions, fallback string, allowed []string) *gorm.DB {
	field := sortField(opts.Sort, fallback, allowed)
	query = query.Order(field + " " + normalizeDir(opts.Dir))
	if opts.Limit > 0 {
		query = query.Limit(opts.Limit).Offset(opts.Offset())
	}
	return query
}
