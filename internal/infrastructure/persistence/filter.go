package persistence

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/arledger/backend/internal/domain/shared"
)

// applyFilterWithoutPagination applies search and field filters only,
// for count queries.
func applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter, searchColumns ...string) *gorm.DB {
	if filter.Search != "" && len(searchColumns) > 0 {
		clauses := make([]string, len(searchColumns))
		args := make([]interface{}, len(searchColumns))
		for i, col := range searchColumns {
			clauses[i] = col + " ILIKE ?"
			args[i] = "%" + filter.Search + "%"
		}
		query = query.Where(strings.Join(clauses, " OR "), args...)
	}

	for field, value := range filter.Filters {
		if value == nil {
			continue
		}
		query = query.Where(field+" = ?", value)
	}
	return query
}

// applyFilter applies search, field filters, ordering, and pagination
func applyFilter(query *gorm.DB, filter shared.Filter, searchColumns ...string) *gorm.DB {
	query = applyFilterWithoutPagination(query, filter, searchColumns...)

	orderBy := filter.OrderBy
	if orderBy == "" {
		orderBy = "created_at"
	}
	orderDir := strings.ToLower(filter.OrderDir)
	if orderDir != "asc" {
		orderDir = "desc"
	}
	query = query.Order(fmt.Sprintf("%s %s", orderBy, orderDir))

	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	return query
}
