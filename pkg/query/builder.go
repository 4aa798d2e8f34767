package query

import (
	"fmt"
	"strings"
)

// SortField represents a single column in an ORDER BY clause.
// Field is the logical field name (mapped via ProjectionMap) or a qualified column.
type SortField struct {
	Field      string
	Descending bool
}

// Builder constructs SELECT statements over a projection.
type Builder struct {
	projection *ProjectionMap
	sortFields []SortField
}

// NewBuilder creates a Builder for the given projection with optional sort fields.
func NewBuilder(projection *ProjectionMap, sort ...SortField) *Builder {
	return &Builder{
		projection: projection,
		sortFields: sort,
	}
}

// Build returns a SELECT query over every projected column with the configured ordering.
func (b *Builder) Build() (string, []any) {
	sql := fmt.Sprintf(
		"SELECT %s FROM %s%s",
		b.projection.Columns(),
		b.projection.From(),
		b.buildOrderBy(),
	)
	return sql, nil
}

func (b *Builder) buildOrderBy() string {
	if len(b.sortFields) == 0 {
		return ""
	}

	parts := make([]string, len(b.sortFields))
	for i, f := range b.sortFields {
		dir := "ASC"
		if f.Descending {
			dir = "DESC"
		}
		parts[i] = fmt.Sprintf("%s %s", b.projection.Column(f.Field), dir)
	}

	return " ORDER BY " + strings.Join(parts, ", ")
}
