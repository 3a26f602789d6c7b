// Package query builds parameterized PostgreSQL SELECT statements from a
// projection of view names onto table columns.
package query

import (
	"strings"
)

// ProjectionMap resolves view names (the JSON-facing field names) to
// qualified columns and records which columns a SELECT returns.
type ProjectionMap struct {
	schema   string
	table    string
	alias    string
	columns  map[string]string
	selected []string
	joins    []string
}

// NewProjectionMap creates a ProjectionMap for the given schema, table, and alias.
func NewProjectionMap(schema, table, alias string) *ProjectionMap {
	return &ProjectionMap{
		schema:  schema,
		table:   table,
		alias:   alias,
		columns: make(map[string]string),
	}
}

// Project selects column and exposes it as viewName.
func (p *ProjectionMap) Project(column, viewName string) *ProjectionMap {
	return p.ProjectFrom(p.alias, column, viewName)
}

// ProjectFrom selects a column from a joined alias.
func (p *ProjectionMap) ProjectFrom(alias, column, viewName string) *ProjectionMap {
	qualified := alias + "." + column
	p.columns[viewName] = qualified
	p.selected = append(p.selected, qualified)
	return p
}

// Map exposes column as viewName for filtering and ordering without
// selecting it. Used for wide columns such as embeddings.
func (p *ProjectionMap) Map(column, viewName string) *ProjectionMap {
	p.columns[viewName] = p.alias + "." + column
	return p
}

// Join appends a join clause, e.g. "LEFT JOIN public.weather_snapshots w ON w.log_id = l.id".
func (p *ProjectionMap) Join(clause string) *ProjectionMap {
	p.joins = append(p.joins, clause)
	return p
}

// Table returns "schema.table alias".
func (p *ProjectionMap) Table() string {
	return p.schema + "." + p.table + " " + p.alias
}

// From returns the table reference followed by any join clauses.
func (p *ProjectionMap) From() string {
	return strings.Join(append([]string{p.Table()}, p.joins...), " ")
}

// Column returns the qualified column for viewName, or viewName itself
// when it is not mapped.
func (p *ProjectionMap) Column(viewName string) string {
	if col, ok := p.columns[viewName]; ok {
		return col
	}
	return viewName
}

// Columns returns the selected columns as a SELECT list.
func (p *ProjectionMap) Columns() string {
	return strings.Join(p.selected, ", ")
}
