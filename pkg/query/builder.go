package query

import (
	"fmt"
	"reflect"
	"strings"
)

// placeholder marks where the next positional parameter is substituted
// when conditions are rendered.
const placeholder = "$?"

type condition struct {
	clause string
	args   []any
}

type nearest struct {
	field  string
	vector any
}

// SortField is one ORDER BY term. Field is a view name resolved
// through the ProjectionMap.
type SortField struct {
	Field      string
	Descending bool
}

// Builder assembles SELECT statements against a ProjectionMap and
// numbers positional parameters in the order they are rendered.
type Builder struct {
	projection  *ProjectionMap
	conditions  []condition
	sort        []SortField
	defaultSort []SortField
	nearest     *nearest
}

// NewBuilder creates a Builder for the given projection with optional default sort fields.
func NewBuilder(projection *ProjectionMap, defaultSort ...SortField) *Builder {
	return &Builder{
		projection:  projection,
		defaultSort: defaultSort,
	}
}

// ParseSortFields parses "name,-updatedAt" style input. A leading "-"
// sorts descending. Blank input yields nil.
func ParseSortFields(s string) []SortField {
	if strings.TrimSpace(s) == "" {
		return nil
	}

	var fields []SortField
	for part := range strings.SplitSeq(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		field, desc := strings.CutPrefix(part, "-")
		fields = append(fields, SortField{Field: field, Descending: desc})
	}
	return fields
}

// OrderByFields replaces the default sort order.
func (b *Builder) OrderByFields(fields []SortField) *Builder {
	b.sort = fields
	return b
}

// OrderByNearest ranks rows by cosine distance between the field and
// vector, nearest first, and adds a "score" column holding the cosine
// similarity. It takes precedence over any field ordering.
func (b *Builder) OrderByNearest(field string, vector any) *Builder {
	b.nearest = &nearest{field: field, vector: vector}
	return b
}

// WhereEquals adds an equality condition. Nil values are ignored.
func (b *Builder) WhereEquals(field string, value any) *Builder {
	if isNil(value) {
		return b
	}
	return b.where(b.projection.Column(field)+" = "+placeholder, value)
}

// WhereContains adds a case-insensitive substring match. Nil or empty
// values are ignored.
func (b *Builder) WhereContains(field string, value *string) *Builder {
	if value == nil || *value == "" {
		return b
	}
	return b.where(b.projection.Column(field)+" ILIKE "+placeholder, "%"+*value+"%")
}

// WhereSearch matches the search term against any of the fields.
func (b *Builder) WhereSearch(search *string, fields ...string) *Builder {
	if search == nil || *search == "" || len(fields) == 0 {
		return b
	}

	clauses := make([]string, len(fields))
	args := make([]any, len(fields))
	for i, field := range fields {
		clauses[i] = b.projection.Column(field) + " ILIKE " + placeholder
		args[i] = "%" + *search + "%"
	}
	return b.where("("+strings.Join(clauses, " OR ")+")", args...)
}

// Build returns an unbounded SELECT.
func (b *Builder) Build() (string, []any) {
	return b.render("")
}

// BuildLimit returns a SELECT capped at limit rows.
func (b *Builder) BuildLimit(limit int) (string, []any) {
	return b.render(fmt.Sprintf(" LIMIT %d", limit))
}

// BuildPage returns a SELECT for a one-based page.
func (b *Builder) BuildPage(page, pageSize int) (string, []any) {
	return b.render(fmt.Sprintf(" LIMIT %d OFFSET %d", pageSize, (page-1)*pageSize))
}

// BuildCount returns a COUNT(*) over the current conditions.
func (b *Builder) BuildCount() (string, []any) {
	where, args := b.buildWhere()
	return fmt.Sprintf("SELECT COUNT(*) FROM %s%s", b.projection.From(), where), args
}

// BuildSingle returns a SELECT for the row whose field equals id.
// Conditions and ordering are ignored.
func (b *Builder) BuildSingle(field string, id any) (string, []any) {
	q := fmt.Sprintf(
		"SELECT %s FROM %s WHERE %s = $1",
		b.projection.Columns(),
		b.projection.From(),
		b.projection.Column(field),
	)
	return q, []any{id}
}

func (b *Builder) where(clause string, args ...any) *Builder {
	b.conditions = append(b.conditions, condition{clause: clause, args: args})
	return b
}

func (b *Builder) render(tail string) (string, []any) {
	where, args := b.buildWhere()
	columns := b.projection.Columns()

	var orderBy string
	if b.nearest != nil {
		col := b.projection.Column(b.nearest.field)
		param := len(args) + 1
		columns += fmt.Sprintf(", 1 - (%s <=> $%d) AS score", col, param)
		orderBy = fmt.Sprintf(" ORDER BY %s <=> $%d", col, param)
		args = append(args, b.nearest.vector)
	} else {
		orderBy = b.buildOrderBy()
	}

	q := fmt.Sprintf("SELECT %s FROM %s%s%s%s", columns, b.projection.From(), where, orderBy, tail)
	return q, args
}

func (b *Builder) buildOrderBy() string {
	fields := b.sort
	if len(fields) == 0 {
		fields = b.defaultSort
	}
	if len(fields) == 0 {
		return ""
	}

	parts := make([]string, len(fields))
	for i, f := range fields {
		dir := "ASC"
		if f.Descending {
			dir = "DESC"
		}
		parts[i] = b.projection.Column(f.Field) + " " + dir
	}
	return " ORDER BY " + strings.Join(parts, ", ")
}

func (b *Builder) buildWhere() (string, []any) {
	if len(b.conditions) == 0 {
		return "", nil
	}

	var (
		clauses []string
		args    []any
	)
	for _, cond := range b.conditions {
		clause := cond.clause
		for _, arg := range cond.args {
			args = append(args, arg)
			clause = strings.Replace(clause, placeholder, fmt.Sprintf("$%d", len(args)), 1)
		}
		clauses = append(clauses, clause)
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func isNil(value any) bool {
	if value == nil {
		return true
	}

	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface:
		return v.IsNil()
	}
	return false
}
