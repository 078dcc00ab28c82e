package patient

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/medrec/medrec/pkg/pagination"
)

// ListParams captures the list endpoint's filter, sort, and pagination
// inputs.
type ListParams struct {
	Search    string
	Diagnosis string
	MinAge    *int
	MaxAge    *int
	SortBy    string
	SortOrder string
	Page      pagination.Params
}

// sortColumns whitelists sortable fields and maps them to columns.
// Anything else falls back to createdAt.
var sortColumns = map[string]string{
	"name":      "name",
	"age":       "age",
	"createdAt": "created_at",
	"updatedAt": "updated_at",
}

// ParseListParams extracts list parameters from query values, applying the
// defaults: limit 50 (capped at 100), page 1, sort by createdAt descending.
func ParseListParams(values url.Values) ListParams {
	p := ListParams{
		Search:    values.Get("search"),
		Diagnosis: values.Get("diagnosis"),
		SortBy:    values.Get("sortBy"),
		SortOrder: values.Get("sortOrder"),
		Page:      pagination.FromValues(values),
	}

	if v := values.Get("minAge"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			p.MinAge = &n
		}
	}
	if v := values.Get("maxAge"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			p.MaxAge = &n
		}
	}

	if _, ok := sortColumns[p.SortBy]; !ok {
		p.SortBy = "createdAt"
	}
	if p.SortOrder != "asc" {
		p.SortOrder = "desc"
	}

	return p
}

// escapeLike escapes the LIKE metacharacters so user input always matches
// literally. The original interface this replaces fed raw input to a regex
// engine; substring matching is the intended behavior.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

// containsArg wraps an escaped argument for "column ILIKE '%' || $n || '%'"
// placement.
func containsClause(column string, argIndex int) string {
	return fmt.Sprintf(`%s ILIKE '%%' || $%d || '%%'`, column, argIndex)
}

// relativesClause matches any element of the relatives array.
func relativesClause(argIndex int) string {
	return fmt.Sprintf(`EXISTS (SELECT 1 FROM unnest(relatives) AS rel WHERE rel ILIKE '%%' || $%d || '%%')`, argIndex)
}

// FilterSQL builds the conjunctive WHERE clause for the list query. It
// returns the clause (with leading " WHERE", or empty when unfiltered) and
// the ordered argument list.
func (p ListParams) FilterSQL() (string, []interface{}) {
	var conds []string
	var args []interface{}

	if p.Search != "" {
		args = append(args, escapeLike(p.Search))
		n := len(args)
		conds = append(conds, fmt.Sprintf("(%s OR %s)", containsClause("name", n), relativesClause(n)))
	}
	if p.Diagnosis != "" {
		args = append(args, escapeLike(p.Diagnosis))
		conds = append(conds, containsClause("diagnosis", len(args)))
	}
	if p.MinAge != nil {
		args = append(args, *p.MinAge)
		conds = append(conds, fmt.Sprintf("age >= $%d", len(args)))
	}
	if p.MaxAge != nil {
		args = append(args, *p.MaxAge)
		conds = append(conds, fmt.Sprintf("age <= $%d", len(args)))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// OrderSQL builds the ORDER BY clause. A secondary sort on id keeps the
// order deterministic among equal keys.
func (p ListParams) OrderSQL() string {
	col := sortColumns[p.SortBy]
	if col == "" {
		col = "created_at"
	}
	dir := "DESC"
	if p.SortOrder == "asc" {
		dir = "ASC"
	}
	return fmt.Sprintf(" ORDER BY %s %s, id", col, dir)
}

// SearchSQL builds the OR-substring match of the dedicated search endpoint:
// name, diagnosis, operation, or any relative, capped at limit results,
// sorted by name ascending.
func SearchSQL(q string, limit int) (string, []interface{}) {
	args := []interface{}{escapeLike(q), limit}
	sql := `SELECT ` + patientCols + ` FROM patients WHERE ` +
		containsClause("name", 1) + ` OR ` +
		containsClause("diagnosis", 1) + ` OR ` +
		containsClause("operation", 1) + ` OR ` +
		relativesClause(1) +
		` ORDER BY name ASC, id LIMIT $2`
	return sql, args
}
