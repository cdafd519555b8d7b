// Package database builds parameterized list queries with sanitized identifiers.
package database

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
)

type ConditionType string

const (
	Equal    ConditionType = "="
	NotEqual ConditionType = "!="
	ILike    ConditionType = "ILIKE"
	Custom   ConditionType = "CUSTOM"

	unset = -1
)

var placeholderRe = regexp.MustCompile(`\$(\d+)`)

type Condition struct {
	Field string
	Type  ConditionType
	Value any
	raw   string
}

// WhereCond compares a single column against a bound value.
func WhereCond(field string, condType ConditionType, value any) Condition {
	if condType == Custom {
		//nolint:forbidigo // custom conditions must provide raw SQL via WhereRawCond.
		panic("Use WhereRawCond for Custom type")
	}
	return Condition{Field: field, Type: condType, Value: value}
}

// WhereRawCond adds raw SQL whose $1..$n placeholders refer to params.
// Placeholders are renumbered to fit the surrounding query; repeated indexes bind once.
func WhereRawCond(rawQuery string, params ...any) Condition {
	return Condition{Type: Custom, raw: rawQuery, Value: params}
}

type ListQueryOptions struct {
	Table      string
	Columns    []string
	CountOnly  bool
	Conditions []Condition
	OrderBy    string
	OrderDir   string
	Limit      int
	Offset     int
}

type ListQueryOption func(*ListQueryOptions)

func NewListQueryOptions(table string, opts ...ListQueryOption) *ListQueryOptions {
	options := &ListQueryOptions{Table: table, Limit: unset, Offset: unset}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// WithColumns sets the columns to select.
func WithColumns(cols ...string) ListQueryOption {
	return func(o *ListQueryOptions) { o.Columns = cols }
}

// WithCondition adds a single condition.
func WithCondition(cond Condition) ListQueryOption {
	return func(o *ListQueryOptions) { o.Conditions = append(o.Conditions, cond) }
}

// WithOrderBy sets the ordering column and direction.
func WithOrderBy(column, direction string) ListQueryOption {
	return func(o *ListQueryOptions) {
		o.OrderBy = column
		o.OrderDir = direction
	}
}

// WithLimit sets the limit. Accepts 0.
func WithLimit(limit int) ListQueryOption {
	return func(o *ListQueryOptions) {
		if limit >= 0 {
			o.Limit = limit
		}
	}
}

// WithOffset sets the offset. Accepts 0.
func WithOffset(offset int) ListQueryOption {
	return func(o *ListQueryOptions) {
		if offset >= 0 {
			o.Offset = offset
		}
	}
}

// WithCountOnly sets the query to count only.
func WithCountOnly() ListQueryOption {
	return func(o *ListQueryOptions) { o.CountOnly = true }
}

func sanitizeIdentifier(ident string) string {
	return pgx.Identifier(strings.Split(ident, ".")).Sanitize()
}

// BuildListQuery constructs a SQL query string and arguments from options.
//
//	query, args := BuildListQuery(NewListQueryOptions("content_items",
//		WithCondition(WhereRawCond("(title ILIKE $1 OR type ILIKE $1)", "%book%")),
//		WithOrderBy("id", "ASC"),
//		WithLimit(5),
//	))
func BuildListQuery(options *ListQueryOptions) (string, []any) {
	if options == nil {
		return "", nil
	}

	var q strings.Builder
	if options.CountOnly {
		q.WriteString("SELECT COUNT(*) ")
	} else if len(options.Columns) == 0 {
		q.WriteString("SELECT * ")
	} else {
		cols := make([]string, len(options.Columns))
		for i, c := range options.Columns {
			cols[i] = sanitizeIdentifier(c)
		}
		q.WriteString("SELECT " + strings.Join(cols, ", ") + " ")
	}
	q.WriteString("FROM " + sanitizeIdentifier(options.Table))

	where, args, next := buildWhereClause(options.Conditions, 1)
	if where != "" {
		q.WriteString(" " + where)
	}
	if options.CountOnly {
		return q.String(), args
	}

	if options.OrderBy != "" {
		q.WriteString(" ORDER BY " + sanitizeIdentifier(options.OrderBy))
		if dir := strings.ToUpper(options.OrderDir); dir == "ASC" || dir == "DESC" {
			q.WriteString(" " + dir)
		}
	}
	if options.Limit != unset {
		fmt.Fprintf(&q, " LIMIT $%d", next)
		args = append(args, options.Limit)
		next++
	}
	if options.Offset != unset {
		fmt.Fprintf(&q, " OFFSET $%d", next)
		args = append(args, options.Offset)
	}
	return q.String(), args
}

func buildWhereClause(conds []Condition, start int) (string, []any, int) {
	parts := make([]string, 0, len(conds))
	args := []any{}
	next := start

	for _, c := range conds {
		var (
			sql     string
			newArgs []any
		)
		switch c.Type {
		case Custom:
			sql, newArgs, next = renumber(c, next)
		case Equal, NotEqual, ILike:
			if c.Field == "" {
				continue
			}
			sql = fmt.Sprintf("%s %s $%d", sanitizeIdentifier(c.Field), c.Type, next)
			newArgs = []any{c.Value}
			next++
		default:
			continue
		}
		if sql != "" {
			parts = append(parts, sql)
			args = append(args, newArgs...)
		}
	}

	if len(parts) == 0 {
		return "", args, next
	}
	return "WHERE " + strings.Join(parts, " AND "), args, next
}

// renumber rewrites the raw condition's placeholders starting at next.
// The raw SQL itself is not sanitized.
func renumber(c Condition, next int) (string, []any, int) {
	if c.raw == "" {
		return "", nil, next
	}
	params, _ := c.Value.([]any)
	args := []any{}
	mapped := make(map[int]int)

	out := placeholderRe.ReplaceAllStringFunc(c.raw, func(m string) string {
		n, err := strconv.Atoi(m[1:])
		if err != nil || n < 1 || n > len(params) {
			return m
		}
		if _, ok := mapped[n]; !ok {
			mapped[n] = next
			args = append(args, params[n-1])
			next++
		}
		return "$" + strconv.Itoa(mapped[n])
	})
	return out, args, next
}
