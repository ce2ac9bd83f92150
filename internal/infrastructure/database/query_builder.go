package database

import (
	"fmt"
	"strings"
)

// QueryBuilder assembles a SQL statement with positional $n arguments.
// Conditions added via Where are ANDed together; the first one emits the
// WHERE keyword.
type QueryBuilder struct {
	query    strings.Builder
	args     []interface{}
	hasWhere bool
}

func NewQueryBuilder(base string) *QueryBuilder {
	qb := &QueryBuilder{args: make([]interface{}, 0)}
	qb.query.WriteString(base)
	return qb
}

// Where appends a condition. Placeholders in the condition are written as
// %d verbs and renumbered against the running argument index, e.g.
// qb.Where("status = $%d", status).
func (qb *QueryBuilder) Where(condition string, args ...interface{}) *QueryBuilder {
	if qb.hasWhere {
		qb.query.WriteString(" AND ")
	} else {
		qb.query.WriteString(" WHERE ")
		qb.hasWhere = true
	}

	placeholders := make([]interface{}, len(args))
	for i := range args {
		placeholders[i] = len(qb.args) + i + 1
	}
	qb.query.WriteString(fmt.Sprintf(condition, placeholders...))
	qb.args = append(qb.args, args...)
	return qb
}

func (qb *QueryBuilder) OrderBy(column string, desc bool) *QueryBuilder {
	qb.query.WriteString(" ORDER BY " + column)
	if desc {
		qb.query.WriteString(" DESC")
	}
	return qb
}

func (qb *QueryBuilder) Limit(limit int) *QueryBuilder {
	qb.query.WriteString(fmt.Sprintf(" LIMIT %d", limit))
	return qb
}

func (qb *QueryBuilder) Offset(offset int) *QueryBuilder {
	qb.query.WriteString(fmt.Sprintf(" OFFSET %d", offset))
	return qb
}

func (qb *QueryBuilder) Build() (string, []interface{}) {
	return qb.query.String(), qb.args
}
