package repository

import (
	"fmt"
	"strings"
)

const (
	defaultLimit = 50
	maxLimit     = 5000
)

// clauseBuilder accumulates positional WHERE clauses for pgx queries.
type clauseBuilder struct {
	clauses []string
	args    []any
}

// add appends a clause; format must contain exactly one %s for the placeholder.
func (b *clauseBuilder) add(format string, value any) {
	b.args = append(b.args, value)
	b.clauses = append(b.clauses, fmt.Sprintf(format, fmt.Sprintf("$%d", len(b.args))))
}

// raw appends a clause without arguments.
func (b *clauseBuilder) raw(clause string) {
	b.clauses = append(b.clauses, clause)
}

func (b *clauseBuilder) where() string {
	if len(b.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(b.clauses, " AND ")
}

func pageClause(limit, offset int) string {
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)
}

func likePattern(term string) string {
	return "%" + strings.ToLower(strings.TrimSpace(term)) + "%"
}

// nullable maps an empty identifier to SQL NULL.
func nullable(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}
