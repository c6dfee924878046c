package repository

import (
	"fmt"
	"strings"
)

// OrderColumns maps public sort keys to SQL expressions
type OrderColumns map[string]string

var (
	UserOrderColumns = OrderColumns{
		"id":         "id",
		"name":       "name",
		"email":      "email",
		"age":        "age",
		"created_at": "created_at",
	}

	PageOrderColumns = OrderColumns{
		"created_at": "p.created_at",
		"updated_at": "p.updated_at",
		"title":      "p.title",
		"slug":       "p.slug",
	}
)

// Keys returns the accepted sort keys
func (c OrderColumns) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	return keys
}

// OrderClause builds an ORDER BY clause from an allow-list.
// Empty column and direction default to created_at DESC.
func OrderClause(allowed OrderColumns, column, direction string) (string, error) {
	if column == "" {
		column = "created_at"
	}

	expr, ok := allowed[column]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidOrderColumn, column)
	}

	dir := strings.ToUpper(strings.TrimSpace(direction))
	switch dir {
	case "":
		dir = "DESC"
	case "ASC", "DESC":
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidOrderDirection, direction)
	}

	return "ORDER BY " + expr + " " + dir, nil
}
