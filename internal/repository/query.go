package repository

import (
	"fmt"
	"strconv"
)

const (
	CategoryField  QueryField = "category"
	FeaturedField  QueryField = "featured"
	TitleField     QueryField = "title"
	CreatedAtField QueryField = "created_at"
)

const (
	// DefaultListLimit bounds catalog listings; the catalog is small and listings are not paginated.
	DefaultListLimit = 50
	maxListLimit     = 200
)

type Query struct {
	Values map[QueryField]string

	Limit int
}

type QueryField string

func NewQuery() *Query {
	return &Query{
		Values: map[QueryField]string{},
		Limit:  DefaultListLimit,
	}
}

// With adds an equality filter. Empty values are ignored.
func (q *Query) With(field QueryField, val string) *Query {
	if val != "" {
		q.Values[field] = val
	}
	return q
}

// ApplyLimit sets the listing bound, falling back to DefaultListLimit for non-positive values.
func (q *Query) ApplyLimit(limit int32) {
	q.Limit = DefaultListLimit
	if limit > 0 {
		q.Limit = min(maxListLimit, int(limit))
	}
}

// Featured returns the featured filter, if one was set.
func (q *Query) Featured() (value bool, ok bool, err error) {
	raw, ok := q.Values[FeaturedField]
	if !ok {
		return false, false, nil
	}
	value, err = strconv.ParseBool(raw)
	if err != nil {
		return false, false, fmt.Errorf("invalid featured filter %q: %w", raw, err)
	}
	return value, true, nil
}
