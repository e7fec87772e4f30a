// Copyright (c) 2026 Comunidad. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package store is the relational client adapter used by every repository.

It issues filtered, explicitly ordered reads (with embedded relations) and
single-row or batch writes against the relational backend, and returns rows as
JSON documents that repositories decode into their own row types.

Backends:

  - [Postgres]: pgx connection pool; each row is rendered server-side with to_jsonb.
  - [Memory]: in-process tables for local development and tests.

Every failure is an [apperr.AppError]: NOT_FOUND for an empty exact-one read,
CONFLICT for unique violations, STORE_ERROR for everything else.
*/
package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/taibuivan/comunidad/internal/platform/apperr"
)

// Values is a column → value payload for inserts and updates.
type Values map[string]any

// # Filters

// Operator names a filter comparison.
type Operator string

const (
	OpEq    Operator = "eq"
	OpILike Operator = "ilike"
	OpIn    Operator = "in"
)

// Filter restricts a read or write to matching rows.
type Filter struct {
	Column string
	Op     Operator
	Value  any
}

// Eq matches rows whose column equals value.
func Eq(column string, value any) Filter {
	return Filter{Column: column, Op: OpEq, Value: value}
}

// ILike matches rows whose column matches a case-insensitive SQL pattern (% and _).
func ILike(column, pattern string) Filter {
	return Filter{Column: column, Op: OpILike, Value: pattern}
}

// In matches rows whose column is one of values.
func In(column string, values []string) Filter {
	return Filter{Column: column, Op: OpIn, Value: values}
}

// # Ordering

// Order is one ORDER BY term. Null placement follows PostgreSQL defaults
// (nulls sort as the largest value) unless NullsLast is set.
type Order struct {
	Column     string
	Descending bool
	NullsLast  bool
}

// Asc orders by column ascending.
func Asc(column string) Order { return Order{Column: column} }

// Desc orders by column descending.
func Desc(column string) Order { return Order{Column: column, Descending: true} }

// WithNullsLast places null values after every non-null value.
func (o Order) WithNullsLast() Order {
	o.NullsLast = true
	return o
}

// # Relations

// Relation embeds related rows under Alias in every selected row.
//
// The child table row matches when child.ForeignKey = parent.LocalKey.
// A to-many relation (One = false) yields an array, possibly empty. A to-one
// relation yields the object, or null when no row matches.
type Relation struct {
	Alias      string
	Table      string
	LocalKey   string
	ForeignKey string
	One        bool
	Embeds     []Relation
}

// Query describes a read.
type Query struct {
	Table   string
	Columns []string // empty selects every column
	Embeds  []Relation
	Filters []Filter
	Order   []Order
	Limit   int // zero means no limit
}

// # Writes

type insertOptions struct {
	ignoreDuplicates bool
}

// InsertOption tunes an insert.
type InsertOption func(*insertOptions)

// IgnoreDuplicates turns unique violations into no-ops. Skipped rows are not
// returned.
func IgnoreDuplicates() InsertOption {
	return func(options *insertOptions) { options.ignoreDuplicates = true }
}

func collectInsertOptions(opts []InsertOption) insertOptions {
	var options insertOptions
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

// Client is the contract every backend implements. All methods may block on
// network I/O and honour ctx cancellation.
type Client interface {
	// Select returns every matching row in the requested order.
	Select(ctx context.Context, query Query) ([]json.RawMessage, error)

	// SelectOne returns exactly one row or NOT_FOUND.
	SelectOne(ctx context.Context, query Query) (json.RawMessage, error)

	// Insert writes rows and returns them as stored.
	Insert(ctx context.Context, table string, rows []Values, opts ...InsertOption) ([]json.RawMessage, error)

	// Update applies values to every row matching filters and returns them.
	Update(ctx context.Context, table string, values Values, filters ...Filter) ([]json.RawMessage, error)

	// Delete removes every row matching filters.
	Delete(ctx context.Context, table string, filters ...Filter) error

	// Count returns the number of rows matching filters.
	Count(ctx context.Context, table string, filters ...Filter) (int, error)
}

// # Decoding

// Decode unmarshals every row into T.
func Decode[T any](rows []json.RawMessage) ([]T, error) {
	items := make([]T, 0, len(rows))
	for _, raw := range rows {
		var item T
		if err := json.Unmarshal(raw, &item); err != nil {
			return nil, apperr.StoreError(fmt.Errorf("store: decode row: %w", err))
		}
		items = append(items, item)
	}
	return items, nil
}

// DecodeOne unmarshals a single row into T.
func DecodeOne[T any](raw json.RawMessage) (T, error) {
	var item T
	if err := json.Unmarshal(raw, &item); err != nil {
		return item, apperr.StoreError(fmt.Errorf("store: decode row: %w", err))
	}
	return item, nil
}

// First returns the first row or NOT_FOUND for resource.
func First(rows []json.RawMessage, resource string) (json.RawMessage, error) {
	if len(rows) == 0 {
		return nil, apperr.NotFound(resource)
	}
	return rows[0], nil
}
