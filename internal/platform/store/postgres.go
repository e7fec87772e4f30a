// Copyright (c) 2026 Comunidad. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/taibuivan/comunidad/internal/platform/apperr"
	"github.com/taibuivan/comunidad/internal/platform/dberr"
)

// querier is the subset of *pgxpool.Pool (and pgx.Tx) the adapter needs.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// # PostgreSQL Client

// Postgres implements [Client] over a pgx connection pool.
//
// Every selected or returned row is rendered as a single jsonb value
// (to_jsonb plus jsonb_build_object for embeds), so relations arrive
// nested in one round-trip.
type Postgres struct {
	db querier
}

// NewPostgres constructs a PostgreSQL backed [Client]. db is usually a
// *pgxpool.Pool.
func NewPostgres(db querier) *Postgres {
	return &Postgres{db: db}
}

// Select implements [Client].
func (client *Postgres) Select(ctx context.Context, query Query) ([]json.RawMessage, error) {
	sql, args, err := buildSelect(query)
	if err != nil {
		return nil, err
	}
	return client.collect(ctx, "select_"+query.Table, sql, args)
}

// SelectOne implements [Client].
func (client *Postgres) SelectOne(ctx context.Context, query Query) (json.RawMessage, error) {
	// Two rows are enough to detect a non-unique match
	query.Limit = 2
	rows, err := client.Select(ctx, query)
	if err != nil {
		return nil, err
	}
	return exactlyOne(rows, query.Table)
}

// Insert implements [Client].
func (client *Postgres) Insert(ctx context.Context, table string, rows []Values, opts ...InsertOption) ([]json.RawMessage, error) {
	if len(rows) == 0 {
		return []json.RawMessage{}, nil
	}
	sql, args, err := buildInsert(table, rows, collectInsertOptions(opts))
	if err != nil {
		return nil, err
	}
	return client.collect(ctx, "insert_"+table, sql, args)
}

// Update implements [Client].
func (client *Postgres) Update(ctx context.Context, table string, values Values, filters ...Filter) ([]json.RawMessage, error) {
	sql, args, err := buildUpdate(table, values, filters)
	if err != nil {
		return nil, err
	}
	return client.collect(ctx, "update_"+table, sql, args)
}

// Delete implements [Client].
func (client *Postgres) Delete(ctx context.Context, table string, filters ...Filter) error {
	sql, args, err := buildDelete(table, filters)
	if err != nil {
		return err
	}
	if _, err := client.db.Exec(ctx, sql, args...); err != nil {
		return dberr.Wrap(err, "delete_"+table)
	}
	return nil
}

// Count implements [Client].
func (client *Postgres) Count(ctx context.Context, table string, filters ...Filter) (int, error) {
	sql, args, err := buildCount(table, filters)
	if err != nil {
		return 0, err
	}
	var total int64
	if err := client.db.QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		return 0, dberr.Wrap(err, "count_"+table)
	}
	return int(total), nil
}

// collect runs a statement whose single result column is jsonb.
func (client *Postgres) collect(ctx context.Context, action, sql string, args []any) ([]json.RawMessage, error) {
	rows, err := client.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, dberr.Wrap(err, action)
	}
	defer rows.Close()

	result := make([]json.RawMessage, 0)
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, dberr.Wrap(err, action)
		}
		result = append(result, append(json.RawMessage(nil), raw...))
	}
	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, action)
	}
	return result, nil
}

// exactlyOne enforces single-row semantics on a result set.
func exactlyOne(rows []json.RawMessage, table string) (json.RawMessage, error) {
	switch len(rows) {
	case 0:
		return nil, apperr.NotFound("Record")
	case 1:
		return rows[0], nil
	default:
		return nil, apperr.StoreError(fmt.Errorf("store: %s: expected one row, got several", table))
	}
}

// # SQL Builder

var errEmptyIdentifier = errors.New("store: empty identifier")

// sqlBuilder accumulates positional arguments and table aliases for one statement.
type sqlBuilder struct {
	args    []any
	aliases int
}

func (builder *sqlBuilder) bind(value any) string {
	builder.args = append(builder.args, value)
	return fmt.Sprintf("$%d", len(builder.args))
}

func (builder *sqlBuilder) alias() string {
	alias := fmt.Sprintf("t%d", builder.aliases)
	builder.aliases++
	return alias
}

// table quotes a possibly schema-qualified table name.
func table(name string) (string, error) {
	if name == "" {
		return "", errEmptyIdentifier
	}
	return pgx.Identifier(strings.Split(name, ".")).Sanitize(), nil
}

// column renders alias."column".
func column(alias, name string) (string, error) {
	if name == "" {
		return "", errEmptyIdentifier
	}
	return alias + "." + pgx.Identifier{name}.Sanitize(), nil
}

// literal renders a SQL string literal for developer-supplied JSON keys.
func literal(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "''") + "'"
}

// rowJSON renders the jsonb expression for one row of alias, with embeds.
func (builder *sqlBuilder) rowJSON(alias string, columns []string, embeds []Relation) (string, error) {
	expression := fmt.Sprintf("to_jsonb(%s)", alias)

	if len(columns) > 0 {
		pairs := make([]string, 0, len(columns))
		for _, name := range columns {
			ref, err := column(alias, name)
			if err != nil {
				return "", err
			}
			pairs = append(pairs, literal(name)+", "+ref)
		}
		expression = "jsonb_build_object(" + strings.Join(pairs, ", ") + ")"
	}

	for _, relation := range embeds {
		nested, err := builder.embed(alias, relation)
		if err != nil {
			return "", err
		}
		expression += fmt.Sprintf(" || jsonb_build_object(%s, %s)", literal(relation.Alias), nested)
	}

	return expression, nil
}

// embed renders the correlated sub-select for one relation.
func (builder *sqlBuilder) embed(parent string, relation Relation) (string, error) {
	child := builder.alias()

	tableName, err := table(relation.Table)
	if err != nil {
		return "", err
	}
	foreignKey, err := column(child, relation.ForeignKey)
	if err != nil {
		return "", err
	}
	localKey, err := column(parent, relation.LocalKey)
	if err != nil {
		return "", err
	}
	inner, err := builder.rowJSON(child, nil, relation.Embeds)
	if err != nil {
		return "", err
	}

	if relation.One {
		return fmt.Sprintf("(SELECT %s FROM %s %s WHERE %s = %s LIMIT 1)",
			inner, tableName, child, foreignKey, localKey), nil
	}
	return fmt.Sprintf("COALESCE((SELECT jsonb_agg(%s) FROM %s %s WHERE %s = %s), '[]'::jsonb)",
		inner, tableName, child, foreignKey, localKey), nil
}

// where renders the WHERE clause, or an empty string without filters.
func (builder *sqlBuilder) where(alias string, filters []Filter) (string, error) {
	if len(filters) == 0 {
		return "", nil
	}

	conditions := make([]string, 0, len(filters))
	for _, filter := range filters {
		ref, err := column(alias, filter.Column)
		if err != nil {
			return "", err
		}

		switch filter.Op {
		case OpEq:
			if filter.Value == nil {
				conditions = append(conditions, ref+" IS NULL")
				continue
			}
			conditions = append(conditions, ref+" = "+builder.bind(filter.Value))
		case OpILike:
			conditions = append(conditions, ref+" ILIKE "+builder.bind(filter.Value))
		case OpIn:
			conditions = append(conditions, ref+" = ANY("+builder.bind(filter.Value)+")")
		default:
			return "", fmt.Errorf("store: unsupported operator %q", filter.Op)
		}
	}

	return " WHERE " + strings.Join(conditions, " AND "), nil
}

// orderBy renders the ORDER BY clause.
func orderBy(alias string, orders []Order) (string, error) {
	if len(orders) == 0 {
		return "", nil
	}

	terms := make([]string, 0, len(orders))
	for _, order := range orders {
		ref, err := column(alias, order.Column)
		if err != nil {
			return "", err
		}
		term := ref + " ASC"
		if order.Descending {
			term = ref + " DESC"
		}
		if order.NullsLast {
			term += " NULLS LAST"
		}
		terms = append(terms, term)
	}

	return " ORDER BY " + strings.Join(terms, ", "), nil
}

func buildSelect(query Query) (string, []any, error) {
	builder := &sqlBuilder{}
	alias := builder.alias()

	tableName, err := table(query.Table)
	if err != nil {
		return "", nil, err
	}
	projection, err := builder.rowJSON(alias, query.Columns, query.Embeds)
	if err != nil {
		return "", nil, err
	}
	whereClause, err := builder.where(alias, query.Filters)
	if err != nil {
		return "", nil, err
	}
	orderClause, err := orderBy(alias, query.Order)
	if err != nil {
		return "", nil, err
	}

	sql := fmt.Sprintf("SELECT %s FROM %s %s%s%s", projection, tableName, alias, whereClause, orderClause)
	if query.Limit > 0 {
		sql += fmt.Sprintf(" LIMIT %d", query.Limit)
	}
	return sql, builder.args, nil
}

func buildInsert(tableName string, rows []Values, options insertOptions) (string, []any, error) {
	builder := &sqlBuilder{}
	alias := builder.alias()

	target, err := table(tableName)
	if err != nil {
		return "", nil, err
	}

	// Column list is the union of keys; absent keys fall back to DEFAULT
	columns := unionKeys(rows)
	if len(columns) == 0 {
		return "", nil, fmt.Errorf("store: insert into %s without columns", tableName)
	}

	quoted := make([]string, len(columns))
	for i, name := range columns {
		quoted[i] = pgx.Identifier{name}.Sanitize()
	}

	tuples := make([]string, 0, len(rows))
	for _, row := range rows {
		placeholders := make([]string, len(columns))
		for i, name := range columns {
			value, ok := row[name]
			if !ok {
				placeholders[i] = "DEFAULT"
				continue
			}
			placeholders[i] = builder.bind(value)
		}
		tuples = append(tuples, "("+strings.Join(placeholders, ", ")+")")
	}

	sql := fmt.Sprintf("INSERT INTO %s AS %s (%s) VALUES %s", target, alias, strings.Join(quoted, ", "), strings.Join(tuples, ", "))
	if options.ignoreDuplicates {
		sql += " ON CONFLICT DO NOTHING"
	}
	sql += fmt.Sprintf(" RETURNING to_jsonb(%s)", alias)
	return sql, builder.args, nil
}

func buildUpdate(tableName string, values Values, filters []Filter) (string, []any, error) {
	builder := &sqlBuilder{}
	alias := builder.alias()

	target, err := table(tableName)
	if err != nil {
		return "", nil, err
	}
	if len(values) == 0 {
		return "", nil, fmt.Errorf("store: update of %s without values", tableName)
	}
	if len(filters) == 0 {
		return "", nil, fmt.Errorf("store: update of %s without filters", tableName)
	}

	columns := sortedKeys(values)
	assignments := make([]string, len(columns))
	for i, name := range columns {
		assignments[i] = pgx.Identifier{name}.Sanitize() + " = " + builder.bind(values[name])
	}

	whereClause, err := builder.where(alias, filters)
	if err != nil {
		return "", nil, err
	}

	sql := fmt.Sprintf("UPDATE %s AS %s SET %s%s RETURNING to_jsonb(%s)", target, alias, strings.Join(assignments, ", "), whereClause, alias)
	return sql, builder.args, nil
}

func buildDelete(tableName string, filters []Filter) (string, []any, error) {
	builder := &sqlBuilder{}
	alias := builder.alias()

	target, err := table(tableName)
	if err != nil {
		return "", nil, err
	}
	if len(filters) == 0 {
		return "", nil, fmt.Errorf("store: delete from %s without filters", tableName)
	}

	whereClause, err := builder.where(alias, filters)
	if err != nil {
		return "", nil, err
	}
	return fmt.Sprintf("DELETE FROM %s AS %s%s", target, alias, whereClause), builder.args, nil
}

func buildCount(tableName string, filters []Filter) (string, []any, error) {
	builder := &sqlBuilder{}
	alias := builder.alias()

	target, err := table(tableName)
	if err != nil {
		return "", nil, err
	}
	whereClause, err := builder.where(alias, filters)
	if err != nil {
		return "", nil, err
	}
	return fmt.Sprintf("SELECT count(*) FROM %s AS %s%s", target, alias, whereClause), builder.args, nil
}

// unionKeys returns the sorted union of keys across rows.
func unionKeys(rows []Values) []string {
	seen := make(map[string]struct{})
	for _, row := range rows {
		for key := range row {
			seen[key] = struct{}{}
		}
	}
	keys := make([]string, 0, len(seen))
	for key := range seen {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func sortedKeys(values Values) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
