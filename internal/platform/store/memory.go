// Copyright (c) 2026 Comunidad. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"regexp"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/taibuivan/comunidad/internal/platform/apperr"
	"github.com/taibuivan/comunidad/pkg/uuid"
)

// # Table Definitions

// ForeignKey declares that Column references ReferencedColumn of References.
type ForeignKey struct {
	Column           string
	References       string
	ReferencedColumn string
	Cascade          bool // delete referencing rows with the referenced row
}

// TableSpec describes the constraints the memory backend enforces for one
// table. It mirrors the relational schema closely enough for repositories to
// behave identically on both backends.
type TableSpec struct {
	Name string

	// GeneratedID fills "id" with a UUIDv7 when an insert omits it.
	GeneratedID bool

	// Timestamps fills created_at/updated_at on insert and bumps updated_at on update.
	Timestamps bool

	// Unique lists column sets that must be unique. Rows holding a null in
	// any column of a set never collide (PostgreSQL semantics).
	Unique [][]string

	ForeignKeys []ForeignKey

	// Defaults are applied to omitted columns on insert.
	Defaults Values
}

type memoryRow map[string]any

// # Memory Client

// Memory implements [Client] with in-process tables guarded by a RWMutex.
//
// Writes are atomic per call: a batch insert that violates a constraint
// leaves the table untouched.
type Memory struct {
	mu     sync.RWMutex
	specs  map[string]TableSpec
	tables map[string][]memoryRow
	now    func() time.Time
}

// NewMemory creates an empty memory store with the given tables.
func NewMemory(specs ...TableSpec) *Memory {
	memory := &Memory{
		specs:  make(map[string]TableSpec, len(specs)),
		tables: make(map[string][]memoryRow, len(specs)),
		now:    time.Now,
	}
	for _, spec := range specs {
		memory.specs[spec.Name] = spec
		memory.tables[spec.Name] = nil
	}
	return memory
}

// Select implements [Client].
func (memory *Memory) Select(ctx context.Context, query Query) ([]json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperr.StoreError(err)
	}

	memory.mu.RLock()
	defer memory.mu.RUnlock()

	rows, err := memory.match(query.Table, query.Filters)
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(rows, func(a, b memoryRow) int {
		return compareRows(a, b, query.Order)
	})

	if query.Limit > 0 && len(rows) > query.Limit {
		rows = rows[:query.Limit]
	}

	return memory.renderAll(rows, query.Columns, query.Embeds)
}

// SelectOne implements [Client].
func (memory *Memory) SelectOne(ctx context.Context, query Query) (json.RawMessage, error) {
	query.Limit = 2
	rows, err := memory.Select(ctx, query)
	if err != nil {
		return nil, err
	}
	return exactlyOne(rows, query.Table)
}

// Insert implements [Client].
func (memory *Memory) Insert(ctx context.Context, table string, rows []Values, opts ...InsertOption) ([]json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperr.StoreError(err)
	}

	options := collectInsertOptions(opts)

	memory.mu.Lock()
	defer memory.mu.Unlock()

	spec, ok := memory.specs[table]
	if !ok {
		return nil, unknownTable(table)
	}

	existing := memory.tables[table]
	accepted := make([]memoryRow, 0, len(rows))
	now := memory.now().UTC()

	for _, values := range rows {
		row := memoryRow{}
		for column, value := range spec.Defaults {
			row[column] = normalize(value)
		}
		for column, value := range values {
			row[column] = normalize(value)
		}
		if spec.GeneratedID && row["id"] == nil {
			row["id"] = uuid.New()
		}
		if spec.Timestamps {
			if row["created_at"] == nil {
				row["created_at"] = now
			}
			if row["updated_at"] == nil {
				row["updated_at"] = now
			}
		}

		if columns := memory.violatedUnique(spec, row, existing, accepted); columns != nil {
			if options.ignoreDuplicates {
				continue
			}
			return nil, uniqueViolation(table, columns)
		}
		if err := memory.checkForeignKeys(spec, row); err != nil {
			return nil, err
		}

		accepted = append(accepted, row)
	}

	memory.tables[table] = append(existing, accepted...)
	return memory.renderAll(accepted, nil, nil)
}

// Update implements [Client].
func (memory *Memory) Update(ctx context.Context, table string, values Values, filters ...Filter) ([]json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperr.StoreError(err)
	}

	memory.mu.Lock()
	defer memory.mu.Unlock()

	spec, ok := memory.specs[table]
	if !ok {
		return nil, unknownTable(table)
	}

	current := memory.tables[table]
	next := make([]memoryRow, len(current))
	var changed []memoryRow

	for i, row := range current {
		next[i] = row
		if !matchesAll(row, filters) {
			continue
		}

		updated := cloneRow(row)
		for column, value := range values {
			updated[column] = normalize(value)
		}
		if spec.Timestamps {
			if _, explicit := values["updated_at"]; !explicit {
				updated["updated_at"] = memory.now().UTC()
			}
		}
		if err := memory.checkForeignKeys(spec, updated); err != nil {
			return nil, err
		}

		next[i] = updated
		changed = append(changed, updated)
	}

	// Uniqueness is checked against the post-update table as a whole
	for i, row := range next {
		others := slices.Concat(next[:i], next[i+1:])
		if columns := memory.violatedUnique(spec, row, others, nil); columns != nil {
			return nil, uniqueViolation(table, columns)
		}
	}

	memory.tables[table] = next
	return memory.renderAll(changed, nil, nil)
}

// Delete implements [Client].
func (memory *Memory) Delete(ctx context.Context, table string, filters ...Filter) error {
	if err := ctx.Err(); err != nil {
		return apperr.StoreError(err)
	}

	memory.mu.Lock()
	defer memory.mu.Unlock()

	if _, ok := memory.specs[table]; !ok {
		return unknownTable(table)
	}

	// Work on a copy so a restricted reference aborts without side effects
	snapshot := make(map[string][]memoryRow, len(memory.tables))
	for name, rows := range memory.tables {
		snapshot[name] = slices.Clone(rows)
	}

	if err := memory.deleteFrom(snapshot, table, filters); err != nil {
		return err
	}

	memory.tables = snapshot
	return nil
}

// Count implements [Client].
func (memory *Memory) Count(ctx context.Context, table string, filters ...Filter) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, apperr.StoreError(err)
	}

	memory.mu.RLock()
	defer memory.mu.RUnlock()

	rows, err := memory.match(table, filters)
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

// # Internals

func (memory *Memory) match(table string, filters []Filter) ([]memoryRow, error) {
	rows, ok := memory.tables[table]
	if !ok {
		if _, declared := memory.specs[table]; !declared {
			return nil, unknownTable(table)
		}
	}

	for _, filter := range filters {
		if filter.Op != OpEq && filter.Op != OpILike && filter.Op != OpIn {
			return nil, apperr.StoreError(fmt.Errorf("store: unsupported operator %q", filter.Op))
		}
	}

	matched := make([]memoryRow, 0, len(rows))
	for _, row := range rows {
		if matchesAll(row, filters) {
			matched = append(matched, row)
		}
	}
	return matched, nil
}

// deleteFrom removes matching rows from tables and cascades along foreign keys.
func (memory *Memory) deleteFrom(tables map[string][]memoryRow, table string, filters []Filter) error {
	var removed, kept []memoryRow
	for _, row := range tables[table] {
		if matchesAll(row, filters) {
			removed = append(removed, row)
			continue
		}
		kept = append(kept, row)
	}
	if len(removed) == 0 {
		return nil
	}
	tables[table] = kept

	for _, child := range memory.specs {
		for _, fk := range child.ForeignKeys {
			if fk.References != table {
				continue
			}

			keys := make([]string, 0, len(removed))
			for _, row := range removed {
				if value, ok := row[fk.ReferencedColumn].(string); ok {
					keys = append(keys, value)
				}
			}
			referencing := In(fk.Column, keys)

			if !fk.Cascade {
				for _, row := range tables[child.Name] {
					if matches(row, referencing) {
						return apperr.StoreError(fmt.Errorf("store: %s.%s still references %s", child.Name, fk.Column, table))
					}
				}
				continue
			}

			if err := memory.deleteFrom(tables, child.Name, []Filter{referencing}); err != nil {
				return err
			}
		}
	}
	return nil
}

// violatedUnique returns the first unique column set row collides on.
func (memory *Memory) violatedUnique(spec TableSpec, row memoryRow, groups ...[]memoryRow) []string {
	for _, columns := range spec.Unique {
		for _, group := range groups {
			for _, other := range group {
				if sameKey(row, other, columns) {
					return columns
				}
			}
		}
	}
	return nil
}

func (memory *Memory) checkForeignKeys(spec TableSpec, row memoryRow) error {
	for _, fk := range spec.ForeignKeys {
		value := row[fk.Column]
		if value == nil {
			continue
		}
		found := slices.ContainsFunc(memory.tables[fk.References], func(parent memoryRow) bool {
			return compareValues(parent[fk.ReferencedColumn], value) == 0
		})
		if !found {
			return apperr.StoreError(fmt.Errorf("store: %s.%s references a missing %s row", spec.Name, fk.Column, fk.References))
		}
	}
	return nil
}

func (memory *Memory) renderAll(rows []memoryRow, columns []string, embeds []Relation) ([]json.RawMessage, error) {
	result := make([]json.RawMessage, 0, len(rows))
	for _, row := range rows {
		document, err := memory.render(row, columns, embeds)
		if err != nil {
			return nil, err
		}
		raw, err := json.Marshal(document)
		if err != nil {
			return nil, apperr.StoreError(fmt.Errorf("store: encode row: %w", err))
		}
		result = append(result, raw)
	}
	return result, nil
}

// render projects a row and resolves its embeds recursively.
func (memory *Memory) render(row memoryRow, columns []string, embeds []Relation) (map[string]any, error) {
	document := make(map[string]any, len(row)+len(embeds))
	if len(columns) == 0 {
		for column, value := range row {
			document[column] = value
		}
	} else {
		for _, column := range columns {
			document[column] = row[column]
		}
	}

	for _, relation := range embeds {
		children, ok := memory.tables[relation.Table]
		if !ok {
			return nil, unknownTable(relation.Table)
		}

		var nested []any
		for _, child := range children {
			if row[relation.LocalKey] == nil || compareValues(child[relation.ForeignKey], row[relation.LocalKey]) != 0 {
				continue
			}
			rendered, err := memory.render(child, nil, relation.Embeds)
			if err != nil {
				return nil, err
			}
			nested = append(nested, rendered)
			if relation.One {
				break
			}
		}

		switch {
		case relation.One && len(nested) == 0:
			document[relation.Alias] = nil
		case relation.One:
			document[relation.Alias] = nested[0]
		case nested == nil:
			document[relation.Alias] = []any{}
		default:
			document[relation.Alias] = nested
		}
	}

	return document, nil
}

func unknownTable(table string) error {
	return apperr.StoreError(fmt.Errorf("store: unknown table %q", table))
}

func uniqueViolation(table string, columns []string) error {
	return apperr.Conflict(fmt.Sprintf("A record with the same unique value already exists (%s_%s_key)", table, strings.Join(columns, "_")))
}

func cloneRow(row memoryRow) memoryRow {
	clone := make(memoryRow, len(row))
	for column, value := range row {
		clone[column] = value
	}
	return clone
}

// # Value Semantics

// normalize converts caller values into the canonical set the memory backend
// compares: nil, string, bool, int64, float64, time.Time (UTC) or []string.
func normalize(value any) any {
	if value == nil {
		return nil
	}

	switch typed := value.(type) {
	case time.Time:
		return typed.UTC()
	case []string:
		return slices.Clone(typed)
	case json.RawMessage:
		return typed
	}

	reflected := reflect.ValueOf(value)
	switch reflected.Kind() {
	case reflect.Pointer, reflect.Interface:
		if reflected.IsNil() {
			return nil
		}
		return normalize(reflected.Elem().Interface())
	case reflect.String:
		return reflected.String()
	case reflect.Bool:
		return reflected.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return reflected.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(reflected.Uint())
	case reflect.Float32, reflect.Float64:
		return reflected.Float()
	}
	return value
}

// compareValues orders two canonical values. Nulls sort after everything else,
// as they do in PostgreSQL ascending order.
func compareValues(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}

	switch left := a.(type) {
	case string:
		if right, ok := b.(string); ok {
			return strings.Compare(left, right)
		}
	case int64:
		switch right := b.(type) {
		case int64:
			return cmpOrdered(left, right)
		case float64:
			return cmpOrdered(float64(left), right)
		}
	case float64:
		switch right := b.(type) {
		case float64:
			return cmpOrdered(left, right)
		case int64:
			return cmpOrdered(left, float64(right))
		}
	case bool:
		if right, ok := b.(bool); ok {
			return cmpOrdered(boolRank(left), boolRank(right))
		}
	case time.Time:
		if right, ok := b.(time.Time); ok {
			return left.Compare(right)
		}
	}

	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func cmpOrdered[T int64 | float64 | int](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func boolRank(value bool) int {
	if value {
		return 1
	}
	return 0
}

// compareRows applies ORDER BY terms with PostgreSQL null placement: nulls
// are largest, so they come last ascending and first descending unless
// NullsLast is requested.
func compareRows(a, b memoryRow, orders []Order) int {
	for _, order := range orders {
		left, right := a[order.Column], b[order.Column]

		if order.NullsLast && (left == nil) != (right == nil) {
			if left == nil {
				return 1
			}
			return -1
		}

		result := compareValues(left, right)
		if order.Descending {
			result = -result
		}
		if result != 0 {
			return result
		}
	}
	return 0
}

func sameKey(a, b memoryRow, columns []string) bool {
	for _, column := range columns {
		if a[column] == nil || b[column] == nil {
			return false
		}
		if compareValues(a[column], b[column]) != 0 {
			return false
		}
	}
	return true
}

func matchesAll(row memoryRow, filters []Filter) bool {
	for _, filter := range filters {
		if !matches(row, filter) {
			return false
		}
	}
	return true
}

func matches(row memoryRow, filter Filter) bool {
	value := row[filter.Column]

	switch filter.Op {
	case OpEq:
		expected := normalize(filter.Value)
		if expected == nil {
			return value == nil
		}
		return value != nil && compareValues(value, expected) == 0
	case OpILike:
		text, ok := value.(string)
		if !ok {
			return false
		}
		pattern, _ := filter.Value.(string)
		return likePattern(pattern).MatchString(text)
	case OpIn:
		candidates, _ := normalize(filter.Value).([]string)
		text, ok := value.(string)
		return ok && slices.Contains(candidates, text)
	}
	return false
}

// likePattern translates an SQL LIKE pattern into a case-insensitive regexp.
func likePattern(pattern string) *regexp.Regexp {
	var builder strings.Builder
	builder.WriteString(`(?is)^`)
	for _, r := range pattern {
		switch r {
		case '%':
			builder.WriteString(".*")
		case '_':
			builder.WriteString(".")
		default:
			builder.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	builder.WriteString("$")
	return regexp.MustCompile(builder.String())
}
