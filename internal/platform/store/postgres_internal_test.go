// Copyright (c) 2026 Comunidad. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSelect_EmbedsFiltersAndOrder(t *testing.T) {
	query := Query{
		Table: "posts",
		Embeds: []Relation{{
			Alias:      "post_tags",
			Table:      "post_tags",
			LocalKey:   "id",
			ForeignKey: "post_id",
			Embeds: []Relation{{
				Alias: "tag", Table: "tags", LocalKey: "tag_id", ForeignKey: "id", One: true,
			}},
		}},
		Filters: []Filter{Eq("status", "published")},
		Order:   []Order{Desc("published_at").WithNullsLast()},
	}

	sql, args, err := buildSelect(query)
	require.NoError(t, err)

	assert.Equal(t,
		`SELECT to_jsonb(t0) || jsonb_build_object('post_tags', `+
			`COALESCE((SELECT jsonb_agg(to_jsonb(t1) || jsonb_build_object('tag', `+
			`(SELECT to_jsonb(t2) FROM "tags" t2 WHERE t2."id" = t1."tag_id" LIMIT 1))) `+
			`FROM "post_tags" t1 WHERE t1."post_id" = t0."id"), '[]'::jsonb)) `+
			`FROM "posts" t0 WHERE t0."status" = $1 ORDER BY t0."published_at" DESC NULLS LAST`,
		sql)
	assert.Equal(t, []any{"published"}, args)
}

func TestBuildSelect_ColumnsLimitAndOperators(t *testing.T) {
	sql, args, err := buildSelect(Query{
		Table:   "public.tags",
		Columns: []string{"id", "name"},
		Filters: []Filter{ILike("name", "go%"), In("id", []string{"a", "b"}), Eq("color", nil)},
		Order:   []Order{Asc("name")},
		Limit:   2,
	})
	require.NoError(t, err)

	assert.Equal(t,
		`SELECT jsonb_build_object('id', t0."id", 'name', t0."name") FROM "public"."tags" t0 `+
			`WHERE t0."name" ILIKE $1 AND t0."id" = ANY($2) AND t0."color" IS NULL `+
			`ORDER BY t0."name" ASC LIMIT 2`,
		sql)
	assert.Equal(t, []any{"go%", []string{"a", "b"}}, args)
}

func TestBuildSelect_QuotesHostileIdentifiers(t *testing.T) {
	sql, _, err := buildSelect(Query{Table: `posts"; DROP TABLE posts; --`})
	require.NoError(t, err)
	assert.Equal(t, `SELECT to_jsonb(t0) FROM "posts""; DROP TABLE posts; --" t0`, sql)
}

func TestBuildSelect_RejectsEmptyIdentifiers(t *testing.T) {
	_, _, err := buildSelect(Query{})
	assert.Error(t, err)

	_, _, err = buildSelect(Query{Table: "posts", Order: []Order{Asc("")}})
	assert.Error(t, err)
}

func TestBuildInsert_DefaultsAndConflictClause(t *testing.T) {
	rows := []Values{
		{"post_id": "p1", "tag_id": "t1"},
		{"post_id": "p1"},
	}

	sql, args, err := buildInsert("post_tags", rows, insertOptions{ignoreDuplicates: true})
	require.NoError(t, err)

	assert.Equal(t,
		`INSERT INTO "post_tags" AS t0 ("post_id", "tag_id") VALUES ($1, $2), ($3, DEFAULT) `+
			`ON CONFLICT DO NOTHING RETURNING to_jsonb(t0)`,
		sql)
	assert.Equal(t, []any{"p1", "t1", "p1"}, args)
}

func TestBuildUpdate(t *testing.T) {
	sql, args, err := buildUpdate("posts", Values{"title": "Hello", "status": "published"}, []Filter{Eq("id", "p1")})
	require.NoError(t, err)

	assert.Equal(t,
		`UPDATE "posts" AS t0 SET "status" = $1, "title" = $2 WHERE t0."id" = $3 RETURNING to_jsonb(t0)`,
		sql)
	assert.Equal(t, []any{"published", "Hello", "p1"}, args)

	_, _, err = buildUpdate("posts", Values{"title": "x"}, nil)
	assert.Error(t, err, "unfiltered updates are refused")
}

func TestBuildDeleteAndCount(t *testing.T) {
	sql, args, err := buildDelete("post_tags", []Filter{Eq("post_id", "p1"), In("tag_id", []string{"t1"})})
	require.NoError(t, err)
	assert.Equal(t, `DELETE FROM "post_tags" AS t0 WHERE t0."post_id" = $1 AND t0."tag_id" = ANY($2)`, sql)
	assert.Len(t, args, 2)

	_, _, err = buildDelete("post_tags", nil)
	assert.Error(t, err, "unfiltered deletes are refused")

	sql, args, err = buildCount("profiles", nil)
	require.NoError(t, err)
	assert.Equal(t, `SELECT count(*) FROM "profiles" AS t0`, sql)
	assert.Empty(t, args)
}
