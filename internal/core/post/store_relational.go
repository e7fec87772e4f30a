// Copyright (c) 2026 Comunidad. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package post

import (
	"context"
	"time"

	"github.com/taibuivan/comunidad/internal/platform/apperr"
	"github.com/taibuivan/comunidad/internal/platform/database/schema"
	"github.com/taibuivan/comunidad/internal/platform/store"
)

// tagsRelation embeds post_tags → tags under [joinAlias].
var tagsRelation = store.Relation{
	Alias:      joinAlias,
	Table:      schema.ContentPostTag.Table,
	LocalKey:   schema.ContentPost.ID,
	ForeignKey: schema.ContentPostTag.PostID,
	Embeds: []store.Relation{{
		Alias:      "tag",
		Table:      schema.ContentTag.Table,
		LocalKey:   schema.ContentPostTag.TagID,
		ForeignKey: schema.ContentTag.ID,
		One:        true,
	}},
}

// RelationalRepository implements [Repository] over a [store.Client].
type RelationalRepository struct {
	client store.Client
}

// NewRelationalRepository creates a post repository.
func NewRelationalRepository(client store.Client) *RelationalRepository {
	return &RelationalRepository{client: client}
}

// List orders by published_at descending with unpublished posts last. Ties
// fall back to the newest row first.
func (repository *RelationalRepository) List(context context.Context, status *Status) ([]*Post, error) {
	query := store.Query{
		Table:  schema.ContentPost.Table,
		Embeds: []store.Relation{tagsRelation},
		Order: []store.Order{
			store.Desc(schema.ContentPost.PublishedAt).WithNullsLast(),
			store.Desc(schema.ContentPost.CreatedAt),
		},
	}
	if status != nil {
		query.Filters = append(query.Filters, store.Eq(schema.ContentPost.Status, string(*status)))
	}

	rows, err := repository.client.Select(context, query)
	if err != nil {
		return nil, err
	}

	decoded, err := store.Decode[postRow](rows)
	if err != nil {
		return nil, err
	}
	return inflateAll(decoded), nil
}

func (repository *RelationalRepository) GetBySlug(context context.Context, slug string) (*Post, error) {
	return repository.getOne(context, store.Eq(schema.ContentPost.Slug, slug))
}

func (repository *RelationalRepository) GetByID(context context.Context, id string) (*Post, error) {
	return repository.getOne(context, store.Eq(schema.ContentPost.ID, id))
}

func (repository *RelationalRepository) getOne(context context.Context, filter store.Filter) (*Post, error) {
	row, err := repository.client.SelectOne(context, store.Query{
		Table:   schema.ContentPost.Table,
		Embeds:  []store.Relation{tagsRelation},
		Filters: []store.Filter{filter},
	})
	if apperr.HasCode(err, apperr.CodeNotFound) {
		return nil, apperr.NotFound("Post")
	}
	if err != nil {
		return nil, err
	}

	decoded, err := store.DecodeOne[postRow](row)
	if err != nil {
		return nil, err
	}
	return inflate(decoded), nil
}

func (repository *RelationalRepository) Create(context context.Context, authorID string, draft Draft, publishedAt *time.Time) (*Post, error) {
	rows, err := repository.client.Insert(context, schema.ContentPost.Table, []store.Values{{
		schema.ContentPost.Title:            draft.Title,
		schema.ContentPost.Slug:             draft.Slug,
		schema.ContentPost.Content:          draft.Content,
		schema.ContentPost.Excerpt:          draft.Excerpt,
		schema.ContentPost.FeaturedImageURL: draft.FeaturedImageURL,
		schema.ContentPost.AuthorID:         authorID,
		schema.ContentPost.Status:           string(draft.Status),
		schema.ContentPost.PublishedAt:      publishedAt,
	}})
	if err != nil {
		return nil, err
	}

	row, err := store.First(rows, "Post")
	if err != nil {
		return nil, err
	}

	decoded, err := store.DecodeOne[postRow](row)
	if err != nil {
		return nil, err
	}
	return inflate(decoded), nil
}

func (repository *RelationalRepository) Update(context context.Context, id string, patch Patch, publishedAt *time.Time) error {
	values := store.Values{}
	setIf := func(column string, value *string) {
		if value != nil {
			values[column] = *value
		}
	}
	setIf(schema.ContentPost.Title, patch.Title)
	setIf(schema.ContentPost.Slug, patch.Slug)
	setIf(schema.ContentPost.Content, patch.Content)
	setIf(schema.ContentPost.Excerpt, patch.Excerpt)
	setIf(schema.ContentPost.FeaturedImageURL, patch.FeaturedImageURL)
	if patch.Status != nil {
		values[schema.ContentPost.Status] = string(*patch.Status)
	}
	if publishedAt != nil {
		values[schema.ContentPost.PublishedAt] = *publishedAt
	}

	if len(values) == 0 {
		return nil
	}

	rows, err := repository.client.Update(context, schema.ContentPost.Table, values, store.Eq(schema.ContentPost.ID, id))
	if err != nil {
		return err
	}
	_, err = store.First(rows, "Post")
	return err
}

// AttachTags is safe to retry: existing (post_id, tag_id) pairs are skipped.
func (repository *RelationalRepository) AttachTags(context context.Context, postID string, tagIDs []string) error {
	rows := deflate(postID, tagIDs)
	if rows == nil {
		return nil
	}
	_, err := repository.client.Insert(context, schema.ContentPostTag.Table, rows, store.IgnoreDuplicates())
	return err
}

func (repository *RelationalRepository) DetachTags(context context.Context, postID string, tagIDs []string) error {
	if len(tagIDs) == 0 {
		return nil
	}
	return repository.client.Delete(context, schema.ContentPostTag.Table,
		store.Eq(schema.ContentPostTag.PostID, postID),
		store.In(schema.ContentPostTag.TagID, tagIDs),
	)
}

// Delete removes the post; its post_tags rows cascade.
func (repository *RelationalRepository) Delete(context context.Context, id string) error {
	return repository.client.Delete(context, schema.ContentPost.Table, store.Eq(schema.ContentPost.ID, id))
}
