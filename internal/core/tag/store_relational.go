// Copyright (c) 2026 Comunidad. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package tag

import (
	"context"

	"github.com/taibuivan/comunidad/internal/platform/apperr"
	"github.com/taibuivan/comunidad/internal/platform/database/schema"
	"github.com/taibuivan/comunidad/internal/platform/store"
)

// RelationalRepository implements [Repository] over a [store.Client].
type RelationalRepository struct {
	client store.Client
}

// NewRelationalRepository creates a tag repository.
func NewRelationalRepository(client store.Client) *RelationalRepository {
	return &RelationalRepository{client: client}
}

func (repository *RelationalRepository) List(context context.Context) ([]*Tag, error) {
	rows, err := repository.client.Select(context, store.Query{
		Table: schema.ContentTag.Table,
		Order: []store.Order{store.Asc(schema.ContentTag.Name)},
	})
	if err != nil {
		return nil, err
	}
	return store.Decode[*Tag](rows)
}

func (repository *RelationalRepository) GetBySlug(context context.Context, slug string) (*Tag, error) {
	return repository.getOne(context, store.Eq(schema.ContentTag.Slug, slug))
}

func (repository *RelationalRepository) GetByID(context context.Context, id string) (*Tag, error) {
	return repository.getOne(context, store.Eq(schema.ContentTag.ID, id))
}

func (repository *RelationalRepository) getOne(context context.Context, filter store.Filter) (*Tag, error) {
	row, err := repository.client.SelectOne(context, store.Query{
		Table:   schema.ContentTag.Table,
		Filters: []store.Filter{filter},
	})
	if apperr.HasCode(err, apperr.CodeNotFound) {
		return nil, apperr.NotFound("Tag")
	}
	if err != nil {
		return nil, err
	}
	return store.DecodeOne[*Tag](row)
}

func (repository *RelationalRepository) Create(context context.Context, input Input) (*Tag, error) {
	rows, err := repository.client.Insert(context, schema.ContentTag.Table, []store.Values{{
		schema.ContentTag.Name:  input.Name,
		schema.ContentTag.Slug:  input.Slug,
		schema.ContentTag.Color: input.Color,
	}})
	if err != nil {
		return nil, err
	}

	row, err := store.First(rows, "Tag")
	if err != nil {
		return nil, err
	}
	return store.DecodeOne[*Tag](row)
}

// Delete removes the tag; its post_tags rows cascade.
func (repository *RelationalRepository) Delete(context context.Context, id string) error {
	if _, err := repository.GetByID(context, id); err != nil {
		return err
	}
	return repository.client.Delete(context, schema.ContentTag.Table, store.Eq(schema.ContentTag.ID, id))
}
