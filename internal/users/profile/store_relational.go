// Copyright (c) 2026 Comunidad. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package profile

import (
	"context"

	"github.com/taibuivan/comunidad/internal/platform/apperr"
	"github.com/taibuivan/comunidad/internal/platform/authz"
	"github.com/taibuivan/comunidad/internal/platform/database/schema"
	"github.com/taibuivan/comunidad/internal/platform/store"
)

// RelationalRepository implements [Repository] over a [store.Client].
type RelationalRepository struct {
	client store.Client
}

// NewRelationalRepository constructs a profile repository.
func NewRelationalRepository(client store.Client) *RelationalRepository {
	return &RelationalRepository{client: client}
}

func (repository *RelationalRepository) List(context context.Context) ([]*Profile, error) {
	rows, err := repository.client.Select(context, store.Query{
		Table: schema.UsersProfile.Table,
		Order: []store.Order{
			store.Asc(schema.UsersProfile.FullName),
			store.Asc(schema.UsersProfile.ID),
		},
	})
	if err != nil {
		return nil, err
	}
	return store.Decode[*Profile](rows)
}

func (repository *RelationalRepository) GetByID(context context.Context, id string) (*Profile, error) {
	row, err := repository.client.SelectOne(context, store.Query{
		Table:   schema.UsersProfile.Table,
		Filters: []store.Filter{store.Eq(schema.UsersProfile.ID, id)},
	})
	if apperr.HasCode(err, apperr.CodeNotFound) {
		return nil, apperr.NotFound("Profile")
	}
	if err != nil {
		return nil, err
	}
	return store.DecodeOne[*Profile](row)
}

func (repository *RelationalRepository) Update(context context.Context, id string, input UpdateInput) (*Profile, error) {
	values := store.Values{}
	fields := map[string]*string{
		schema.UsersProfile.FullName:  input.FullName,
		schema.UsersProfile.Username:  input.Username,
		schema.UsersProfile.Bio:       input.Bio,
		schema.UsersProfile.Location:  input.Location,
		schema.UsersProfile.Phone:     input.Phone,
		schema.UsersProfile.Website:   input.Website,
		schema.UsersProfile.Instagram: input.Instagram,
		schema.UsersProfile.Twitter:   input.Twitter,
		schema.UsersProfile.LinkedIn:  input.LinkedIn,
		schema.UsersProfile.AvatarURL: input.AvatarURL,
	}
	for column, value := range fields {
		if value != nil {
			values[column] = *value
		}
	}

	if len(values) == 0 {
		return repository.GetByID(context, id)
	}
	return repository.update(context, id, values)
}

func (repository *RelationalRepository) UpdateRole(context context.Context, id string, role authz.Role) (*Profile, error) {
	return repository.update(context, id, store.Values{schema.UsersProfile.Role: string(role)})
}

func (repository *RelationalRepository) update(context context.Context, id string, values store.Values) (*Profile, error) {
	rows, err := repository.client.Update(context, schema.UsersProfile.Table, values, store.Eq(schema.UsersProfile.ID, id))
	if err != nil {
		return nil, err
	}

	row, err := store.First(rows, "Profile")
	if err != nil {
		return nil, err
	}
	return store.DecodeOne[*Profile](row)
}
