// Copyright (c) 2026 Comunidad. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package tag

import (
	"context"
	"log/slog"
	"strings"

	"github.com/taibuivan/comunidad/internal/platform/apperr"
	"github.com/taibuivan/comunidad/internal/platform/authz"
	"github.com/taibuivan/comunidad/internal/platform/cache"
	"github.com/taibuivan/comunidad/internal/platform/notify"
	"github.com/taibuivan/comunidad/internal/platform/validate"
	"github.com/taibuivan/comunidad/pkg/slug"
)

// Service exposes the cached tag queries and the gated tag mutations.
type Service struct {
	repo   Repository
	cache  *cache.Coordinator
	gate   *authz.Gate
	sink   notify.Sink
	logger *slog.Logger
}

// NewService wires a tag service.
func NewService(repo Repository, coordinator *cache.Coordinator, gate *authz.Gate, sink notify.Sink, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		cache:  coordinator,
		gate:   gate,
		sink:   sink,
		logger: logger,
	}
}

// ListTags returns every tag ordered by name.
func (service *Service) ListTags(context context.Context) ([]*Tag, error) {
	return cache.Query(context, service.cache, cache.NewKey(cache.EntityTags), service.repo.List)
}

// GetTagBySlug returns the tag with slug, or NOT_FOUND.
func (service *Service) GetTagBySlug(ctx context.Context, tagSlug string) (*Tag, error) {
	key := cache.NewKey(cache.EntityTag, tagSlug)
	return cache.Query(ctx, service.cache, key, func(ctx context.Context) (*Tag, error) {
		return service.repo.GetBySlug(ctx, tagSlug)
	})
}

/*
CreateTag stores a new tag.

Any authenticated member may create tags. An empty slug is derived from the
name. Duplicate slugs surface as CONFLICT.
*/
func (service *Service) CreateTag(context context.Context, name, tagSlug, color string) (*Tag, error) {
	if _, err := service.gate.RequireAuthenticated(context); err != nil {
		return nil, service.fail(context, "Tag not created", err)
	}

	input := Input{
		Name:  strings.TrimSpace(name),
		Slug:  strings.TrimSpace(tagSlug),
		Color: strings.TrimSpace(color),
	}
	if input.Slug == "" {
		input.Slug = slug.From(input.Name)
	}

	validator := &validate.Validator{}
	validator.Required(FieldName, input.Name).MaxLen(FieldName, input.Name, 64)
	validator.Slug(FieldSlug, input.Slug).MaxLen(FieldSlug, input.Slug, 64)
	validator.MaxLen(FieldColor, input.Color, 32)
	if err := validator.Err(); err != nil {
		return nil, service.fail(context, "Tag not created", err)
	}

	created, err := service.repo.Create(context, input)
	if err != nil {
		return nil, service.fail(context, "Tag not created", err)
	}

	service.cache.Invalidate(cache.EntityTags)

	service.logger.Info("tag_created", slog.String("tag_id", created.ID), slog.String("slug", created.Slug))
	service.sink.Notify(context, notify.Success("Tag created", created.Name))
	return created, nil
}

/*
DeleteTag removes a tag and, through the cascade, every post_tags row that
referenced it. Administrators only.

Post reads embed tags, so every cached post and post list is invalidated too.
*/
func (service *Service) DeleteTag(context context.Context, id string) error {
	identity, err := service.gate.RequireAuthenticated(context)
	if err != nil {
		return service.fail(context, "Tag not deleted", err)
	}
	if err := service.gate.RequireRole(identity, authz.RoleAdministrador); err != nil {
		return service.fail(context, "Tag not deleted", err)
	}

	if err := (&validate.Validator{}).UUID(FieldID, id).Err(); err != nil {
		return service.fail(context, "Tag not deleted", err)
	}

	if err := service.repo.Delete(context, id); err != nil {
		return service.fail(context, "Tag not deleted", err)
	}

	for _, entity := range []string{cache.EntityTags, cache.EntityTag, cache.EntityPosts, cache.EntityPost} {
		service.cache.Invalidate(entity)
	}

	service.logger.Warn("tag_deleted", slog.String("tag_id", id), slog.String("by", identity.ID))
	service.sink.Notify(context, notify.Success("Tag deleted", ""))
	return nil
}

// fail reports a failed mutation to the sink and returns err unchanged.
func (service *Service) fail(context context.Context, title string, err error) error {
	description := err.Error()
	if appError := apperr.As(err); appError != nil {
		description = appError.Message
	}
	service.logger.Debug("tag_mutation_failed", slog.String("title", title), slog.Any("error", err))
	service.sink.Notify(context, notify.Failure(title, description))
	return err
}
