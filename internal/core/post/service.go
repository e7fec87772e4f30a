// Copyright (c) 2026 Comunidad. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package post

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/taibuivan/comunidad/internal/platform/apperr"
	"github.com/taibuivan/comunidad/internal/platform/authz"
	"github.com/taibuivan/comunidad/internal/platform/cache"
	"github.com/taibuivan/comunidad/internal/platform/notify"
	"github.com/taibuivan/comunidad/internal/platform/validate"
	"github.com/taibuivan/comunidad/pkg/pointer"
	"github.com/taibuivan/comunidad/pkg/slug"
)

const (
	maxTitleLen   = 200
	maxSlugLen    = 200
	maxExcerptLen = 500
)

// Service exposes cached post queries and the gated post mutations.
type Service struct {
	repo   Repository
	cache  *cache.Coordinator
	gate   *authz.Gate
	sink   notify.Sink
	logger *slog.Logger
}

// NewService wires a post service.
func NewService(repo Repository, coordinator *cache.Coordinator, gate *authz.Gate, sink notify.Sink, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		cache:  coordinator,
		gate:   gate,
		sink:   sink,
		logger: logger,
	}
}

// # Queries

// ListPosts returns posts newest-published first, drafts last. A nil status
// lists every post.
func (service *Service) ListPosts(ctx context.Context, status *Status) ([]*Post, error) {
	if status != nil && !status.IsValid() {
		return nil, validate.FieldError(FieldStatus, "Must be one of draft, published, archived")
	}

	key := cache.NewKey(cache.EntityPosts, string(pointer.Fallback(status, "")))
	return cache.Query(ctx, service.cache, key, func(ctx context.Context) ([]*Post, error) {
		return service.repo.List(ctx, status)
	})
}

// GetPostBySlug returns NOT_FOUND when no post has slug, distinct from a
// STORE_ERROR.
func (service *Service) GetPostBySlug(ctx context.Context, postSlug string) (*Post, error) {
	key := cache.NewKey(cache.EntityPost, postSlug)
	return cache.Query(ctx, service.cache, key, func(ctx context.Context) (*Post, error) {
		return service.repo.GetBySlug(ctx, postSlug)
	})
}

func (service *Service) GetPostByID(ctx context.Context, id string) (*Post, error) {
	if err := (&validate.Validator{}).UUID(FieldID, id).Err(); err != nil {
		return nil, err
	}

	key := cache.NewKey(cache.EntityPost, "id", id)
	return cache.Query(ctx, service.cache, key, func(ctx context.Context) (*Post, error) {
		return service.repo.GetByID(ctx, id)
	})
}

// # Mutations

/*
CreatePost stores a post authored by the caller and attaches tagIDs.

The post row and its join rows are separate writes. When the post is stored
but the join insert fails, the created post is returned together with a
PARTIAL_FAILURE error; [Service.AttachTags] is the retry.
*/
func (service *Service) CreatePost(context context.Context, draft Draft, tagIDs []string) (*Post, error) {
	identity, err := service.gate.RequireAuthenticated(context)
	if err != nil {
		return nil, service.fail(context, "Post not created", err)
	}

	draft.Title = strings.TrimSpace(draft.Title)
	draft.Slug = strings.TrimSpace(draft.Slug)
	if draft.Slug == "" {
		draft.Slug = slug.From(draft.Title)
	}
	if draft.Status == "" {
		draft.Status = StatusDraft
	}

	validator := &validate.Validator{}
	validator.Required(FieldTitle, draft.Title).MaxLen(FieldTitle, draft.Title, maxTitleLen)
	validator.Slug(FieldSlug, draft.Slug).MaxLen(FieldSlug, draft.Slug, maxSlugLen)
	validator.OneOf(FieldStatus, string(draft.Status), string(StatusDraft), string(StatusPublished))
	validator.URL(FieldFeaturedImageURL, draft.FeaturedImageURL)
	validator.UUIDs(FieldTagIDs, tagIDs)
	validator.MaxLen(FieldExcerpt, pointer.Val(draft.Excerpt), maxExcerptLen)
	if err := validator.Err(); err != nil {
		return nil, service.fail(context, "Post not created", err)
	}

	var publishedAt *time.Time
	if draft.Status == StatusPublished {
		now := time.Now().UTC()
		publishedAt = &now
	}

	created, err := service.repo.Create(context, identity.ID, draft, publishedAt)
	if err != nil {
		return nil, service.fail(context, "Post not created", err)
	}

	service.logger.Info("post_created",
		slog.String("post_id", created.ID),
		slog.String("author_id", identity.ID),
		slog.String("status", string(created.Status)),
	)

	if len(tagIDs) == 0 {
		service.invalidate()
		service.sink.Notify(context, notify.Success("Post created", created.Title))
		return created, nil
	}

	// Invalidate only once the join rows are written: a list read between the
	// two writes would otherwise stay cached without the tags.
	if err := service.repo.AttachTags(context, created.ID, tagIDs); err != nil {
		service.invalidate()
		return created, service.partial(context, created.ID, "Post created but its tags could not be attached", err)
	}
	service.invalidate()

	service.sink.Notify(context, notify.Success("Post created", created.Title))
	return service.reload(context, created), nil
}

/*
UpdatePost applies patch to a post owned by the caller. Administrators may
update any post.

Status rules:
  - draft may become published or archived; published may become archived.
  - archived is terminal and published never returns to draft.
  - published_at is stamped the first time the post becomes published and is
    never cleared.

A non-nil patch.TagIDs replaces the tag set. If that step fails after the row
update, the updated post is returned with a PARTIAL_FAILURE error.
*/
func (service *Service) UpdatePost(context context.Context, id string, patch Patch) (*Post, error) {
	identity, current, err := service.authorize(context, id)
	if err != nil {
		return nil, service.fail(context, "Post not updated", err)
	}

	if patch.Title != nil {
		trimmed := strings.TrimSpace(*patch.Title)
		patch.Title = &trimmed
	}

	validator := &validate.Validator{}
	if patch.Title != nil {
		validator.Required(FieldTitle, *patch.Title).MaxLen(FieldTitle, *patch.Title, maxTitleLen)
	}
	if patch.Slug != nil {
		validator.Slug(FieldSlug, *patch.Slug).MaxLen(FieldSlug, *patch.Slug, maxSlugLen)
	}
	validator.MaxLen(FieldExcerpt, pointer.Val(patch.Excerpt), maxExcerptLen)
	validator.URL(FieldFeaturedImageURL, patch.FeaturedImageURL)
	if patch.Status != nil {
		validator.OneOf(FieldStatus, string(*patch.Status), string(StatusDraft), string(StatusPublished), string(StatusArchived))
		validator.Custom(FieldStatus, patch.Status.IsValid() && !current.Status.CanTransition(*patch.Status),
			"Cannot move a "+string(current.Status)+" post to "+string(*patch.Status))
	}
	if patch.TagIDs != nil {
		validator.UUIDs(FieldTagIDs, *patch.TagIDs)
	}
	if err := validator.Err(); err != nil {
		return nil, service.fail(context, "Post not updated", err)
	}

	var publishedAt *time.Time
	if patch.Status != nil && *patch.Status == StatusPublished && current.PublishedAt == nil {
		now := time.Now().UTC()
		publishedAt = &now
	}

	if err := service.repo.Update(context, id, patch, publishedAt); err != nil {
		return nil, service.fail(context, "Post not updated", err)
	}

	service.logger.Info("post_updated",
		slog.String("post_id", id),
		slog.String("by", identity.ID),
	)

	if patch.TagIDs != nil {
		if err := service.replaceTags(context, current, *patch.TagIDs); err != nil {
			service.invalidate()
			return service.reload(context, current), service.partial(context, id, "Post updated but its tags could not be changed", err)
		}
	}
	service.invalidate()

	updated := service.reload(context, current)
	service.sink.Notify(context, notify.Success("Post updated", updated.Title))
	return updated, nil
}

// AttachTags adds tagIDs to a post. Pairs that already exist are skipped, so
// it is the retry after a PARTIAL_FAILURE from [Service.CreatePost].
func (service *Service) AttachTags(context context.Context, postID string, tagIDs []string) (*Post, error) {
	identity, current, err := service.authorize(context, postID)
	if err != nil {
		return nil, service.fail(context, "Tags not attached", err)
	}

	if err := (&validate.Validator{}).UUIDs(FieldTagIDs, tagIDs).Err(); err != nil {
		return nil, service.fail(context, "Tags not attached", err)
	}

	if err := service.repo.AttachTags(context, postID, tagIDs); err != nil {
		return nil, service.fail(context, "Tags not attached", err)
	}
	service.invalidate()

	service.logger.Info("post_tags_attached",
		slog.String("post_id", postID),
		slog.Int("count", len(tagIDs)),
		slog.String("by", identity.ID),
	)
	service.sink.Notify(context, notify.Success("Tags attached", current.Title))
	return service.reload(context, current), nil
}

// DeletePost removes a post owned by the caller. Administrators may delete
// any post. Join rows cascade.
func (service *Service) DeletePost(context context.Context, id string) error {
	identity, current, err := service.authorize(context, id)
	if err != nil {
		return service.fail(context, "Post not deleted", err)
	}

	if err := service.repo.Delete(context, id); err != nil {
		return service.fail(context, "Post not deleted", err)
	}
	service.invalidate()

	service.logger.Warn("post_deleted",
		slog.String("post_id", id),
		slog.String("by", identity.ID),
	)
	service.sink.Notify(context, notify.Success("Post deleted", current.Title))
	return nil
}

// # Helpers

// authorize checks the caller before loading the post for the ownership
// check. The post is read from the repository, not the cache.
func (service *Service) authorize(context context.Context, id string) (authz.Identity, *Post, error) {
	identity, err := service.gate.RequireAuthenticated(context)
	if err != nil {
		return identity, nil, err
	}

	if err := (&validate.Validator{}).UUID(FieldID, id).Err(); err != nil {
		return identity, nil, err
	}

	current, err := service.repo.GetByID(context, id)
	if err != nil {
		return identity, nil, err
	}

	if err := service.gate.RequireOwnerOrRole(identity, current.AuthorID, authz.RoleAdministrador); err != nil {
		return identity, nil, err
	}
	return identity, current, nil
}

// replaceTags moves the join rows of current to exactly tagIDs.
func (service *Service) replaceTags(context context.Context, current *Post, tagIDs []string) error {
	attach, detach := diffTags(current.TagIDs(), tagIDs)
	if err := service.repo.AttachTags(context, current.ID, attach); err != nil {
		return err
	}
	return service.repo.DetachTags(context, current.ID, detach)
}

// reload reads the post back with its tags. The write already succeeded, so
// a failed read falls back to fallback instead of reporting an error.
func (service *Service) reload(context context.Context, fallback *Post) *Post {
	fresh, err := service.repo.GetByID(context, fallback.ID)
	if err != nil {
		service.logger.Warn("post_reload_failed", slog.String("post_id", fallback.ID), slog.Any("error", err))
		return fallback
	}
	return fresh
}

// invalidate drops every cached post list and single post.
func (service *Service) invalidate() {
	service.cache.Invalidate(cache.EntityPosts)
	service.cache.Invalidate(cache.EntityPost)
}

func (service *Service) partial(context context.Context, postID, message string, cause error) error {
	service.logger.Warn("post_tags_partial_failure",
		slog.String("post_id", postID),
		slog.Any("error", cause),
	)
	service.sink.Notify(context, notify.Warning(message, "Retry attaching the tags"))
	return apperr.PartialFailure(message, cause)
}

func (service *Service) fail(context context.Context, title string, err error) error {
	description := err.Error()
	if appError := apperr.As(err); appError != nil {
		description = appError.Message
	}
	service.logger.Debug("post_mutation_failed", slog.String("title", title), slog.Any("error", err))
	service.sink.Notify(context, notify.Failure(title, description))
	return err
}
