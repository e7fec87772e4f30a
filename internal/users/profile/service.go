// Copyright (c) 2026 Comunidad. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package profile

import (
	"context"
	"log/slog"
	"strings"

	"github.com/taibuivan/comunidad/internal/platform/apperr"
	"github.com/taibuivan/comunidad/internal/platform/authz"
	"github.com/taibuivan/comunidad/internal/platform/cache"
	"github.com/taibuivan/comunidad/internal/platform/notify"
	"github.com/taibuivan/comunidad/internal/platform/validate"
	"github.com/taibuivan/comunidad/pkg/pointer"
)

// # Service Layer

// Service orchestrates profile reads and the two kinds of profile mutation.
type Service struct {
	repo   Repository
	cache  *cache.Coordinator
	gate   *authz.Gate
	sink   notify.Sink
	logger *slog.Logger
}

// NewService constructs a new [Service] with its dependencies.
func NewService(repo Repository, coordinator *cache.Coordinator, gate *authz.Gate, sink notify.Sink, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		cache:  coordinator,
		gate:   gate,
		sink:   sink,
		logger: logger,
	}
}

// # Profile Queries

/*
GetProfile retrieves a member profile.

Parameters:
  - context: context.Context
  - id: string (profile id, equal to the identity id)

Returns:
  - *Profile: The cached or freshly loaded profile
  - error: VALIDATION_ERROR, NOT_FOUND or STORE_ERROR
*/
func (service *Service) GetProfile(ctx context.Context, id string) (*Profile, error) {
	if err := (&validate.Validator{}).UUID(FieldID, id).Err(); err != nil {
		return nil, err
	}

	key := cache.NewKey(cache.EntityProfile, id)
	return cache.Query(ctx, service.cache, key, func(ctx context.Context) (*Profile, error) {
		return service.repo.GetByID(ctx, id)
	})
}

// ListProfiles returns every member ordered by full name.
func (service *Service) ListProfiles(context context.Context) ([]*Profile, error) {
	return cache.Query(context, service.cache, cache.NewKey(cache.EntityProfiles), service.repo.List)
}

// # Profile Mutations

/*
UpdateOwnProfile applies a partial set of changes to the caller's profile.

Description: The target is always the signed-in identity; there is no way to
name another profile. The role is not part of [UpdateInput] and cannot be
changed here.

Parameters:
  - context: context.Context
  - input: UpdateInput

Returns:
  - *Profile: The updated profile
  - error: UNAUTHENTICATED, VALIDATION_ERROR, NOT_FOUND, CONFLICT or STORE_ERROR
*/
func (service *Service) UpdateOwnProfile(context context.Context, input UpdateInput) (*Profile, error) {
	identity, err := service.gate.RequireAuthenticated(context)
	if err != nil {
		return nil, service.fail(context, "Profile not updated", err)
	}

	if input.FullName != nil {
		trimmed := strings.TrimSpace(*input.FullName)
		input.FullName = &trimmed
	}

	validator := &validate.Validator{}
	if input.FullName != nil {
		validator.Required(FieldFullName, *input.FullName).MaxLen(FieldFullName, *input.FullName, 120)
	}
	if input.Username != nil {
		validator.MinLen(FieldUsername, *input.Username, 3).MaxLen(FieldUsername, *input.Username, 32).Slug(FieldUsername, *input.Username)
	}
	validator.MaxLen(FieldBio, pointer.Val(input.Bio), 500)
	validator.URL(FieldWebsite, input.Website)
	validator.URL(FieldAvatarURL, input.AvatarURL)
	if err := validator.Err(); err != nil {
		return nil, service.fail(context, "Profile not updated", err)
	}

	updated, err := service.repo.Update(context, identity.ID, input)
	if err != nil {
		return nil, service.fail(context, "Profile not updated", err)
	}

	service.cache.Invalidate(cache.EntityProfile, identity.ID)
	service.cache.Invalidate(cache.EntityProfiles)

	service.logger.Info("profile_updated", slog.String("profile_id", identity.ID))
	service.sink.Notify(context, notify.Success("Profile updated", ""))
	return updated, nil
}

/*
ChangeRole moves another member between usuario and administrador.

Description: Only administrators may call it and never on their own profile,
so the last administrator cannot demote themselves by accident. The check
runs before any store call.

Parameters:
  - context: context.Context
  - targetID: string
  - role: authz.Role

Returns:
  - *Profile: The profile with its new role
  - error: UNAUTHENTICATED, FORBIDDEN, VALIDATION_ERROR, NOT_FOUND or STORE_ERROR
*/
func (service *Service) ChangeRole(context context.Context, targetID string, role authz.Role) (*Profile, error) {
	identity, err := service.gate.RequireAuthenticated(context)
	if err != nil {
		return nil, service.fail(context, "Role not changed", err)
	}
	if err := service.gate.RequireRole(identity, authz.RoleAdministrador); err != nil {
		return nil, service.fail(context, "Role not changed", err)
	}
	if identity.ID == targetID {
		return nil, service.fail(context, "Role not changed", apperr.Forbidden("Administrators cannot change their own role"))
	}

	validator := &validate.Validator{}
	validator.UUID(FieldID, targetID)
	validator.OneOf(FieldRole, string(role), string(authz.RoleUsuario), string(authz.RoleAdministrador))
	if err := validator.Err(); err != nil {
		return nil, service.fail(context, "Role not changed", err)
	}

	updated, err := service.repo.UpdateRole(context, targetID, role)
	if err != nil {
		return nil, service.fail(context, "Role not changed", err)
	}

	service.cache.Invalidate(cache.EntityProfile, targetID)
	service.cache.Invalidate(cache.EntityProfiles)
	service.cache.Invalidate(cache.EntityStats)

	service.logger.Warn("profile_role_changed",
		slog.String("profile_id", targetID),
		slog.String("role", string(role)),
		slog.String("by", identity.ID),
	)
	service.sink.Notify(context, notify.Success("Role changed", updated.FullName))
	return updated, nil
}

func (service *Service) fail(context context.Context, title string, err error) error {
	description := err.Error()
	if appError := apperr.As(err); appError != nil {
		description = appError.Message
	}
	service.logger.Debug("profile_mutation_failed", slog.String("title", title), slog.Any("error", err))
	service.sink.Notify(context, notify.Failure(title, description))
	return err
}
