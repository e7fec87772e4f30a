// Copyright (c) 2026 Comunidad. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package profile

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/comunidad/internal/platform/authz"
	requestutil "github.com/taibuivan/comunidad/internal/platform/request"
	"github.com/taibuivan/comunidad/internal/platform/respond"
)

// Handler implements the HTTP layer for member profiles.
type Handler struct {
	profileService *Service
}

// NewHandler constructs a new profile [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{profileService: service}
}

// RegisterRoutes mounts the profile endpoints.
func (handler *Handler) RegisterRoutes(router chi.Router) {
	// Public profile discovery
	router.Get("/", handler.listProfiles)
	router.Get("/{id}", handler.getProfile)

	// Self-service
	router.Patch("/me", handler.updateMe)

	// Administration
	router.Put("/{id}/role", handler.changeRole)
}

// changeRoleRequest defines the expected JSON payload for role changes.
type changeRoleRequest struct {
	Role authz.Role `json:"role"`
}

/*
GET /api/v1/profiles.

Response:
  - 200: []Profile ordered by full name
*/
func (handler *Handler) listProfiles(writer http.ResponseWriter, request *http.Request) {
	profiles, err := handler.profileService.ListProfiles(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, profiles)
}

/*
GET /api/v1/profiles/{id}.

Response:
  - 200: Profile
  - 404: NOT_FOUND
*/
func (handler *Handler) getProfile(writer http.ResponseWriter, request *http.Request) {
	profile, err := handler.profileService.GetProfile(request.Context(), requestutil.Param(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, profile)
}

/*
PATCH /api/v1/profiles/me.

Description: Applies partial updates to the caller's own profile. A "role"
field in the body is rejected as an unknown field.

Response:
  - 200: Profile
  - 400: VALIDATION_ERROR
  - 401: UNAUTHENTICATED
*/
func (handler *Handler) updateMe(writer http.ResponseWriter, request *http.Request) {
	var input UpdateInput
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	profile, err := handler.profileService.UpdateOwnProfile(request.Context(), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, profile)
}

/*
PUT /api/v1/profiles/{id}/role.

Response:
  - 200: Profile with the new role
  - 403: FORBIDDEN (caller is not an administrator, or targets themselves)
*/
func (handler *Handler) changeRole(writer http.ResponseWriter, request *http.Request) {
	var input changeRoleRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	profile, err := handler.profileService.ChangeRole(request.Context(), requestutil.Param(request, "id"), input.Role)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, profile)
}
