// Copyright (c) 2026 Comunidad. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package post

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/taibuivan/comunidad/internal/platform/request"
	"github.com/taibuivan/comunidad/internal/platform/respond"
)

// Handler exposes posts over HTTP.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// createRequest is a [Draft] plus the tags to attach.
type createRequest struct {
	Draft
	TagIDs []string `json:"tag_ids"`
}

type attachRequest struct {
	TagIDs []string `json:"tag_ids"`
}

func (handler *Handler) RegisterRoutes(router chi.Router) {
	// Public
	router.Get("/", handler.listPosts)
	router.Get("/{slug}", handler.getPost)

	// Authorization and ownership are enforced by the service
	router.Post("/", handler.createPost)
	router.Patch("/{id}", handler.updatePost)
	router.Post("/{id}/tags", handler.attachTags)
	router.Delete("/{id}", handler.deletePost)
}

func (handler *Handler) listPosts(writer http.ResponseWriter, request *http.Request) {
	var status *Status
	if raw := requestutil.Query(request, "status"); raw != nil {
		value := Status(*raw)
		status = &value
	}

	posts, err := handler.service.ListPosts(request.Context(), status)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, posts)
}

func (handler *Handler) getPost(writer http.ResponseWriter, request *http.Request) {
	post, err := handler.service.GetPostBySlug(request.Context(), requestutil.Param(request, "slug"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, post)
}

func (handler *Handler) createPost(writer http.ResponseWriter, request *http.Request) {
	var input createRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	post, err := handler.service.CreatePost(request.Context(), input.Draft, input.TagIDs)
	respond.Written(writer, request, post, err)
}

func (handler *Handler) updatePost(writer http.ResponseWriter, request *http.Request) {
	var patch Patch
	if err := requestutil.DecodeJSON(writer, request, &patch); err != nil {
		respond.Error(writer, request, err)
		return
	}

	post, err := handler.service.UpdatePost(request.Context(), requestutil.Param(request, "id"), patch)
	if err != nil {
		// A partial update still carries the stored post
		if post != nil {
			respond.Written(writer, request, post, err)
			return
		}
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, post)
}

func (handler *Handler) attachTags(writer http.ResponseWriter, request *http.Request) {
	var input attachRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	post, err := handler.service.AttachTags(request.Context(), requestutil.Param(request, "id"), input.TagIDs)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, post)
}

func (handler *Handler) deletePost(writer http.ResponseWriter, request *http.Request) {
	if err := handler.service.DeletePost(request.Context(), requestutil.Param(request, "id")); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}
