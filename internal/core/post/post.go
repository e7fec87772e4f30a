// Copyright (c) 2026 Comunidad. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package post manages blog posts, their publication workflow and their
many-to-many relation to tags.

Lifecycle:

	draft ──► published ──► archived
	  └────────────────────────┘

A post is authored as draft or published. published_at is stamped the first
time a post becomes published and is never cleared afterwards. archived is
terminal.
*/
package post

import (
	"time"

	"github.com/taibuivan/comunidad/internal/core/tag"
	"github.com/taibuivan/comunidad/pkg/slice"
)

// Status is the publication state of a post.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
)

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusPublished, StatusArchived:
		return true
	}
	return false
}

// CanTransition reports whether a post in state s may move to next.
// Keeping the current state is always allowed.
func (s Status) CanTransition(next Status) bool {
	if s == next {
		return true
	}
	switch s {
	case StatusDraft:
		return next == StatusPublished || next == StatusArchived
	case StatusPublished:
		return next == StatusArchived
	}
	return false
}

// Post is a blog post with its tags inflated.
type Post struct {
	ID               string     `json:"id"`
	Title            string     `json:"title"`
	Slug             string     `json:"slug"`
	Content          string     `json:"content"`
	Excerpt          *string    `json:"excerpt"`
	FeaturedImageURL *string    `json:"featured_image_url"`
	AuthorID         string     `json:"author_id"`
	Status           Status     `json:"status"`
	PublishedAt      *time.Time `json:"published_at"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`

	// Tags only ever holds tags that still exist.
	Tags []tag.Tag `json:"tags"`
}

// TagIDs returns the ids of the attached tags.
func (p *Post) TagIDs() []string {
	return slice.Map(p.Tags, func(t tag.Tag) string { return t.ID })
}

// Draft is the client payload for a new post. author_id and published_at are
// server-owned and deliberately absent.
type Draft struct {
	Title            string  `json:"title"`
	Slug             string  `json:"slug"`
	Content          string  `json:"content"`
	Excerpt          *string `json:"excerpt"`
	FeaturedImageURL *string `json:"featured_image_url"`
	Status           Status  `json:"status"`
}

// Patch is a partial update. Nil fields are left unchanged; a non-nil TagIDs
// replaces the tag set.
type Patch struct {
	Title            *string   `json:"title"`
	Slug             *string   `json:"slug"`
	Content          *string   `json:"content"`
	Excerpt          *string   `json:"excerpt"`
	FeaturedImageURL *string   `json:"featured_image_url"`
	Status           *Status   `json:"status"`
	TagIDs           *[]string `json:"tag_ids"`
}

// Global field names for validation
const (
	FieldID               = "id"
	FieldTitle            = "title"
	FieldSlug             = "slug"
	FieldExcerpt          = "excerpt"
	FieldFeaturedImageURL = "featured_image_url"
	FieldStatus           = "status"
	FieldTagIDs           = "tag_ids"
)
