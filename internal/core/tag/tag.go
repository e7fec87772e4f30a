// Copyright (c) 2026 Comunidad. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package tag manages the labels attached to posts through the post_tags
// join table. A tag's lifecycle is independent of any single post.
package tag

import "time"

// Tag is a label that can be attached to many posts.
type Tag struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Color     string    `json:"color"` // display accent, opaque to the server
	CreatedAt time.Time `json:"created_at"`
}

// Input is the payload accepted by [Service.CreateTag].
type Input struct {
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Color string `json:"color"`
}

// Global field names for validation
const (
	FieldName  = "name"
	FieldSlug  = "slug"
	FieldColor = "color"
	FieldID    = "id"
)
