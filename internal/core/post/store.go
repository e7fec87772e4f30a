// Copyright (c) 2026 Comunidad. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package post

import (
	"context"
	"time"
)

// Repository is the persistence contract for posts and their tag joins.
// Every read returns posts with Tags inflated.
type Repository interface {
	List(context context.Context, status *Status) ([]*Post, error)
	GetBySlug(context context.Context, slug string) (*Post, error)
	GetByID(context context.Context, id string) (*Post, error)

	// Create inserts the post row only. The returned post has no tags.
	Create(context context.Context, authorID string, draft Draft, publishedAt *time.Time) (*Post, error)

	// Update applies the scalar fields of patch. TagIDs is ignored.
	Update(context context.Context, id string, patch Patch, publishedAt *time.Time) error

	// AttachTags inserts join rows, skipping pairs that already exist.
	AttachTags(context context.Context, postID string, tagIDs []string) error
	DetachTags(context context.Context, postID string, tagIDs []string) error

	Delete(context context.Context, id string) error
}
