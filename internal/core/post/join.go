// Copyright (c) 2026 Comunidad. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package post

import (
	"github.com/taibuivan/comunidad/internal/core/tag"
	"github.com/taibuivan/comunidad/internal/platform/database/schema"
	"github.com/taibuivan/comunidad/internal/platform/store"
	"github.com/taibuivan/comunidad/pkg/slice"
)

// # Join Resolution

// joinAlias is the key under which a post row embeds its post_tags rows.
const joinAlias = "post_tags"

// postRow is a posts row with its join rows embedded, each wrapping the
// referenced tag or null when the tag no longer exists.
type postRow struct {
	Post
	PostTags []joinRow `json:"post_tags"`
}

type joinRow struct {
	Tag *tag.Tag `json:"tag"`
}

// inflate flattens the embedded join rows into Post.Tags, dropping entries
// whose tag is missing.
func inflate(row postRow) *Post {
	present := slice.Filter(row.PostTags, func(join joinRow) bool { return join.Tag != nil })

	post := row.Post
	post.Tags = slice.Map(present, func(join joinRow) tag.Tag { return *join.Tag })
	return &post
}

func inflateAll(rows []postRow) []*Post {
	return slice.Map(rows, inflate)
}

// deflate builds one post_tags payload per distinct tag id. It returns nil for
// an empty list so callers skip the write entirely.
func deflate(postID string, tagIDs []string) []store.Values {
	if len(tagIDs) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(tagIDs))
	rows := make([]store.Values, 0, len(tagIDs))
	for _, id := range tagIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		rows = append(rows, store.Values{
			schema.ContentPostTag.PostID: postID,
			schema.ContentPostTag.TagID:  id,
		})
	}
	return rows
}

// diffTags splits the move from current to next into ids to attach and ids to
// detach.
func diffTags(current, next []string) (attach, detach []string) {
	have := make(map[string]struct{}, len(current))
	for _, id := range current {
		have[id] = struct{}{}
	}
	want := make(map[string]struct{}, len(next))
	for _, id := range next {
		if _, dup := want[id]; dup {
			continue
		}
		want[id] = struct{}{}
		if _, ok := have[id]; !ok {
			attach = append(attach, id)
		}
	}
	for _, id := range current {
		if _, ok := want[id]; !ok {
			detach = append(detach, id)
		}
	}
	return attach, detach
}
