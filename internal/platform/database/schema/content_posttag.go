// Copyright (c) 2026 Comunidad. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// ContentPostTagTable represents the 'post_tags' join table
type ContentPostTagTable struct {
	Table  string
	PostID string
	TagID  string
}

// ContentPostTag is the schema definition for post_tags
var ContentPostTag = ContentPostTagTable{
	Table:  "post_tags",
	PostID: "post_id",
	TagID:  "tag_id",
}

func (t ContentPostTagTable) Columns() []string {
	return []string{t.PostID, t.TagID}
}
