// Copyright (c) 2026 Comunidad. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// ContentTagTable represents the 'tags' table
type ContentTagTable struct {
	Table     string
	ID        string
	Name      string
	Slug      string
	Color     string
	CreatedAt string
}

// ContentTag is the schema definition for tags
var ContentTag = ContentTagTable{
	Table:     "tags",
	ID:        "id",
	Name:      "name",
	Slug:      "slug",
	Color:     "color",
	CreatedAt: "created_at",
}

func (t ContentTagTable) Columns() []string {
	return []string{t.ID, t.Name, t.Slug, t.Color, t.CreatedAt}
}
