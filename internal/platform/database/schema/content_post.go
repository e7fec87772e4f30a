// Copyright (c) 2026 Comunidad. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// ContentPostTable represents the 'posts' table
type ContentPostTable struct {
	Table            string
	ID               string
	Title            string
	Slug             string
	Content          string
	Excerpt          string
	FeaturedImageURL string
	AuthorID         string
	Status           string
	PublishedAt      string
	CreatedAt        string
	UpdatedAt        string
}

// ContentPost is the schema definition for posts
var ContentPost = ContentPostTable{
	Table:            "posts",
	ID:               "id",
	Title:            "title",
	Slug:             "slug",
	Content:          "content",
	Excerpt:          "excerpt",
	FeaturedImageURL: "featured_image_url",
	AuthorID:         "author_id",
	Status:           "status",
	PublishedAt:      "published_at",
	CreatedAt:        "created_at",
	UpdatedAt:        "updated_at",
}

func (t ContentPostTable) Columns() []string {
	return []string{
		t.ID, t.Title, t.Slug, t.Content, t.Excerpt, t.FeaturedImageURL,
		t.AuthorID, t.Status, t.PublishedAt, t.CreatedAt, t.UpdatedAt,
	}
}
