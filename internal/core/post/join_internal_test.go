// Copyright (c) 2026 Comunidad. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package post

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/comunidad/internal/platform/store"
)

func TestInflate_DropsMissingTags(t *testing.T) {
	raw := `{
		"id": "p1", "title": "Hello", "slug": "hello", "status": "draft", "published_at": null,
		"post_tags": [
			{"tag": {"id": "t1", "name": "go", "slug": "go", "color": "#00ADD8"}},
			{"tag": null},
			{}
		]
	}`

	var row postRow
	require.NoError(t, json.Unmarshal([]byte(raw), &row))

	post := inflate(row)
	require.Len(t, post.Tags, 1)
	assert.Equal(t, "go", post.Tags[0].Name)
	assert.Equal(t, []string{"t1"}, post.TagIDs())
	assert.Nil(t, post.PublishedAt)
}

func TestInflate_NoJoinsYieldsEmptySlice(t *testing.T) {
	post := inflate(postRow{Post: Post{ID: "p1"}})
	assert.NotNil(t, post.Tags)
	assert.Empty(t, post.Tags)

	encoded, err := json.Marshal(post)
	require.NoError(t, err)
	assert.Contains(t, string(encoded), `"tags":[]`)
}

func TestDeflate(t *testing.T) {
	assert.Nil(t, deflate("p1", nil))
	assert.Nil(t, deflate("p1", []string{}))

	rows := deflate("p1", []string{"a", "b", "a"})
	assert.Equal(t, []store.Values{
		{"post_id": "p1", "tag_id": "a"},
		{"post_id": "p1", "tag_id": "b"},
	}, rows)
}

func TestDiffTags(t *testing.T) {
	attach, detach := diffTags([]string{"a", "b"}, []string{"b", "c", "c"})
	assert.Equal(t, []string{"c"}, attach)
	assert.Equal(t, []string{"a"}, detach)

	attach, detach = diffTags([]string{"a"}, []string{"a"})
	assert.Empty(t, attach)
	assert.Empty(t, detach)
}

func TestStatus_CanTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		allowed  bool
	}{
		{StatusDraft, StatusDraft, true},
		{StatusDraft, StatusPublished, true},
		{StatusDraft, StatusArchived, true},
		{StatusPublished, StatusArchived, true},
		{StatusPublished, StatusPublished, true},
		{StatusPublished, StatusDraft, false},
		{StatusArchived, StatusPublished, false},
		{StatusArchived, StatusDraft, false},
		{StatusArchived, StatusArchived, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransition(tt.to))
		})
	}
}
