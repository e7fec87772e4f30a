// Copyright (c) 2026 Comunidad. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

import "github.com/taibuivan/comunidad/internal/platform/store"

// MemoryTables mirrors the constraints of data/migrations for the in-process
// store: primary and unique keys, foreign keys with their cascade rules and
// column defaults.
func MemoryTables() []store.TableSpec {
	return []store.TableSpec{
		{
			Name:       UsersProfile.Table,
			Timestamps: true,
			Unique:     [][]string{{UsersProfile.ID}, {UsersProfile.Username}},
			Defaults:   store.Values{UsersProfile.Role: "usuario"},
		},
		{
			Name:        ContentTag.Table,
			GeneratedID: true,
			Timestamps:  true,
			Unique:      [][]string{{ContentTag.ID}, {ContentTag.Slug}},
		},
		{
			Name:        ContentPost.Table,
			GeneratedID: true,
			Timestamps:  true,
			Unique:      [][]string{{ContentPost.ID}, {ContentPost.Slug}},
			ForeignKeys: []store.ForeignKey{
				{Column: ContentPost.AuthorID, References: UsersProfile.Table, ReferencedColumn: UsersProfile.ID},
			},
			Defaults: store.Values{ContentPost.Status: "draft"},
		},
		{
			Name:   ContentPostTag.Table,
			Unique: [][]string{{ContentPostTag.PostID, ContentPostTag.TagID}},
			ForeignKeys: []store.ForeignKey{
				{Column: ContentPostTag.PostID, References: ContentPost.Table, ReferencedColumn: ContentPost.ID, Cascade: true},
				{Column: ContentPostTag.TagID, References: ContentTag.Table, ReferencedColumn: ContentTag.ID, Cascade: true},
			},
		},
		{
			Name:        CommunityEvent.Table,
			GeneratedID: true,
			Unique:      [][]string{{CommunityEvent.ID}},
		},
		{
			Name:        CommunitySponsor.Table,
			GeneratedID: true,
			Unique:      [][]string{{CommunitySponsor.ID}},
		},
		{
			Name:        CommunityParticipation.Table,
			GeneratedID: true,
			Unique:      [][]string{{CommunityParticipation.ID}, {CommunityParticipation.EventID, CommunityParticipation.ProfileID}},
			ForeignKeys: []store.ForeignKey{
				{Column: CommunityParticipation.EventID, References: CommunityEvent.Table, ReferencedColumn: CommunityEvent.ID, Cascade: true},
				{Column: CommunityParticipation.ProfileID, References: UsersProfile.Table, ReferencedColumn: UsersProfile.ID, Cascade: true},
			},
		},
	}
}
